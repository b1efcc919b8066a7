package docextract

import (
	"bytes"

	"github.com/richardlehane/mscfb"
)

// Password-protected OOXML files are not ZIP archives: Office wraps the
// encrypted package in an OLE2 compound file.
var cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func isCompoundFile(buf []byte) bool {
	return bytes.HasPrefix(buf, cfbMagic)
}

// encryptedPackage reports whether buf is a compound file holding an
// encrypted OOXML package.
func encryptedPackage(buf []byte) bool {
	if !isCompoundFile(buf) {
		return false
	}
	cf, err := mscfb.New(bytes.NewReader(buf))
	if err != nil {
		return false
	}
	for ent, err := cf.Next(); err == nil; ent, err = cf.Next() {
		switch ent.Name {
		case "EncryptedPackage", "EncryptionInfo":
			return true
		}
	}
	return false
}
