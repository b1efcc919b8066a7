package docextract

import (
	"context"
	"encoding/base64"
	"log/slog"
	"path"
	"strings"

	"github.com/hazyhaar/docextract/docextract/internal/archive"
	"github.com/hazyhaar/docextract/docextract/internal/ooxml"
)

// imageTypes maps allowed media extensions to their MIME type. An empty
// value falls back to defaultImageMIME.
var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "",
	".jfif": "",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
}

const defaultImageMIME = "image/jpeg"

// mediaRef is where a media entry is used: the page it first appears on and
// the alt text of that occurrence.
type mediaRef struct {
	Page int
	Alt  string
}

// imageMIME returns the MIME type for name and whether the extension is
// allowed at all.
func imageMIME(name string) (string, bool) {
	mt, ok := imageTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return "", false
	}
	if mt == "" {
		mt = defaultImageMIME
	}
	return mt, true
}

// collectRefs records the pictures of one part (slide or body) under page,
// keeping the first occurrence of each media entry.
func collectRefs(refs map[string]mediaRef, r *archive.Reader, part, markup string, page int) {
	pics := ooxml.Pictures(markup)
	if len(pics) == 0 {
		return
	}
	relsXML, err := r.ReadString(ooxml.RelsPath(part))
	if err != nil {
		return
	}
	rels := ooxml.Relationships(relsXML)
	for _, pic := range pics {
		rel, ok := rels[pic.RelID]
		if !ok {
			continue
		}
		target := ooxml.ResolveTarget(part, rel.Target)
		if _, seen := refs[target]; seen {
			continue
		}
		refs[target] = mediaRef{Page: page, Alt: pic.Alt}
	}
}

// extractImages returns up to MaxImages allowed entries of the media folder
// in name order, base64-encoded. Unreadable entries are skipped.
func extractImages(ctx context.Context, r *archive.Reader, folder string, refs map[string]mediaRef, log *slog.Logger) []ExtractedImage {
	var images []ExtractedImage
	for _, name := range r.Ordered(folder, "") {
		if len(images) >= MaxImages || ctx.Err() != nil {
			break
		}
		mt, ok := imageMIME(name)
		if !ok {
			continue
		}
		data, err := r.ReadBytes(name)
		if err != nil {
			log.Warn("docextract: image skipped", "entry", name, "error", err)
			continue
		}
		img := ExtractedImage{
			Data:     base64.StdEncoding.EncodeToString(data),
			MimeType: mt,
			Filename: path.Base(name),
		}
		if ref, ok := refs[name]; ok {
			img.PageNumber = ref.Page
			img.Alt = ref.Alt
		}
		images = append(images, img)
	}
	return images
}
