package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/docextract/docextract"
)

var (
	mimeType   string
	withImages bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a document and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Check whether a document can be extracted",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

var markdownCmd = &cobra.Command{
	Use:   "markdown <file>",
	Short: "Render a document as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkdown,
}

func init() {
	for _, c := range []*cobra.Command{extractCmd, probeCmd, markdownCmd} {
		c.Flags().StringVarP(&mimeType, "mime-type", "m", "", "declared MIME type (default: from extension)")
		rootCmd.AddCommand(c)
	}
	extractCmd.Flags().BoolVar(&withImages, "images", false, "include base64 image data in the output")
}

// readInput reads path, refusing files over the configured input cap
// before loading them.
func readInput(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	limit := int64(fileCfg.MaxInputMB) * 1024 * 1024
	if info.Size() > limit {
		return nil, fmt.Errorf("%s: %w: %d bytes exceeds limit of %d", path, docextract.ErrOversizedInput, info.Size(), limit)
	}
	return os.ReadFile(path)
}

func runExtract(cmd *cobra.Command, args []string) error {
	buf, err := readInput(args[0])
	if err != nil {
		return err
	}
	doc, err := newExtractor().Extract(cmd.Context(), buf, mimeType, args[0])
	if err != nil {
		return describe(err)
	}
	if !withImages {
		for i := range doc.Images {
			doc.Images[i].Data = ""
		}
	}
	return printJSON(doc)
}

func runProbe(cmd *cobra.Command, args []string) error {
	buf, err := readInput(args[0])
	if err != nil {
		return err
	}
	res, err := newExtractor().Probe(cmd.Context(), buf, mimeType, args[0])
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runMarkdown(cmd *cobra.Command, args []string) error {
	buf, err := readInput(args[0])
	if err != nil {
		return err
	}
	md, err := newExtractor().Markdown(cmd.Context(), buf, mimeType, args[0])
	if err != nil {
		return describe(err)
	}
	_, err = fmt.Fprintln(os.Stdout, md)
	return err
}

// describe adds the user-facing hint to an extraction error.
func describe(err error) error {
	return fmt.Errorf("%w\n%s", err, docextract.UserMessage(err))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
