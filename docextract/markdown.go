package docextract

import (
	"context"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// Markdown renders a document as Markdown. Word documents keep their
// headings, lists, tables and emphasis; presentations use the section
// content of Extract. Errors are those of Extract.
func (e *Extractor) Markdown(ctx context.Context, buf []byte, mimeType, filename string) (string, error) {
	format := ResolveFormat(mimeType, filename)
	if format != FormatDocx {
		doc, err := e.Extract(ctx, buf, mimeType, filename)
		if err != nil {
			return "", err
		}
		return doc.Content, nil
	}

	if err := e.checkSize(buf, format); err != nil {
		return "", err
	}
	return withDeadline(ctx, e, format, func(ctx context.Context) (string, error) {
		r, err := e.openContainer(buf, format)
		if err != nil {
			return "", err
		}
		body, err := r.ReadBytes(docxBody)
		if err != nil {
			return "", newError(ErrCorruptArchive, format, err, "")
		}
		markup := e.policy.Sanitize(renderDocx(body, e.logger))
		if err := checkContent(format, stripMarkup(markup)); err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		md, err := e.md.ConvertString(markup)
		if err != nil {
			return "", fmt.Errorf("docextract: markdown: %w", err)
		}
		return md, nil
	})
}
