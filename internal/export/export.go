// Package export renders a finished notes document for delivery.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

// Markdown returns the document as UTF-8 markdown bytes along with a
// filesystem-friendly filename derived from the title.
func Markdown(title, doc string) (string, []byte) {
	return filename(title, "md"), []byte(doc)
}

// HTML converts the markdown document to a standalone HTML fragment.
func HTML(title, doc string) (string, []byte, error) {
	md := goldmark.New()
	var buf bytes.Buffer
	if err := md.Convert([]byte(doc), &buf); err != nil {
		return "", nil, fmt.Errorf("render html: %w", err)
	}
	return filename(title, "html"), buf.Bytes(), nil
}

func filename(title, ext string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "notes"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return name + "." + ext
}
