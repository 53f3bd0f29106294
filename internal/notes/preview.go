package notes

import (
	"bytes"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	md     = goldmark.New()
	policy = bluemonday.UGCPolicy()
)

// PreviewHTML renders note markdown to sanitized HTML.
func PreviewHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// PreviewTerminal renders note markdown for a terminal of the given width.
func PreviewTerminal(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(content)
}
