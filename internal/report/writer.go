package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// LatestName is the alias always holding the most recent report.
const LatestName = "latest.md"

// Writer stores reports under Dir.
type Writer struct {
	Dir string
	md  goldmark.Markdown
}

func NewWriter(dir string) *Writer {
	return &Writer{
		Dir: dir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Write stores markdown as DIR/DATE.md and DIR/latest.md and returns the dated path.
func (w *Writer) Write(date, markdown string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	dated := filepath.Join(w.Dir, date+".md")
	if err := os.WriteFile(dated, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.Dir, LatestName), []byte(markdown), 0o644); err != nil {
		return dated, fmt.Errorf("write latest report: %w", err)
	}
	return dated, nil
}

// WriteHTML converts markdown to a standalone HTML page at DIR/DATE.html.
func (w *Writer) WriteHTML(date, markdown string) (string, error) {
	var body bytes.Buffer
	if err := w.md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	page.WriteString(fmt.Sprintf("<title>Daily AI Stock Insight %s</title>", date))
	page.WriteString("<style>body{font-family:sans-serif;max-width:960px;margin:auto}" +
		"table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>")
	page.WriteString("</head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")

	path := filepath.Join(w.Dir, date+".html")
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, page.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write html report: %w", err)
	}
	return path, nil
}

// Latest returns the contents of the latest report.
func (w *Writer) Latest() (string, error) {
	data, err := os.ReadFile(filepath.Join(w.Dir, LatestName))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
