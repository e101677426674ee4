package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document is an in-memory page-text snapshot of a parsed file.
// Page indices are 0-based; all reads tolerate out-of-range indices.
type Document struct {
	title string
	pages []string
}

func NewDocument(title string, pages []string) *Document {
	return &Document{title: title, pages: pages}
}

func (d *Document) Title() string { return d.title }

func (d *Document) PageCount() int { return len(d.pages) }

// PageText returns the text of page i, or "" past either end.
func (d *Document) PageText(i int) string {
	if i < 0 || i >= len(d.pages) {
		return ""
	}
	return d.pages[i]
}

// FullText joins all pages into a single string.
func (d *Document) FullText() string {
	return strings.Join(d.pages, "\n")
}

// Parser converts raw document bytes into a page-structured Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Formats without native page boundaries are paginated at a fixed line
// count, matching the 50-line page estimate used by chapter detection.
const linesPerPage = 50

func paginateLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	var pages []string
	for start := 0; start < len(lines); start += linesPerPage {
		end := start + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, strings.Join(lines[start:end], "\n"))
	}
	return pages
}

func titleFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
