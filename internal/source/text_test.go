package source

import (
	"fmt"
	"strings"
	"testing"
)

func TestTextParser_SinglePage(t *testing.T) {
	input := "First line.\nSecond line.\n\nFourth line."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title() != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title())
	}
	if doc.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.PageCount())
	}
	if !strings.Contains(doc.PageText(0), "Fourth line.") {
		t.Errorf("expected page 0 to contain last line, got %q", doc.PageText(0))
	}
}

func TestTextParser_PaginatesEvery50Lines(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 120; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(sb.String()), "long.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 120 lines at 50 per page: 3 pages.
	if doc.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.PageCount())
	}
	if !strings.Contains(doc.PageText(0), "line 50") {
		t.Errorf("expected page 0 to end at line 50")
	}
	if !strings.Contains(doc.PageText(1), "line 51") {
		t.Errorf("expected page 1 to start at line 51")
	}
	if strings.Contains(doc.PageText(0), "line 51") {
		t.Errorf("page 0 should not contain line 51")
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PageCount() != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", doc.PageCount())
	}
	if doc.FullText() != "" {
		t.Errorf("expected empty full text, got %q", doc.FullText())
	}
}

func TestDocument_PageTextOutOfRange(t *testing.T) {
	doc := NewDocument("t", []string{"page one", "page two"})
	if got := doc.PageText(-1); got != "" {
		t.Errorf("expected empty text for negative index, got %q", got)
	}
	if got := doc.PageText(2); got != "" {
		t.Errorf("expected empty text past end, got %q", got)
	}
	if got := doc.PageText(1); got != "page two" {
		t.Errorf("expected %q, got %q", "page two", got)
	}
}

func TestForFile_Dispatch(t *testing.T) {
	tests := []struct {
		filename string
		ok       bool
	}{
		{"report.pdf", true},
		{"report.docx", true},
		{"report.md", true},
		{"report.markdown", true},
		{"report.html", true},
		{"report.txt", true},
		{"report.exe", false},
		{"report", false},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error for unsupported extension", tt.filename)
		}
		if got := IsSupportedExtension(tt.filename); got != tt.ok {
			t.Errorf("IsSupportedExtension(%q): expected %v, got %v", tt.filename, tt.ok, got)
		}
	}
}
