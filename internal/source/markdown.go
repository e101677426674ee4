package source

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	// Flatten the AST into lines. Headings get their own line so chapter
	// detection can see them; other blocks contribute their text.
	var lines []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if title != "" {
				if len(lines) > 0 {
					lines = append(lines, "")
				}
				lines = append(lines, title)
			}
		default:
			t := extractText(n, src)
			if t != "" {
				lines = append(lines, strings.Split(t, "\n")...)
				lines = append(lines, "")
			}
		}
	}

	pages := paginateLines(strings.Join(lines, "\n"))
	return NewDocument(titleFromFilename(filename), pages), nil
}

// extractText gets the text content of a goldmark AST node. Block nodes
// without inline children (code blocks) are read from their source lines;
// anything else comes from its inline text so content is not counted twice.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.ChildCount() == 0 && n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
