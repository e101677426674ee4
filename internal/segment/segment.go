package segment

// TocEntry is one detected chapter heading with a 1-based page number.
type TocEntry struct {
	Number string `json:"number"`
	Title  string `json:"title"`
	Page   int    `json:"page"`
}

// ChapterSpan is a contiguous text span for one chapter. StartPage and
// EndPage are 0-based page-extraction indices.
type ChapterSpan struct {
	Number    string
	Title     string
	StartPage int
	EndPage   *int // nil = runs to document end
	Content   string
}

// PageReader is the read surface segmentation needs from a parsed document.
// Implementations hold pages as an in-memory snapshot; reads cannot fail
// and out-of-range indices return "".
type PageReader interface {
	PageCount() int
	PageText(i int) string
	FullText() string
}

// StructureSource records which detection path produced the entries.
type StructureSource string

const (
	SourceToc       StructureSource = "toc"
	SourceHeuristic StructureSource = "heuristic"
	SourceNone      StructureSource = "none"
)

// Resolution is the outcome of structure detection for one document.
type Resolution struct {
	Entries []TocEntry
	Source  StructureSource
	Outcome TocOutcome
}

// Resolve locates chapter structure: a parsed table of contents when one
// exists, the line-pattern heuristic otherwise. An empty resolution with
// SourceNone means no structure was detected, which is a valid terminal
// outcome, not an error.
func Resolve(doc PageReader) Resolution {
	entries, outcome := FindToc(doc)
	if outcome == TocParsed {
		return Resolution{Entries: entries, Source: SourceToc, Outcome: outcome}
	}

	heur := DetectChapters(doc.FullText())
	if len(heur) == 0 {
		return Resolution{Source: SourceNone, Outcome: outcome}
	}
	return Resolution{Entries: heur, Source: SourceHeuristic, Outcome: outcome}
}
