package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// TocOutcome is the explicit result of looking for a parseable table of
// contents, so fallback decisions are visible to callers instead of being
// signalled through errors.
type TocOutcome int

const (
	// TocParsed: a marker page was found and yielded enough entries.
	TocParsed TocOutcome = iota
	// TocNoMarker: no page in the scan window contains a ToC marker.
	TocNoMarker
	// TocInsufficient: a marker page was found but parsed to too few
	// entries to be trusted.
	TocInsufficient
)

func (o TocOutcome) String() string {
	switch o {
	case TocParsed:
		return "parsed"
	case TocNoMarker:
		return "no_marker"
	case TocInsufficient:
		return "insufficient"
	}
	return "unknown"
}

// The ToC is expected in the front matter; scanning stops after this many
// pages. A marker page with fewer than minTocEntries parsed lines is
// treated as unusable.
const (
	tocScanPages  = 20
	minTocEntries = 3
)

// Marker strings that identify a table-of-contents page. Latin markers are
// matched case-insensitively against the lowercased page text.
var tocMarkers = []string{
	"目錄",
	"目 錄",
	"目次",
	"table of contents",
	"contents",
}

// tocLineRe matches one ToC line: a chapter number with optional
// dot-separated sub-levels, a non-digit-led title, and a trailing page
// number, separated by punctuation or dot-fill/whitespace leaders.
var tocLineRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)[.、．)）]?\s*([^\d\s].*?)[\s.·•…．-]*(\d+)\s*$`)

// FindToc scans the front of the document for a table-of-contents page and
// parses it. Entries are returned only for TocParsed; the other outcomes
// tell Resolve to fall back to the heuristic detector.
func FindToc(doc PageReader) ([]TocEntry, TocOutcome) {
	limit := doc.PageCount()
	if limit > tocScanPages {
		limit = tocScanPages
	}

	tocPage := -1
	for i := 0; i < limit; i++ {
		if containsTocMarker(doc.PageText(i)) {
			tocPage = i
			break
		}
	}
	if tocPage < 0 {
		return nil, TocNoMarker
	}

	entries := parseTocLines(doc.PageText(tocPage))
	if len(entries) < minTocEntries {
		return nil, TocInsufficient
	}
	return entries, TocParsed
}

func containsTocMarker(pageText string) bool {
	lower := strings.ToLower(pageText)
	for _, marker := range tocMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// parseTocLines extracts entries from a ToC page. Lines that do not match
// the pattern are dropped without partial credit.
func parseTocLines(pageText string) []TocEntry {
	var entries []TocEntry
	for _, raw := range strings.Split(pageText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := tocLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[3])
		if err != nil || page < 1 {
			continue
		}
		entries = append(entries, TocEntry{
			Number: m[1],
			Title:  strings.TrimSpace(m[2]),
			Page:   page,
		})
	}
	return entries
}
