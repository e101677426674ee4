package segment

import (
	"sort"
	"strings"
)

// Split converts detected entries into contiguous chapter spans, one per
// entry. Entries are stable-sorted by page first, so insertion order is
// kept among equal pages. An empty entry list yields an empty span list.
func Split(doc PageReader, entries []TocEntry) []ChapterSpan {
	if len(entries) == 0 {
		return nil
	}

	sorted := make([]TocEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Page < sorted[j].Page })

	spans := make([]ChapterSpan, 0, len(sorted))
	for i, e := range sorted {
		// 1-based ToC page to 0-based page-extraction index.
		start := e.Page - 1
		if start < 0 {
			start = 0
		}
		span := ChapterSpan{Number: e.Number, Title: e.Title, StartPage: start}

		if i+1 < len(sorted) {
			// Stop one page short of the next chapter so its header
			// region does not bleed into this span.
			end := sorted[i+1].Page - 2
			if end < start {
				end = start
			}
			span.EndPage = &end
			span.Content = pageRangeText(doc, start, end)
		} else {
			span.Content = pageRangeText(doc, start, doc.PageCount()-1)
		}

		spans = append(spans, span)
	}
	return spans
}

// pageRangeText concatenates page text from start through end inclusive.
// Indices past the real end of the document contribute nothing.
func pageRangeText(doc PageReader, start, end int) string {
	var sb strings.Builder
	for i := start; i <= end; i++ {
		t := doc.PageText(i)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t)
	}
	return sb.String()
}
