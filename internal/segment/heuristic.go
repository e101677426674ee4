package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Page estimate advances by one every 50 lines. This is a fixed,
// document-agnostic heuristic; the numbers it produces are estimates.
const linesPerPage = 50

// Headings are assumed short; longer lines are rejected for every rule.
const maxHeadingRunes = 100

// headingRule is one structural pattern for chapter-like lines. Rules run
// in order and a line may hit more than one rule; the caller accepts the
// resulting superset.
type headingRule struct {
	name string
	re   *regexp.Regexp
	// build turns a regexp match into (number, title). count is the number
	// of entries accumulated so far, for rules that synthesize numbering.
	build func(m []string, count int) (number, title string, ok bool)
}

var headingRules = []headingRule{
	{
		// "1. Overview", "2.3 Water Management". False positives: numbered
		// list items and ToC lines with trailing page numbers.
		name: "numbered",
		re:   regexp.MustCompile(`^(\d+(?:\.\d+)*)[.、．]?\s+(\S.*)$`),
		build: func(m []string, _ int) (string, string, bool) {
			title := strings.TrimSpace(m[2])
			return m[1], title, title != ""
		},
	},
	{
		// "Chapter 3: Safety", "Section 2 - Emissions". Misses chapters
		// whose label word is not Chapter/Section.
		name: "labeled",
		re:   regexp.MustCompile(`(?i)^(?:chapter|section)\s+(\d+)\s*[::.、-]?\s*(.*)$`),
		build: func(m []string, _ int) (string, string, bool) {
			title := strings.TrimSpace(m[2])
			return m[1], title, title != ""
		},
	},
	{
		// "第三章 環境管理", "第2節: 勞工權益". Misses untitled markers like a
		// bare "第三章".
		name: "labeled_cjk",
		re:   regexp.MustCompile(`^第\s*([0-9一二三四五六七八九十百]+)\s*[章節篇]\s*[::.、]?\s*(.*)$`),
		build: func(m []string, _ int) (string, string, bool) {
			title := strings.TrimSpace(m[2])
			return m[1], title, title != ""
		},
	},
	{
		// "GOVERNANCE REPORT": an all-uppercase Latin line treated as an
		// untitled heading; the number is synthesized from the running
		// entry count. False positives: shouted table headers and logos.
		name: "uppercase",
		re:   regexp.MustCompile(`^[A-Z][A-Z0-9 ,&.'-]{3,}$`),
		build: func(m []string, count int) (string, string, bool) {
			return strconv.Itoa(count + 1), strings.TrimSpace(m[0]), true
		},
	},
}

// DetectChapters scans full text for chapter-like lines when no reliable
// ToC exists. Estimated page numbers are monotonically non-decreasing.
// Zero matches yield an empty list, never an error.
func DetectChapters(fullText string) []TocEntry {
	if fullText == "" {
		return nil
	}

	var entries []TocEntry
	for i, raw := range strings.Split(fullText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || utf8.RuneCountInString(line) > maxHeadingRunes {
			continue
		}
		page := i/linesPerPage + 1
		for _, rule := range headingRules {
			m := rule.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			number, title, ok := rule.build(m, len(entries))
			if !ok {
				continue
			}
			entries = append(entries, TocEntry{Number: number, Title: title, Page: page})
		}
	}
	return entries
}
