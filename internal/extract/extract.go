// Package extract pulls typed indicator and goal records out of free
// report text with tiered regex rules. The rules are heuristics, not a
// grammar: each one documents its false-positive/false-negative profile
// where it is defined, and tests target rules individually.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Flat page-size heuristic used to estimate where in a document a match
// sits. Approximate and monotonic within a text, not exact.
const charsPerPage = 2000

// Half the context window kept around each match, in runes.
const contextRadius = 100

// Indicator is one extracted quantitative or coded disclosure item.
// Value and Unit are empty for GRI/SASB-coded matches.
type Indicator struct {
	StandardCode string
	Category     string
	Name         string
	Value        string
	Unit         string
	Page         int
	Context      string
}

// Goal is one extracted forward-looking commitment. TargetYear 0 means
// no year was found.
type Goal struct {
	Category    string
	Title       string
	Description string
	TargetYear  int
	Page        int
	Status      string
}

// StatusInProgress is the fixed initial status for every extracted goal.
// No status inference is performed on the source text.
const StatusInProgress = "進行中"

// pageAt estimates a 0-based page for a byte offset into text, relative
// to the page the text starts on.
func pageAt(startPage int, text string, byteOff int) int {
	return startPage + utf8.RuneCountInString(text[:byteOff])/charsPerPage
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// contextWindow returns the ±contextRadius-rune excerpt around a match
// position, whitespace-collapsed and trimmed.
func contextWindow(text string, byteOff int) string {
	start := byteOff
	for i := 0; i < contextRadius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := byteOff
	for i := 0; i < contextRadius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text[start:end], " "))
}

// runePrefix returns the first n runes of s.
func runePrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
