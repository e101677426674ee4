package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Goal titles are the dedup key: the first 50 runes of the description.
const goalTitleRunes = 50

// Trimmed descriptions outside 10..200 runes (inclusive) are discarded.
const (
	minGoalDescRunes = 10
	maxGoalDescRunes = 200
)

// goalRule is one pattern for commitment statements, applied over the
// full document text. Rules run in order and every match is collected;
// dedup resolves the overlap between them.
type goalRule struct {
	name  string
	re    *regexp.Regexp
	build func(groups []string) (description string, year int)
}

var goalRules = []goalRule{
	{
		// "by 2030, reduce emissions by 50%" / "於2030年前達成碳中和".
		// False positives: past-tense sentences with a leading year
		// ("in 2019, we published...") read as goals.
		name: "year-led",
		re:   regexp.MustCompile(`(?i)(?:\b(?:by|in|before)\b|[於在到])\s*([12][0-9]{3})\s*(?:年底前|年底|年前|年)?\s*[,，、:：]?\s*([^\n.。;；!！?？]{5,100})`),
		build: func(groups []string) (string, int) {
			return groups[2], atoiYear(groups[1])
		},
	},
	{
		// "2030年達成再生能源占比50%": bare year with no preposition.
		// Broadest tier; any 4-digit figure followed by prose matches.
		name: "bare-year",
		re:   regexp.MustCompile(`([12][0-9]{3})\s*(?:年底前|年底|年前|年)?\s*[,，、:：]?\s*([^\n.。;；!！?？]{5,100})`),
		build: func(groups []string) (string, int) {
			return groups[2], atoiYear(groups[1])
		},
	},
	{
		// "Our goal is to reach net zero by 2050" / "目標為全面使用綠電".
		// The year, if any, is sniffed out of the description itself.
		// Misses commitments phrased without a goal label or a year.
		name: "goal-led",
		re:   regexp.MustCompile(`(?i)(?:goal\s+(?:is|as)|goal\s*[:：]|目標是|目標為|目標\s*[:：])\s*([^\n.。;；!！?？]{5,100})`),
		build: func(groups []string) (string, int) {
			return groups[1], sniffYear(groups[1])
		},
	},
}

var yearRe = regexp.MustCompile(`[12][0-9]{3}`)

func atoiYear(s string) int {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return y
}

// sniffYear finds the first 4-digit year inside a description, or 0.
func sniffYear(desc string) int {
	return atoiYear(yearRe.FindString(desc))
}

func validGoalDescription(desc string) bool {
	n := utf8.RuneCountInString(desc)
	return n >= minGoalDescRunes && n <= maxGoalDescRunes
}

// Category ladder for goals, checked in priority order against the
// folded lowercased description.
var goalCategories = []struct {
	label    string
	keywords []string
}{
	{"減碳目標", []string{
		"碳", "排放", "淨零", "氣候", "溫室氣體",
		"carbon", "emission", "net zero", "net-zero", "climate", "ghg",
	}},
	{"能源目標", []string{
		"能源", "電力", "節電", "綠電",
		"energy", "renewable", "electricity", "solar", "wind",
	}},
	{"水資源目標", []string{"水", "water"}},
	{"循環經濟目標", []string{
		"廢棄物", "循環", "回收",
		"waste", "circular", "recycl",
	}},
	{"人才發展目標", []string{
		"人才", "員工", "培訓", "訓練", "多元",
		"talent", "employee", "training", "diversity",
	}},
}

const defaultGoalCategory = "一般永續目標"

func goalCategory(desc string) string {
	folded := strings.ToLower(width.Fold.String(desc))
	for _, bucket := range goalCategories {
		for _, kw := range bucket.keywords {
			if strings.Contains(folded, kw) {
				return bucket.label
			}
		}
	}
	return defaultGoalCategory
}

// Goals applies every goal rule over the full document text and returns
// the deduplicated candidates. Page estimates use the flat page-size
// heuristic over the whole document, not chapter-relative offsets.
func Goals(fullText string) []Goal {
	var all []Goal
	for _, rule := range goalRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(fullText, -1) {
			desc, year := rule.build(matchGroups(fullText, m))
			desc = strings.TrimSpace(desc)
			if !validGoalDescription(desc) {
				continue
			}
			all = append(all, Goal{
				Category:    goalCategory(desc),
				Title:       runePrefix(desc, goalTitleRunes),
				Description: desc,
				TargetYear:  year,
				Page:        pageAt(0, fullText, m[0]),
				Status:      StatusInProgress,
			})
		}
	}
	return dedupGoals(all)
}

// dedupGoals collapses candidates sharing a title key. On collision a
// candidate carrying a target year replaces one without; otherwise the
// first seen wins.
func dedupGoals(in []Goal) []Goal {
	index := make(map[string]int, len(in))
	out := make([]Goal, 0, len(in))
	for _, g := range in {
		key := runePrefix(g.Description, goalTitleRunes)
		if i, ok := index[key]; ok {
			if out[i].TargetYear == 0 && g.TargetYear != 0 {
				out[i] = g
			}
			continue
		}
		index[key] = len(out)
		out = append(out, g)
	}
	return out
}
