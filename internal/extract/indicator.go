package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/dgallion1/esgdigest/internal/report"
)

// indicatorRule is one pattern tier for quantitative disclosures. Rules
// run per chapter in the order listed and are not mutually exclusive:
// a line may contribute matches from more than one tier.
type indicatorRule struct {
	name  string
	re    *regexp.Regexp
	build func(groups []string) (Indicator, bool)
}

var indicatorRules = []indicatorRule{
	{
		// "GRI 305-1: 溫室氣體直接排放". False positives: prose references
		// to GRI standards ("per GRI 305 guidance") yield noise labels.
		name: "gri-coded",
		re:   regexp.MustCompile(`(?i)GRI\s*([0-9]+(?:-[0-9]+)?)[\s:：]+([^\n,，。;；:：]{2,60})`),
		build: func(groups []string) (Indicator, bool) {
			label := strings.TrimSpace(groups[2])
			if label == "" {
				return Indicator{}, false
			}
			return Indicator{
				StandardCode: "GRI " + groups[1],
				Category:     label,
				Name:         label,
			}, true
		},
	},
	{
		// "SASB EM-MM-110a.1: 溫室氣體排放". Same profile as gri-coded.
		name: "sasb-coded",
		re:   regexp.MustCompile(`(?i)SASB\s*([A-Za-z0-9.-]+)[\s:：]+([^\n,，。;；:：]{2,60})`),
		build: func(groups []string) (Indicator, bool) {
			label := strings.TrimSpace(groups[2])
			if label == "" {
				return Indicator{}, false
			}
			return Indicator{
				StandardCode: "SASB " + groups[1],
				Category:     label,
				Name:         label,
			}, true
		},
	},
	{
		// "排放總量: 2,500,000 公噸CO2e". The label is whatever precedes
		// the colon, so table rows and footnotes produce spurious names;
		// rejectName suppresses the page-number/footer share of those.
		// Misses values with no unit token after the number.
		name: "generic-numeric",
		re:   regexp.MustCompile(`([^\n:：]{2,30})[:：]\s*([0-9]+(?:[,.][0-9]+)*)\s*([^\s0-9][^\s,，。;；]{0,19})`),
		build: func(groups []string) (Indicator, bool) {
			name := strings.TrimSpace(groups[1])
			if rejectName(name) {
				return Indicator{}, false
			}
			return Indicator{
				StandardCode: "Custom",
				Category:     categoryForName(name),
				Name:         name,
				Value:        groups[2],
				Unit:         groups[3],
			}, true
		},
	},
}

// Tokens that mark a "name" as page/chapter furniture rather than an
// indicator label.
var pageMarkerTokens = []string{"page", "chapter", "頁", "章"}

// rejectName drops generic-numeric labels that are too short to mean
// anything (byte length: kills "Page", "No." while keeping short CJK
// labels) or that carry page/chapter marker tokens.
func rejectName(name string) bool {
	if len(name) <= 5 {
		return true
	}
	folded := strings.ToLower(width.Fold.String(name))
	for _, tok := range pageMarkerTokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return false
}

// Category buckets for ad-hoc numeric indicators, checked in order
// against the folded lowercased name.
var indicatorCategories = []struct {
	label    string
	keywords []string
}{
	{"環境指標", []string{
		"排放", "碳", "溫室氣體", "能源", "用電", "用水", "水", "廢棄物", "回收",
		"污染", "環境",
		"emission", "carbon", "ghg", "energy", "electricity", "water",
		"waste", "recycl", "environment",
	}},
	{"社會指標", []string{
		"員工", "勞工", "工時", "職災", "工傷", "訓練", "培訓", "女性", "社區", "捐",
		"employee", "labor", "labour", "training", "injury", "female",
		"community", "donation",
	}},
	{"治理指標", []string{
		"董事", "股東", "獨立", "稽核", "申訴", "違規", "裁罰",
		"board", "director", "shareholder", "independent", "audit",
		"complaint", "violation",
	}},
}

func categoryForName(name string) string {
	folded := strings.ToLower(width.Fold.String(name))
	for _, bucket := range indicatorCategories {
		for _, kw := range bucket.keywords {
			if strings.Contains(folded, kw) {
				return bucket.label
			}
		}
	}
	return "其他"
}

// Indicators applies every rule tier to every chapter and returns the
// deduplicated candidates for one report. Chapters with blank content
// are skipped; they contribute zero indicators without failing the run.
func Indicators(chapters []report.Chapter) []Indicator {
	var all []Indicator
	for _, ch := range chapters {
		if strings.TrimSpace(ch.Content) == "" {
			continue
		}
		for _, rule := range indicatorRules {
			all = append(all, applyIndicatorRule(rule, ch)...)
		}
	}
	return dedupIndicators(all)
}

func applyIndicatorRule(rule indicatorRule, ch report.Chapter) []Indicator {
	var out []Indicator
	for _, m := range rule.re.FindAllStringSubmatchIndex(ch.Content, -1) {
		ind, ok := rule.build(matchGroups(ch.Content, m))
		if !ok {
			continue
		}
		ind.Page = pageAt(ch.StartPage, ch.Content, m[0])
		ind.Context = contextWindow(ch.Content, m[0])
		out = append(out, ind)
	}
	return out
}

// matchGroups materializes submatch index pairs into strings; absent
// optional groups become "".
func matchGroups(text string, m []int) []string {
	groups := make([]string, 0, len(m)/2)
	for i := 0; i < len(m); i += 2 {
		if m[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[m[i]:m[i+1]])
	}
	return groups
}

// dedupIndicators collapses candidates sharing the (name, value) identity
// key. On collision the candidate providing strictly more information is
// kept: a non-empty value beats a missing one, then a non-empty unit;
// otherwise the first seen wins.
func dedupIndicators(in []Indicator) []Indicator {
	index := make(map[[2]string]int, len(in))
	out := make([]Indicator, 0, len(in))
	for _, ind := range in {
		key := [2]string{ind.Name, ind.Value}
		if i, ok := index[key]; ok {
			if moreComplete(ind, out[i]) {
				out[i] = ind
			}
			continue
		}
		index[key] = len(out)
		out = append(out, ind)
	}
	return out
}

func moreComplete(candidate, kept Indicator) bool {
	if candidate.Value != "" && kept.Value == "" {
		return true
	}
	if candidate.Unit != "" && kept.Unit == "" {
		return true
	}
	return false
}
