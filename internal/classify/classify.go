// Package classify assigns chapters to a topical axis (environmental,
// social, governance) by weighted keyword scoring over bilingual lexicons.
package classify

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/width"

	"github.com/dgallion1/esgdigest/internal/report"
)

// Keyword hits in the title weigh more than hits in the body: a chapter
// called "Environmental Management" is environmental even if the body
// mentions governance in passing.
const (
	titleWeight   = 3
	contentWeight = 1
)

type lexicon struct {
	axis report.ChapterType
	// defining is the title-only keyword pair used to break ties, one CJK
	// and one Latin form.
	defining []string
	keywords []string
}

// Lexicons are fixed and bilingual. Matching is substring-based, not
// token-boundary aware: "carbon" inside "carbonate" counts.
var lexicons = []lexicon{
	{
		axis:     report.TypeEnvironmental,
		defining: []string{"環境", "environment"},
		keywords: []string{
			"環境", "碳排", "排放", "減碳", "淨零", "能源", "再生能源", "氣候",
			"水資源", "廢棄物", "污染", "綠色", "生物多樣性", "循環經濟",
			"environment", "carbon", "emission", "decarboni", "net zero",
			"energy", "renewable", "climate", "water", "waste", "pollution",
			"green", "biodiversity", "circular",
		},
	},
	{
		axis:     report.TypeSocial,
		defining: []string{"社會", "social"},
		keywords: []string{
			"社會", "員工", "勞工", "人權", "社區", "職業安全", "健康", "培訓",
			"多元", "共融", "福利", "供應鏈", "客戶",
			"social", "employee", "labor", "labour", "human rights",
			"community", "health", "safety", "training", "diversity",
			"inclusion", "welfare", "supply chain", "customer",
		},
	},
	{
		axis:     report.TypeGovernance,
		defining: []string{"治理", "governance"},
		keywords: []string{
			"治理", "董事會", "股東", "合規", "法遵", "風險管理", "誠信", "倫理",
			"反貪腐", "內部稽核", "資訊安全",
			"governance", "board", "director", "shareholder", "compliance",
			"risk management", "integrity", "ethic", "anti-corruption",
			"audit", "disclosure",
		},
	},
}

// classifier is the immutable matcher built once from the lexicons. The
// Aho-Corasick automaton finds which keywords are present in a single
// pass; occurrence counts come from strings.Count on those keywords only.
type classifier struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	axes     []report.ChapterType // parallel to keywords
}

var engine = buildClassifier()

func buildClassifier() *classifier {
	c := &classifier{}
	for _, lex := range lexicons {
		for _, kw := range lex.keywords {
			c.keywords = append(c.keywords, normalize(kw))
			c.axes = append(c.axes, lex.axis)
		}
	}
	c.matcher = ahocorasick.NewStringMatcher(c.keywords)
	return c
}

// normalize folds full-width forms to half-width and lowercases, so CJK
// and Latin keywords match regardless of the source document's width
// conventions or letter case.
func normalize(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

// Classify returns exactly one axis for a chapter's title and content.
// Deterministic: identical input always yields the same tag. Title
// keyword hits score titleWeight each (set semantics per keyword);
// content hits score contentWeight per occurrence. The axis with the
// strictly highest score wins; otherwise a defining-keyword check on the
// title decides in environmental → social → governance order, and
// General is the final fallback.
func Classify(title, content string) report.ChapterType {
	normTitle := normalize(title)
	normContent := normalize(content)

	scores := map[report.ChapterType]int{}

	// Match is not safe for concurrent use; MatchThreadSafe is.
	for _, hit := range engine.matcher.MatchThreadSafe([]byte(normTitle)) {
		scores[engine.axes[hit]] += titleWeight
	}
	for _, hit := range engine.matcher.MatchThreadSafe([]byte(normContent)) {
		kw := engine.keywords[hit]
		scores[engine.axes[hit]] += contentWeight * strings.Count(normContent, kw)
	}

	if axis, ok := dominantAxis(scores); ok {
		return axis
	}

	for _, lex := range lexicons {
		for _, def := range lex.defining {
			if strings.Contains(normTitle, normalize(def)) {
				return lex.axis
			}
		}
	}
	return report.TypeGeneral
}

// dominantAxis returns the axis with the strictly highest score. A tie
// for the top score, or all-zero scores, yields ok=false.
func dominantAxis(scores map[report.ChapterType]int) (report.ChapterType, bool) {
	var best report.ChapterType
	bestScore := 0
	tied := false
	for _, lex := range lexicons {
		s := scores[lex.axis]
		if s > bestScore {
			best = lex.axis
			bestScore = s
			tied = false
		} else if s == bestScore && s > 0 {
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return report.TypeGeneral, false
	}
	return best, true
}
