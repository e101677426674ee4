package classify

import (
	"testing"

	"github.com/dgallion1/esgdigest/internal/report"
)

func TestClassify_TitleKeywordWins(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    report.ChapterType
	}{
		{"cjk environmental", "環境管理方針", "本章說明公司政策。", report.TypeEnvironmental},
		{"latin social", "Employee Health and Safety", "This year we expanded programs.", report.TypeSocial},
		{"latin governance", "Board Governance", "The structure is described below.", report.TypeGovernance},
		{"cjk governance", "公司治理架構", "董事會設有三個委員會。", report.TypeGovernance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.title, tt.content)
			if got != tt.want {
				t.Errorf("Classify(%q, ...): expected %q, got %q", tt.title, tt.want, got)
			}
		})
	}
}

func TestClassify_ContentOccurrencesAccumulate(t *testing.T) {
	// Neutral title; three carbon mentions outweigh one governance mention.
	got := Classify("Chapter Five", "carbon capture, carbon offsets, carbon pricing, governance")
	if got != report.TypeEnvironmental {
		t.Errorf("expected %q, got %q", report.TypeEnvironmental, got)
	}
}

func TestClassify_SubstringNotTokenAware(t *testing.T) {
	// "carbon" inside "carbonate" counts; matching is substring-based.
	got := Classify("Mineral Notes", "carbonate deposits were surveyed")
	if got != report.TypeEnvironmental {
		t.Errorf("expected %q, got %q", report.TypeEnvironmental, got)
	}
}

func TestClassify_TieFallsBackToGeneral(t *testing.T) {
	// One environmental and one governance occurrence, neutral title:
	// no axis strictly dominates and no defining keyword in the title.
	got := Classify("Annual Overview", "carbon and governance")
	if got != report.TypeGeneral {
		t.Errorf("expected %q, got %q", report.TypeGeneral, got)
	}
}

func TestClassify_TieBreakPrefersEnvironmentalDefining(t *testing.T) {
	// Title hits both axes with equal weight; the defining-keyword ladder
	// checks environmental first.
	got := Classify("環境與社會專章", "")
	if got != report.TypeEnvironmental {
		t.Errorf("expected %q, got %q", report.TypeEnvironmental, got)
	}
}

func TestClassify_NoKeywordsIsGeneral(t *testing.T) {
	got := Classify("Introduction", "This chapter describes the reporting period and scope.")
	if got != report.TypeGeneral {
		t.Errorf("expected %q, got %q", report.TypeGeneral, got)
	}
}

func TestClassify_FullWidthLatinFolds(t *testing.T) {
	got := Classify("ＧＯＶＥＲＮＡＮＣＥ", "")
	if got != report.TypeGovernance {
		t.Errorf("expected %q for full-width title, got %q", report.TypeGovernance, got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	title := "水資源與能源管理"
	content := "我們持續降低排放並提升再生能源使用比例。員工參與節水計畫。"
	first := Classify(title, content)
	for i := 0; i < 20; i++ {
		if got := Classify(title, content); got != first {
			t.Fatalf("run %d: expected stable result %q, got %q", i, first, got)
		}
	}
}
