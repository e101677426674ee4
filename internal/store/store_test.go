package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/esgdigest/internal/report"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "esgdigest.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{
		Company:     "範例企業",
		Filename:    "esg-2025.pdf",
		Title:       "2025 永續報告書",
		ContentHash: "abc123",
	}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected generated report ID")
	}
	if r.Status != report.StatusPending {
		t.Errorf("expected default status pending, got %q", r.Status)
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.Company != "範例企業" || got.Filename != "esg-2025.pdf" {
		t.Errorf("unexpected round trip: %+v", got)
	}
	if got.Title != "2025 永續報告書" {
		t.Errorf("expected title preserved, got %q", got.Title)
	}
	if got.ContentHash != "abc123" {
		t.Errorf("expected content hash preserved, got %q", got.ContentHash)
	}
	if got.Status != report.StatusPending {
		t.Errorf("expected status pending, got %q", got.Status)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("expected timestamps set, got %+v", got)
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetReport(context.Background(), "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReportByHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{Company: "c", Filename: "a.pdf", ContentHash: "deadbeef"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}
	noHash := &report.Report{Company: "c", Filename: "b.pdf"}
	if err := s.CreateReport(ctx, noHash); err != nil {
		t.Fatalf("create report: %v", err)
	}

	got, err := s.ReportByHash(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("report by hash: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("expected report %s, got %s", r.ID, got.ID)
	}

	if _, err := s.ReportByHash(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown hash, got %v", err)
	}
	if _, err := s.ReportByHash(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty hash, got %v", err)
	}
}

func TestListReportsCompanyFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := &report.Report{
		Company:   "acme",
		Filename:  "old.pdf",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	if err := s.CreateReport(ctx, older); err != nil {
		t.Fatalf("create report: %v", err)
	}
	newer := &report.Report{Company: "acme", Filename: "new.pdf"}
	if err := s.CreateReport(ctx, newer); err != nil {
		t.Fatalf("create report: %v", err)
	}
	other := &report.Report{Company: "globex", Filename: "x.pdf"}
	if err := s.CreateReport(ctx, other); err != nil {
		t.Fatalf("create report: %v", err)
	}

	all, err := s.ListReports(ctx, "")
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}

	acme, err := s.ListReports(ctx, "acme")
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(acme) != 2 {
		t.Fatalf("expected 2 acme reports, got %d", len(acme))
	}
	if acme[0].ID != newer.ID {
		t.Errorf("expected newest report first, got %s", acme[0].Filename)
	}

	none, err := s.ListReports(ctx, "initech")
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected empty list, got %d", len(none))
	}
}

func TestUpdateReportStatusAndPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{Company: "c", Filename: "a.pdf"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}

	if err := s.UpdateReportStatus(ctx, r.ID, report.StatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := s.UpdateReportPages(ctx, r.ID, 55); err != nil {
		t.Fatalf("update pages: %v", err)
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.Status != report.StatusCompleted {
		t.Errorf("expected status completed, got %q", got.Status)
	}
	if got.TotalPages != 55 {
		t.Errorf("expected 55 pages, got %d", got.TotalPages)
	}

	if err := s.UpdateReportStatus(ctx, "missing", report.StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateReportPages(ctx, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChapterOrderingAndEndPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{Company: "c", Filename: "a.pdf"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}

	end := 9
	late := &report.Chapter{
		ReportID: r.ID, Number: "2", Title: "社會共融",
		StartPage: 10, Type: report.TypeSocial, Summary: "s", Content: "c2",
	}
	early := &report.Chapter{
		ReportID: r.ID, Number: "1", Title: "環境永續",
		StartPage: 0, EndPage: &end, Type: report.TypeEnvironmental, Summary: "s", Content: "c1",
	}
	if err := s.CreateChapter(ctx, late); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if err := s.CreateChapter(ctx, early); err != nil {
		t.Fatalf("create chapter: %v", err)
	}

	got, err := s.ChaptersByReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("chapters by report: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(got))
	}
	if got[0].Title != "環境永續" {
		t.Errorf("expected start_page ordering, got %q first", got[0].Title)
	}
	if got[0].EndPage == nil || *got[0].EndPage != 9 {
		t.Errorf("expected end page 9, got %v", got[0].EndPage)
	}
	if got[1].EndPage != nil {
		t.Errorf("expected open-ended final chapter, got %v", *got[1].EndPage)
	}
	if got[0].Type != report.TypeEnvironmental {
		t.Errorf("expected type E, got %q", got[0].Type)
	}
}

func TestIndicatorRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{Company: "c", Filename: "a.pdf"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}

	coded := &report.Indicator{
		ReportID: r.ID, StandardCode: "GRI 305-1",
		Category: "溫室氣體直接排放", Name: "溫室氣體直接排放", Page: 12, Context: "GRI 305-1 溫室氣體直接排放",
	}
	numeric := &report.Indicator{
		ReportID: r.ID, StandardCode: "Custom", Category: "環境指標",
		Name: "排放總量", Value: "2,500,000", Unit: "公噸CO2e", Page: 30, Context: "排放總量: 2,500,000 公噸CO2e",
	}
	if err := s.CreateIndicator(ctx, coded); err != nil {
		t.Fatalf("create indicator: %v", err)
	}
	if err := s.CreateIndicator(ctx, numeric); err != nil {
		t.Fatalf("create indicator: %v", err)
	}

	got, err := s.IndicatorsByReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("indicators by report: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(got))
	}
	if got[0].Page != 12 || got[1].Page != 30 {
		t.Errorf("expected page ordering, got %d then %d", got[0].Page, got[1].Page)
	}
	if got[0].Value != "" || got[0].Unit != "" {
		t.Errorf("expected empty value/unit for coded indicator, got %+v", got[0])
	}
	if got[1].Value != "2,500,000" || got[1].Unit != "公噸CO2e" {
		t.Errorf("unexpected numeric round trip: %+v", got[1])
	}
}

func TestGoalRoundTripNullableYear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{Company: "c", Filename: "a.pdf"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}

	year := 2030
	dated := &report.Goal{
		ReportID: r.ID, Category: "減碳目標", Title: "reduce emissions by 50%",
		Description: "reduce emissions by 50%", TargetYear: &year, Page: 3, Status: "進行中",
	}
	undated := &report.Goal{
		ReportID: r.ID, Category: "一般永續目標", Title: "全面推動綠色採購與供應商管理",
		Description: "全面推動綠色採購與供應商管理", Page: 8, Status: "進行中",
	}
	if err := s.CreateGoal(ctx, dated); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := s.CreateGoal(ctx, undated); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	got, err := s.GoalsByReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("goals by report: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(got))
	}
	if got[0].TargetYear == nil || *got[0].TargetYear != 2030 {
		t.Errorf("expected target year 2030, got %v", got[0].TargetYear)
	}
	if got[1].TargetYear != nil {
		t.Errorf("expected nil target year, got %d", *got[1].TargetYear)
	}
	if got[0].Status != "進行中" {
		t.Errorf("expected status preserved, got %q", got[0].Status)
	}
}

func TestDeleteReportCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &report.Report{Company: "c", Filename: "a.pdf"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}
	ch := &report.Chapter{ReportID: r.ID, Title: "t", StartPage: 0, Type: report.TypeGeneral}
	if err := s.CreateChapter(ctx, ch); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	ind := &report.Indicator{ReportID: r.ID, StandardCode: "Custom", Name: "用電量", Value: "1", Unit: "度"}
	if err := s.CreateIndicator(ctx, ind); err != nil {
		t.Fatalf("create indicator: %v", err)
	}
	g := &report.Goal{ReportID: r.ID, Title: "title", Description: "description text", Status: "進行中"}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if err := s.DeleteReport(ctx, r.ID); err != nil {
		t.Fatalf("delete report: %v", err)
	}
	if _, err := s.GetReport(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	chs, err := s.ChaptersByReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("chapters by report: %v", err)
	}
	inds, err := s.IndicatorsByReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("indicators by report: %v", err)
	}
	goals, err := s.GoalsByReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("goals by report: %v", err)
	}
	if len(chs) != 0 || len(inds) != 0 || len(goals) != 0 {
		t.Errorf("expected cascade delete, got %d chapters %d indicators %d goals",
			len(chs), len(inds), len(goals))
	}

	if err := s.DeleteReport(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}
