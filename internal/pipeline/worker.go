package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/esgdigest/internal/classify"
	"github.com/dgallion1/esgdigest/internal/extract"
	"github.com/dgallion1/esgdigest/internal/report"
	"github.com/dgallion1/esgdigest/internal/segment"
	"github.com/dgallion1/esgdigest/internal/source"
	"github.com/dgallion1/esgdigest/internal/store"
	"github.com/dgallion1/esgdigest/internal/summarize"
)

// summaryFallbackRunes is the excerpt length used as a chapter summary
// when no LLM summary is available.
const summaryFallbackRunes = 100

// Store is the slice of the persistence layer the worker writes through.
type Store interface {
	GetReport(ctx context.Context, id string) (*report.Report, error)
	UpdateReportStatus(ctx context.Context, id string, status report.Status) error
	UpdateReportPages(ctx context.Context, id string, totalPages int) error
	CreateChapter(ctx context.Context, c *report.Chapter) error
	ChaptersByReport(ctx context.Context, reportID string) ([]report.Chapter, error)
	CreateIndicator(ctx context.Context, ind *report.Indicator) error
	CreateGoal(ctx context.Context, g *report.Goal) error
}

// Summarizer produces chapter summaries. A disabled client reports
// Enabled() == false and the worker substitutes a content excerpt.
type Summarizer interface {
	Summarize(ctx context.Context, text, targetLanguage string, maxChars int) (string, error)
	Enabled() bool
}

// Worker processes a single report analysis job.
type Worker struct {
	store Store
	llm   Summarizer
	log   *slog.Logger

	summaryLanguage string
	summaryMaxChars int
	pdfFallback     bool
}

func NewWorker(st Store, llm Summarizer, log *slog.Logger, summaryLanguage string, summaryMaxChars int, pdfFallback bool) *Worker {
	return &Worker{
		store:           st,
		llm:             llm,
		log:             log,
		summaryLanguage: summaryLanguage,
		summaryMaxChars: summaryMaxChars,
		pdfFallback:     pdfFallback,
	}
}

// Process runs the full analysis pipeline for a job. The report row's
// status mirrors the job: processing while the run is underway, then
// completed or failed. Every early return after the processing mark
// goes through fail so the row is never left in processing.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "report_id", job.ReportID, "filename", job.Filename)

	if _, err := w.store.GetReport(ctx, job.ReportID); err != nil {
		// No row means nothing to mark failed; other lookup errors get
		// the corrective write attempt anyway.
		if errors.Is(err, store.ErrNotFound) {
			log.Error("report row missing", "error", err)
			job.AddError(fmt.Sprintf("report: %s", err))
			job.SetStatus(StatusFailed, "report")
			return
		}
		w.fail(job, log, "report", err)
		return
	}
	if err := w.store.UpdateReportStatus(ctx, job.ReportID, report.StatusProcessing); err != nil {
		w.fail(job, log, "report", fmt.Errorf("mark processing: %w", err))
		return
	}

	// Phase 1: Read
	job.SetStatus(StatusReading, "reading")
	p, err := source.ForFile(job.Filename)
	if err != nil {
		w.fail(job, log, "reading", err)
		return
	}
	if pp, ok := p.(*source.PDFParser); ok {
		pp.FallbackPdftotext = w.pdfFallback
	}
	doc, err := p.Parse(bytes.NewReader(job.fileData), job.Filename)
	if err != nil {
		w.fail(job, log, "reading", fmt.Errorf("parse: %w", err))
		return
	}
	if err := w.store.UpdateReportPages(ctx, job.ReportID, doc.PageCount()); err != nil {
		w.fail(job, log, "reading", fmt.Errorf("record pages: %w", err))
		return
	}
	log.Info("document read", "pages", doc.PageCount())

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	res := segment.Resolve(doc)
	job.SetStructureSource(string(res.Source))
	spans := segment.Split(doc, res.Entries)
	job.SetTotalChapters(len(spans))
	log.Info("structure resolved", "source", res.Source, "outcome", res.Outcome, "chapters", len(spans))

	// Phase 3: Chapters
	job.SetStatus(StatusChapters, "chapters")
	for i, span := range spans {
		ch := &report.Chapter{
			ReportID:  job.ReportID,
			Number:    span.Number,
			Title:     span.Title,
			StartPage: span.StartPage,
			EndPage:   span.EndPage,
			Type:      classify.Classify(span.Title, span.Content),
			Summary:   w.summarizeChapter(ctx, log, i, span),
			Content:   span.Content,
		}
		if err := w.store.CreateChapter(ctx, ch); err != nil {
			w.fail(job, log, "chapters", fmt.Errorf("chapter %d: %w", i, err))
			return
		}
		job.IncrChaptersProcessed()
	}

	// Phase 4: Indicators. Extraction reads the persisted chapters so
	// indicator pages line up with stored chapter spans.
	job.SetStatus(StatusIndicators, "indicators")
	chapters, err := w.store.ChaptersByReport(ctx, job.ReportID)
	if err != nil {
		w.fail(job, log, "indicators", fmt.Errorf("load chapters: %w", err))
		return
	}
	indicators := extract.Indicators(chapters)
	for _, ind := range indicators {
		rec := indicatorRecord(job.ReportID, ind)
		if err := w.store.CreateIndicator(ctx, rec); err != nil {
			w.fail(job, log, "indicators", fmt.Errorf("indicator %q: %w", rec.Name, err))
			return
		}
	}
	job.SetIndicatorCount(len(indicators))

	// Phase 5: Goals run over the full document text, not per chapter:
	// commitments often sit in front matter outside any chapter span.
	job.SetStatus(StatusGoals, "goals")
	goals := extract.Goals(doc.FullText())
	for _, g := range goals {
		rec := goalRecord(job.ReportID, g)
		if err := w.store.CreateGoal(ctx, rec); err != nil {
			w.fail(job, log, "goals", fmt.Errorf("goal %q: %w", rec.Title, err))
			return
		}
	}
	job.SetGoalCount(len(goals))

	if err := w.store.UpdateReportStatus(ctx, job.ReportID, report.StatusCompleted); err != nil {
		w.fail(job, log, "completing", err)
		return
	}
	job.SetStatus(StatusCompleted, "done")

	snap := job.Snapshot()
	log.Info("report processed",
		"chapters", snap.Progress.ChaptersProcessed,
		"indicators", snap.Progress.Indicators,
		"goals", snap.Progress.Goals,
		"structure", snap.Progress.StructureSource)
}

// fail marks both sides of the status contract: the durable report row
// and the in-memory job. The row update runs on a fresh context so a
// canceled pipeline cannot strand the report in processing.
func (w *Worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	log.Error("processing failed", "phase", phase, "error", err)
	wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := w.store.UpdateReportStatus(wctx, job.ReportID, report.StatusFailed); serr != nil {
		log.Error("failed-status write failed", "error", serr)
	}
	job.AddError(fmt.Sprintf("%s: %s", phase, err))
	job.SetStatus(StatusFailed, phase)
}

// summarizeChapter produces the chapter summary, falling back to a
// content excerpt when the client is disabled or gives up.
func (w *Worker) summarizeChapter(ctx context.Context, log *slog.Logger, idx int, span segment.ChapterSpan) string {
	if w.llm == nil || !w.llm.Enabled() {
		return summarize.Truncate(span.Content, summaryFallbackRunes)
	}
	var lastErr error
	for attempt := range MaxRetries {
		text, err := w.llm.Summarize(ctx, span.Content, w.summaryLanguage, w.summaryMaxChars)
		if err == nil {
			return text
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
		log.Warn("retryable summary error", "chapter", idx, "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return summarize.Truncate(span.Content, summaryFallbackRunes)
		}
	}
	log.Warn("summary fallback to excerpt", "chapter", idx, "error", lastErr)
	return summarize.Truncate(span.Content, summaryFallbackRunes)
}

func indicatorRecord(reportID string, ind extract.Indicator) *report.Indicator {
	return &report.Indicator{
		ReportID:     reportID,
		StandardCode: ind.StandardCode,
		Category:     ind.Category,
		Name:         ind.Name,
		Value:        ind.Value,
		Unit:         ind.Unit,
		Page:         ind.Page,
		Context:      ind.Context,
	}
}

func goalRecord(reportID string, g extract.Goal) *report.Goal {
	rec := &report.Goal{
		ReportID:    reportID,
		Category:    g.Category,
		Title:       g.Title,
		Description: g.Description,
		Page:        g.Page,
		Status:      g.Status,
	}
	if g.TargetYear != 0 {
		year := g.TargetYear
		rec.TargetYear = &year
	}
	return rec
}
