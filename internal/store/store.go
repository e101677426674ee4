// Package store persists reports and their derived records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/esgdigest/internal/report"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	company       TEXT NOT NULL,
	filename      TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	content_hash  TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	total_pages   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_company ON reports(company);
CREATE INDEX IF NOT EXISTS idx_reports_content_hash ON reports(content_hash);

CREATE TABLE IF NOT EXISTS chapters (
	id           TEXT PRIMARY KEY,
	report_id    TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	number       TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	start_page   INTEGER NOT NULL DEFAULT 0,
	end_page     INTEGER,
	chapter_type TEXT NOT NULL DEFAULT 'General',
	summary      TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chapters_report ON chapters(report_id);

CREATE TABLE IF NOT EXISTS indicators (
	id            TEXT PRIMARY KEY,
	report_id     TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	standard_code TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	name          TEXT NOT NULL,
	value         TEXT NOT NULL DEFAULT '',
	unit          TEXT NOT NULL DEFAULT '',
	page          INTEGER NOT NULL DEFAULT 0,
	context       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_indicators_report ON indicators(report_id);

CREATE TABLE IF NOT EXISTS goals (
	id          TEXT PRIMARY KEY,
	report_id   TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	category    TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	target_year INTEGER,
	page        INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_report ON goals(report_id);
`

// Store wraps the SQLite database holding all persisted records.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. The pure-Go driver needs no cgo.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// _time_format keeps time.Time columns as parseable text; the
	// pragmas ride the DSN so every pooled connection gets them
	// (foreign_keys and busy_timeout are per-connection state).
	dsn := "file:" + path +
		"?_time_format=sqlite" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(10000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every pool connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateReport inserts a report row, generating the ID and timestamps
// when the caller left them unset.
func (s *Store) CreateReport(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = report.StatusPending
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, company, filename, title, content_hash, status, total_pages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Company, r.Filename, r.Title, r.ContentHash, r.Status, r.TotalPages, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var r report.Report
	err := s.db.GetContext(ctx, &r, `
		SELECT id, company, filename, title, content_hash, status, total_pages, created_at, updated_at
		FROM reports WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	return &r, nil
}

// ReportByHash finds an existing report with the given upload content
// hash, for duplicate detection. An empty hash never matches.
func (s *Store) ReportByHash(ctx context.Context, hash string) (*report.Report, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	var r report.Report
	err := s.db.GetContext(ctx, &r, `
		SELECT id, company, filename, title, content_hash, status, total_pages, created_at, updated_at
		FROM reports WHERE content_hash = ? ORDER BY created_at DESC LIMIT 1`, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report by hash: %w", err)
	}
	return &r, nil
}

// ListReports returns all reports, newest first, optionally filtered by
// company.
func (s *Store) ListReports(ctx context.Context, company string) ([]report.Report, error) {
	out := []report.Report{}
	var err error
	if company != "" {
		err = s.db.SelectContext(ctx, &out, `
			SELECT id, company, filename, title, content_hash, status, total_pages, created_at, updated_at
			FROM reports WHERE company = ? ORDER BY created_at DESC`, company)
	} else {
		err = s.db.SelectContext(ctx, &out, `
			SELECT id, company, filename, title, content_hash, status, total_pages, created_at, updated_at
			FROM reports ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateReportStatus(ctx context.Context, id string, status report.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateReportPages(ctx context.Context, id string, totalPages int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET total_pages = ?, updated_at = ? WHERE id = ?`,
		totalPages, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update report pages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report pages: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReport removes a report; chapters, indicators and goals go with
// it through the cascade.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateChapter(ctx context.Context, c *report.Chapter) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapters (id, report_id, number, title, start_page, end_page, chapter_type, summary, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ReportID, c.Number, c.Title, c.StartPage, c.EndPage, c.Type, c.Summary, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}
	return nil
}

// ChaptersByReport returns a report's chapters in reading order.
func (s *Store) ChaptersByReport(ctx context.Context, reportID string) ([]report.Chapter, error) {
	out := []report.Chapter{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, report_id, number, title, start_page, end_page, chapter_type, summary, content, created_at
		FROM chapters WHERE report_id = ? ORDER BY start_page ASC, created_at ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return out, nil
}

func (s *Store) CreateIndicator(ctx context.Context, ind *report.Indicator) error {
	if ind.ID == "" {
		ind.ID = uuid.NewString()
	}
	if ind.CreatedAt.IsZero() {
		ind.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO indicators (id, report_id, standard_code, category, name, value, unit, page, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ind.ID, ind.ReportID, ind.StandardCode, ind.Category, ind.Name, ind.Value, ind.Unit, ind.Page, ind.Context, ind.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert indicator: %w", err)
	}
	return nil
}

func (s *Store) IndicatorsByReport(ctx context.Context, reportID string) ([]report.Indicator, error) {
	out := []report.Indicator{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, report_id, standard_code, category, name, value, unit, page, context, created_at
		FROM indicators WHERE report_id = ? ORDER BY page ASC, created_at ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	return out, nil
}

func (s *Store) CreateGoal(ctx context.Context, g *report.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, report_id, category, title, description, target_year, page, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ReportID, g.Category, g.Title, g.Description, g.TargetYear, g.Page, g.Status, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *Store) GoalsByReport(ctx context.Context, reportID string) ([]report.Goal, error) {
	out := []report.Goal{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, report_id, category, title, description, target_year, page, status, created_at
		FROM goals WHERE report_id = ? ORDER BY page ASC, created_at ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}
