package report

import "time"

// Status is the externally visible lifecycle of a report run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ChapterType is the topical axis assigned to a chapter.
type ChapterType string

const (
	TypeEnvironmental ChapterType = "E"
	TypeSocial        ChapterType = "S"
	TypeGovernance    ChapterType = "G"
	TypeGeneral       ChapterType = "General"
)

// Report is one ingested sustainability report.
type Report struct {
	ID          string    `db:"id" json:"id"`
	Company     string    `db:"company" json:"company"`
	Filename    string    `db:"filename" json:"filename"`
	Title       string    `db:"title" json:"title"`
	ContentHash string    `db:"content_hash" json:"content_hash,omitempty"`
	Status      Status    `db:"status" json:"status"`
	TotalPages  int       `db:"total_pages" json:"total_pages"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Chapter is a persisted chapter span. Written once per run, never mutated.
type Chapter struct {
	ID        string      `db:"id" json:"id"`
	ReportID  string      `db:"report_id" json:"report_id"`
	Number    string      `db:"number" json:"number"`
	Title     string      `db:"title" json:"title"`
	StartPage int         `db:"start_page" json:"start_page"`
	EndPage   *int        `db:"end_page" json:"end_page"` // nil = runs to document end
	Type      ChapterType `db:"chapter_type" json:"chapter_type"`
	Summary   string      `db:"summary" json:"summary"`
	Content   string      `db:"content" json:"content,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Indicator is a persisted quantitative or coded disclosure item.
// Value and Unit are empty for GRI/SASB-coded matches.
type Indicator struct {
	ID           string    `db:"id" json:"id"`
	ReportID     string    `db:"report_id" json:"report_id"`
	StandardCode string    `db:"standard_code" json:"standard_code"`
	Category     string    `db:"category" json:"category"`
	Name         string    `db:"name" json:"name"`
	Value        string    `db:"value" json:"value,omitempty"`
	Unit         string    `db:"unit" json:"unit,omitempty"`
	Page         int       `db:"page" json:"page"`
	Context      string    `db:"context" json:"context"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Goal is a persisted forward-looking commitment.
type Goal struct {
	ID          string    `db:"id" json:"id"`
	ReportID    string    `db:"report_id" json:"report_id"`
	Category    string    `db:"category" json:"category"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	TargetYear  *int      `db:"target_year" json:"target_year"` // nil when no year found
	Page        int       `db:"page" json:"page"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
