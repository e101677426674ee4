package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a report analysis job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusReading    JobStatus = "reading"
	StatusSegmenting JobStatus = "segmenting"
	StatusChapters   JobStatus = "chapters"
	StatusIndicators JobStatus = "indicators"
	StatusGoals      JobStatus = "goals"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single report analysis run.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	ReportID string `json:"report_id"`
	Company  string `json:"company"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// NewJob builds a queued job carrying the uploaded file bytes. The
// content hash is fixed here, before any parsing, so duplicate checks
// see the same value the report row was created with.
func NewJob(reportID, company, filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		ReportID:    reportID,
		Company:     company,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// Progress tracks processing progress.
type Progress struct {
	TotalChapters     int      `json:"total_chapters"`
	ChaptersProcessed int      `json:"chapters_processed"`
	Indicators        int      `json:"indicators"`
	Goals             int      `json:"goals"`
	StructureSource   string   `json:"structure_source,omitempty"`
	Errors            []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrChaptersProcessed atomically increments chapters processed.
func (j *Job) IncrChaptersProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersProcessed++
	j.UpdatedAt = time.Now()
}

// SetTotalChapters records the chapter count produced by splitting.
func (j *Job) SetTotalChapters(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChapters = n
	j.UpdatedAt = time.Now()
}

// SetStructureSource records how the chapter structure was found.
func (j *Job) SetStructureSource(source string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.StructureSource = source
	j.UpdatedAt = time.Now()
}

// SetIndicatorCount records the number of indicators persisted.
func (j *Job) SetIndicatorCount(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Indicators = n
	j.UpdatedAt = time.Now()
}

// SetGoalCount records the number of goals persisted.
func (j *Job) SetGoalCount(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Goals = n
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	ReportID string    `json:"report_id"`
	Company  string    `json:"company"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		ReportID: j.ReportID,
		Company:  j.Company,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			TotalChapters:     j.Progress.TotalChapters,
			ChaptersProcessed: j.Progress.ChaptersProcessed,
			Indicators:        j.Progress.Indicators,
			Goals:             j.Progress.Goals,
			StructureSource:   j.Progress.StructureSource,
			Errors:            errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
