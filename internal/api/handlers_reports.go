package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/esgdigest/internal/pipeline"
	"github.com/dgallion1/esgdigest/internal/report"
	"github.com/dgallion1/esgdigest/internal/source"
	"github.com/dgallion1/esgdigest/internal/store"
)

// handleUploadReport accepts a multipart report upload, creates the
// durable report row and queues the analysis job. Re-uploads of the
// same file bytes are rejected with 409 unless force=true.
func (s *Server) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	company := strings.TrimSpace(r.FormValue("company"))
	if company == "" {
		jsonError(w, "company is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !source.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	force := r.FormValue("force") == "true"

	hash := pipeline.ContentHashHex(data)
	if !force {
		existing, err := s.store.ReportByHash(r.Context(), hash)
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{
				"error":     "identical report already ingested",
				"report_id": existing.ID,
				"status":    existing.Status,
			})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			jsonError(w, "duplicate check failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	rep := &report.Report{
		Company:     company,
		Filename:    filename,
		Title:       title,
		ContentHash: hash,
	}
	if err := s.store.CreateReport(r.Context(), rep); err != nil {
		jsonError(w, "create report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	job := pipeline.NewJob(rep.ID, company, filename, title, data)
	if err := s.orchestrator.Submit(job); err != nil {
		// The row was already created; don't leave it looking in-flight.
		if uerr := s.store.UpdateReportStatus(r.Context(), rep.ID, report.StatusFailed); uerr != nil {
			s.log.Error("mark report failed after queue rejection", "report_id", rep.ID, "error", uerr)
		}
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	// A worker may already be mutating the job; read through the
	// snapshot rather than the raw fields.
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"report_id": rep.ID,
		"job_id":    snap.ID,
		"status":    snap.Status,
		"poll_url":  fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

// handleListReports lists reports, optionally filtered by company.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	reports, err := s.store.ListReports(r.Context(), company)
	if err != nil {
		jsonError(w, "list reports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"reports": reports})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	rep, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "report not found", http.StatusNotFound)
		} else {
			jsonError(w, "load report: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

// handleDeleteReport removes a report and, via foreign keys, all its
// chapters, indicators and goals.
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	if err := s.store.DeleteReport(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "report not found", http.StatusNotFound)
		} else {
			jsonError(w, "delete report: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": true, "report_id": id})
}

func (s *Server) handleReportChapters(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	if !s.reportExists(w, r, id) {
		return
	}
	chapters, err := s.store.ChaptersByReport(r.Context(), id)
	if err != nil {
		jsonError(w, "list chapters: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"chapters": chapters})
}

func (s *Server) handleReportIndicators(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	if !s.reportExists(w, r, id) {
		return
	}
	indicators, err := s.store.IndicatorsByReport(r.Context(), id)
	if err != nil {
		jsonError(w, "list indicators: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"indicators": indicators})
}

func (s *Server) handleReportGoals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	if !s.reportExists(w, r, id) {
		return
	}
	goals, err := s.store.GoalsByReport(r.Context(), id)
	if err != nil {
		jsonError(w, "list goals: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"goals": goals})
}

// reportExists writes the error response and returns false when the
// report cannot be loaded.
func (s *Server) reportExists(w http.ResponseWriter, r *http.Request, id string) bool {
	_, err := s.store.GetReport(r.Context(), id)
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "report not found", http.StatusNotFound)
	} else {
		jsonError(w, "load report: "+err.Error(), http.StatusInternalServerError)
	}
	return false
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
