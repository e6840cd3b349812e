// Package handler exposes the grading engine over a small JSON API.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sinavlab/grader/internal/eval"
	"github.com/sinavlab/grader/internal/model"
	"github.com/sinavlab/grader/internal/store"
)

// maxUploadBytes bounds the two uploaded JSON documents.
const maxUploadBytes = 10 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	engine *eval.Engine
}

// New creates a new Handler.
func New(s *store.Store, engine *eval.Engine) *Handler {
	return &Handler{store: s, engine: engine}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Post("/evaluate", h.handleEvaluate)
	r.Get("/reports", h.handleListReports)
	r.Get("/reports/{reportID}", h.handleGetReport)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvaluate grades an uploaded submission against an uploaded answer key
// and returns the report. Expects multipart form fields "ocr_file" (the
// StudentSubmission JSON) and "correct_file" (the AnswerKey JSON).
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	var sub model.StudentSubmission
	if err := decodeUpload(r, "ocr_file", &sub); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var key model.AnswerKey
	if err := decodeUpload(r, "correct_file", &key); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.engine.Grade(r.Context(), sub, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("grade submission: %w", err))
		return
	}

	if h.store != nil {
		_, err := h.store.SaveReport(store.ReportRecord{
			StudentID:      report.StudentID,
			StudentName:    report.StudentName,
			Policy:         string(h.engine.Policy()),
			TotalScore:     report.Summary.TotalScore,
			Correct:        report.Summary.Correct,
			Wrong:          report.Summary.Wrong,
			Blank:          report.Summary.Blank,
			TotalQuestions: report.Summary.TotalQuestions,
			Report:         report,
		})
		if err != nil {
			slog.Error("persist report", "student_id", report.StudentID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleListReports(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("report store not configured"))
		return
	}
	records, err := h.store.ListReports()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []store.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("report store not configured"))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "reportID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid report ID"))
		return
	}
	rec, err := h.store.GetReport(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("report %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// decodeUpload reads one multipart file field into dst. A malformed document
// is fatal for the request: no partial grading happens.
func decodeUpload(r *http.Request, field string, dst any) error {
	file, _, err := r.FormFile(field)
	if err != nil {
		return fmt.Errorf("missing upload %q: %w", field, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	if err := json.NewDecoder(file).Decode(dst); err != nil {
		return fmt.Errorf("parse %q: %w", field, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
