package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/loader"
	"github.com/wonny/dipscan/internal/report"
	"github.com/wonny/dipscan/internal/session"
	"github.com/wonny/dipscan/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SessionObserver is notified when a session is created
type SessionObserver interface {
	SessionCreated()
}

// Options holds handler limits and defaults
type Options struct {
	MaxUploadBytes   int64
	DefaultThreshold float64
}

// AnalysisHandler serves upload and view endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	analyzer *analytics.Analyzer
	store    session.Store
	observer SessionObserver
	validate *validator.Validate
	opts     Options
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler. observer may be nil.
func NewAnalysisHandler(
	analyzer *analytics.Analyzer,
	store session.Store,
	observer SessionObserver,
	opts Options,
	log *logger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		store:    store,
		observer: observer,
		validate: validator.New(),
		opts:     opts,
		logger:   log.WithComponent("api"),
	}
}

// SessionResponse describes a stored analysis
type SessionResponse struct {
	ID        string                  `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	ExpiresAt time.Time               `json:"expires_at"`
	Window    analytics.Window        `json:"window"`
	Files     []contracts.FileReport  `json:"files"`
	Warnings  []contracts.FileWarning `json:"warnings"`
}

// PricesResponse is the filtered dataset
type PricesResponse struct {
	Window  analytics.Window       `json:"window"`
	Columns []string               `json:"columns"`
	Points  []contracts.PricePoint `json:"points"`
}

// SummaryResponse is the per-company statistics table
type SummaryResponse struct {
	Window  analytics.Window          `json:"window"`
	Columns []string                  `json:"columns"`
	Records []contracts.SummaryRecord `json:"records"`
}

// EventsResponse is the DIP / Momentum tables
type EventsResponse struct {
	Window    analytics.Window       `json:"window"`
	Threshold float64                `json:"threshold"`
	Columns   []string               `json:"columns"`
	Declines  []contracts.PricePoint `json:"declines"`
	Rises     []contracts.PricePoint `json:"rises"`
}

// noDataDetails explains why an upload produced nothing
type noDataDetails struct {
	Files    []contracts.FileReport  `json:"files"`
	Warnings []contracts.FileWarning `json:"warnings"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Window:    analytics.Describe(s.Analysis.Dataset),
		Files:     s.Analysis.Files,
		Warnings:  s.Analysis.Warnings,
	}
}

// Create uploads price files and stores the analysis
// POST /api/analyses (multipart, field "files")
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, CodeInvalidUpload,
				fmt.Sprintf("upload exceeds %d bytes", h.opts.MaxUploadBytes))
			return
		}
		respondError(w, http.StatusBadRequest, CodeInvalidUpload, "expected a multipart/form-data body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, CodeNoFiles, `no files in form field "files"`)
		return
	}

	inputs, err := readUploads(headers)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read upload")
		respondError(w, http.StatusBadRequest, CodeInvalidUpload, err.Error())
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), inputs)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	if analysis.Dataset.IsEmpty() {
		respondErrorDetails(w, http.StatusUnprocessableEntity, CodeNoData, analytics.ErrNoData.Error(),
			noDataDetails{Files: analysis.Files, Warnings: analysis.Warnings})
		return
	}

	sess, err := h.store.Create(r.Context(), analysis)
	if err != nil {
		h.logger.WithError(err).Error("Failed to store session")
		respondError(w, http.StatusInternalServerError, CodeInternal, "failed to store analysis")
		return
	}
	if h.observer != nil {
		h.observer.SessionCreated()
	}

	h.logger.WithFields(map[string]interface{}{
		"session":  sess.ID,
		"files":    len(inputs),
		"rows":     analysis.Dataset.Len(),
		"warnings": len(analysis.Warnings),
	}).Info("Analysis session created")

	respondJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func readUploads(headers []*multipart.FileHeader) ([]loader.Input, error) {
	inputs := make([]loader.Input, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		inputs = append(inputs, loader.Input{Name: fh.Filename, Data: data})
	}
	return inputs, nil
}

// Get returns session metadata
// GET /api/analyses/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Delete drops a session
// DELETE /api/analyses/{id}
func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Prices returns the filtered dataset
// GET /api/analyses/{id}/prices?companies=&from=&to=
func (h *AnalysisHandler) Prices(w http.ResponseWriter, r *http.Request) {
	sess, _, filter, ok := h.prepareView(w, r)
	if !ok {
		return
	}

	view, err := sess.Analysis.Select(filter)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PricesResponse{
		Window:  analytics.Describe(view),
		Columns: view.Columns(),
		Points:  view.Points,
	})
}

// Summary returns per-company statistics for the view
// GET /api/analyses/{id}/summary?companies=&from=&to=
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, _, filter, ok := h.prepareView(w, r)
	if !ok {
		return
	}

	view, err := sess.Analysis.Select(filter)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SummaryResponse{
		Window:  analytics.Describe(view),
		Columns: contracts.SummaryColumns,
		Records: analytics.Summarize(view),
	})
}

// Events returns DIP and Momentum rows for the view
// GET /api/analyses/{id}/events?threshold=&companies=&from=&to=
func (h *AnalysisHandler) Events(w http.ResponseWriter, r *http.Request) {
	sess, q, filter, ok := h.prepareView(w, r)
	if !ok {
		return
	}

	view, err := sess.Analysis.Select(filter)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	events, err := analytics.DetectEvents(view, h.threshold(q))
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, EventsResponse{
		Window:    analytics.Describe(view),
		Threshold: events.Threshold,
		Columns:   contracts.EventColumns,
		Declines:  events.Declines,
		Rises:     events.Rises,
	})
}

// Export streams the view as an XLSX workbook
// GET /api/analyses/{id}/export.xlsx?threshold=&companies=&from=&to=
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, q, filter, ok := h.prepareView(w, r)
	if !ok {
		return
	}

	rep, err := sess.Analysis.Report(filter, h.threshold(q))
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="dipscan-%s.xlsx"`, sess.ID))
	if err := report.WriteXLSX(w, rep); err != nil {
		h.logger.WithError(err).Error("Failed to write workbook")
	}
}

func (h *AnalysisHandler) threshold(q ViewQuery) float64 {
	if q.Threshold != nil {
		return *q.Threshold
	}
	return h.opts.DefaultThreshold
}

func (h *AnalysisHandler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return nil, false
	}
	return sess, true
}

// prepareView loads the session and validates the view query
func (h *AnalysisHandler) prepareView(w http.ResponseWriter, r *http.Request) (*session.Session, ViewQuery, analytics.Filter, bool) {
	q, err := parseViewQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return nil, q, analytics.Filter{}, false
	}
	if err := h.validate.Struct(q); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidQuery, formatValidationError(err))
		return nil, q, analytics.Filter{}, false
	}
	filter, err := q.Filter()
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return nil, q, analytics.Filter{}, false
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return nil, q, filter, false
	}
	return sess, q, filter, true
}

// respondAnalysisError maps domain errors to distinct status codes
func (h *AnalysisHandler) respondAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, analytics.ErrNoData):
		respondError(w, http.StatusUnprocessableEntity, CodeNoData, err.Error())
	case errors.Is(err, analytics.ErrEmptySelection):
		respondError(w, http.StatusUnprocessableEntity, CodeEmptySelection, err.Error())
	case errors.Is(err, analytics.ErrInvalidThreshold):
		respondError(w, http.StatusBadRequest, CodeInvalidThreshold, err.Error())
	case r.Context().Err() != nil:
		// client went away; nothing useful to send
		h.logger.WithError(err).Debug("Request cancelled")
	default:
		h.logger.WithError(err).Error("Analysis request failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
