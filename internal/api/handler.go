// Package api exposes the record query, export, options and ask use cases
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"provisioning-audit/internal/domain"
	"provisioning-audit/internal/service/ask"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ExportFilename is the attachment name of generated INSERT scripts.
const ExportFilename = "provisioning_inserts.sql"

// RecordsService is the subset of records.Service the handlers use.
type RecordsService interface {
	Query(ctx context.Context, p domain.ConnParams, in domain.FilterInput) (*domain.RecordsPage, error)
	Export(ctx context.Context, p domain.ConnParams, in domain.FilterInput) (string, int, error)
	Options(ctx context.Context, p domain.ConnParams, in domain.FilterInput) (*domain.DistinctOptions, error)
}

// AskService is the subset of ask.Service the handlers use.
type AskService interface {
	Ask(ctx context.Context, text string) ask.Result
}

// Handler serves the audit API.
type Handler struct {
	records RecordsService
	ask     AskService
	logger  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(records RecordsService, ask AskService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{records: records, ask: ask, logger: logger.With("component", "api")}
}

// Routes mounts the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/records", h.QueryRecords)
	r.Post("/generate-inserts", h.GenerateInserts)
	r.Post("/options", h.ListOptions)
	r.Post("/ai/ask", h.Ask)
}

// RecordsRequest is the body shared by the records, export and options
// endpoints.
type RecordsRequest struct {
	DB      domain.ConnParams  `json:"db"`
	Filters domain.FilterInput `json:"filters"`
}

// AskRequest is the body of the ask endpoint.
type AskRequest struct {
	Text string `json:"text"`
}

func decode(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// QueryRecords handles POST /records.
func (h *Handler) QueryRecords(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.records.Query(r.Context(), req.DB, req.Filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GenerateInserts handles POST /generate-inserts. The script is returned as
// a downloadable attachment.
func (h *Handler) GenerateInserts(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	script, rows, err := h.records.Export(r.Context(), req.DB, req.Filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/sql; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	w.Header().Set("X-Exported-Rows", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(script))
}

// ListOptions handles POST /options.
func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	opts, err := h.records.Options(r.Context(), req.DB, req.Filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// Ask handles POST /ai/ask. Extraction problems are part of a 200 response.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decode(r, w, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ask.Ask(r.Context(), req.Text))
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
