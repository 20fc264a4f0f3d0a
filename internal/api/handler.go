package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/backup"
	"github.com/mtlprog/poolshare/internal/domain"
	"github.com/mtlprog/poolshare/internal/fund"
	"github.com/mtlprog/poolshare/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler provides HTTP endpoints for the pool API.
type Handler struct {
	fund *fund.Service
}

// NewHandler creates a new API handler.
func NewHandler(svc *fund.Service) *Handler {
	return &Handler{fund: svc}
}

// GetPortfolio handles GET /api/v1/portfolio.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.fund.Portfolio(r.Context())
	if err != nil {
		h.fail(w, err, "failed to load portfolio")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AddInvestor handles POST /api/v1/investors.
func (h *Handler) AddInvestor(w http.ResponseWriter, r *http.Request) {
	var in fund.NewInvestor
	if !decodeBody(w, r, &in) {
		return
	}
	inv, err := h.fund.AddInvestor(r.Context(), in)
	if err != nil {
		h.fail(w, err, "failed to add investor")
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// UpdateInvestor handles PATCH /api/v1/investors/{id}.
func (h *Handler) UpdateInvestor(w http.ResponseWriter, r *http.Request) {
	var upd fund.InvestorUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	inv, err := h.fund.UpdateInvestor(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		h.fail(w, err, "failed to update investor")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// RemoveInvestor handles DELETE /api/v1/investors/{id}.
func (h *Handler) RemoveInvestor(w http.ResponseWriter, r *http.Request) {
	if err := h.fund.RemoveInvestor(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, err, "failed to remove investor")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type capitalRequest struct {
	NewCapital *decimal.Decimal `json:"newCapital"`
}

// AdjustCapital handles PATCH /api/v1/investors/{id}/capital.
func (h *Handler) AdjustCapital(w http.ResponseWriter, r *http.Request) {
	var req capitalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NewCapital == nil {
		writeError(w, http.StatusBadRequest, "newCapital is required")
		return
	}
	adj, err := h.fund.AdjustCapital(r.Context(), r.PathValue("id"), *req.NewCapital)
	if err != nil {
		h.fail(w, err, "failed to adjust capital")
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

type totalRequest struct {
	NewTotal *decimal.Decimal `json:"newTotal"`
}

// UpdateTotal handles POST /api/v1/capital.
func (h *Handler) UpdateTotal(w http.ResponseWriter, r *http.Request) {
	var req totalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NewTotal == nil {
		writeError(w, http.StatusBadRequest, "newTotal is required")
		return
	}
	upd, err := h.fund.UpdateTotal(r.Context(), *req.NewTotal)
	if err != nil {
		h.fail(w, err, "failed to update total")
		return
	}
	writeJSON(w, http.StatusOK, upd)
}

// ApplyCommission handles POST /api/v1/commission.
func (h *Handler) ApplyCommission(w http.ResponseWriter, r *http.Request) {
	var req domain.ReinvestmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	applied, err := h.fund.ApplyCommission(r.Context(), req)
	if err != nil {
		h.fail(w, err, "failed to apply commission")
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

type batchRequest struct {
	Reinvestments []domain.ReinvestmentRequest `json:"reinvestments"`
}

// ApplyCommissions handles POST /api/v1/commission/batch.
func (h *Handler) ApplyCommissions(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reinvestments == nil {
		writeError(w, http.StatusBadRequest, "reinvestments array required")
		return
	}
	result, err := h.fund.ApplyCommissions(r.Context(), req.Reinvestments)
	if err != nil {
		h.fail(w, err, "failed to apply commission batch")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type backupEncoding struct {
	format      backup.Format
	contentType string
	write       func(io.Writer, backup.Data) error
}

var (
	backupJSON = backupEncoding{backup.FormatJSON, "application/json", backup.WriteJSON}
	backupXLSX = backupEncoding{
		backup.FormatXLSX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		backup.WriteXLSX,
	}
)

// DownloadBackup handles GET /api/v1/backup and its XLSX variant.
func (h *Handler) DownloadBackup(enc backupEncoding) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h.fund.Backup(r.Context())
		if err != nil {
			h.fail(w, err, "failed to read backup")
			return
		}

		var buf bytes.Buffer
		if err := enc.write(&buf, data); err != nil {
			h.fail(w, err, "failed to encode backup")
			return
		}

		w.Header().Set("Content-Type", enc.contentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, backup.FileName(enc.format, data.ExportedAt)))
		if _, err := buf.WriteTo(w); err != nil {
			slog.Warn("failed to write backup body", "error", err)
		}
	}
}

// clientErrors are reported to the caller as-is.
var clientErrors = []error{
	fund.ErrInvalidName,
	fund.ErrInvalidAmount,
	fund.ErrInvalidMode,
	fund.ErrInvalidAction,
	fund.ErrNoCommission,
	fund.ErrNothingToApply,
	fund.ErrPoolDepleted,
}

type batchErrorResponse struct {
	Error  string                     `json:"error"`
	Errors []domain.ReinvestmentError `json:"errors"`
}

func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "investor not found")
		return
	}
	if ve, ok := fund.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, batchErrorResponse{Error: "invalid reinvestments", Errors: ve.Errors})
		return
	}
	if known, ok := lo.Find(clientErrors, func(e error) bool { return errors.Is(err, e) }); ok {
		writeError(w, http.StatusBadRequest, known.Error())
		return
	}
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
