package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/export"
)

const maxBodyBytes = 1 << 16

type handlers struct {
	svc    *engine.ScoreService
	logger *slog.Logger
}

type submitRequest struct {
	PlayerName   string `json:"playerName"`
	PlayerAge    string `json:"playerAge"`
	PlayerSchool string `json:"playerSchool"`
	Score        *int64 `json:"score"`
	Level        int64  `json:"level"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	ScoresCount int       `json:"scores_count"`
	Timestamp   time.Time `json:"timestamp"`
}

func (h *handlers) listScores(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	top, err := h.svc.TopN(r.Context(), limit)
	if err != nil {
		h.internal(w, r, "list scores", err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *handlers) submitScore(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON object", err.Error())
		return
	}
	id, err := h.svc.Submit(r.Context(), core.Submission{
		PlayerName:   req.PlayerName,
		PlayerAge:    req.PlayerAge,
		PlayerSchool: req.PlayerSchool,
		Score:        req.Score,
		Level:        req.Level,
	})
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "invalid_input", "incomplete data", map[string]string{"field": verr.Field, "reason": verr.Reason})
			return
		}
		h.internal(w, r, "submit score", err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, Message: "score saved", ID: id})
}

func (h *handlers) exportScores(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "format")
	if raw == "" {
		raw = r.URL.Query().Get("format")
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error(), map[string]any{"supported": h.svc.Formatter().Formats()})
		return
	}
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	doc, err := h.svc.Export(r.Context(), format, h.svc.Formatter().Locale(lang))
	if err != nil {
		h.internal(w, r, "export scores", err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "ERROR", Message: "storage unavailable", Timestamp: time.Now().UTC()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK", Message: "server running", ScoresCount: n, Timestamp: time.Now().UTC()})
}

// internal logs the cause and answers with a generic message.
func (h *handlers) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed", "error", err, "request_id", requestID(r.Context()))
	code := "internal"
	switch {
	case errors.Is(err, core.ErrStorage):
		code = "storage_error"
	case errors.Is(err, core.ErrExport):
		code = "export_error"
	}
	writeError(w, http.StatusInternalServerError, code, "internal error", nil)
}
