package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gridcalc/internal/models"
	"gridcalc/internal/session"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
	maxBodyBytes        = 1 << 20
)

// History отдает последние записи журнала
type History interface {
	Recent(ctx context.Context, limit int) ([]models.Entry, error)
}

type Handler struct {
	proc    *session.Processor
	history History
}

// NewHandler создает обработчики API. history равен nil, если журнал выключен.
func NewHandler(proc *session.Processor, history History) *Handler {
	return &Handler{proc: proc, history: history}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.proc.Stats().Snapshot(r.Context())
	if err != nil {
		SendErrorResponse(w, http.StatusInternalServerError, "Failed to read stats")
		return
	}

	SendJSON(w, http.StatusOK, models.StatsResponse{
		Requests:        snap.Requests,
		AvgTimeMs:       snap.AvgTimeMillis,
		MaxTimeMs:       snap.MaxTimeMillis,
		ComputationPool: h.proc.Engine().Pool().GetMetrics(),
		StatPool:        h.proc.Stats().Pool().GetMetrics(),
	})
}

// Evaluate обрабатывает одну строку протокола так же, как TCP сессия
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			SendErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return
		}
		SendErrorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req models.EvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		SendErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		SendErrorResponse(w, http.StatusBadRequest, "Request is empty")
		return
	}

	client := session.Client{SessionID: "http", Addr: r.RemoteAddr}
	reply := h.proc.Process(r.Context(), client, req.Request)
	if reply.Quit {
		SendErrorResponse(w, http.StatusUnprocessableEntity, "quit is only valid on a socket session")
		return
	}

	SendJSON(w, http.StatusOK, models.EvaluateResponse{Response: reply.Line})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		SendErrorResponse(w, http.StatusNotFound, "History is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			SendErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		SendErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	SendJSON(w, http.StatusOK, models.EntryList{Entries: entries})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	SendErrorResponse(w, http.StatusNotFound, "Not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	SendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
}
