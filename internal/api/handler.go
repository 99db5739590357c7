package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agora-ai/agora/internal/engine"
	"github.com/agora-ai/agora/internal/provider"
	"github.com/agora-ai/agora/internal/realtime"
)

// Handler exposes the debate runtime control surface over HTTP and
// websocket. Debate CRUD, auth, and rate limiting live elsewhere.
type Handler struct {
	engine     *engine.Manager
	registry   *realtime.Registry
	heartbeats *realtime.Monitor
	providers  *provider.Registry
	logger     *slog.Logger
}

func NewHandler(eng *engine.Manager, registry *realtime.Registry, heartbeats *realtime.Monitor, providers *provider.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:     eng,
		registry:   registry,
		heartbeats: heartbeats,
		providers:  providers,
		logger:     logger,
	}
}

// Mount registers the runtime control routes on the provided router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/debates/{id}/start", h.startDebate)
	r.Post("/api/debates/{id}/pause", h.pauseDebate)
	r.Post("/api/debates/{id}/resume", h.resumeDebate)
	r.Post("/api/debates/{id}/stop", h.stopDebate)
	r.Delete("/api/debates/{id}/runtime", h.removeDebate)
	r.Get("/api/debates/{id}/status", h.debateStatus)
	r.Get("/api/debates/{id}/ws", h.debateWebSocket)
	r.Get("/api/models", h.listModels)
}

type apiResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	resp.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func debateID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) startDebate(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	if err := h.engine.Start(id); err != nil {
		if errors.Is(err, engine.ErrDebateRunning) {
			writeJSON(w, http.StatusConflict, apiResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "debate started"})
}

func (h *Handler) pauseDebate(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	h.engine.Pause(id)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "debate paused"})
}

func (h *Handler) resumeDebate(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	h.engine.Resume(id)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "debate resumed"})
}

func (h *Handler) stopDebate(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	h.engine.Stop(id)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "debate stopped"})
}

func (h *Handler) removeDebate(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	h.engine.Remove(id)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "debate runtime removed"})
}

func (h *Handler) debateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := debateID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid debate id"})
		return
	}
	status, known := h.engine.Status(id)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]any{
		"debate_id": id,
		"status":    status.String(),
		"known":     known,
	}})
}

func (h *Handler) listModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]any{
		"models": h.providers.ListModels(),
	}})
}
