package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/supervisor"
)

const bodyLimit = 64 << 10

// Handlers bundles the REST handlers around the supervisor.
type Handlers struct {
	sup *supervisor.Supervisor
}

// NewHandlers creates the REST handler set.
func NewHandlers(sup *supervisor.Supervisor) *Handlers {
	return &Handlers{sup: sup}
}

// ListAgents returns snapshots of all live agents in spawn order.
func (h *Handlers) ListAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sup.Agents())
}

type spawnRequest struct {
	Name          string `json:"name"`
	ClassID       string `json:"classId"`
	WorkingDir    string `json:"workingDir"`
	InitialPrompt string `json:"initialPrompt,omitempty"`
}

type spawnResponse struct {
	ID string `json:"id"`
}

// SpawnAgent creates a new agent session.
func (h *Handlers) SpawnAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[spawnRequest](w, r, bodyLimit)
	if !ok {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.WorkingDir == "" {
		writeError(w, http.StatusBadRequest, "workingDir is required")
		return
	}

	id, err := h.sup.Spawn(r.Context(), supervisor.SpawnRequest{
		Name:          req.Name,
		ClassID:       req.ClassID,
		WorkingDir:    req.WorkingDir,
		InitialPrompt: req.InitialPrompt,
	})
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusCreated, spawnResponse{ID: id})
}

// KillAgent terminates an agent session. Killing an already-gone agent is
// not an error.
func (h *Handlers) KillAgent(w http.ResponseWriter, r *http.Request) {
	_ = h.sup.Kill(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type inputRequest struct {
	Text string `json:"text"`
}

// SendInput delivers a line of text to an agent session.
func (h *Handlers) SendInput(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[inputRequest](w, r, bodyLimit)
	if !ok {
		return
	}
	if err := h.sup.SendInput(chi.URLParam(r, "id"), req.Text); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClasses returns the fixed class enumeration.
func (h *Handlers) ListClasses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, agent.Classes())
}

// Health is the liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
