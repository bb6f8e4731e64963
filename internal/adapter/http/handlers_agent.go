package http

import (
	"net/http"
	"strconv"

	"github.com/agentdeck/agentdeck/internal/domain/agent"
)

// ListAgents handles GET /api/v1/agents?page=N&limit=N
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 0)
	limit := queryInt(r, "limit", 20)

	result, err := h.Agents.List(r.Context(), userID, page, limit)
	if err != nil {
		writeDomainError(w, err, "agents not found")
		return
	}
	if result.Agents == nil {
		result.Agents = []agent.Agent{}
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAgent handles GET /api/v1/agents/{id}
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := urlParam(r, "id")
	a, simulation, err := h.Agents.Get(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, agentEnvelope{Agent: a, Simulation: simulation})
}

// agentEnvelope is a single agent plus the backend mode marker.
type agentEnvelope struct {
	*agent.Agent
	Simulation bool `json:"simulation"`
}

// LaunchAgent handles POST /api/v1/agents
func (h *Handlers) LaunchAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[agent.LaunchRequest](w, r)
	if !ok {
		return
	}

	created, simulation, err := h.Agents.Launch(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, err, "launch failed")
		return
	}
	writeJSON(w, http.StatusCreated, agentEnvelope{Agent: created, Simulation: simulation})
}

// DeleteAgent handles DELETE /api/v1/agents/{id}
func (h *Handlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := urlParam(r, "id")
	if _, err := h.Agents.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StopAgent handles POST /api/v1/agents/{id}/stop
func (h *Handlers) StopAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := urlParam(r, "id")
	simulation, err := h.Agents.Stop(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopped", "simulation": simulation})
}

// SendFollowUp handles POST /api/v1/agents/{id}/followup
func (h *Handlers) SendFollowUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := urlParam(r, "id")
	req, ok := readJSON[struct {
		Prompt agent.Prompt `json:"prompt"`
	}](w, r)
	if !ok {
		return
	}
	if req.Prompt.Text == "" {
		writeError(w, http.StatusBadRequest, "prompt.text is required")
		return
	}

	simulation, err := h.Agents.SendFollowUp(r.Context(), userID, id, req.Prompt.Text)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "sent", "simulation": simulation})
}

// GetConversation handles GET /api/v1/agents/{id}/conversation
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := urlParam(r, "id")
	result, err := h.Agents.Conversation(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SummarizeAgent handles POST /api/v1/agents/{id}/summarize
func (h *Handlers) SummarizeAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := urlParam(r, "id")
	summary, err := h.Summaries.Summarize(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// queryInt parses a non-negative integer query parameter, falling back to
// def on absence or garbage.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
