package http

import (
	"net/http"

	"github.com/agentdeck/agentdeck/internal/domain/user"
)

// ListRepositories handles GET /api/v1/user/repositories
func (h *Handlers) ListRepositories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	repos, err := h.UserData.ListRepositories(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "repositories not found")
		return
	}
	if repos == nil {
		repos = []user.Repository{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"repositories": repos})
}

// SaveRepositories handles PUT /api/v1/user/repositories
func (h *Handlers) SaveRepositories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[struct {
		Repositories []user.Repository `json:"repositories"`
	}](w, r)
	if !ok {
		return
	}

	saved, err := h.UserData.SaveRepositories(r.Context(), userID, req.Repositories)
	if err != nil {
		writeDomainError(w, err, "could not save repositories")
		return
	}
	if saved == nil {
		saved = []user.Repository{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"repositories": saved})
}

// ListBranches handles GET /api/v1/user/branches
func (h *Handlers) ListBranches(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	branches, err := h.UserData.ListBranches(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "branches not found")
		return
	}
	if branches == nil {
		branches = []user.Branch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": branches})
}

// SaveBranches handles PUT /api/v1/user/branches
func (h *Handlers) SaveBranches(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[struct {
		Branches []user.Branch `json:"branches"`
	}](w, r)
	if !ok {
		return
	}

	saved, err := h.UserData.SaveBranches(r.Context(), userID, req.Branches)
	if err != nil {
		writeDomainError(w, err, "could not save branches")
		return
	}
	if saved == nil {
		saved = []user.Branch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": saved})
}
