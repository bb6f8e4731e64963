package http

import "net/http"

// GetAPIKeyStatus handles GET /api/v1/user/api-key
func (h *Handlers) GetAPIKeyStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Credentials.Status(r.Context(), userID))
}

// SaveAPIKey handles PUT /api/v1/user/api-key
func (h *Handlers) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	req, ok := readJSON[struct {
		APIKey string `json:"apiKey"`
	}](w, r)
	if !ok {
		return
	}

	if err := h.Credentials.Save(r.Context(), userID, req.APIKey); err != nil {
		writeDomainError(w, err, "could not save api key")
		return
	}
	writeJSON(w, http.StatusOK, h.Credentials.Status(r.Context(), userID))
}

// DeleteAPIKey handles DELETE /api/v1/user/api-key
func (h *Handlers) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.Credentials.Delete(r.Context(), userID); err != nil {
		writeDomainError(w, err, "could not delete api key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
