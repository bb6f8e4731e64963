package http

import (
	"net/http"

	"github.com/agentdeck/agentdeck/internal/middleware"
	"github.com/agentdeck/agentdeck/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth        *service.AuthService
	Agents      *service.AgentService
	Credentials *service.CredentialResolver
	Summaries   *service.SummaryService
	UserData    *service.UserDataService
}

// currentUserID returns the authenticated user's ID, writing a 401 when the
// request carries no user.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return "", false
	}
	return u.ID, true
}
