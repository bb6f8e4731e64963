package agentapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// UpstreamError is a non-2xx response from the external agent API. The
// status and body are logged server-side; handlers never echo the body to
// the end user.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream api error %d: %s", e.Status, e.Body)
}

// Is maps upstream 404s onto domain.ErrNotFound so callers can use a
// single errors.Is check across both backends.
func (e *UpstreamError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError is a transport-level failure reaching the external API,
// including timeouts. No retries are performed at this layer.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PermissionHint returns actionable guidance when err looks like the known
// upstream repository-permission failure, and "" otherwise. This is the
// one case where the upstream body influences the user-facing message.
func PermissionHint(err error) string {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return ""
	}
	body := strings.ToLower(ue.Body)
	if strings.Contains(body, "repository") && (strings.Contains(body, "access") || strings.Contains(body, "permission")) {
		return "The agent could not access the repository. Grant the integration access to it and try again."
	}
	return ""
}
