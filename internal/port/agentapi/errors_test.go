package agentapi_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/port/agentapi"
)

func TestUpstream404MatchesNotFound(t *testing.T) {
	err := &agentapi.UpstreamError{Status: http.StatusNotFound, Body: "no such agent"}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Error("404 upstream error should match domain.ErrNotFound")
	}

	err = &agentapi.UpstreamError{Status: http.StatusInternalServerError, Body: "boom"}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("500 upstream error must not match domain.ErrNotFound")
	}
}

func TestPermissionHint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{
			"repository access failure",
			&agentapi.UpstreamError{Status: 403, Body: `{"error":"Repository access denied"}`},
			true,
		},
		{
			"repository permission failure",
			&agentapi.UpstreamError{Status: 400, Body: "insufficient permission for repository"},
			true,
		},
		{
			"unrelated upstream error",
			&agentapi.UpstreamError{Status: 500, Body: "internal error"},
			false,
		},
		{
			"wrapped upstream error",
			fmt.Errorf("launch: %w", &agentapi.UpstreamError{Status: 403, Body: "repository access denied"}),
			true,
		},
		{
			"not an upstream error",
			errors.New("repository access denied"),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := agentapi.PermissionHint(tt.err)
			if tt.wantHint && hint == "" {
				t.Error("expected a permission hint")
			}
			if !tt.wantHint && hint != "" {
				t.Errorf("unexpected hint %q", hint)
			}
		})
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &agentapi.NetworkError{Op: "list agents", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("NetworkError should unwrap to the transport error")
	}
}
