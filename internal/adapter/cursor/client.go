// Package cursor provides an HTTP client for the external background-agents
// API. The gateway holds connection-level state; per-request credentials are
// bound with Bind, so one gateway serves every caller.
package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/conversation"
	"github.com/agentdeck/agentdeck/internal/port/agentapi"
	"github.com/agentdeck/agentdeck/internal/resilience"
)

// Gateway talks to the external agent API. It is safe for concurrent use.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewGateway creates a gateway for the given API base URL, e.g.
// https://api.cursor.com/v0/agents.
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls. Upstream
// responses with a status below 500 do not count as breaker failures.
func (g *Gateway) SetBreaker(b *resilience.Breaker) {
	b.SetFailureFilter(func(err error) bool {
		var ue *agentapi.UpstreamError
		if errors.As(err, &ue) {
			return ue.Status >= http.StatusInternalServerError
		}
		return true
	})
	g.breaker = b
}

// Bind returns a Backend that authenticates every call with the given token.
// The returned value is cheap; callers create one per request.
func (g *Gateway) Bind(token string) agentapi.Backend {
	return &boundClient{gw: g, token: token}
}

type boundClient struct {
	gw    *Gateway
	token string
}

// List fetches up to limit agents from the upstream. The upstream paginates
// by opaque cursor, not by page number, so the result always reports a
// single page and passes the upstream cursor through for the UI.
func (c *boundClient) List(ctx context.Context, page, limit int) (*agent.Page, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	var result struct {
		Agents     []agent.Agent `json:"agents"`
		NextCursor string        `json:"nextCursor"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal agents: %w", err)
	}

	return &agent.Page{
		Agents:     result.Agents,
		Page:       0,
		Limit:      limit,
		Total:      len(result.Agents),
		TotalPages: 1,
		NextCursor: result.NextCursor,
	}, nil
}

// Get returns a single agent, mapping an upstream 404 to domain.ErrNotFound.
func (c *boundClient) Get(ctx context.Context, id string) (*agent.Agent, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}

	var a agent.Agent
	if err := json.Unmarshal(resp, &a); err != nil {
		return nil, fmt.Errorf("unmarshal agent: %w", err)
	}
	return &a, nil
}

// Create launches a new agent. The request body is forwarded as-is; it has
// already been validated.
func (c *boundClient) Create(ctx context.Context, req *agent.LaunchRequest) (*agent.Agent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal launch: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "", body)
	if err != nil {
		return nil, fmt.Errorf("launch agent: %w", err)
	}

	var a agent.Agent
	if err := json.Unmarshal(resp, &a); err != nil {
		return nil, fmt.Errorf("unmarshal agent: %w", err)
	}
	return &a, nil
}

// Delete removes an agent. An upstream 404 is treated as success so the
// operation stays idempotent across both backends.
func (c *boundClient) Delete(ctx context.Context, id string) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, "/"+id, nil); err != nil {
		var ue *agentapi.UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("delete agent: %w", err)
	}
	return nil
}

// Stop halts a running agent.
func (c *boundClient) Stop(ctx context.Context, id string) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/"+id+"/stop", nil); err != nil {
		return fmt.Errorf("stop agent: %w", err)
	}
	return nil
}

// SendFollowUp delivers an additional instruction to a running agent.
func (c *boundClient) SendFollowUp(ctx context.Context, id, text string) error {
	body, err := json.Marshal(map[string]any{
		"prompt": map[string]string{"text": text},
	})
	if err != nil {
		return fmt.Errorf("marshal follow-up: %w", err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "/"+id+"/followup", body); err != nil {
		return fmt.Errorf("send follow-up: %w", err)
	}
	return nil
}

// Conversation returns the agent's transcript.
func (c *boundClient) Conversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/"+id+"/conversation", nil)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	var conv conversation.Conversation
	if err := json.Unmarshal(resp, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (c *boundClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.gw.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.gw.httpClient.Do(req)
		if err != nil {
			return &agentapi.NetworkError{Op: method + " " + path, Err: err}
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &agentapi.NetworkError{Op: method + " " + path, Err: err}
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return &agentapi.UpstreamError{Status: resp.StatusCode, Body: string(data)}
		}

		result = data
		return nil
	}

	if c.gw.breaker != nil {
		if err := c.gw.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
