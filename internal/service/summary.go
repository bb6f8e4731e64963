package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/domain"
)

// Summarizer produces a natural-language summary from a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// SummaryService turns an agent's conversation into a short summary.
type SummaryService struct {
	agents     *AgentService
	summarizer Summarizer
	model      string
	metrics    *otel.Metrics
}

// NewSummaryService creates a summary service. model is informational only,
// for tracing.
func NewSummaryService(agents *AgentService, summarizer Summarizer, model string, metrics *otel.Metrics) *SummaryService {
	return &SummaryService{
		agents:     agents,
		summarizer: summarizer,
		model:      model,
		metrics:    metrics,
	}
}

// Summarize fetches the agent's transcript and summarizes it. Unlike the
// conversation read path, a missing simulated conversation here is a hard
// not-found: there is nothing to summarize.
func (s *SummaryService) Summarize(ctx context.Context, userID, agentID string) (string, error) {
	ctx, span := otel.StartSummarySpan(ctx, agentID, s.model)
	defer span.End()

	backend, _, _ := s.agents.backend(ctx, userID)
	conv, err := backend.Conversation(ctx, agentID)
	if err != nil {
		return "", fmt.Errorf("fetch conversation: %w", err)
	}

	if len(conv.Messages) == 0 {
		return "", fmt.Errorf("%w: no conversation messages to summarize", domain.ErrValidation)
	}

	transcript := conv.Transcript()
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("%w: conversation has no meaningful content to summarize", domain.ErrValidation)
	}

	summary, err := s.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Summaries.Add(ctx, 1)
	}
	return summary, nil
}
