package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentdeck"

// Metrics holds all agentdeck metric instruments.
type Metrics struct {
	AgentsLaunched   metric.Int64Counter
	AgentsDeleted    metric.Int64Counter
	FollowUps        metric.Int64Counter
	Summaries        metric.Int64Counter
	UpstreamFailures metric.Int64Counter
	UpstreamLatency  metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.AgentsLaunched, err = meter.Int64Counter("agentdeck.agents.launched",
		metric.WithDescription("Number of agents launched"))
	if err != nil {
		return nil, err
	}

	m.AgentsDeleted, err = meter.Int64Counter("agentdeck.agents.deleted",
		metric.WithDescription("Number of agents deleted"))
	if err != nil {
		return nil, err
	}

	m.FollowUps, err = meter.Int64Counter("agentdeck.followups",
		metric.WithDescription("Number of follow-up instructions sent"))
	if err != nil {
		return nil, err
	}

	m.Summaries, err = meter.Int64Counter("agentdeck.summaries",
		metric.WithDescription("Number of conversation summaries generated"))
	if err != nil {
		return nil, err
	}

	m.UpstreamFailures, err = meter.Int64Counter("agentdeck.upstream.failures",
		metric.WithDescription("Number of failed external API calls"))
	if err != nil {
		return nil, err
	}

	m.UpstreamLatency, err = meter.Float64Histogram("agentdeck.upstream.latency_seconds",
		metric.WithDescription("External API call latency in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
