package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "counsel"

// Metrics holds all turn-engine metric instruments.
type Metrics struct {
	TurnsStarted   metric.Int64Counter
	TurnsCompleted metric.Int64Counter
	TurnsFailed    metric.Int64Counter
	ToolCalls      metric.Int64Counter
	TurnDuration   metric.Float64Histogram
	TurnCost       metric.Float64Histogram
	TurnTokens     metric.Int64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TurnsStarted, err = meter.Int64Counter("counsel.turns.started",
		metric.WithDescription("Number of turns started"))
	if err != nil {
		return nil, err
	}

	m.TurnsCompleted, err = meter.Int64Counter("counsel.turns.completed",
		metric.WithDescription("Number of turns completed"))
	if err != nil {
		return nil, err
	}

	m.TurnsFailed, err = meter.Int64Counter("counsel.turns.failed",
		metric.WithDescription("Number of turns failed"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("counsel.toolcalls",
		metric.WithDescription("Number of legal-research tool calls"))
	if err != nil {
		return nil, err
	}

	m.TurnDuration, err = meter.Float64Histogram("counsel.turn.duration_seconds",
		metric.WithDescription("Turn duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.TurnCost, err = meter.Float64Histogram("counsel.turn.cost_usd",
		metric.WithDescription("Turn cost in USD"))
	if err != nil {
		return nil, err
	}

	m.TurnTokens, err = meter.Int64Histogram("counsel.turn.app_tokens",
		metric.WithDescription("Weighted app tokens per turn"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
