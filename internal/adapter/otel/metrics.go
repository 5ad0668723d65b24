package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentguild"

// Metrics holds all AgentGuild metric instruments.
type Metrics struct {
	SessionsSpawned metric.Int64Counter
	SessionsExited  metric.Int64Counter
	LinesClassified metric.Int64Counter
	EventsBroadcast metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.SessionsSpawned, err = meter.Int64Counter("agentguild.sessions.spawned",
		metric.WithDescription("Number of agent sessions spawned"))
	if err != nil {
		return nil, err
	}

	m.SessionsExited, err = meter.Int64Counter("agentguild.sessions.exited",
		metric.WithDescription("Number of agent sessions exited"))
	if err != nil {
		return nil, err
	}

	m.LinesClassified, err = meter.Int64Counter("agentguild.output.lines",
		metric.WithDescription("Number of output lines run through the classifier"))
	if err != nil {
		return nil, err
	}

	m.EventsBroadcast, err = meter.Int64Counter("agentguild.events.broadcast",
		metric.WithDescription("Number of events fanned out to viewers"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
