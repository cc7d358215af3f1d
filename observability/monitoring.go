// Package observability aggregates client-side telemetry for the UI and
// the debug inspector. Counters are updated from the event stream, never
// polled from the components themselves.
package observability

import (
	"context"
	"sync/atomic"
	"time"

	"chat-client/domain/event"
	"chat-client/realtime"
)

// Snapshot is a point-in-time view of the session counters.
type Snapshot struct {
	MessagesSent     uint64        `json:"messages_sent"`
	MessagesReceived uint64        `json:"messages_received"`
	FramesRejected   uint64        `json:"frames_rejected"`
	HistoriesLoaded  uint64        `json:"histories_loaded"`
	TokenRefreshes   uint64        `json:"token_refreshes"`
	Connections      uint64        `json:"connections"`
	Disconnections   uint64        `json:"disconnections"`
	Uptime           time.Duration `json:"uptime"`
}

// Monitor implements contract.EventSink and counts what flows through
// the session.
type Monitor struct {
	started time.Time

	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64
	framesRejected   atomic.Uint64
	historiesLoaded  atomic.Uint64
	tokenRefreshes   atomic.Uint64
	connections      atomic.Uint64
	disconnections   atomic.Uint64
}

func NewMonitor() *Monitor {
	return &Monitor{started: time.Now().UTC()}
}

func (m *Monitor) Consume(_ context.Context, e event.Event) error {
	switch payload := e.Payload.(type) {
	case event.MessageSent:
		m.messagesSent.Add(1)
	case event.MessageReceived:
		m.messagesReceived.Add(1)
	case event.FrameRejected:
		m.framesRejected.Add(1)
	case event.HistoryLoaded:
		m.historiesLoaded.Add(1)
	case event.TokenRefreshed:
		m.tokenRefreshes.Add(1)
	case event.ConnectionChanged:
		switch realtime.State(payload.To) {
		case realtime.Open:
			m.connections.Add(1)
		case realtime.Disconnected:
			m.disconnections.Add(1)
		}
	}
	return nil
}

func (m *Monitor) Snapshot() Snapshot {
	return Snapshot{
		MessagesSent:     m.messagesSent.Load(),
		MessagesReceived: m.messagesReceived.Load(),
		FramesRejected:   m.framesRejected.Load(),
		HistoriesLoaded:  m.historiesLoaded.Load(),
		TokenRefreshes:   m.tokenRefreshes.Load(),
		Connections:      m.connections.Load(),
		Disconnections:   m.disconnections.Load(),
		Uptime:           time.Since(m.started),
	}
}

// Stats adapts the snapshot for the debug server's stats provider.
func (m *Monitor) Stats() map[string]any {
	s := m.Snapshot()
	return map[string]any{
		"MessagesSent":     s.MessagesSent,
		"MessagesReceived": s.MessagesReceived,
		"FramesRejected":   s.FramesRejected,
		"HistoriesLoaded":  s.HistoriesLoaded,
		"TokenRefreshes":   s.TokenRefreshes,
		"Connections":      s.Connections,
		"Disconnections":   s.Disconnections,
		"Uptime":           s.Uptime.Round(time.Second).String(),
	}
}
