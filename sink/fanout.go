package sink

import (
	"context"
	"log/slog"

	"chat-client/contract"
	"chat-client/domain/event"
)

// Fanout delivers every event to all registered sinks. A failing sink is
// logged and skipped; it never blocks delivery to the others.
type Fanout struct {
	sinks []contract.EventSink
	log   *slog.Logger
}

func NewFanout(log *slog.Logger, sinks ...contract.EventSink) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

func (f *Fanout) Add(sinks ...contract.EventSink) *Fanout {
	f.sinks = append(f.sinks, sinks...)
	return f
}

func (f *Fanout) Consume(ctx context.Context, e event.Event) error {
	for _, s := range f.sinks {
		if err := s.Consume(ctx, e); err != nil {
			f.log.Warn("Sink rejected event", "type", string(e.Type), "error", err)
		}
	}
	return nil
}
