package events

import (
	"context"
	"log/slog"
)

// Worker consumes emitted events, persists them, and forwards them to the
// optional sink. Sink failures are logged and skipped; the local store is the
// availability floor.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "event store append failed",
					"type", string(event.Type),
					"error", err,
				)
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "event sink publish failed",
						"type", string(event.Type),
						"error", err,
					)
				}
			}
		}
	}
}
