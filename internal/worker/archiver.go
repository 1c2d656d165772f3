// Package worker archives ledger events consumed from the broker.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/storage"
)

// EventSink stores archived events. *storage.SQLiteRepository satisfies it.
type EventSink interface {
	AppendEvent(ctx context.Context, ev storage.EventRecord) (bool, error)
	RecentEvents(ctx context.Context, limit int) ([]storage.EventRecord, error)
}

// Archiver writes every ledger event to the sink exactly once. Redelivered
// events are recognised by id and acknowledged without a second row.
type Archiver struct {
	sink   EventSink
	logger *log.Logger
	now    func() time.Time

	archived   atomic.Int64
	duplicates atomic.Int64
}

func NewArchiver(sink EventSink, logger *log.Logger) *Archiver {
	if logger == nil {
		logger = log.Discard()
	}
	return &Archiver{
		sink:   sink,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleEvent is the consumer callback. A returned error requeues the event.
func (a *Archiver) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	occurred := ev.Timestamp
	if occurred.IsZero() {
		occurred = a.now()
	}
	inserted, err := a.sink.AppendEvent(ctx, storage.EventRecord{
		EventID:    ev.ID,
		Type:       ev.Type,
		EntityID:   ev.EntityID,
		Amount:     ev.Amount,
		Balance:    ev.Balance,
		Revision:   ev.Revision,
		OccurredAt: occurred,
	})
	if err != nil {
		return fmt.Errorf("archive event %s: %w", ev.ID, err)
	}

	if !inserted {
		a.duplicates.Add(1)
		a.logger.DebugContext(ctx, "Skipping redelivered event",
			"event_id", ev.ID, log.FieldEventType, ev.Type)
		return nil
	}
	a.archived.Add(1)
	a.logger.InfoContext(ctx, "Archived ledger event",
		"event_id", ev.ID,
		log.FieldEventType, ev.Type,
		log.FieldEntityID, ev.EntityID,
		log.FieldBalance, ev.Balance,
		log.FieldRevision, ev.Revision,
		log.FieldOperation, log.OpArchive)
	return nil
}

// Report logs how many events were handled and the newest archived one.
func (a *Archiver) Report(ctx context.Context) error {
	recent, err := a.sink.RecentEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("read recent events: %w", err)
	}
	attrs := []any{"archived", a.archived.Load(), "duplicates", a.duplicates.Load()}
	if len(recent) > 0 {
		attrs = append(attrs,
			"latest_event", recent[0].EventID,
			"latest_type", recent[0].Type,
			"latest_at", recent[0].OccurredAt.Format(time.RFC3339))
	}
	a.logger.InfoContext(ctx, "Archive status", attrs...)
	return nil
}

// Run consumes events until ctx ends, reporting on every tick of interval.
func (a *Archiver) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := a.Report(ctx); err != nil {
						a.logger.ErrorContext(ctx, "Archive status failed", log.FieldError, err.Error())
					}
				}
			}
		}()
	}
	return consumer.ConsumeEvents(ctx, a.HandleEvent)
}

// Consumer delivers ledger events. *amqp.Client satisfies it.
type Consumer interface {
	ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}
