package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"motorvault/internal/logger"
	"motorvault/internal/model"
)

// EventSink persists audit events. Saving an id twice must be a no-op.
type EventSink interface {
	SaveEvent(ctx context.Context, event model.EconomyEvent) error
}

// AuditWorker listens on the economy events subject and stores every event.
type AuditWorker struct {
	sink       EventSink
	natsConn   *nats.Conn
	subject    string
	queueGroup string
}

func NewAuditWorker(sink EventSink, nc *nats.Conn, subject, queueGroup string) *AuditWorker {
	return &AuditWorker{
		sink:       sink,
		natsConn:   nc,
		subject:    subject,
		queueGroup: queueGroup,
	}
}

// Run subscribes and blocks until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context) error {
	// Queue group: each event is stored by one replica only.
	sub, err := w.natsConn.QueueSubscribe(w.subject, w.queueGroup+"_audit", w.onMsg(ctx))
	if err != nil {
		return fmt.Errorf("worker: failed to subscribe to NATS: %w", err)
	}

	logger.InfoCtx(ctx, "Audit worker is running", zap.String("subject", w.subject))

	<-ctx.Done()

	logger.Info("Audit worker received shutdown signal, draining subscription")
	return sub.Drain()
}

// onMsg returns the subscription callback. Events delivered while the
// subscription drains are still stored, so saving ignores cancellation of ctx.
func (w *AuditWorker) onMsg(ctx context.Context) nats.MsgHandler {
	work := context.WithoutCancel(ctx)
	return func(m *nats.Msg) {
		if err := w.handle(work, m.Data); err != nil {
			logger.ErrorCtx(work, err, zap.String("subject", m.Subject))
		}
	}
}

func (w *AuditWorker) handle(ctx context.Context, data []byte) error {
	var event model.EconomyEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("worker: failed to decode event: %w", err)
	}
	if event.ID == "" {
		return fmt.Errorf("worker: event without id (kind %q)", event.Kind)
	}
	if err := w.sink.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("worker: failed to save event %s: %w", event.ID, err)
	}
	logger.DebugCtx(ctx, "economy event stored",
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("account_id", event.AccountID),
	)
	return nil
}

func (w *AuditWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop is a no-op; shutdown happens through ctx.
func (w *AuditWorker) Stop(ctx context.Context) error {
	return nil
}
