package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorvault/internal/model"
	"motorvault/internal/repository"
)

func TestAuditWorker_Handle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	w := NewAuditWorker(store, nil, "economy.events", "motorvault")

	event := model.EconomyEvent{
		ID:        "3b0c1f9e-0000-4000-8000-000000000001",
		Kind:      model.EventPurchase,
		AccountID: "a",
		ItemID:    2,
		Amount:    -500,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, w.handle(ctx, data))
	require.NoError(t, w.handle(ctx, data))

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event, events[0])

	assert.Error(t, w.handle(ctx, []byte("{")))
	assert.Error(t, w.handle(ctx, []byte(`{"kind":"claim"}`)))
}

type ctxSink struct {
	errs []error
}

func (s *ctxSink) SaveEvent(ctx context.Context, _ model.EconomyEvent) error {
	s.errs = append(s.errs, ctx.Err())
	return ctx.Err()
}

func TestAuditWorker_StoresEventsDeliveredAfterShutdown(t *testing.T) {
	sink := &ctxSink{}
	w := NewAuditWorker(sink, nil, "economy.events", "motorvault")

	ctx, cancel := context.WithCancel(context.Background())
	cb := w.onMsg(ctx)
	cancel()
	cb(&nats.Msg{Subject: "economy.events", Data: []byte(`{"id":"e-1","kind":"purchase","account_id":"a"}`)})

	require.Len(t, sink.errs, 1)
	assert.NoError(t, sink.errs[0])
}
