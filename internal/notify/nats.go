package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"motorvault/internal/repository"
)

// BusNotifier publishes notices as JSON to <prefix>.<accountID>.
type BusNotifier struct {
	bus    repository.MessageBus
	prefix string
}

func NewBusNotifier(bus repository.MessageBus, prefix string) *BusNotifier {
	return &BusNotifier{bus: bus, prefix: prefix}
}

// Subject returns the subject notices for accountID are published on.
func (n *BusNotifier) Subject(accountID string) string {
	return n.prefix + "." + accountID
}

func (n *BusNotifier) Notify(_ context.Context, accountID string, notice Notice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}
	if err := n.bus.Publish(n.Subject(accountID), data); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}
