package repository

// MessageBus publishes raw payloads to a subject.
type MessageBus interface {
	Publish(topic string, data []byte) error
}

// NopBus drops every message. It stands in when no broker is configured.
type NopBus struct{}

func (NopBus) Publish(string, []byte) error { return nil }
