package mq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Channels used for domain events.
const (
	ChannelUsers     = "users"
	ChannelFavorites = "favorites"
)

// Event types published on the channels above.
const (
	EventUserRegistered  = "user.registered"
	EventFavoriteUpdated = "favorite.updated"
	EventFavoriteDeleted = "favorite.deleted"
)

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Event is the JSON envelope published for every domain event.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
	logger  *slog.Logger
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend, logger *slog.Logger) *MQ {
	if backend == nil {
		backend = NopBackend{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MQ{backend: backend, logger: logger}
}

// Emit publishes a domain event. Delivery is best-effort: failures are
// logged and never returned to the caller.
func (m *MQ) Emit(ctx context.Context, channel, eventType string, data any) {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.ErrorContext(ctx, "encode event failed", slog.String("type", eventType), slog.Any("error", err))
		return
	}

	attrs := map[string]string{"event_type": eventType, "event_id": event.ID}
	if _, err := m.backend.Publish(ctx, channel, payload, attrs); err != nil {
		m.logger.WarnContext(ctx, "publish event failed",
			slog.String("channel", channel),
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

// NopBackend discards every message. It is used when no broker is configured.
type NopBackend struct{}

func (NopBackend) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (NopBackend) Close() error { return nil }
