// Package redisoutbox implements the Messenger contract by enqueueing
// outbound messages onto a Redis stream. An external gateway consumes the
// stream and performs the actual WhatsApp delivery.
package redisoutbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream the delivery gateway reads from.
const DefaultStream = "fluxo:outbox:whatsapp"

type Messenger struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

// NewMessenger connects to Redis using a redis:// URL and verifies the
// connection before returning.
func NewMessenger(ctx context.Context, logger *slog.Logger, redisURL string) (*Messenger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis outbox", "addr", opts.Addr)

	return &Messenger{
		client: client,
		stream: DefaultStream,
		logger: logger.With("module", "redisoutbox"),
	}, nil
}

// WithStream overrides the stream name.
func (m *Messenger) WithStream(stream string) *Messenger {
	m.stream = stream

	return m
}

func (m *Messenger) SendMessage(ctx context.Context, organizationID, to, text string) error {
	if err := m.client.XAdd(ctx, &redis.XAddArgs{
		Stream: m.stream,
		Values: map[string]any{
			"organization_id": organizationID,
			"to":              to,
			"text":            text,
			"enqueued_at":     time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err(); err != nil {
		return fmt.Errorf("enqueue message for %s: %w", to, err)
	}

	m.logger.InfoContext(ctx, "Message enqueued", "organization_id", organizationID, "to", to)

	return nil
}

func (m *Messenger) Close() error {
	return m.client.Close()
}
