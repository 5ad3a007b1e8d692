package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// ChannelPrefix is prepended to the session id to form the pub/sub channel.
const ChannelPrefix = "dialogue-events:"

const defaultBuffer = 256

// Message is the JSON payload published for each dialogue event
type Message struct {
	Type      dialogue.EventType `json:"type"`
	SessionID string             `json:"session_id"`
	Asset     string             `json:"asset,omitempty"`
	Line      string             `json:"line,omitempty"`
	Tags      []string           `json:"tags,omitempty"`
	Choices   []string           `json:"choices,omitempty"`
	Index     *int               `json:"index,omitempty"`
	Error     string             `json:"error,omitempty"`
	AtMS      int64              `json:"at_ms"`
}

// Broadcaster publishes dialogue events to Redis Pub/Sub so that other
// processes can follow a session. Per-character reveal steps are not
// published.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
	queue       chan dialogue.Event
}

var _ dialogue.Observer = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
		queue:       make(chan dialogue.Event, defaultBuffer),
	}
}

// Connect parses a redis:// URL and returns a client that answered PING.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Channel returns the pub/sub channel of a session.
func Channel(sessionID uuid.UUID) string {
	return ChannelPrefix + sessionID.String()
}

// Notify queues an event for Run to publish. It never blocks the caller;
// events are dropped when the queue is full.
func (b *Broadcaster) Notify(e dialogue.Event) {
	if e.Type == dialogue.EventRevealStep {
		return
	}
	select {
	case b.queue <- e:
	default:
		b.logger.Warn("Event queue full, dropping event", "event_type", e.Type, "session_id", e.SessionID)
	}
}

// Run publishes queued events until ctx is cancelled, then flushes what is
// left in the queue.
func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case e := <-b.queue:
			_ = b.Publish(ctx, e)
		case <-ctx.Done():
			b.flush()
			return ctx.Err()
		}
	}
}

func (b *Broadcaster) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		select {
		case e := <-b.queue:
			_ = b.Publish(ctx, e)
		default:
			return
		}
	}
}

// Publish sends one event to its session channel.
func (b *Broadcaster) Publish(ctx context.Context, e dialogue.Event) error {
	channel := Channel(e.SessionID)

	data, err := json.Marshal(toMessage(e))
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", e.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", e.Type,
	)

	return nil
}

func toMessage(e dialogue.Event) Message {
	m := Message{
		Type:      e.Type,
		SessionID: e.SessionID.String(),
		Asset:     e.Asset,
		Line:      e.Line,
		Tags:      e.Tags,
		Choices:   e.Choices,
		Error:     e.Error,
		AtMS:      e.At.Milliseconds(),
	}
	if e.Type == dialogue.EventChoiceMade {
		idx := e.Index
		m.Index = &idx
	}
	return m
}
