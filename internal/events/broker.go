// Package events fans committed tree events out across server instances
// through Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"serwer-dokumentow/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// LocalPublisher delivers an encoded event to this instance's clients.
type LocalPublisher interface {
	PublishEvent(scope string, eventData []byte)
}

type envelope struct {
	Instance string          `json:"instance"`
	Scope    string          `json:"scope"`
	Event    json.RawMessage `json:"event"`
}

// Broker implements tree.Publisher. Events are delivered locally right away
// and relayed to other instances, which skip their own messages.
type Broker struct {
	client     *redis.Client
	channel    string
	instanceID string
	local      LocalPublisher
	logger     *slog.Logger
	ready      chan struct{}
}

func NewBroker(redisURL, channel string, local LocalPublisher, logger *slog.Logger) (*Broker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewBrokerWithClient(client, channel, local, logger), nil
}

func NewBrokerWithClient(client *redis.Client, channel string, local LocalPublisher, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		local:      local,
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

func (b *Broker) InstanceID() string {
	return b.instanceID
}

// Ready is closed once Run has subscribed to the channel.
func (b *Broker) Ready() <-chan struct{} {
	return b.ready
}

func (b *Broker) Publish(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode event", "event_type", event.EventType, "error", err)
		return
	}
	b.local.PublishEvent(event.Scope, data)

	msg, err := json.Marshal(envelope{Instance: b.instanceID, Scope: event.Scope, Event: data})
	if err != nil {
		b.logger.Error("failed to encode envelope", "event_type", event.EventType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		b.logger.Warn("failed to relay event", "event_id", event.ID, "error", err)
	}
}

// Run relays events published by other instances until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	close(b.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed event message", "error", err)
				continue
			}
			if env.Instance == b.instanceID {
				continue
			}
			b.local.PublishEvent(env.Scope, env.Event)
		}
	}
}

func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Broker) Close() error {
	return b.client.Close()
}
