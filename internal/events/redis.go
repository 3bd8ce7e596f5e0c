package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RedisBridge publishes events to the local bus and to a Redis channel, and
// relays events from other replicas onto the local bus
type RedisBridge struct {
	client  *redis.Client
	channel string
	bus     *Bus
	origin  string
	log     zerolog.Logger
}

// NewRedisClient parses url and checks the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisBridge creates a bridge for channel. Events published through it
// are tagged with a per-process origin so they are not delivered twice.
func NewRedisBridge(client *redis.Client, channel string, bus *Bus, log zerolog.Logger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		bus:     bus,
		origin:  uuid.NewString(),
		log:     log.With().Str("component", "redis_bridge").Str("channel", channel).Logger(),
	}
}

// Publish delivers e locally and forwards it to the other replicas
func (r *RedisBridge) Publish(e Event) {
	r.bus.Publish(e)

	e.Origin = r.origin
	payload, err := json.Marshal(e)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encode event")
		return
	}
	if err := r.client.Publish(context.Background(), r.channel, payload).Err(); err != nil {
		r.log.Warn().Err(err).Str("type", string(e.Type)).Msg("Failed to publish event to redis")
	}
}

// Run relays events from the channel until ctx is done
func (r *RedisBridge) Run(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	r.log.Info().Msg("Relaying board events from redis")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle([]byte(msg.Payload))
		}
	}
}

func (r *RedisBridge) handle(payload []byte) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		r.log.Warn().Err(err).Msg("Dropping malformed event")
		return
	}
	if e.Origin == r.origin {
		return
	}
	r.bus.Publish(e)
}
