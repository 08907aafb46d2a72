package events

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisRelay shares changes between processes using the same store through a
// redis pub/sub channel. Changes that originated here are not re-delivered.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedisRelay(addr string, password string, db int, channel string, hub *Hub) *RedisRelay {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if channel == "" {
		channel = "posadmin:changes"
	}
	return &RedisRelay{client: client, channel: channel, hub: hub}
}

func (r *RedisRelay) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}

func (r *RedisRelay) Publish(change Change) {
	if change.Origin != r.hub.Origin() {
		return
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("key", change.Key).Msg("events: redis publish failed")
	}
}

// Run forwards remote changes into the hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.deliver([]byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) deliver(payload []byte) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		log.Warn().Err(err).Msg("events: ignoring malformed relay message")
		return
	}
	if change.Key == "" || change.Origin == r.hub.Origin() {
		return
	}
	r.hub.Publish(change)
}
