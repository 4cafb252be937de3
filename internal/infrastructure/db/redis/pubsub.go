package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
)

// authEventsChannel names the pub/sub channel shared by every console
// instance, under the store's namespace.
const authEventsChannel = "auth-events"

// AuthEventRelay carries auth events between instances over redis pub/sub.
type AuthEventRelay struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func NewAuthEventRelay(store *Store, log zerolog.Logger) *AuthEventRelay {
	return &AuthEventRelay{client: store.Client(), channel: store.Key(authEventsChannel), log: log}
}

func (r *AuthEventRelay) Publish(ctx context.Context, ev domain.AuthEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode auth event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish auth event: %w", err)
	}
	return nil
}

// Listen subscribes to the channel and hands every decoded event to deliver
// until ctx is cancelled.
func (r *AuthEventRelay) Listen(ctx context.Context, deliver func(domain.AuthEvent)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.AuthEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn().Err(err).Msg("discarding malformed auth event")
				continue
			}
			deliver(ev)
		}
	}
}
