package identity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

// Relay carries auth events between instances.
type Relay interface {
	Publish(ctx context.Context, ev domain.AuthEvent) error
	// Listen blocks, handing every received event to deliver, until ctx is done.
	Listen(ctx context.Context, deliver func(domain.AuthEvent)) error
}

// Bus fans auth events out to local subscribers. With a relay, events take a
// round trip through it so every instance sees them once.
type Bus struct {
	relay  Relay
	logger zerolog.Logger

	mu       sync.RWMutex
	handlers map[int]ports.AuthEventHandler
	next     int
}

// NewBus returns a bus. relay may be nil for a single-process deployment.
func NewBus(relay Relay, logger zerolog.Logger) *Bus {
	return &Bus{
		relay:    relay,
		logger:   logger,
		handlers: make(map[int]ports.AuthEventHandler),
	}
}

func (b *Bus) Subscribe(handler ports.AuthEventHandler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish sends ev to every subscriber. When the relay is unavailable the
// event is still delivered locally and the relay error is returned.
func (b *Bus) Publish(ctx context.Context, ev domain.AuthEvent) error {
	if b.relay == nil {
		b.deliver(ev)
		return nil
	}
	if err := b.relay.Publish(ctx, ev); err != nil {
		b.deliver(ev)
		return err
	}
	return nil
}

// Run consumes the relay until ctx is done. Without a relay it just waits.
func (b *Bus) Run(ctx context.Context) error {
	if b.relay == nil {
		<-ctx.Done()
		return nil
	}
	b.logger.Info().Msg("auth event relay listening")
	return b.relay.Listen(ctx, b.deliver)
}

func (b *Bus) deliver(ev domain.AuthEvent) {
	b.mu.RLock()
	handlers := make([]ports.AuthEventHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
