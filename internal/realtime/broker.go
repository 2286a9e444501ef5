package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisChannel = "blazehunter:refresh"

// Event is pushed to browsers over the event stream.
type Event struct {
	Type    string      `json:"type"` // "refresh"
	Payload interface{} `json:"payload"`
}

// Broker fans events out to every subscribed browser. When a redis client is
// attached, events travel through redis pub/sub so every instance delivers
// them.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int

	redisClient *redis.Client
	log         zerolog.Logger
}

// NewBroker creates a broker. rdb may be nil for a single instance.
func NewBroker(rdb *redis.Client, log zerolog.Logger) *Broker {
	return &Broker{
		subs:        make(map[chan Event]struct{}),
		buffer:      16,
		redisClient: rdb,
		log:         log,
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away; it closes the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of connected listeners.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers an event. Slow listeners miss events rather than block the
// publisher.
func (b *Broker) Publish(ctx context.Context, ev Event) {
	if b.redisClient != nil {
		data, err := json.Marshal(ev)
		if err == nil {
			if err = b.redisClient.Publish(ctx, redisChannel, data).Err(); err == nil {
				return
			}
		}
		b.log.Warn().Err(err).Msg("redis publish failed, delivering locally")
	}
	b.deliver(ev)
}

func (b *Broker) deliver(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// RunRedis relays events published by any instance to local listeners. It
// returns when ctx is cancelled. Without redis it returns immediately.
func (b *Broker) RunRedis(ctx context.Context) {
	if b.redisClient == nil {
		return
	}

	pubsub := b.redisClient.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Msg("invalid event on redis channel")
				continue
			}
			b.deliver(ev)
		}
	}
}
