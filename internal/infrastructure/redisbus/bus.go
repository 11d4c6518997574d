package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	ws "hajzi/internal/infrastructure/websocket"
	"hajzi/pkg/logger"
)

// envelope is what travels over the Redis channel: the room and the encoded
// frame, so every instance can deliver without re-encoding.
type envelope struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

const (
	resubscribeMin = 500 * time.Millisecond
	resubscribeMax = 30 * time.Second
)

// Bus relays room events between instances. Publish sends to Redis and Run
// delivers everything received on the channel to the local manager, including
// events this instance published. While the subscription is down, Publish
// delivers to local rooms directly.
type Bus struct {
	rdb      *redis.Client
	channel  string
	local    *ws.Manager
	relaying atomic.Bool
}

func New(rdb *redis.Client, channel string, local *ws.Manager) *Bus {
	return &Bus{
		rdb:     rdb,
		channel: channel,
		local:   local,
	}
}

// Publish implements service.RealtimePublisher. When Redis rejects the event it
// is still delivered to local rooms and the error is returned.
func (b *Bus) Publish(ctx context.Context, roomID, event string, payload interface{}) error {
	frame, err := ws.EncodeFrame(event, roomID, payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelope{Room: roomID, Frame: frame})
	if err != nil {
		return err
	}

	relayed := b.relaying.Load()
	if !relayed {
		// Our own subscription will not echo this back.
		b.local.BroadcastLocal(roomID, frame)
	}

	if err := b.rdb.Publish(ctx, b.channel, body).Err(); err != nil {
		if relayed {
			b.local.BroadcastLocal(roomID, frame)
		}
		return err
	}
	return nil
}

// Relaying reports whether the channel subscription is currently live.
func (b *Bus) Relaying() bool {
	return b.relaying.Load()
}

// Run keeps the channel subscription alive until ctx ends, resubscribing
// with exponential backoff whenever it drops. It only returns ctx's error.
func (b *Bus) Run(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = resubscribeMin
	retry.MaxInterval = resubscribeMax
	retry.MaxElapsedTime = 0

	for {
		subscribed, err := b.relay(ctx)
		b.relaying.Store(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if subscribed {
			retry.Reset()
		}

		wait := retry.NextBackOff()
		logger.Warn("Redis relay on %s interrupted: %v; resubscribing in %s", b.channel, err, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// relay runs one subscription until it fails or ctx ends. subscribed reports
// whether the subscription was confirmed before it ended.
func (b *Bus) relay(ctx context.Context) (subscribed bool, err error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err = pubsub.Receive(ctx); err != nil {
		return false, err
	}
	b.relaying.Store(true)
	logger.Info("Relaying room events over redis channel %s", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("subscription closed")
			}
			b.deliver([]byte(msg.Payload))
		}
	}
}

func (b *Bus) deliver(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		logger.Warn("Ignoring malformed relay message: %v", err)
		return
	}
	if env.Room == "" || len(env.Frame) == 0 {
		return
	}
	b.local.BroadcastLocal(env.Room, env.Frame)
}
