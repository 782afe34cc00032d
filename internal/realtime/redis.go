package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "imposter:room:"

	relayRetryMin = time.Second
	relayRetryMax = 30 * time.Second
)

var errRelayClosed = errors.New("redis subscription closed")

// RedisBridge shares room events between server instances. Publish goes to
// Redis; Run relays everything Redis delivers into the local broker, so
// local subscribers see writes made by any instance. While the relay is not
// subscribed, events are also delivered locally; Mirror drops the duplicates
// by version.
type RedisBridge struct {
	rdb      *redis.Client
	local    *Broker
	logger   *slog.Logger
	relaying atomic.Bool
	retryMin time.Duration
	retryMax time.Duration
}

func NewRedisBridge(rdb *redis.Client, local *Broker, logger *slog.Logger) *RedisBridge {
	return &RedisBridge{rdb: rdb, local: local, logger: logger, retryMin: relayRetryMin, retryMax: relayRetryMax}
}

// Publish falls back to local delivery when Redis is unreachable.
func (b *RedisBridge) Publish(code string, ev Event) {
	if !b.relaying.Load() {
		b.local.Publish(code, ev)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("encoding room event", "code", code, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, channelPrefix+code, data).Err(); err != nil && b.relaying.Load() {
		b.logger.Warn("redis publish failed, delivering locally", "code", code, "error", err)
		b.local.Publish(code, ev)
	}
}

// Run relays events until ctx is cancelled. A lost subscription is retried
// with backoff; Run never fails the caller because of Redis.
func (b *RedisBridge) Run(ctx context.Context) error {
	wait := b.retryMin
	for {
		started := time.Now()
		err := b.relay(ctx)
		b.relaying.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > b.retryMax {
			wait = b.retryMin
		}
		b.logger.Warn("redis room relay stopped, retrying", "error", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait = min(2*wait, b.retryMax)
	}
}

func (b *RedisBridge) relay(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.relaying.Store(true)
	b.logger.Info("redis room relay started")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errRelayClosed
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("dropping malformed room event", "channel", msg.Channel, "error", err)
				continue
			}
			code := strings.TrimPrefix(msg.Channel, channelPrefix)
			b.local.Publish(code, ev)
		}
	}
}
