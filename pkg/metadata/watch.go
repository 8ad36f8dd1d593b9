package metadata

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"idprest/pkg/logger"
)

// Reloader is satisfied by *Service.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher reloads metadata whenever a message arrives on a Redis channel.
type Watcher struct {
	sub     *redis.PubSub
	channel string
	log     *zap.SugaredLogger
}

// Subscribe subscribes to channel and waits for the confirmation, so that
// messages published after it returns are delivered.
func Subscribe(ctx context.Context, rdb *redis.Client, channel string, log *zap.SugaredLogger) (*Watcher, error) {
	sub := rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return &Watcher{sub: sub, channel: channel, log: logger.OrNop(log)}, nil
}

// Run triggers r.Reload for every message until ctx is done or the
// subscription is closed.
func (w *Watcher) Run(ctx context.Context, r Reloader) {
	defer w.sub.Close()
	ch := w.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.log.Infow("metadata reload requested", "channel", w.channel, "payload", msg.Payload)
			if err := r.Reload(ctx); err != nil {
				w.log.Warnw("requested metadata reload failed", "err", err)
			}
		}
	}
}

// RequestReload asks every subscribed instance to reload.
func RequestReload(ctx context.Context, rdb *redis.Client, channel, reason string) error {
	if err := rdb.Publish(ctx, channel, reason).Err(); err != nil {
		return fmt.Errorf("publish reload request: %w", err)
	}
	return nil
}
