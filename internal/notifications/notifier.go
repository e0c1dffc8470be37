// Package notifications delivers live interaction events to connected users.
// Events are published to Redis and fanned out by a Hub to the websocket
// connections of the recipient, so any API instance may publish and any
// instance holding the socket delivers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"peopleconnects/internal/middleware"
	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Envelope is the frame written to websocket clients.
type Envelope struct {
	Type    string              `json:"type"`
	Payload models.Notification `json:"payload"`
}

// Notifier publishes notifications into Redis channels. A Notifier without a
// Redis client drops everything silently.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Notify publishes n on its recipient's channel.
func (n *Notifier) Notify(ctx context.Context, note models.Notification) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Envelope{Type: "notification", Payload: note})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.rdb.Publish(ctx, UserChannel(note.Recipient), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	observability.NotificationsPublished.WithLabelValues(note.Type).Inc()
	return nil
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	// Receive blocks until the subscription is confirmed so no publish made
	// after we return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(username string) string {
	return userChannelPrefix + username
}

// usernameFromChannel is the inverse of UserChannel.
func usernameFromChannel(channel string) (string, bool) {
	name, ok := strings.CutPrefix(channel, userChannelPrefix)
	return name, ok && name != ""
}
