// Package live implements the change feed that dashboard views
// subscribe to. Changes are fanned out through Redis pub/sub on a
// per-session channel, so every staff client and customer view
// watching a session hears about mutations regardless of which server
// instance performed them.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Change is one notification on the feed. Kind is "orders" when the
// session's order set changed and "serving" when the now-serving
// pointer moved. Subscribers re-query the store on receipt; the
// change itself carries no record data.
type Change struct {
	Kind      string    `json:"kind"`
	SessionID uint64    `json:"session_id"`
	At        time.Time `json:"at"`
}

// Feed publishes and subscribes to per-session change channels. A nil
// Redis client degrades gracefully: publishes are dropped and
// subscriptions never fire, so the dashboards fall back to manual
// refresh instead of failing.
type Feed struct {
	rdb *redis.Client
}

// NewFeed returns a Feed backed by the given Redis client, which may
// be nil.
func NewFeed(rdb *redis.Client) *Feed { return &Feed{rdb: rdb} }

func channelFor(sessionID uint64) string {
	return fmt.Sprintf("orderdesk:session:%d", sessionID)
}

// OrderChanged announces that the session's order set changed.
// Best effort: a failed publish is logged, never surfaced.
func (f *Feed) OrderChanged(ctx context.Context, sessionID uint64) {
	f.publish(ctx, Change{Kind: "orders", SessionID: sessionID, At: time.Now().UTC()})
}

// ServingChanged announces that the session's now-serving pointer or
// call timestamp changed.
func (f *Feed) ServingChanged(ctx context.Context, sessionID uint64) {
	f.publish(ctx, Change{Kind: "serving", SessionID: sessionID, At: time.Now().UTC()})
}

func (f *Feed) publish(ctx context.Context, ch Change) {
	if f.rdb == nil {
		return
	}
	body, err := json.Marshal(ch)
	if err != nil {
		log.Printf("live: marshal change failed: %v", err)
		return
	}
	if err := f.rdb.Publish(ctx, channelFor(ch.SessionID), body).Err(); err != nil {
		log.Printf("live: publish failed: %v", err)
	}
}

// Subscribe opens a subscription to one session's changes and returns
// the stream together with its cancel function. The cancel function
// is idempotent and must be called before opening a replacement
// subscription (e.g. when a dashboard switches sessions) and on view
// disposal; it closes the stream. Messages that cannot be decoded are
// dropped.
func (f *Feed) Subscribe(ctx context.Context, sessionID uint64) (<-chan Change, func()) {
	out := make(chan Change)
	if f.rdb == nil {
		close(out)
		return out, func() {}
	}

	sub := f.rdb.Subscribe(ctx, channelFor(sessionID))
	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = sub.Close() })
	}

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ch Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				continue
			}
			select {
			case out <- ch:
			case <-ctx.Done():
				cancel()
				return
			}
		}
	}()
	return out, cancel
}
