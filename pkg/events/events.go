package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrHandlerNotFound is returned when removing a subscription that is not
// registered under the given pattern.
var ErrHandlerNotFound = errors.New("events: handler not found")

// Handler receives the concrete event name (not the subscription pattern) and
// the dispatched payload.
type Handler func(name string, payload any)

// Subscription identifies a registered handler so it can be removed
// individually. Go functions are not comparable, so On and OnNext return a
// handle instead of accepting the function back.
type Subscription struct {
	pattern string
	once    bool
	fn      Handler
}

// table holds subscriptions of one class (persistent or one-shot), split into
// exact names and wildcard patterns. Wildcard patterns keep insertion order so
// dispatch is deterministic.
type table struct {
	exact     map[string][]*Subscription
	wildcard  map[string][]*Subscription
	wildOrder []string
}

func newTable() *table {
	return &table{
		exact:    make(map[string][]*Subscription),
		wildcard: make(map[string][]*Subscription),
	}
}

func (t *table) add(sub *Subscription) {
	if isWildcard(sub.pattern) {
		if _, ok := t.wildcard[sub.pattern]; !ok {
			t.wildOrder = append(t.wildOrder, sub.pattern)
		}
		t.wildcard[sub.pattern] = append(t.wildcard[sub.pattern], sub)
		return
	}
	t.exact[sub.pattern] = append(t.exact[sub.pattern], sub)
}

func (t *table) remove(sub *Subscription) bool {
	if isWildcard(sub.pattern) {
		subs := t.wildcard[sub.pattern]
		for i, s := range subs {
			if s == sub {
				remaining := append(subs[:i:i], subs[i+1:]...)
				if len(remaining) == 0 {
					t.dropWild(sub.pattern)
				} else {
					t.wildcard[sub.pattern] = remaining
				}
				return true
			}
		}
		return false
	}
	subs := t.exact[sub.pattern]
	for i, s := range subs {
		if s == sub {
			remaining := append(subs[:i:i], subs[i+1:]...)
			if len(remaining) == 0 {
				delete(t.exact, sub.pattern)
			} else {
				t.exact[sub.pattern] = remaining
			}
			return true
		}
	}
	return false
}

func (t *table) removeAll(pattern string) {
	if isWildcard(pattern) {
		t.dropWild(pattern)
		return
	}
	delete(t.exact, pattern)
}

// dropWild deletes a wildcard pattern and its dispatch-order entry. Leaving a
// stale order entry would both grow the scan list without bound and, worse,
// duplicate the entry when the same pattern is registered again.
func (t *table) dropWild(pattern string) {
	delete(t.wildcard, pattern)
	for i, p := range t.wildOrder {
		if p == pattern {
			t.wildOrder = append(t.wildOrder[:i:i], t.wildOrder[i+1:]...)
			return
		}
	}
}

// matched returns the subscriptions matching name: exact entries first, then
// wildcard entries in registration order of their patterns.
func (t *table) matched(name string) []*Subscription {
	var out []*Subscription
	out = append(out, t.exact[name]...)
	for _, pattern := range t.wildOrder {
		if matchWildcard(pattern, name) {
			out = append(out, t.wildcard[pattern]...)
		}
	}
	return out
}

// clearMatched removes every subscription list that matches name. Used to
// consume one-shot handlers after a dispatch round.
func (t *table) clearMatched(name string) {
	delete(t.exact, name)
	var matched []string
	for _, pattern := range t.wildOrder {
		if matchWildcard(pattern, name) {
			matched = append(matched, pattern)
		}
	}
	for _, pattern := range matched {
		t.dropWild(pattern)
	}
}

func isWildcard(pattern string) bool {
	return pattern == "*" || strings.HasSuffix(pattern, ".*")
}

// matchWildcard reports whether a wildcard pattern matches name. "*" matches
// everything; "prefix.*" matches any name beginning with "prefix.".
func matchWildcard(pattern, name string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return false
}

// Bus dispatches events to subscribers by name.
type Bus struct {
	mu         sync.Mutex
	persistent *table
	oneShot    *table
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		persistent: newTable(),
		oneShot:    newTable(),
	}
}

// On registers fn as a persistent handler for pattern. The pattern may be an
// exact event name, "prefix.*", or "*".
func (b *Bus) On(pattern string, fn Handler) *Subscription {
	sub := &Subscription{pattern: pattern, fn: fn}
	b.mu.Lock()
	b.persistent.add(sub)
	b.mu.Unlock()
	return sub
}

// OnNext registers fn to run once, on the next event matching pattern.
func (b *Bus) OnNext(pattern string, fn Handler) *Subscription {
	sub := &Subscription{pattern: pattern, once: true, fn: fn}
	b.mu.Lock()
	b.oneShot.add(sub)
	b.mu.Unlock()
	return sub
}

// Off removes persistent handlers for pattern. With a nil sub every handler
// registered under the pattern is removed; with a specific sub only that
// handler is removed, and ErrHandlerNotFound is returned if it is not
// registered.
func (b *Bus) Off(pattern string, sub *Subscription) error {
	return b.off(b.persistent, pattern, sub)
}

// OffNext is the one-shot counterpart of Off.
func (b *Bus) OffNext(pattern string, sub *Subscription) error {
	return b.off(b.oneShot, pattern, sub)
}

func (b *Bus) off(t *table, pattern string, sub *Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub == nil {
		t.removeAll(pattern)
		return nil
	}
	if sub.pattern != pattern || !t.remove(sub) {
		return fmt.Errorf("%w: %q", ErrHandlerNotFound, pattern)
	}
	return nil
}

// Clear removes all handlers, persistent and one-shot.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.persistent = newTable()
	b.oneShot = newTable()
	b.mu.Unlock()
}

// Dispatch delivers payload to every handler whose pattern matches name.
// Order within one dispatch: exact persistent, wildcard persistent, exact
// one-shot, wildcard one-shot. Matched one-shot handlers are consumed before
// any handler runs, so re-dispatching from inside a handler cannot fire them
// twice. All handler calls complete before Dispatch returns.
func (b *Bus) Dispatch(name string, payload any) {
	b.mu.Lock()
	snapshot := b.persistent.matched(name)
	snapshot = append(snapshot, b.oneShot.matched(name)...)
	b.oneShot.clearMatched(name)
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.call(sub, name, payload)
	}
}

func (b *Bus) call(sub *Subscription, name string, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("events: handler panic", "event", name, "pattern", sub.pattern, "panic", r)
		}
	}()
	sub.fn(name, payload)
}

// WaitForNext blocks until the next event matching pattern is dispatched and
// returns its payload. A timeout of zero or less waits indefinitely. On
// timeout or context cancellation it returns (nil, false); the underlying
// one-shot handler stays registered and is consumed by the next matching
// dispatch.
func (b *Bus) WaitForNext(ctx context.Context, pattern string, timeout time.Duration) (any, bool) {
	ch := make(chan any, 1)
	b.OnNext(pattern, func(_ string, payload any) {
		ch <- payload
	})

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case payload := <-ch:
		return payload, true
	case <-timeoutCh:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}
