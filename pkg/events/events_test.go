package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatch_ExactMatch(t *testing.T) {
	bus := NewBus()
	var got []any
	bus.On("server.response.created", func(name string, payload any) {
		if name != "server.response.created" {
			t.Errorf("expected concrete name, got %q", name)
		}
		got = append(got, payload)
	})

	bus.Dispatch("server.response.created", 1)
	bus.Dispatch("server.response.done", 2)

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestDispatch_WildcardPatterns(t *testing.T) {
	bus := NewBus()
	counts := map[string]int{}

	bus.On("server.*", func(name string, _ any) { counts["server.*"]++ })
	bus.On("*", func(name string, _ any) { counts["*"]++ })

	bus.Dispatch("server.session.created", nil)
	bus.Dispatch("client.connected", nil)
	bus.Dispatch("server", nil) // no dot suffix: must not match "server.*"

	if counts["server.*"] != 1 {
		t.Errorf("server.*: expected 1, got %d", counts["server.*"])
	}
	if counts["*"] != 3 {
		t.Errorf("*: expected 3, got %d", counts["*"])
	}
}

func TestDispatch_Ordering(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.OnNext("server.x", func(string, any) { order = append(order, "once-exact") })
	bus.OnNext("server.*", func(string, any) { order = append(order, "once-wild") })
	bus.On("server.*", func(string, any) { order = append(order, "wild") })
	bus.On("server.x", func(string, any) { order = append(order, "exact-1") })
	bus.On("server.x", func(string, any) { order = append(order, "exact-2") })

	bus.Dispatch("server.x", nil)

	want := []string{"exact-1", "exact-2", "wild", "once-exact", "once-wild"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestOnNext_FiresOnce(t *testing.T) {
	bus := NewBus()
	fired := 0
	bus.OnNext("tick", func(string, any) { fired++ })

	bus.Dispatch("tick", nil)
	bus.Dispatch("tick", nil)

	if fired != 1 {
		t.Errorf("expected one-shot handler to fire once, fired %d times", fired)
	}
}

func TestOff_SpecificAndAll(t *testing.T) {
	bus := NewBus()
	var a, b int
	subA := bus.On("x", func(string, any) { a++ })
	bus.On("x", func(string, any) { b++ })

	if err := bus.Off("x", subA); err != nil {
		t.Fatalf("Off error: %v", err)
	}
	bus.Dispatch("x", nil)
	if a != 0 || b != 1 {
		t.Errorf("expected a=0 b=1, got a=%d b=%d", a, b)
	}

	// Removing again must fail.
	if err := bus.Off("x", subA); !errors.Is(err, ErrHandlerNotFound) {
		t.Errorf("expected ErrHandlerNotFound, got %v", err)
	}

	// Remove all.
	if err := bus.Off("x", nil); err != nil {
		t.Fatalf("Off(all) error: %v", err)
	}
	bus.Dispatch("x", nil)
	if b != 1 {
		t.Errorf("expected no further calls, got b=%d", b)
	}
}

func TestOffNext(t *testing.T) {
	bus := NewBus()
	fired := false
	sub := bus.OnNext("x", func(string, any) { fired = true })
	if err := bus.OffNext("x", sub); err != nil {
		t.Fatalf("OffNext error: %v", err)
	}
	bus.Dispatch("x", nil)
	if fired {
		t.Error("removed one-shot handler must not fire")
	}
}

func TestDispatch_SnapshotSemantics(t *testing.T) {
	bus := NewBus()
	var order []string

	// A handler that registers a peer during dispatch: the peer must not run
	// in the current round.
	bus.On("x", func(string, any) {
		order = append(order, "first")
		bus.On("x", func(string, any) { order = append(order, "late") })
	})

	bus.Dispatch("x", nil)
	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("expected [first], got %v", order)
	}

	bus.Dispatch("x", nil)
	if len(order) != 3 {
		t.Fatalf("expected late handler in second round, got %v", order)
	}
}

func TestDispatch_HandlerPanicDoesNotAbortSiblings(t *testing.T) {
	bus := NewBus()
	survived := false
	bus.On("x", func(string, any) { panic("boom") })
	bus.On("x", func(string, any) { survived = true })

	bus.Dispatch("x", nil)
	if !survived {
		t.Error("sibling handler must run after a panic")
	}
}

func TestWaitForNext_Success(t *testing.T) {
	bus := NewBus()
	go func() {
		time.Sleep(10 * time.Millisecond)
		bus.Dispatch("done", "payload")
	}()

	payload, ok := bus.WaitForNext(context.Background(), "done", time.Second)
	if !ok {
		t.Fatal("expected event before timeout")
	}
	if payload != "payload" {
		t.Errorf("expected payload, got %v", payload)
	}
}

func TestWaitForNext_Timeout(t *testing.T) {
	bus := NewBus()
	start := time.Now()
	payload, ok := bus.WaitForNext(context.Background(), "never", 20*time.Millisecond)
	if ok || payload != nil {
		t.Errorf("expected timeout, got %v %v", payload, ok)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("returned before timeout elapsed")
	}
	// The pending one-shot is consumed by the next matching dispatch.
	bus.Dispatch("never", nil)
	bus.Dispatch("never", nil)
}

func TestWaitForNext_ContextCancel(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	go cancel()
	_, ok := bus.WaitForNext(ctx, "never", 0)
	if ok {
		t.Error("expected cancellation")
	}
}

func TestClear(t *testing.T) {
	bus := NewBus()
	fired := false
	bus.On("x", func(string, any) { fired = true })
	bus.OnNext("x", func(string, any) { fired = true })
	bus.Clear()
	bus.Dispatch("x", nil)
	if fired {
		t.Error("cleared handlers must not fire")
	}
}

func TestWildcard_ExactlyOncePerDispatch(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.On("server.*", func(string, any) { count++ })

	names := []string{"server.a", "server.b.c", "server.response.text.delta"}
	for _, n := range names {
		bus.Dispatch(n, nil)
	}
	if count != len(names) {
		t.Errorf("expected %d calls, got %d", len(names), count)
	}
}

func TestOff_PrunesEmptiedWildcardPattern(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 100; i++ {
		sub := bus.On("server.*", func(string, any) {})
		if err := bus.Off("server.*", sub); err != nil {
			t.Fatalf("Off error on iteration %d: %v", i, err)
		}
	}
	if n := len(bus.persistent.wildOrder); n != 0 {
		t.Errorf("churned wildcard subscriptions grew the dispatch order to %d entries", n)
	}
	if _, ok := bus.persistent.wildcard["server.*"]; ok {
		t.Error("emptied wildcard pattern must be deleted from the table")
	}
}

func TestOneShotWildcard_ReregisterFiresOnce(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.OnNext("server.*", func(string, any) { count++ })
	bus.Dispatch("server.a", nil)

	// Consuming the one-shot must also drop its dispatch-order entry, or the
	// re-registered pattern would be scanned twice.
	bus.OnNext("server.*", func(string, any) { count += 10 })
	bus.Dispatch("server.b", nil)
	if count != 11 {
		t.Errorf("expected one call per registration, got count=%d", count)
	}
}
