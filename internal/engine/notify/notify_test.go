package notify

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindEdit, "edit"},
		{KindUndo, "undo"},
		{KindSyntax, "syntax"},
		{KindClose, "close"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestSubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Int32
	sub := n.Subscribe(func(Event) { received.Add(1) })

	n.Notify(Event{Kind: KindEdit})
	n.Notify(Event{Kind: KindUndo})
	if got := received.Load(); got != 2 {
		t.Errorf("received %d events, want 2", got)
	}

	sub.Unsubscribe()
	n.Notify(Event{Kind: KindEdit})
	if got := received.Load(); got != 2 {
		t.Errorf("unsubscribed observer received an event")
	}
}

func TestSubscribeKind(t *testing.T) {
	n := New()
	defer n.Close()

	var syntax, edits atomic.Int32
	n.SubscribeKind(KindSyntax, func(Event) { syntax.Add(1) })
	sub := n.SubscribeKind(KindEdit, func(ev Event) {
		if ev.View != "v1" {
			t.Errorf("view = %q", ev.View)
		}
		edits.Add(1)
	})

	n.Notify(Event{Kind: KindEdit, View: "v1"})
	n.Notify(Event{Kind: KindSyntax})
	n.Notify(Event{Kind: KindSyntax})
	if syntax.Load() != 2 || edits.Load() != 1 {
		t.Errorf("syntax=%d edits=%d", syntax.Load(), edits.Load())
	}

	sub.Unsubscribe()
	n.Notify(Event{Kind: KindEdit})
	if edits.Load() != 1 {
		t.Error("unsubscribed kind observer received an event")
	}
}

func TestAsyncDeliversBeforeClose(t *testing.T) {
	n := New(WithAsync(4))

	var mu sync.Mutex
	var got []Kind
	n.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Kind)
		mu.Unlock()
	})

	for _, k := range []Kind{KindEdit, KindUndo, KindRedo, KindReload, KindClose} {
		n.Notify(Event{Kind: k})
	}
	n.Close()
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 || got[0] != KindEdit || got[4] != KindClose {
		t.Errorf("got %v", got)
	}

	n.Notify(Event{Kind: KindEdit})
}

func TestBatch(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Int32
	n.Subscribe(func(Event) { received.Add(1) })

	b := n.NewBatch()
	b.Add(Event{Kind: KindUndo})
	b.Add(Event{Kind: KindUndo})
	if b.Len() != 2 {
		t.Errorf("Len = %d", b.Len())
	}
	if received.Load() != 0 {
		t.Error("batch delivered before commit")
	}
	b.Commit()
	if received.Load() != 2 {
		t.Errorf("received %d after commit", received.Load())
	}

	b.Add(Event{Kind: KindRedo})
	b.Discard()
	b.Commit()
	if received.Load() != 2 {
		t.Error("discarded event delivered")
	}
}
