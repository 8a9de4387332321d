// Package notify delivers document events to observers.
//
// Observers subscribe to every event or to one kind of event. Delivery is
// synchronous by default; WithAsync moves it to a goroutine so that slow
// observers never hold up an edit.
package notify

import (
	"sync"

	"github.com/dshills/editcore/internal/engine/buffer"
	"github.com/dshills/editcore/internal/engine/transaction"
)

// Kind is the kind of document event.
type Kind int

const (
	// KindEdit is sent after a transaction was applied.
	KindEdit Kind = iota
	// KindUndo is sent after an undo step.
	KindUndo
	// KindRedo is sent after a redo step.
	KindRedo
	// KindSelection is sent when a view's selection is replaced directly.
	KindSelection
	// KindSyntax is sent when a new syntax tree is installed.
	KindSyntax
	// KindReload is sent after the whole text was replaced.
	KindReload
	// KindClose is sent when the document is closed.
	KindClose
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEdit:
		return "edit"
	case KindUndo:
		return "undo"
	case KindRedo:
		return "redo"
	case KindSelection:
		return "selection"
	case KindSyntax:
		return "syntax"
	case KindReload:
		return "reload"
	case KindClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event describes something that happened to a document.
type Event struct {
	Kind Kind

	// Revision is the buffer revision after the event.
	Revision buffer.Revision

	// View is the view that caused the event, if any.
	View string

	// Changes are the edit descriptors of text-changing events.
	Changes []transaction.Change
}

// Observer is called for each delivered event.
type Observer func(Event)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages subscriptions.
type Notifier struct {
	mu sync.RWMutex

	all    map[uint64]Observer
	byKind map[Kind]map[uint64]Observer
	nextID uint64

	async  bool
	buffer chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery through a buffer of the given
// size. Notify blocks when the buffer is full.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Event, bufferSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		all:    make(map[uint64]Observer),
		byKind: make(map[Kind]map[uint64]Observer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}
	return n
}

// Subscribe registers an observer for all events.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.all[id] = observer
	return &Subscription{id: id, notifier: n}
}

// SubscribeKind registers an observer for one kind of event.
func (n *Notifier) SubscribeKind(kind Kind, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.byKind[kind] == nil {
		n.byKind[kind] = make(map[uint64]Observer)
	}
	n.byKind[kind][id] = observer
	return &Subscription{id: id, notifier: n}
}

// Notify delivers ev. Events sent after Close are dropped.
func (n *Notifier) Notify(ev Event) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- ev:
		case <-n.done:
		}
		return
	}
	n.deliver(ev)
}

// Close shuts down the notifier, delivering buffered events first. It is
// safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.all, id)
	for kind, observers := range n.byKind {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.byKind, kind)
		}
	}
}

func (n *Notifier) deliver(ev Event) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.all)+len(n.byKind[ev.Kind]))
	for _, obs := range n.all {
		observers = append(observers, obs)
	}
	for _, obs := range n.byKind[ev.Kind] {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(ev)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case ev := <-n.buffer:
			n.deliver(ev)
		case <-n.done:
			for {
				select {
				case ev := <-n.buffer:
					n.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// Batch collects events and delivers them together.
type Batch struct {
	notifier *Notifier
	events   []Event
	mu       sync.Mutex
}

// NewBatch creates an empty batch.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Add queues an event.
func (b *Batch) Add(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// Commit delivers the queued events in order.
func (b *Batch) Commit() {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()

	for _, ev := range events {
		b.notifier.Notify(ev)
	}
}

// Discard drops the queued events.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// Len returns the number of queued events.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
