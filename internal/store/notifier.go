package store

import (
	"context"
	"sync"
)

// ChangeKind names what happened to the collection
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeResync  ChangeKind = "resync"
)

// ChangeEvent tells listeners that the collection changed
type ChangeEvent struct {
	Kind   ChangeKind `json:"kind"`
	ID     string     `json:"id,omitempty"`
	Origin string     `json:"origin"`
	At     int64      `json:"at"`
}

// Notifier carries change events between store instances
type Notifier interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Listen delivers events to fn until ctx is done. It returns once the
	// listener is registered.
	Listen(ctx context.Context, fn func(ChangeEvent)) error
}

// LocalNotifier delivers events within the process
type LocalNotifier struct {
	mu       sync.RWMutex
	handlers map[int]func(ChangeEvent)
	next     int
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{handlers: make(map[int]func(ChangeEvent))}
}

func (n *LocalNotifier) Publish(_ context.Context, ev ChangeEvent) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, fn := range n.handlers {
		fn(ev)
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, fn func(ChangeEvent)) error {
	n.mu.Lock()
	id := n.next
	n.next++
	n.handlers[id] = fn
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.handlers, id)
		n.mu.Unlock()
	}()
	return nil
}
