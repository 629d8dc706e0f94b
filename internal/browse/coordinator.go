package browse

import (
	"sync"
	"time"

	"listing-browser/internal/models"
	"listing-browser/internal/store"
)

// SnapshotSource is the part of the store a session listens to
type SnapshotSource interface {
	Subscribe(fn func(store.Snapshot)) func()
	Loading() bool
}

// View is the serializable picture of a session
type View struct {
	SessionID  string             `json:"sessionId"`
	Filter     models.FilterState `json:"filter"`
	PriceLabel string             `json:"priceLabel"`
	Sort       models.SortOption  `json:"sort"`
	Polygon    models.Polygon     `json:"polygon"`
	Viewport   models.Viewport    `json:"viewport"`
	Selected   *models.Listing    `json:"selected"`
	Visible    []models.Listing   `json:"visible"`
	Count      int                `json:"count"`
	Total      int                `json:"total"`
	Version    uint64             `json:"snapshotVersion"`
	Loading    bool               `json:"loading"`
}

// Coordinator owns the state of one browsing session. All transitions are
// serialized; watchers get the new View after each of them.
type Coordinator struct {
	id     string
	source SnapshotSource

	mu          sync.Mutex
	state       State
	watchers    map[chan View]struct{}
	unsubscribe func()
	lastSeen    time.Time
	closed      bool
	done        chan struct{}
}

// NewCoordinator starts a session in the default state and attaches it to
// source. A snapshot the source already holds is applied right away.
func NewCoordinator(id string, source SnapshotSource) *Coordinator {
	c := &Coordinator{
		id:       id,
		source:   source,
		state:    NewState(),
		watchers: make(map[chan View]struct{}),
		lastSeen: time.Now(),
		done:     make(chan struct{}),
	}
	if source != nil {
		unsubscribe := source.Subscribe(c.applySnapshot)
		c.mu.Lock()
		c.unsubscribe = unsubscribe
		c.mu.Unlock()
	}
	return c
}

func (c *Coordinator) ID() string { return c.id }

func (c *Coordinator) applySnapshot(snap store.Snapshot) {
	c.update(func(s State) State {
		return s.WithSnapshot(snap.Listings, snap.Version)
	})
}

// update runs a transition and hands the new view to every watcher
func (c *Coordinator) update(fn func(State) State) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	view := c.viewLocked()
	for ch := range c.watchers {
		deliver(ch, view)
	}
	return view
}

// deliver never blocks. A slow watcher loses its oldest pending view, so the
// newest one always gets through.
func deliver(ch chan View, v View) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (c *Coordinator) viewLocked() View {
	s := c.state
	v := View{
		SessionID:  c.id,
		Filter:     s.Filter(),
		PriceLabel: models.PriceRangeLabel(s.filter.MinPrice, s.filter.MaxPrice),
		Sort:       s.Sort(),
		Polygon:    s.Polygon(),
		Viewport:   s.Viewport(),
		Visible:    s.Visible(),
		Total:      s.Total(),
		Version:    s.Version(),
		Loading:    !s.Loaded(),
	}
	if c.source != nil && v.Loading {
		v.Loading = c.source.Loading()
	}
	v.Count = len(v.Visible)
	if l, ok := s.Selected(); ok {
		v.Selected = &l
	}
	return v
}

// View returns the current view
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns the current state value
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) SetFilter(f models.FilterState) View {
	return c.update(func(s State) State { return s.WithFilter(f) })
}

func (c *Coordinator) PatchFilter(p models.FilterPatch) View {
	return c.update(func(s State) State { return s.PatchFilter(p) })
}

func (c *Coordinator) ResetFilter() View {
	return c.update(State.ResetFilter)
}

func (c *Coordinator) SetSort(opt models.SortOption) View {
	return c.update(func(s State) State { return s.WithSort(opt) })
}

func (c *Coordinator) DrawPolygon(poly models.Polygon) View {
	return c.update(func(s State) State { return s.WithPolygon(poly) })
}

func (c *Coordinator) ClearPolygon() View {
	return c.update(State.ClearPolygon)
}

// Select highlights a listing from the current snapshot
func (c *Coordinator) Select(id string) (View, error) {
	var err error
	v := c.update(func(s State) State {
		next, selErr := s.Select(id)
		err = selErr
		return next
	})
	return v, err
}

func (c *Coordinator) ClearSelection() View {
	return c.update(State.ClearSelection)
}

func (c *Coordinator) SelectPlace(p models.LatLng) View {
	return c.update(func(s State) State { return s.SelectPlace(p) })
}

// Watch returns a channel of views. The current view is delivered first.
// The channel is closed by the returned cancel func or when the session
// closes.
func (c *Coordinator) Watch() (<-chan View, func()) {
	ch := make(chan View, 10)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.watchers[ch] = struct{}{}
	ch <- c.viewLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.watchers[ch]; ok {
				delete(c.watchers, ch)
				close(ch)
			}
			c.mu.Unlock()
		})
	}
}

// Done is closed when the session closes
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Touch marks the session as used
func (c *Coordinator) Touch(at time.Time) {
	c.mu.Lock()
	c.lastSeen = at
	c.mu.Unlock()
}

// LastSeen returns when the session was last used
func (c *Coordinator) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Close detaches the session from the store and ends its watchers
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	for ch := range c.watchers {
		delete(c.watchers, ch)
		close(ch)
	}
	close(c.done)
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
