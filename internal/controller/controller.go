package controller

import (
	"sync"
	"time"

	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/shared/observability"
	"opsboard/internal/store"
)

// Renderer consumes a freshly computed view. Implementations draw
// tables, charts or export files; the controller does not care which.
type Renderer interface {
	Render(engine.View)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(engine.View)

func (f RendererFunc) Render(v engine.View) { f(v) }

// Controller is the sole subscriber of the filter state. On every
// notification it recomputes the view synchronously and hands it to the
// attached renderers in registration order, so a renderer always
// observes a view consistent with the filter state that triggered it.
type Controller struct {
	mu        sync.Mutex
	store     *store.Store
	state     *filter.State
	renderers []Renderer
	current   engine.View
	unsub     func()
}

// New wires the controller to the filter state and computes the initial
// view immediately, rendering it to the given renderers.
func New(st *store.Store, state *filter.State, renderers ...Renderer) *Controller {
	c := &Controller{store: st, state: state, renderers: renderers}
	c.unsub = state.Subscribe(c.onChange)
	c.recompute(state.Snapshot())
	return c
}

func (c *Controller) onChange(snap filter.Snapshot) {
	c.recompute(snap)
}

func (c *Controller) recompute(snap filter.Snapshot) {
	c.mu.Lock()
	start := time.Now()
	view := engine.Aggregate(c.store, snap)
	c.current = view
	renderers := make([]Renderer, len(c.renderers))
	copy(renderers, c.renderers)
	c.mu.Unlock()

	observability.AggregationDuration.Observe(time.Since(start).Seconds())
	observability.AggregationsTotal.WithLabelValues(snap.Mode.String()).Inc()

	for _, r := range renderers {
		r.Render(view)
	}
}

// Attach adds a renderer and immediately hands it the current view so
// late subscribers never start blank.
func (c *Controller) Attach(r Renderer) {
	c.mu.Lock()
	c.renderers = append(c.renderers, r)
	view := c.current
	c.mu.Unlock()
	r.Render(view)
}

// Refresh recomputes and re-renders without a filter mutation.
func (c *Controller) Refresh() {
	c.recompute(c.state.Snapshot())
}

// Current returns the last computed view.
func (c *Controller) Current() engine.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Store returns the store backing the current view. Callers use it to
// enumerate the selectable identifiers; the store itself is immutable.
func (c *Controller) Store() *store.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// ReplaceStore swaps in a freshly loaded store. Rebinding the filter
// re-clamps the period, prunes vanished selections and notifies, which
// drives exactly one recompute against the new data.
func (c *Controller) ReplaceStore(st *store.Store) {
	c.mu.Lock()
	c.store = st
	c.mu.Unlock()
	c.state.Rebind(st)
}

// Close detaches the controller from the filter state. Further filter
// mutations no longer reach it.
func (c *Controller) Close() {
	c.unsub()
}
