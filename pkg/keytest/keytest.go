// Package keytest provides helpers for testing code built on keyva stores.
//
// Host is a fake rendering host that counts invalidations. Renderer drives a
// render function the way a UI runtime would: the first render runs
// immediately and every invalidation triggers a synchronous re-render, so
// tests observe exactly the renders a subscribed component would get.
//
// Example:
//
//	st := keyva.New()
//	r := keytest.NewRenderer(st, func(b *keyva.Binding) {
//	    value, _, _ := keyva.State(b, "count", keyva.Default(0))
//	    ...
//	})
//	defer r.Stop()
//	st.Set("count", 1)
//	if r.Renders() != 3 { ... }
package keytest

import (
	"sync"
	"testing"

	"github.com/keyva-ui/keyva/pkg/keyva"
)

// Host is a fake keyva.Host that records invalidations.
type Host struct {
	id uint64

	mu            sync.Mutex
	invalidations int
	onInvalidate  func()
}

// NewHost creates a fake host with a fresh ID.
func NewHost() *Host {
	return &Host{id: keyva.NextHostID()}
}

// Invalidate implements keyva.Host.
func (h *Host) Invalidate() {
	h.mu.Lock()
	h.invalidations++
	fn := h.onInvalidate
	h.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// ID implements keyva.Host.
func (h *Host) ID() uint64 {
	return h.id
}

// Invalidations returns how many times the host has been invalidated.
func (h *Host) Invalidations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.invalidations
}

// OnInvalidate registers a callback to run on each invalidation, after the
// counter is bumped.
func (h *Host) OnInvalidate(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onInvalidate = fn
}

// Renderer re-runs a render function whenever its host is invalidated,
// simulating a rendering engine's subscribe/re-render contract. Renders are
// synchronous: a Set that invalidates the host re-renders before returning.
type Renderer struct {
	host    *Host
	binding *keyva.Binding
	fn      func(*keyva.Binding)

	mu      sync.Mutex
	renders int
	stopped bool
}

// NewRenderer creates a renderer over st and runs the first render.
func NewRenderer(st *keyva.Store, fn func(*keyva.Binding)) *Renderer {
	host := NewHost()
	r := &Renderer{
		host:    host,
		binding: keyva.Bind(st, host),
		fn:      fn,
	}
	host.OnInvalidate(r.render)
	r.render()
	return r
}

// render runs one render pass unless the renderer is stopped.
func (r *Renderer) render() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.renders++
	r.mu.Unlock()

	r.fn(r.binding)
}

// Renders returns the number of render passes so far, including the first.
func (r *Renderer) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// Host returns the renderer's fake host.
func (r *Renderer) Host() *Host {
	return r.host
}

// Stop releases the renderer's binding, as an unmounting component would.
// Further invalidations are ignored.
func (r *Renderer) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.binding.Release()
}

// ExpectValue asserts that key is present in st with the given value.
func ExpectValue(t *testing.T, st *keyva.Store, key string, want any) {
	t.Helper()
	snap := st.Snapshot(key)
	if !snap.IsPresent() {
		t.Errorf("expected key %q to be present with %v, but it is absent", key, want)
		return
	}
	if snap.Value() != want {
		t.Errorf("expected key %q to hold %v, got %v", key, want, snap.Value())
	}
}

// ExpectAbsent asserts that key has no entry in st.
func ExpectAbsent(t *testing.T, st *keyva.Store, key string) {
	t.Helper()
	if snap := st.Snapshot(key); snap.IsPresent() {
		t.Errorf("expected key %q to be absent, got %v", key, snap.Value())
	}
}

// ExpectPresent asserts that key has an entry in st, whatever the value.
func ExpectPresent(t *testing.T, st *keyva.Store, key string) {
	t.Helper()
	if !st.Snapshot(key).IsPresent() {
		t.Errorf("expected key %q to be present", key)
	}
}
