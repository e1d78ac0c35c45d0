package keyva

import "sort"

// Binding is the per-component entry point to a store. One Binding belongs
// to one Host (one mounted component instance); it tracks which key the host
// currently observes and keeps exactly one live subscription for it.
//
// A Binding is not safe for concurrent use — it is owned by its host's
// render loop, matching the single render turn the store contract assumes.
type Binding struct {
	store *Store
	host  Host

	// key is the key the current subscription targets.
	key string

	// keyUnsub tears down the per-key subscription, nil when not bound.
	keyUnsub func()

	// allUnsub tears down the whole-store subscription, nil when not bound.
	allUnsub func()
}

// Bind creates a binding joining host to st. Call Release when the host
// unmounts.
func Bind(st *Store, host Host) *Binding {
	return &Binding{store: st, host: host}
}

// Store returns the store this binding reads from.
func (b *Binding) Store() *Store {
	return b.store
}

// Release tears down every subscription held by this binding. The binding
// may be reused afterwards; the next State or All call re-subscribes.
// Release is idempotent.
func (b *Binding) Release() {
	if b.keyUnsub != nil {
		b.keyUnsub()
		b.keyUnsub = nil
	}
	if b.allUnsub != nil {
		b.allUnsub()
		b.allUnsub = nil
	}
	b.key = ""
}

// subscribeKey points the binding's per-key subscription at key. A previous
// subscription for a different key is torn down first. Re-subscribing to the
// same key is a no-op in the store (deduplicated by host ID), so calling
// this on every render is both cheap and self-healing: a subscription
// dropped by Delete is re-established on the next render.
func (b *Binding) subscribeKey(key string) {
	if b.keyUnsub != nil && b.key != key {
		b.keyUnsub()
		b.keyUnsub = nil
	}
	b.key = key
	b.keyUnsub = b.store.subscribeKey(key, b.host.ID(), b.host.Invalidate)
}

// =============================================================================
// Keyed state
// =============================================================================

// stateConfig holds configuration for a State call.
type stateConfig[T any] struct {
	compute    func() T
	hasDefault bool
}

// StateOption configures a State call.
type StateOption[T any] func(*stateConfig[T])

// Default supplies a literal default value, committed the first time the key
// is observed absent. Passing a fresh composite value on every render is
// fine: the default is only consulted while the key is absent, never after.
func Default[T any](value T) StateOption[T] {
	return func(c *stateConfig[T]) {
		c.compute = func() T { return value }
		c.hasDefault = true
	}
}

// DefaultFunc supplies a producer for the default value. The producer runs
// at most once per transition out of absence, under the store lock, so two
// hosts observing a fresh key in the same turn still commit a single value.
func DefaultFunc[T any](fn func() T) StateOption[T] {
	return func(c *stateConfig[T]) {
		c.compute = fn
		c.hasDefault = true
	}
}

// State subscribes the binding's host to key and returns the current value,
// whether the key is present, and a typed setter for it.
//
// The subscription is established before the snapshot is read, so a mutation
// landing between the two is never lost. If the key is absent and a default
// was supplied, the default is committed through the normal write path
// (notifying key listeners) before State returns; with no default the key
// stays absent and the zero value is returned with ok=false.
//
// Calling State with a different key than the previous call tears down the
// old subscription first — a stale subscription would invalidate the host
// for the wrong key.
//
// A stored value of a type other than T yields T's zero value; a present
// nil does too, with ok still true.
func State[T any](b *Binding, key string, opts ...StateOption[T]) (T, bool, Setter[T]) {
	var cfg stateConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	b.subscribeKey(key)

	snap := b.store.Snapshot(key)
	if !snap.IsPresent() && cfg.hasDefault {
		b.store.materialize(key, func() any { return cfg.compute() })
		snap = b.store.Snapshot(key)
	}

	setter := Setter[T]{store: b.store, key: key}
	if !snap.IsPresent() {
		var zero T
		return zero, false, setter
	}

	value, _ := snap.Value().(T)
	return value, true, setter
}

// Setter is a typed write handle for one key. The zero Setter is inert.
type Setter[T any] struct {
	store *Store
	key   string
}

// Set stores value and notifies the key's listeners.
func (s Setter[T]) Set(value T) {
	s.store.Set(s.key, value)
}

// Update applies fn to the current value and stores the result. When the key
// is absent, or holds a value of another type, fn receives T's zero value.
// A panic in fn leaves the key untouched and fires no notification.
func (s Setter[T]) Update(fn func(T) T) {
	s.store.Update(s.key, func(prev any) any {
		value, _ := prev.(T)
		return fn(value)
	})
}

// Key returns the key this setter writes to.
func (s Setter[T]) Key() string {
	return s.key
}

// =============================================================================
// Whole-store binding
// =============================================================================

// All subscribes the binding's host to the whole-store listener list and
// returns a read-only view of the store, a setter builder, and a delete
// function. The host is invalidated on every mutation regardless of key,
// including per-key sets made through other bindings; it is NOT added to any
// per-key list.
func All(b *Binding) (View, func(key string) Setter[any], func(key string)) {
	b.allUnsub = b.store.subscribeStore(b.host.ID(), b.host.Invalidate)

	setterFor := func(key string) Setter[any] {
		return Setter[any]{store: b.store, key: key}
	}
	return View{store: b.store}, setterFor, b.store.Delete
}

// View is a read-only window onto a live store. All reads go through the
// store's lock; mutate only through setters or Delete so notifications fire.
type View struct {
	store *Store
}

// Get returns the value for key in comma-ok form.
func (v View) Get(key string) (any, bool) {
	return v.store.Get(key)
}

// Snapshot returns the snapshot for key.
func (v View) Snapshot(key string) Snapshot {
	return v.store.Snapshot(key)
}

// Len returns the number of keys present.
func (v View) Len() int {
	return v.store.Len()
}

// Keys returns all present keys in sorted order.
func (v View) Keys() []string {
	return v.store.Keys()
}

// Range calls fn for each key/value pair over a consistent copy of the
// mapping, in sorted key order.
func (v View) Range(fn func(key string, value any)) {
	v.store.mu.RLock()
	entries := make(map[string]any, len(v.store.values))
	for key, value := range v.store.values {
		entries[key] = value
	}
	v.store.mu.RUnlock()

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fn(key, entries[key])
	}
}
