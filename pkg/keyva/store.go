package keyva

import (
	"sort"
	"sync"
)

// Store is a mutable mapping from string keys to arbitrary values, with
// per-key and whole-store change subscriptions. It is the single source of
// truth for every binding created against it.
//
// Stores are explicitly constructed; create one per application (or one per
// test) and pass it to consumers. Presence of a key is semantically distinct
// from the key holding nil: a key may be set to nil as a deliberate state.
type Store struct {
	mu sync.RWMutex

	// values holds the current state, keyed by caller-chosen strings.
	values map[string]any

	// keyListeners holds per-key callbacks in registration order.
	keyListeners map[string][]listenerEntry

	// storeListeners fire on every mutation regardless of key.
	storeListeners []listenerEntry

	// observers are installed at construction and never mutated after the
	// store is shared.
	observers []Observer
}

// StoreOption is a functional option for configuring a Store.
type StoreOption func(*Store)

// WithObserver installs an observer that receives every mutation event.
// Multiple observers may be installed; they are invoked in order.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// New creates an empty store.
func New(opts ...StoreOption) *Store {
	s := &Store{
		values:       make(map[string]any),
		keyListeners: make(map[string][]listenerEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe installs an additional observer. It must be called before the
// store is shared with other goroutines.
func (s *Store) Observe(o Observer) {
	if o != nil {
		s.observers = append(s.observers, o)
	}
}

// =============================================================================
// Reads
// =============================================================================

// Snapshot returns the value observed for key, or Absent if the key has
// never been set (or has been deleted). Snapshot is pure: a renderer may
// call it speculatively any number of times without committing to a render.
func (s *Store) Snapshot(key string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.values[key]; ok {
		return Present(value)
	}
	return Absent()
}

// Get returns the value for key in comma-ok form.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok
}

// Len returns the number of keys currently present.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Keys returns all present keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// ListenerCount returns the total number of registered listeners, per-key
// and whole-store combined.
func (s *Store) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.storeListeners)
	for _, list := range s.keyListeners {
		n += len(list)
	}
	return n
}

// =============================================================================
// Mutations
// =============================================================================

// setRaw assigns without notification. Callers must hold s.mu.
func (s *Store) setRaw(key string, value any) {
	s.values[key] = value
}

// Set replaces the value for key and synchronously notifies the key's
// listeners in registration order, then every whole-store listener. The
// entry is created if the key was absent. Set returns after all
// notifications have run.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.setRaw(key, value)
	s.mu.Unlock()

	done := s.observe(OpSet, key)
	n := s.notifyKey(key)
	if done != nil {
		done(n)
	}
}

// Update applies fn to the current value for key and stores the result.
// fn receives whatever is currently stored — nil when the key is absent or
// holds nil — and runs under the store lock, so it observes and replaces the
// value atomically. If fn panics, the entry is left exactly as it was and no
// notification fires; the panic propagates to the caller.
func (s *Store) Update(key string, fn func(prev any) any) {
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.setRaw(key, fn(s.values[key]))
	}()

	done := s.observe(OpUpdate, key)
	n := s.notifyKey(key)
	if done != nil {
		done(n)
	}
}

// materialize commits compute()'s result for key only if the key is still
// absent, then notifies. compute runs under the write lock, so exactly one
// caller can win the transition out of absence; later attempts are no-ops
// and never invoke compute.
func (s *Store) materialize(key string, compute func() any) {
	committed := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.values[key]; ok {
			return false
		}
		s.setRaw(key, compute())
		return true
	}()
	if !committed {
		return
	}

	done := s.observe(OpMaterialize, key)
	n := s.notifyKey(key)
	if done != nil {
		done(n)
	}
}

// Delete removes the entry for key along with the key's listener list.
// Deleting a key that was never set is a no-op. When an entry is removed,
// the key's listeners are notified one last time (so a still-mounted binding
// observes the absence) and whole-store listeners fire as usual.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	_, existed := s.values[key]
	var keySubs, storeSubs []listenerEntry
	if existed {
		// Listeners on a key that was never set stay registered: a no-op
		// delete must not disturb them.
		delete(s.values, key)
		keySubs = s.keyListeners[key]
		delete(s.keyListeners, key)
		storeSubs = s.copyStoreListenersLocked()
	}
	s.mu.Unlock()

	if !existed {
		return
	}

	done := s.observe(OpDelete, key)
	n := runListeners(keySubs) + runListeners(storeSubs)
	if done != nil {
		done(n)
	}
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers fn to run whenever key is mutated. The returned
// function removes the registration; calling it more than once is harmless
// and never disturbs other listeners.
func (s *Store) Subscribe(key string, fn func()) func() {
	return s.subscribeKey(key, nextID(), fn)
}

// SubscribeAll registers fn to run on every mutation regardless of key.
// The returned function removes the registration and is safe to call twice.
func (s *Store) SubscribeAll(fn func()) func() {
	return s.subscribeStore(nextID(), fn)
}

// subscribeKey registers (id, fn) on key's listener list. A registration
// with an id already on the list is a no-op, which makes host
// re-subscription on every render harmless.
func (s *Store) subscribeKey(key string, id uint64, fn func()) func() {
	s.mu.Lock()
	list := s.keyListeners[key]
	if !containsID(list, id) {
		s.keyListeners[key] = append(list, listenerEntry{id: id, fn: fn})
	}
	s.mu.Unlock()

	return func() { s.unsubscribeKey(key, id) }
}

// subscribeStore registers (id, fn) on the whole-store listener list.
func (s *Store) subscribeStore(id uint64, fn func()) func() {
	s.mu.Lock()
	if !containsID(s.storeListeners, id) {
		s.storeListeners = append(s.storeListeners, listenerEntry{id: id, fn: fn})
	}
	s.mu.Unlock()

	return func() { s.unsubscribeStore(id) }
}

// unsubscribeKey removes the entry with the given id from key's list,
// preserving the order of the remaining entries.
func (s *Store) unsubscribeKey(key string, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.keyListeners[key]
	for i, entry := range list {
		if entry.id == id {
			list = append(list[:i:i], list[i+1:]...)
			if len(list) == 0 {
				delete(s.keyListeners, key)
			} else {
				s.keyListeners[key] = list
			}
			return
		}
	}
}

// unsubscribeStore removes the entry with the given id from the whole-store
// list, preserving order.
func (s *Store) unsubscribeStore(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.storeListeners {
		if entry.id == id {
			s.storeListeners = append(s.storeListeners[:i:i], s.storeListeners[i+1:]...)
			return
		}
	}
}

// =============================================================================
// Notification
// =============================================================================

// notifyKey runs key's listeners in registration order, then the whole-store
// listeners. Uses copy-before-notify so callbacks may subscribe or
// unsubscribe without corrupting the iteration; a listener removed while the
// copy is in flight may still see one final notification.
func (s *Store) notifyKey(key string) int {
	s.mu.RLock()
	keySubs := make([]listenerEntry, len(s.keyListeners[key]))
	copy(keySubs, s.keyListeners[key])
	storeSubs := s.copyStoreListenersLocked()
	s.mu.RUnlock()

	return runListeners(keySubs) + runListeners(storeSubs)
}

// copyStoreListenersLocked snapshots the whole-store list. Callers must hold
// s.mu in at least read mode.
func (s *Store) copyStoreListenersLocked() []listenerEntry {
	subs := make([]listenerEntry, len(s.storeListeners))
	copy(subs, s.storeListeners)
	return subs
}

func runListeners(entries []listenerEntry) int {
	for _, entry := range entries {
		entry.fn()
	}
	return len(entries)
}

func containsID(entries []listenerEntry, id uint64) bool {
	for _, entry := range entries {
		if entry.id == id {
			return true
		}
	}
	return false
}
