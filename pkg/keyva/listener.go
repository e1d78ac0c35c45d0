package keyva

// Host is anything that can be invalidated when a key it observes changes.
// Rendering layers implement Host to adapt the store to their own re-render
// contract; the store itself knows nothing about rendering.
type Host interface {
	// Invalidate notifies the host that an observed key has changed.
	// For a UI component this schedules a re-render.
	Invalidate()

	// ID returns a unique identifier for this host, obtained from
	// NextHostID. Used to deduplicate repeated subscriptions.
	ID() uint64
}

// listenerEntry is one registered change callback.
// Entries keep their registration order; removal never reorders the rest.
type listenerEntry struct {
	id uint64
	fn func()
}
