package keyva

import "sync/atomic"

// globalIDCounter is the source of unique IDs for listeners and hosts.
// Using atomic operations ensures thread-safe ID generation without locks.
var globalIDCounter uint64

// nextID returns the next unique listener ID.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// NextHostID returns a fresh unique ID for a Host implementation.
// Host IDs and internal listener IDs share one ID space so a host can be
// deduplicated against any other subscriber.
func NextHostID() uint64 {
	return nextID()
}
