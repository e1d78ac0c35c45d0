// Package keyva provides a keyed observable state store for UI components.
//
// A Store maps string keys to arbitrary values and notifies subscribers when
// a key changes. State written through the store outlives any single
// component: a component can unmount, the user can switch tabs, and when the
// component mounts again it picks up exactly where it left off. Only
// components bound to the key that changed are invalidated; components bound
// to other keys never hear about it.
//
// # Core Types
//
// Store is the single source of truth:
//
//	st := keyva.New()
//	st.Set("count", 0)
//	snap := st.Snapshot("count")   // Present(0)
//	unsub := st.Subscribe("count", func() { ... })
//	st.Update("count", func(prev any) any { return prev.(int) + 1 })
//	unsub()
//
// Snapshot distinguishes a key that was never written from a key that holds
// a deliberately empty value:
//
//	st.Snapshot("missing").IsPresent()  // false
//	st.Set("empty", nil)
//	st.Snapshot("empty").IsPresent()    // true
//
// # Bindings
//
// Binding is the per-component entry point. It subscribes a rendering host
// to one key, reads the current value, and materializes a default the first
// time the key is observed absent:
//
//	b := keyva.Bind(st, host)
//	count, _, setter := keyva.State(b, "count", keyva.Default(0))
//	setter.Set(count + 1)
//	setter.Update(func(n int) int { return n + 1 })
//
// All binds a host to the whole store instead of one key:
//
//	view, setterFor, deleteKey := keyva.All(b)
//
// # Thread Safety
//
// All store operations are safe for concurrent use. Mutation and listener
// notification are synchronous: Set returns only after every affected
// listener has run on the caller's goroutine.
package keyva
