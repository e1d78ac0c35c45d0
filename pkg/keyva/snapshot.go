package keyva

// Snapshot is the value observed for a key at a point in time. It is a
// tagged option: either Present with a value (which may itself be nil) or
// Absent. The tag is what separates "key was never written" from "key holds
// an intentionally empty value" — without it a default could never be told
// apart from a legitimately nil stored value.
type Snapshot struct {
	value   any
	present bool
}

// Present returns a snapshot carrying the given value.
func Present(value any) Snapshot {
	return Snapshot{value: value, present: true}
}

// Absent returns the snapshot for a key with no entry in the store.
func Absent() Snapshot {
	return Snapshot{}
}

// IsPresent reports whether the key had an entry in the store.
func (s Snapshot) IsPresent() bool {
	return s.present
}

// Value returns the observed value. It is nil for an absent snapshot, which
// is indistinguishable from a present nil — check IsPresent when the
// difference matters.
func (s Snapshot) Value() any {
	return s.value
}

// ValueOr returns the observed value, or fallback if the snapshot is absent.
func (s Snapshot) ValueOr(fallback any) any {
	if s.present {
		return s.value
	}
	return fallback
}
