package keyva

// Op identifies the kind of store mutation being observed.
type Op uint8

const (
	OpSet Op = iota + 1
	OpUpdate
	OpDelete
	OpMaterialize
)

// String returns a human-readable name for the operation.
func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpMaterialize:
		return "materialize"
	default:
		return "unknown"
	}
}

// OpDone is called when a mutation and its synchronous notifications have
// completed. listeners is the number of callbacks that were invoked.
type OpDone func(listeners int)

// Observer receives store mutation events. Implementations are called on the
// mutating goroutine and must not mutate the store re-entrantly from the
// hook itself.
type Observer interface {
	// ObserveOp is called once per mutation that commits (a materialization
	// attempt that loses the race is not observed). The returned OpDone runs
	// after all synchronous notifications for the mutation finish and must
	// not be nil.
	ObserveOp(op Op, key string) OpDone
}

// observe fans a mutation out to every installed observer and returns a
// single done func covering all of them. Returns nil when no observers are
// installed so the hot path stays allocation-free.
func (s *Store) observe(op Op, key string) OpDone {
	if len(s.observers) == 0 {
		return nil
	}
	dones := make([]OpDone, 0, len(s.observers))
	for _, o := range s.observers {
		dones = append(dones, o.ObserveOp(op, key))
	}
	return func(listeners int) {
		for _, done := range dones {
			done(listeners)
		}
	}
}
