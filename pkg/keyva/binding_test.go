package keyva

import (
	"reflect"
	"testing"
)

func TestStateMaterializesDefault(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	value, ok, setter := State(b, "formValue", Default(2))
	if !ok || value != 2 {
		t.Errorf("expected (2, true), got (%v, %v)", value, ok)
	}

	// The default went through the normal write path.
	snap := st.Snapshot("formValue")
	if !snap.IsPresent() || snap.Value() != 2 {
		t.Errorf("expected store to hold 2, got %v", snap.Value())
	}

	before := host.count()
	setter.Set(5)
	if host.count() != before+1 {
		t.Errorf("expected 1 invalidation after set, got %d", host.count()-before)
	}
	value, ok, _ = State(b, "formValue", Default(2))
	if !ok || value != 5 {
		t.Errorf("expected (5, true) after set, got (%v, %v)", value, ok)
	}
}

func TestStateDefaultCommitsOnce(t *testing.T) {
	st := New()
	b1 := Bind(st, newTestHost())
	b2 := Bind(st, newTestHost())

	// Two binding instances observe the same fresh key in the same turn;
	// exactly one default may stick.
	v1, _, _ := State(b1, "k", Default("d"))
	v2, _, _ := State(b2, "k", Default("other"))

	if v1 != "d" {
		t.Errorf("first binding should observe its own default, got %v", v1)
	}
	if v2 != "d" {
		t.Errorf("second binding must observe the committed value, got %v", v2)
	}
	if snap := st.Snapshot("k"); snap.Value() != "d" {
		t.Errorf("store should hold the first default, got %v", snap.Value())
	}
}

func TestStateDefaultFuncRunsOnlyWhileAbsent(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())

	calls := 0
	producer := func() []int {
		calls++
		return []int{1, 2, 3}
	}

	first, _, _ := State(b, "list", DefaultFunc(producer))
	second, _, _ := State(b, "list", DefaultFunc(producer))

	if calls != 1 {
		t.Errorf("producer should run exactly once, ran %d times", calls)
	}
	if !reflect.DeepEqual(first, []int{1, 2, 3}) || !reflect.DeepEqual(second, first) {
		t.Errorf("both reads should observe the materialized value, got %v then %v", first, second)
	}
}

func TestStateFreshDefaultIdentityDoesNotRematerialize(t *testing.T) {
	type settings struct{ Theme string }

	st := New()
	b := Bind(st, newTestHost())

	v1, _, setter := State(b, "settings", Default(settings{Theme: "light"}))
	setter.Set(settings{Theme: "dark"})

	// A structurally different default passed on a later render must not win:
	// materialization only runs while the key is absent.
	v2, _, _ := State(b, "settings", Default(settings{Theme: "light"}))
	if v1.Theme != "light" {
		t.Errorf("expected initial default, got %v", v1)
	}
	if v2.Theme != "dark" {
		t.Errorf("expected stored value to survive a fresh default, got %v", v2)
	}
}

func TestStateWithoutDefaultLeavesKeyAbsent(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())

	value, ok, setter := State[string](b, "lazy")
	if ok || value != "" {
		t.Errorf("expected zero value and ok=false, got (%q, %v)", value, ok)
	}
	if st.Snapshot("lazy").IsPresent() {
		t.Error("no-default observation must not write to the store")
	}

	// The setter still works; an explicit set creates the entry.
	setter.Set("now")
	if value, ok, _ = State[string](b, "lazy"); !ok || value != "now" {
		t.Errorf("expected (now, true) after explicit set, got (%q, %v)", value, ok)
	}
}

func TestStateSubscribesBeforeReading(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	State(b, "k", Default(0))

	// The materialization write already reached the host: proof the
	// subscription was live before the default was committed, not after.
	if host.count() != 1 {
		t.Errorf("expected the materialization notification, got %d", host.count())
	}

	st.Set("k", 1)
	if host.count() != 2 {
		t.Errorf("expected invalidation for post-bind set, got %d", host.count())
	}
}

func TestStateRebindTearsDownOldKey(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	State(b, "first", Default(1))
	State(b, "second", Default(2))
	before := host.count()

	st.Set("first", 10)
	if host.count() != before {
		t.Errorf("stale subscription fired for the old key, got %d", host.count()-before)
	}
	st.Set("second", 20)
	if host.count() != before+1 {
		t.Errorf("expected invalidation for the current key, got %d", host.count()-before)
	}
	if st.ListenerCount() != 1 {
		t.Errorf("expected a single live subscription, got %d", st.ListenerCount())
	}
}

func TestStateRepeatedBindIsDeduplicated(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	// One State call per render; renders repeat.
	State(b, "k", Default(0))
	State(b, "k", Default(0))
	State(b, "k", Default(0))
	before := host.count()

	st.Set("k", 1)
	if host.count() != before+1 {
		t.Errorf("duplicate subscriptions: expected 1 invalidation, got %d", host.count()-before)
	}
}

func TestStateResubscribesAfterDelete(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	State(b, "k", Default("d"))
	st.Delete("k")
	invalidationsAfterDelete := host.count()
	if invalidationsAfterDelete == 0 {
		t.Error("host should observe the deletion")
	}

	// The delete pruned the key's listener list; the next render
	// re-establishes the subscription and re-materializes as if brand-new.
	value, ok, _ := State(b, "k", Default("d2"))
	if !ok || value != "d2" {
		t.Errorf("expected re-materialized (d2, true), got (%v, %v)", value, ok)
	}
	st.Set("k", "d3")
	if host.count() != invalidationsAfterDelete+2 {
		t.Errorf("healed subscription should fire on later sets, got %d", host.count())
	}
}

func TestStateStoredNilYieldsZeroValue(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())

	st.Set("k", nil)
	value, ok, _ := State[int](b, "k")
	if !ok {
		t.Error("present nil should still report ok=true")
	}
	if value != 0 {
		t.Errorf("expected zero value for present nil, got %v", value)
	}
}

func TestSetterUpdateTyped(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())

	_, _, setter := State(b, "count", Default(0))
	setter.Update(func(n int) int { return n + 1 })
	setter.Update(func(n int) int { return n + 1 })
	setter.Update(func(n int) int { return n + 1 })

	if value, _ := st.Get("count"); value != 3 {
		t.Errorf("expected 3, got %v", value)
	}
}

func TestSetterUpdateOnAbsentKeyUsesZeroValue(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())

	_, _, setter := State[int](b, "fresh")
	setter.Update(func(n int) int { return n + 5 })

	if value, _ := st.Get("fresh"); value != 5 {
		t.Errorf("expected absent key to update from zero value, got %v", value)
	}
}

func TestBindingRelease(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	State(b, "k", Default(0))
	b.Release()
	b.Release() // idempotent
	before := host.count()

	st.Set("k", 1)
	if host.count() != before {
		t.Errorf("released binding must not be invalidated, got %d", host.count()-before)
	}
	if st.ListenerCount() != 0 {
		t.Errorf("expected no listeners after release, got %d", st.ListenerCount())
	}
}

func TestAllInvalidatesOnAnyKey(t *testing.T) {
	st := New()
	host := newTestHost()
	b := Bind(st, host)

	view, setterFor, deleteKey := All(b)

	setterFor("a").Set(1)
	setterFor("b").Set(2)
	if host.count() != 2 {
		t.Errorf("whole-store host should see both sets, got %d", host.count())
	}

	if view.Len() != 2 {
		t.Errorf("expected 2 keys in view, got %d", view.Len())
	}
	if value, ok := view.Get("a"); !ok || value != 1 {
		t.Errorf("expected view to read a=1, got %v (present=%v)", value, ok)
	}

	deleteKey("a")
	if host.count() != 3 {
		t.Errorf("whole-store host should see the delete, got %d", host.count())
	}
	if view.Snapshot("a").IsPresent() {
		t.Error("deleted key should be absent through the view")
	}
}

func TestAllDoesNotJoinPerKeyLists(t *testing.T) {
	st := New()
	wholeHost := newTestHost()
	keyedHost := newTestHost()

	All(Bind(st, wholeHost))
	keyed := Bind(st, keyedHost)
	State(keyed, "k", Default(0))
	wholeBefore, keyedBefore := wholeHost.count(), keyedHost.count()

	// A per-key set reaches both populations, through separate lists.
	st.Set("k", 1)
	if got := wholeHost.count() - wholeBefore; got != 1 {
		t.Errorf("whole-store host expected 1 invalidation, got %d", got)
	}
	if got := keyedHost.count() - keyedBefore; got != 1 {
		t.Errorf("keyed host expected 1 invalidation, got %d", got)
	}
}

func TestViewRange(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())
	view, setterFor, _ := All(b)

	setterFor("b").Set(2)
	setterFor("a").Set(1)

	got := map[string]any{}
	var order []string
	view.Range(func(key string, value any) {
		got[key] = value
		order = append(order, key)
	})

	if !reflect.DeepEqual(got, map[string]any{"a": 1, "b": 2}) {
		t.Errorf("unexpected range contents: %v", got)
	}
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Errorf("expected sorted range order, got %v", order)
	}
}

func TestSpeculativeSnapshotReadsArePure(t *testing.T) {
	st := New()
	b := Bind(st, newTestHost())

	State(b, "k", Default(1))

	// An interruptible renderer may re-read any number of times without
	// committing; reads must not change what is stored.
	before := st.Snapshot("k").Value()
	for i := 0; i < 10; i++ {
		_ = st.Snapshot("k")
	}
	if st.Snapshot("k").Value() != before {
		t.Error("snapshot reads mutated the store")
	}
	if st.Len() != 1 {
		t.Errorf("expected a single key, got %d", st.Len())
	}
}
