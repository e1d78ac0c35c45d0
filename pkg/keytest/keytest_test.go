package keytest

import (
	"testing"

	"github.com/keyva-ui/keyva/pkg/keyva"
)

func TestRendererRerendersOnChange(t *testing.T) {
	st := keyva.New()

	var latest int
	r := NewRenderer(st, func(b *keyva.Binding) {
		value, _, _ := keyva.State(b, "count", keyva.Default(0))
		latest = value
	})
	defer r.Stop()

	// First render materialized the default, which invalidates the host and
	// re-renders once more with the committed value.
	initial := r.Renders()
	if latest != 0 {
		t.Errorf("expected initial value 0, got %d", latest)
	}

	st.Set("count", 7)
	if latest != 7 {
		t.Errorf("expected re-render to observe 7, got %d", latest)
	}
	if r.Renders() != initial+1 {
		t.Errorf("expected one re-render after set, got %d", r.Renders()-initial)
	}
}

func TestRendererScopedToItsKey(t *testing.T) {
	st := keyva.New()

	r := NewRenderer(st, func(b *keyva.Binding) {
		keyva.State(b, "a", keyva.Default(0))
	})
	defer r.Stop()
	before := r.Renders()

	st.Set("b", 1)
	if r.Renders() != before {
		t.Errorf("render for unrelated key: got %d extra renders", r.Renders()-before)
	}
}

func TestRendererStateSurvivesRemount(t *testing.T) {
	st := keyva.New()

	render := func(b *keyva.Binding) {
		keyva.State(b, "draft", keyva.Default("initial"))
	}

	r1 := NewRenderer(st, render)
	st.Set("draft", "edited")
	r1.Stop() // unmount

	// Remount: the new instance picks up the persisted value, and the
	// default does not re-apply.
	var observed string
	r2 := NewRenderer(st, func(b *keyva.Binding) {
		value, _, _ := keyva.State(b, "draft", keyva.Default("initial"))
		observed = value
	})
	defer r2.Stop()

	if observed != "edited" {
		t.Errorf("expected remounted component to observe %q, got %q", "edited", observed)
	}
}

func TestRendererStopIgnoresInvalidations(t *testing.T) {
	st := keyva.New()

	r := NewRenderer(st, func(b *keyva.Binding) {
		keyva.State(b, "k", keyva.Default(0))
	})
	r.Stop()
	after := r.Renders()

	st.Set("k", 1)
	if r.Renders() != after {
		t.Error("stopped renderer must not re-render")
	}
}

func TestHostCountsInvalidations(t *testing.T) {
	st := keyva.New()
	host := NewHost()

	st.Subscribe("k", host.Invalidate)
	st.Set("k", 1)
	st.Set("k", 2)

	if host.Invalidations() != 2 {
		t.Errorf("expected 2 invalidations, got %d", host.Invalidations())
	}
}

func TestExpectHelpers(t *testing.T) {
	st := keyva.New()
	st.Set("present", 1)
	st.Set("nil", nil)

	ExpectValue(t, st, "present", 1)
	ExpectPresent(t, st, "nil")
	ExpectAbsent(t, st, "missing")
}
