// Command example shows the keyva store API without any rendering layer:
// two "components" bound to different keys, with a host that just logs
// invalidations where a UI runtime would schedule a re-render.
package main

import (
	"fmt"

	"github.com/keyva-ui/keyva/pkg/keyva"
)

// logHost stands in for a component's render scheduler.
type logHost struct {
	id   uint64
	name string
}

func newLogHost(name string) *logHost {
	return &logHost{id: keyva.NextHostID(), name: name}
}

func (h *logHost) Invalidate() {
	fmt.Printf("  [%s] invalidated: would re-render\n", h.name)
}

func (h *logHost) ID() uint64 {
	return h.id
}

func main() {
	st := keyva.New()

	// A form component binds to "formValue" with a default of 2.
	form := keyva.Bind(st, newLogHost("form"))
	value, _, setter := keyva.State(form, "formValue", keyva.Default(2))
	fmt.Printf("form observes %d\n", value)

	// A sidebar bound to a different key is never disturbed by the form.
	sidebar := keyva.Bind(st, newLogHost("sidebar"))
	open, _, _ := keyva.State(sidebar, "sidebarOpen", keyva.Default(true))
	fmt.Printf("sidebar observes %v\n", open)

	fmt.Println("setting formValue to 5:")
	setter.Set(5)

	fmt.Println("incrementing three times:")
	for i := 0; i < 3; i++ {
		setter.Update(func(n int) int { return n + 1 })
	}
	value, _, _ = keyva.State[int](form, "formValue")
	fmt.Printf("form now observes %d\n", value)

	// Unmount the form; its state outlives it.
	form.Release()
	remounted := keyva.Bind(st, newLogHost("form#2"))
	value, _, _ = keyva.State(remounted, "formValue", keyva.Default(2))
	fmt.Printf("remounted form observes %d (default did not re-apply)\n", value)

	// A dashboard watches the whole store.
	dash := keyva.Bind(st, newLogHost("dashboard"))
	view, _, deleteKey := keyva.All(dash)
	fmt.Println("dashboard sees:")
	view.Range(func(key string, v any) {
		fmt.Printf("  %s = %v\n", key, v)
	})

	fmt.Println("deleting formValue:")
	deleteKey("formValue")
	fmt.Printf("formValue present: %v\n", st.Snapshot("formValue").IsPresent())
}
