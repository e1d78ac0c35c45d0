package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/keyva-ui/keyva/pkg/keyva"
	"github.com/keyva-ui/keyva/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var addr string
	var withMetrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Start an HTTP server sharing one keyva store across all clients.

Routes:
  GET    /            demo page
  GET    /ws          WebSocket pushing the store on every change
  GET    /keys        current store contents as JSON
  POST   /keys/{key}  set a key (request body is the JSON value)
  DELETE /keys/{key}  delete a key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, withMetrics)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().BoolVar(&withMetrics, "metrics", true, "expose Prometheus metrics on /metrics")

	return cmd
}

func runServe(addr string, withMetrics bool) error {
	st := keyva.New(keyva.WithObserver(telemetry.Tracing()))
	if withMetrics {
		telemetry.Instrument(st)
	}

	// Seed the keys the demo page binds to.
	st.Set("counter", 0)
	st.Set("theme", "light")

	r := chi.NewRouter()
	r.Get("/", servePage)
	r.Get("/ws", serveWS(st))
	r.Get("/keys", listKeys(st))
	r.Post("/keys/{key}", setKey(st))
	r.Delete("/keys/{key}", deleteKey(st))
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	log.Printf("keyva-demo listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

// storeState snapshots the whole store into a plain map for serialization.
func storeState(st *keyva.Store) map[string]any {
	state := make(map[string]any, st.Len())
	for _, key := range st.Keys() {
		value, _ := st.Get(key)
		state[key] = value
	}
	return state
}

func listKeys(st *keyva.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(storeState(st))
	}
}

func setKey(st *keyva.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		var value any
		if err := json.Unmarshal(body, &value); err != nil {
			http.Error(w, "body must be a JSON value", http.StatusBadRequest)
			return
		}

		st.Set(chi.URLParam(r, "key"), value)
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteKey(st *keyva.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st.Delete(chi.URLParam(r, "key"))
		w.WriteHeader(http.StatusNoContent)
	}
}

var upgrader = websocket.Upgrader{
	// Demo only; a real app should restrict origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS pushes the full store to the client on connect and again after
// every mutation. The whole-store subscription only signals "something
// changed"; coalescing through a 1-deep channel keeps a burst of mutations
// from queueing unbounded writes.
func serveWS(st *keyva.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		updates := make(chan struct{}, 1)
		unsub := st.SubscribeAll(func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		})
		defer unsub()

		// Reader loop exists only to observe the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteJSON(storeState(st)); err != nil {
			return
		}
		for {
			select {
			case <-updates:
				if err := conn.WriteJSON(storeState(st)); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}

func servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, demoPage)
}

const demoPage = `<!DOCTYPE html>
<html>
<head><title>keyva demo</title></head>
<body>
  <h1>keyva demo</h1>
  <p>Open this page in two windows; both observe the same store.</p>
  <p>counter: <b id="counter">?</b>
     <button onclick="bump()">+1</button></p>
  <p>theme: <b id="theme">?</b>
     <button onclick="toggleTheme()">toggle</button></p>
  <pre id="store"></pre>
  <script>
    let state = {};
    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onmessage = (e) => {
      state = JSON.parse(e.data);
      document.getElementById('counter').textContent = state.counter;
      document.getElementById('theme').textContent = state.theme;
      document.getElementById('store').textContent = JSON.stringify(state, null, 2);
      document.body.style.background = state.theme === 'dark' ? '#222' : '#fff';
      document.body.style.color = state.theme === 'dark' ? '#eee' : '#000';
    };
    const set = (key, value) =>
      fetch('/keys/' + key, {method: 'POST', body: JSON.stringify(value)});
    const bump = () => set('counter', (state.counter || 0) + 1);
    const toggleTheme = () => set('theme', state.theme === 'dark' ? 'light' : 'dark');
  </script>
</body>
</html>
`
