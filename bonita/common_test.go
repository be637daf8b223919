package bonita

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeBonita is a minimal Bonita server, whose handlers can be replaced per test.
type fakeBonita struct {
	t *testing.T

	mutex    sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]*atomic.Int32

	server *httptest.Server
}

func newFakeBonita(t *testing.T) *fakeBonita {
	f := &fakeBonita{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]*atomic.Int32),
	}

	f.handle("POST /bonita/loginservice", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("username") == "" || r.PostForm.Get("redirect") != "false" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Add(HeaderSetCookie, "JSESSIONID=ABC123; Path=/")
		w.Header().Add(HeaderSetCookie, "X-Bonita-API-Token=XYZ789; Path=/bonita")
		w.WriteHeader(http.StatusNoContent)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mutex.Lock()
		handler, ok := f.handlers[key]
		counter := f.counter(key)
		f.mutex.Unlock()

		counter.Add(1)

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBonita) counter(key string) *atomic.Int32 {
	counter, ok := f.calls[key]
	if !ok {
		counter = new(atomic.Int32)
		f.calls[key] = counter
	}
	return counter
}

func (f *fakeBonita) handle(key string, handler http.HandlerFunc) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.handlers[key] = handler
}

func (f *fakeBonita) count(key string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return int(f.counter(key).Load())
}

func (f *fakeBonita) url() string {
	return f.server.URL + "/bonita/"
}

// requireSession fails the request with 401, if the session cookie or API token header is missing.
func requireSession(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(CookieSessionId)
	if err != nil || cookie.Value != "ABC123" || r.Header.Get(HeaderApiToken) != "XYZ789" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJson)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mustCreateClient(t *testing.T, f *fakeBonita, customizers ...func(*Options)) *Client {
	customizers = append([]func(*Options){func(o *Options) {
		o.Username = "walter.bates"
		o.Password = "bpm"
		o.UserId = "4"
		o.Timeout = 5 * time.Second
		o.TaskPollInterval = time.Millisecond
	}}, customizers...)

	client, err := New(f.url(), customizers...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Cleanup(client.Shutdown)
	return client
}
