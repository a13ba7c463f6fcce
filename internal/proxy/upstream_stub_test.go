package proxy_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

// fontUpstream serves goregular plus a few failure fixtures and counts hits per path.
type fontUpstream struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newFontUpstream(t *testing.T) *fontUpstream {
	t.Helper()
	stub := &fontUpstream{hits: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("/fonts/go.ttf", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		w.Header().Set("Content-Type", "font/ttf")
		w.Write(goregular.TTF)
	})
	mux.HandleFunc("/fonts/go.ttf/", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/fonts/garbage.ttf", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		w.Write([]byte("this is not a font"))
	})
	mux.HandleFunc("/fonts/forbidden.ttf", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		http.Error(w, "nope", http.StatusForbidden)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		http.NotFound(w, r)
	})
	stub.Server = httptest.NewServer(mux)
	t.Cleanup(stub.Close)
	return stub
}

func (s *fontUpstream) record(r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()
}

func (s *fontUpstream) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}
