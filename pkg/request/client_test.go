package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ciceronego/pkg/tracker"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) GetCache(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) SetCache(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func TestGetCachesResponse(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(newMemCache(), tracker.New(), ClientConfig{Timeout: 5 * time.Second})

	for i := 0; i < 3; i++ {
		body, err := c.Get(context.Background(), srv.URL, "k1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(body) != "hello" {
			t.Errorf("unexpected body %q", body)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestGetNoCacheKey(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(newMemCache(), tracker.New(), ClientConfig{Timeout: 5 * time.Second})

	for i := 0; i < 2; i++ {
		if _, err := c.Get(context.Background(), srv.URL, ""); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 2 {
		t.Errorf("expected 2 upstream hits, got %d", hits)
	}
}

func TestGetClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(nil, tracker.New(), ClientConfig{Timeout: 5 * time.Second})

	if _, err := c.Get(context.Background(), srv.URL, ""); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestGetRetriesServerError(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := New(nil, tracker.New(), ClientConfig{Timeout: 10 * time.Second})

	body, err := c.Get(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != "recovered" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRetriesSettingHonored(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(nil, tracker.New(), ClientConfig{
		Retries:   1,
		Timeout:   5 * time.Second,
		BaseDelay: time.Millisecond,
	})

	if _, err := c.Get(context.Background(), srv.URL, ""); err == nil {
		t.Fatal("expected error when the server never recovers")
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"en.wikipedia.org":             "wikipedia",
		"wikipedia.org":                "wikipedia",
		"upload.wikimedia.org":         "wikipedia",
		"generativelanguage.googleapis.com": "gemini",
		"example.com":                  "example.com",
	}
	for host, want := range cases {
		if got := normalizeProvider(host); got != want {
			t.Errorf("normalizeProvider(%q) = %q, want %q", host, got, want)
		}
	}
}
