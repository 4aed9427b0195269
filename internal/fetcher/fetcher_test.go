package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ipshield/reputation-engine/internal/clock"
	"github.com/ipshield/reputation-engine/internal/credpool"
	"github.com/ipshield/reputation-engine/internal/model"
	"github.com/ipshield/reputation-engine/internal/providers"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country":"US"}`))
	}))
	defer srv.Close()

	d := &providers.Descriptor{
		Name:     "test",
		BuildURL: func(req providers.Request) string { return srv.URL },
		Transform: func(p providers.Payload) map[string]any {
			return map[string]any{"test_country": p["country"]}
		},
	}

	f := New(2 * time.Second)
	result, status, err := f.Fetch(context.Background(), d, providers.Request{IP: "1.1.1.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if result.Status != model.StatusSuccess {
		t.Fatalf("expected success, got %v (%s)", result.Status, result.Error)
	}
	if result.Data["test_country"] != "US" {
		t.Fatalf("unexpected data: %+v", result.Data)
	}
}

func TestFetchLogicalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"bad key"}`))
	}))
	defer srv.Close()

	d := &providers.Descriptor{
		Name:     "test",
		BuildURL: func(req providers.Request) string { return srv.URL },
		CheckError: func(p providers.Payload) bool {
			ok, has := p["success"].(bool)
			return has && !ok
		},
		ErrorMessage: func(p providers.Payload) string {
			m, _ := p["message"].(string)
			return m
		},
	}

	f := New(2 * time.Second)
	result, _, err := f.Fetch(context.Background(), d, providers.Request{IP: "1.1.1.1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Error != "bad key" {
		t.Fatalf("expected 'bad key', got %q", result.Error)
	}
}

func TestExecuteRotatesOnKeyRelatedFailure(t *testing.T) {
	var seenKeys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		seenKeys = append(seenKeys, key)
		if key == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid key"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	d := &providers.Descriptor{
		Name:     "test",
		NeedsKey: true,
		BuildURL: func(req providers.Request) string { return srv.URL + "?key=" + req.Key },
		Transform: func(p providers.Payload) map[string]any {
			return map[string]any{}
		},
	}

	pool := credpool.New([]string{"bad", "good"}, clock.Real{})
	f := New(2 * time.Second)
	result := f.Execute(context.Background(), d, providers.Request{IP: "1.1.1.1"}, pool)

	if result.Status != model.StatusSuccess {
		t.Fatalf("expected success after rotation, got %v (%s)", result.Status, result.Error)
	}
	if len(seenKeys) != 2 || seenKeys[0] != "bad" || seenKeys[1] != "good" {
		t.Fatalf("expected [bad good], got %v", seenKeys)
	}
}

func TestExecuteExhaustsAllKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit"}`))
	}))
	defer srv.Close()

	d := &providers.Descriptor{
		Name:     "test",
		NeedsKey: true,
		BuildURL: func(req providers.Request) string { return srv.URL },
	}

	pool := credpool.New([]string{"a", "b"}, clock.Real{})
	f := New(2 * time.Second)
	result := f.Execute(context.Background(), d, providers.Request{IP: "1.1.1.1"}, pool)

	if result.Status != model.StatusError {
		t.Fatalf("expected error, got %v", result.Status)
	}
	if result.Error[:len("All API keys exhausted")] != "All API keys exhausted" {
		t.Fatalf("expected exhausted message, got %q", result.Error)
	}
}
