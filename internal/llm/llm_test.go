package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ipshield/reputation-engine/internal/config"
	"github.com/ipshield/reputation-engine/internal/model"
)

func TestSummarizeUnconfigured(t *testing.T) {
	cfg := &config.Config{APITimeout: time.Second}
	s := New(cfg)
	result := s.Summarize(context.Background(), "1.1.1.1", model.DerivedRecord{})
	if result.Reasoning != Unavailable {
		t.Fatalf("expected unavailable sentinel, got %q", result.Reasoning)
	}
	if result.Cacheable() {
		t.Fatal("unavailable result must not be cacheable")
	}
}

func TestSummarizeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"## Risk Level\nLOW"}}]}`))
	}))
	defer srv.Close()

	cfg := &config.Config{LLMAPIKey: "key", LLMBaseURL: srv.URL, LLMModel: "gpt-3.5-turbo", APITimeout: time.Second}
	s := New(cfg)
	result := s.Summarize(context.Background(), "1.1.1.1", model.DerivedRecord{})
	if !strings.Contains(result.Reasoning, "LOW") {
		t.Fatalf("expected LOW in reasoning, got %q", result.Reasoning)
	}
	if !result.Cacheable() {
		t.Fatal("expected success to be cacheable")
	}
}

func TestSummarizeFailureSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Config{LLMAPIKey: "key", LLMBaseURL: srv.URL, LLMModel: "gpt-3.5-turbo", APITimeout: time.Second}
	s := New(cfg)
	result := s.Summarize(context.Background(), "1.1.1.1", model.DerivedRecord{})
	if !strings.HasPrefix(result.Reasoning, FailurePrefix) {
		t.Fatalf("expected failure sentinel, got %q", result.Reasoning)
	}
	if result.Cacheable() {
		t.Fatal("failure result must not be cacheable")
	}
}
