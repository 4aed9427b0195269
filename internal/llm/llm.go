// Package llm implements the stateless LLM Summarizer of spec §4.8: build
// a deterministic, prompt-injection-resistant prompt pair from a derived
// record, post it to a chat-completion-style endpoint, and normalize every
// failure mode into the sentinel "AI Analysis Failed: <msg>" reasoning
// string rather than ever propagating as an HTTP error.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ipshield/reputation-engine/internal/config"
	"github.com/ipshield/reputation-engine/internal/model"
)

// FailurePrefix marks a reasoning string as a failure sentinel rather than
// a real analysis, per §4.8.
const FailurePrefix = "AI Analysis Failed"

// Unavailable is returned when no LLM credentials are configured at all.
const Unavailable = "AI analysis is temporarily unavailable"

// Result is the summarizer's output, per §4.8.
type Result struct {
	Reasoning string         `json:"reasoning"`
	Debug     map[string]any `json:"debug,omitempty"`
}

// Cacheable reports whether r should be written to the AI-analysis
// cache: only a non-empty, non-failure, non-"unavailable" string is.
func (r Result) Cacheable() bool {
	if r.Reasoning == "" {
		return false
	}
	if strings.HasPrefix(r.Reasoning, FailurePrefix) {
		return false
	}
	if r.Reasoning == Unavailable {
		return false
	}
	return true
}

// Summarizer wraps a chat-completion endpoint.
type Summarizer struct {
	cfg    *config.Config
	client *http.Client
}

// New builds a Summarizer from config.
func New(cfg *config.Config) *Summarizer {
	return &Summarizer{cfg: cfg, client: &http.Client{}}
}

// Configured reports whether an LLM backend is available at all.
func (s *Summarizer) Configured() bool {
	return s.cfg.LLMAPIKey != "" && s.cfg.LLMBaseURL != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize produces a Markdown assessment of record, or a failure
// sentinel if the backend is unconfigured or the call fails.
func (s *Summarizer) Summarize(ctx context.Context, ip string, record model.DerivedRecord) Result {
	if !s.Configured() {
		return Result{Reasoning: Unavailable, Debug: map[string]any{"error": "llm not configured"}}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout())
	defer cancel()

	body := chatRequest{
		Model:       s.cfg.LLMModel,
		Temperature: 0.3,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: userPrompt(ip, record)},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return failure(err)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.cfg.LLMBaseURL, bytes.NewReader(raw))
	if err != nil {
		return failure(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.LLMAPIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return failure(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return failure(err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return failure(fmt.Errorf("empty completion"))
	}

	return Result{Reasoning: parsed.Choices[0].Message.Content}
}

func failure(err error) Result {
	return Result{
		Reasoning: fmt.Sprintf("%s: %s", FailurePrefix, err.Error()),
		Debug:     map[string]any{"error": err.Error()},
	}
}
