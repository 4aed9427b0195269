// Package fetcher executes one provider request: build the HTTP call from a
// provider descriptor, run it under a timeout, interpret the HTTP status,
// and drive the credential-pool retry loop for key-gated providers.
// Modeled on the single-request executor embedded in the predecessor's
// service.go fetch-and-merge loop, pulled out into its own function per
// spec §4.3.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ipshield/reputation-engine/internal/credpool"
	"github.com/ipshield/reputation-engine/internal/model"
	"github.com/ipshield/reputation-engine/internal/providers"
)

// Fetcher issues provider requests.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// New builds a Fetcher with the given per-request timeout.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Fetch runs a single HTTP attempt against a provider descriptor for the
// given request parameters (IP or ASN, and the credential to use, if any).
// It does not perform retries — that is the executor loop's job.
func (f *Fetcher) Fetch(ctx context.Context, d *providers.Descriptor, req providers.Request) (result model.ProviderResult, httpStatus int, err error) {
	result.Source = d.Name

	rawURL := d.BuildURL(req)
	if d.Query != nil {
		if extra := d.Query(req); len(extra) > 0 {
			rawURL = appendQuery(rawURL, extra)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	httpReq, buildErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if buildErr != nil {
		result.Status = model.StatusError
		result.Error = buildErr.Error()
		return result, 0, buildErr
	}
	httpReq.Header.Set("Accept", "application/json")
	if d.Headers != nil {
		for k, v := range d.Headers(req) {
			httpReq.Header.Set(k, v)
		}
	}

	resp, doErr := f.client.Do(httpReq)
	if doErr != nil {
		result.Status = model.StatusError
		result.Error = doErr.Error()
		return result, 0, doErr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		result.Status = model.StatusError
		result.Error = readErr.Error()
		return result, resp.StatusCode, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		result.Status = model.StatusError
		result.Error = msg
		return result, resp.StatusCode, errors.New(msg)
	}

	var payload providers.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		result.Status = model.StatusError
		result.Error = "invalid json response: " + err.Error()
		return result, resp.StatusCode, err
	}

	if d.CheckError != nil && d.CheckError(payload) {
		msg := "provider reported a logical error"
		if d.ErrorMessage != nil {
			if m := d.ErrorMessage(payload); m != "" {
				msg = m
			}
		}
		result.Status = model.StatusError
		result.Error = msg
		return result, resp.StatusCode, errors.New(msg)
	}

	if d.Transform != nil {
		result.Data = d.Transform(payload)
	}
	if d.RawTransform != nil {
		result.RawData = d.RawTransform(payload)
	} else {
		result.RawData = payload
	}
	result.Status = model.StatusSuccess
	return result, resp.StatusCode, nil
}

// Execute runs the full key-rotation executor loop from spec §4.2/§4.3: up
// to min(poolSize, 3) attempts for key-gated providers, one attempt for
// no-key providers. Key-related or 5xx failures advance to the next key;
// any other failure stops immediately.
func (f *Fetcher) Execute(ctx context.Context, d *providers.Descriptor, target providers.Request, pool *credpool.Pool) model.ProviderResult {
	if !d.NeedsKey || pool == nil {
		result, _, _ := f.Fetch(ctx, d, target)
		return result
	}

	attempts := pool.Size()
	if attempts > 3 {
		attempts = 3
	}
	if attempts == 0 {
		return model.ProviderResult{
			Source: d.Name,
			Status: model.StatusError,
			Error:  "All API keys exhausted",
		}
	}

	var lastMsg string
	for i := 0; i < attempts; i++ {
		key, ok := pool.GetNext()
		if !ok {
			lastMsg = "no healthy key available"
			break
		}
		req := target
		req.Key = key

		result, httpStatus, err := f.Fetch(ctx, d, req)
		if err == nil {
			pool.MarkSuccess(key)
			return result
		}

		lastMsg = result.Error
		if credpool.IsKeyRelatedError(httpStatus, result.Error) || httpStatus >= 500 {
			pool.MarkFailure(key, result.Error)
			continue
		}
		return result
	}

	return model.ProviderResult{
		Source: d.Name,
		Status: model.StatusError,
		Error:  "All API keys exhausted: " + lastMsg,
	}
}

func appendQuery(rawURL string, extra map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, v := range extra {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
