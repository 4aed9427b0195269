// Package stream implements the Batch Streaming Scheduler of spec §4.7:
// dedup by IP, one task per unique IP, completion-order event emission,
// cancellation-safe. Modeled on the "worker tasks feed a bounded channel
// consumed by an SSE encoder" design note in spec §9, with the same
// per-unique-IP-goroutine shape as the stream handlers sketched in the
// teacher's server.go, generalized from a single loop into a reusable
// scheduler independent of the transport encoding it feeds.
package stream

import (
	"context"
	"sync"

	"github.com/ipshield/reputation-engine/internal/model"
)

// EventType is the discriminant of a streamed Event.
type EventType string

const (
	EventResult EventType = "result"
	EventDone   EventType = "done"
	EventError  EventType = "error"
)

// Progress accompanies every event.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Event is one item on the scheduler's output channel.
type Event struct {
	Type     EventType           `json:"type"`
	IP       string               `json:"ip,omitempty"`
	Result   *model.DerivedRecord `json:"result,omitempty"`
	Code     string               `json:"code,omitempty"`
	Error    string               `json:"error,omitempty"`
	Progress Progress             `json:"progress"`
}

// Item is one input row: an IP to aggregate, with its input index so
// downstream callers can fan a collapsed result back out to multiple
// input rows after the stream completes (§4.7 "applied after streaming").
type Item struct {
	IP    string
	Index int
}

// AggregateFunc runs the Single-IP Aggregator + Derivation Layer for one
// IP. It never panics: aggregation failures come back as an error-bearing
// DerivedRecord, not a Go error, except in the rare case the function
// itself panics/errors, which Run reports as an EventError ITEM_FAILED.
type AggregateFunc func(ctx context.Context, ip string) (model.DerivedRecord, error)

// Run deduplicates items by IP (later duplicates collapse to the first
// occurrence), launches one goroutine per unique IP, and sends events to
// the returned channel in completion order, finishing with a single Done
// event. The channel is closed when the scheduler is done. If ctx is
// canceled, in-flight aggregations still run to completion (and, per
// §4.7, still cache-write) but their emissions are dropped rather than
// sent to a channel nobody is draining.
func Run(ctx context.Context, items []Item, aggregate AggregateFunc) <-chan Event {
	out := make(chan Event)

	uniqueIPs := dedup(items)
	total := len(uniqueIPs)

	go func() {
		defer close(out)

		if total == 0 {
			send(ctx, out, Event{Type: EventDone, Progress: Progress{Completed: 0, Total: 0}})
			return
		}

		var completed int
		var mu sync.Mutex
		var wg sync.WaitGroup
		results := make(chan Event, total)

		for _, ip := range uniqueIPs {
			ip := ip
			wg.Add(1)
			go func() {
				defer wg.Done()
				record, err := safeAggregate(ctx, ip, aggregate)
				mu.Lock()
				completed++
				progress := Progress{Completed: completed, Total: total}
				mu.Unlock()

				if err != nil {
					results <- Event{Type: EventError, IP: ip, Code: "ITEM_FAILED", Error: err.Error(), Progress: progress}
					return
				}
				results <- Event{Type: EventResult, IP: ip, Result: &record, Progress: progress}
			}()
		}

		go func() {
			wg.Wait()
			close(results)
		}()

		for ev := range results {
			if !send(ctx, out, ev) {
				continue
			}
		}
		send(ctx, out, Event{Type: EventDone, Progress: Progress{Completed: total, Total: total}})
	}()

	return out
}

// safeAggregate recovers a panicking aggregate function into an error so
// one bad IP can never take down the whole stream.
func safeAggregate(ctx context.Context, ip string, aggregate AggregateFunc) (record model.DerivedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()
	return aggregate(ctx, ip)
}

type panicError struct{ v any }

func (p panicError) Error() string { return "panic during aggregation" }

// dedup collapses items to their first-occurrence IP, in input order.
func dedup(items []Item) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if it.IP == "" || seen[it.IP] {
			continue
		}
		seen[it.IP] = true
		out = append(out, it.IP)
	}
	return out
}

// send drops the event instead of blocking forever if ctx is already
// canceled and nobody will ever read it — in-flight work still completes
// (the caller already ran aggregate() to completion), only the emission
// is dropped, per §4.7's cancellation contract.
func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
