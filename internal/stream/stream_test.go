package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/ipshield/reputation-engine/internal/model"
)

func TestRunDedupsAndEmitsDone(t *testing.T) {
	items := []Item{
		{IP: "8.8.8.8", Index: 0},
		{IP: "1.1.1.1", Index: 1},
		{IP: "8.8.8.8", Index: 2},
		{IP: "9.9.9.9", Index: 3},
	}

	aggregate := func(ctx context.Context, ip string) (model.DerivedRecord, error) {
		return model.DerivedRecord{IP: ip}, nil
	}

	var results []Event
	var done *Event
	for ev := range Run(context.Background(), items, aggregate) {
		if ev.Type == EventDone {
			d := ev
			done = &d
			continue
		}
		results = append(results, ev)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 result events for 3 unique IPs, got %d", len(results))
	}
	if done == nil {
		t.Fatal("expected a done event")
	}
	if done.Progress.Completed != 3 || done.Progress.Total != 3 {
		t.Fatalf("unexpected done progress: %+v", done.Progress)
	}
}

func TestRunReportsItemFailedOnError(t *testing.T) {
	items := []Item{{IP: "1.2.3.4", Index: 0}}
	aggregate := func(ctx context.Context, ip string) (model.DerivedRecord, error) {
		return model.DerivedRecord{}, errors.New("boom")
	}

	var gotError bool
	for ev := range Run(context.Background(), items, aggregate) {
		if ev.Type == EventError {
			gotError = true
			if ev.Code != "ITEM_FAILED" {
				t.Fatalf("expected ITEM_FAILED code, got %q", ev.Code)
			}
		}
	}
	if !gotError {
		t.Fatal("expected an error event")
	}
}

func TestRunEmptyInput(t *testing.T) {
	var events []Event
	for ev := range Run(context.Background(), nil, func(ctx context.Context, ip string) (model.DerivedRecord, error) {
		return model.DerivedRecord{}, nil
	}) {
		events = append(events, ev)
	}
	if len(events) != 1 || events[0].Type != EventDone {
		t.Fatalf("expected a single done event for empty input, got %+v", events)
	}
}
