package runner

import (
	"context"
	"testing"

	"github.com/hazyhaar/pricewatch/store"
	"github.com/hazyhaar/pricewatch/track"
)

func successResult(id string, price float64) track.Result {
	return track.Result{
		ProductID: id,
		Success:   true,
		Price:     price,
		Currency:  "USD",
		Title:     "Widget",
		Strategy:  track.KindHTTP,
	}
}

func TestRecorderInsertsOnlyOnChange(t *testing.T) {
	// WHAT: recording the same price twice stores exactly one
	// observation; a changed price appends a second.
	// WHY: the history is append-only and change-driven — re-recording
	// a stable price must not inflate it.
	ctx := context.Background()
	st := newMemStore()
	rec := NewRecorder(st, nil)

	if err := rec.Record(ctx, successResult("p1", 49.99)); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := rec.Record(ctx, successResult("p1", 49.99)); err != nil {
		t.Fatalf("second record: %v", err)
	}
	if st.inserts != 1 {
		t.Fatalf("inserts = %d, want 1 after unchanged price", st.inserts)
	}

	if err := rec.Record(ctx, successResult("p1", 39.99)); err != nil {
		t.Fatalf("third record: %v", err)
	}
	if st.inserts != 2 {
		t.Fatalf("inserts = %d, want 2 after price drop", st.inserts)
	}
	if st.latest["p1"].Price != 39.99 {
		t.Fatalf("latest price = %v, want 39.99", st.latest["p1"].Price)
	}
	if st.latest["p1"].Source != store.SourceAutomated {
		t.Fatalf("source = %q, want %q", st.latest["p1"].Source, store.SourceAutomated)
	}
}

func TestRecorderFailureOnlyTouches(t *testing.T) {
	// WHAT: a failed attempt advances last-tracked and writes nothing
	// else.
	ctx := context.Background()
	st := newMemStore()
	rec := NewRecorder(st, nil)

	res := track.Result{ProductID: "p1", ErrKind: track.ErrBotDetected, Err: "bot detection"}
	if err := rec.Record(ctx, res); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if st.touches["p1"] != 1 {
		t.Fatalf("touches = %d, want 1", st.touches["p1"])
	}
	if st.inserts != 0 || st.metaUpdates != 0 {
		t.Fatalf("failure wrote observations or metadata")
	}
}

func TestRecorderUpdatesMetaOnSuccess(t *testing.T) {
	// WHAT: successful attempts refresh product title and currency even
	// when the price did not move.
	ctx := context.Background()
	st := newMemStore()
	rec := NewRecorder(st, nil)

	for range 2 {
		if err := rec.Record(ctx, successResult("p1", 10)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if st.metaUpdates != 2 {
		t.Fatalf("metaUpdates = %d, want 2", st.metaUpdates)
	}
}
