package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/pricewatch/catalog"
	"github.com/hazyhaar/pricewatch/store"
)

func msAgo(now time.Time, d time.Duration) *int64 {
	ts := now.Add(-d).UnixMilli()
	return &ts
}

func TestTierFor(t *testing.T) {
	// WHAT: Every signal combination maps to exactly one tier, with
	// inclusive 7-day and 30-day boundaries.
	now := time.Now()
	cases := []struct {
		name string
		sig  Signals
		want Tier
	}{
		{"watched", Signals{WatchCount: 1}, TierHigh},
		{"viewed yesterday", Signals{LastViewedAt: msAgo(now, 24*time.Hour)}, TierHigh},
		{"viewed exactly 7d", Signals{LastViewedAt: msAgo(now, sevenDays)}, TierHigh},
		{"viewed 8d, changed 3d", Signals{
			LastViewedAt:      msAgo(now, 8*24*time.Hour),
			LastPriceChangeAt: msAgo(now, 3*24*time.Hour),
		}, TierMedium},
		{"changed exactly 7d", Signals{LastPriceChangeAt: msAgo(now, sevenDays)}, TierMedium},
		{"viewed 20d only", Signals{LastViewedAt: msAgo(now, 20*24*time.Hour)}, TierLow},
		{"viewed exactly 30d", Signals{LastViewedAt: msAgo(now, thirtyDays)}, TierLow},
		{"no signals", Signals{}, TierInactive},
		{"viewed 31d, changed 40d", Signals{
			LastViewedAt:      msAgo(now, 31*24*time.Hour),
			LastPriceChangeAt: msAgo(now, 40*24*time.Hour),
		}, TierInactive},
	}
	for _, tc := range cases {
		if got := TierFor(tc.sig, now); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDue(t *testing.T) {
	// WHAT: Never-tracked is always due; tier thresholds are inclusive.
	now := time.Now()
	cases := []struct {
		name    string
		tracked *int64
		tier    Tier
		want    bool
	}{
		{"never tracked", nil, TierHigh, true},
		{"high 10h ago", msAgo(now, 10*time.Hour), TierHigh, false},
		{"high exactly 12h", msAgo(now, 12*time.Hour), TierHigh, true},
		{"high 13h ago", msAgo(now, 13*time.Hour), TierHigh, true},
		{"medium 23h", msAgo(now, 23*time.Hour), TierMedium, false},
		{"medium 24h", msAgo(now, 24*time.Hour), TierMedium, true},
		{"low 167h", msAgo(now, 167*time.Hour), TierLow, false},
		{"low 168h", msAgo(now, 168*time.Hour), TierLow, true},
		{"inactive 700h", msAgo(now, 700*time.Hour), TierInactive, false},
		{"inactive 720h", msAgo(now, 720*time.Hour), TierInactive, true},
	}
	for _, tc := range cases {
		if got := Due(tc.tracked, tc.tier, now); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

// fakeRepo implements SignalReader in memory for work-list tests.
type fakeRepo struct {
	products []*catalog.Product
	watchers map[string]int
	viewed   map[string]*int64
	changed  map[string]*int64
}

func (f *fakeRepo) ListProducts(_ context.Context, fl store.Filter) ([]*catalog.Product, error) {
	var out []*catalog.Product
	for _, p := range f.products {
		if fl.Merchant != "" && p.Merchant != fl.Merchant {
			continue
		}
		out = append(out, p)
	}
	if fl.Limit > 0 && len(out) > fl.Limit {
		out = out[:fl.Limit]
	}
	return out, nil
}

func (f *fakeRepo) CountWatchers(_ context.Context, id string) (int, error) {
	return f.watchers[id], nil
}

func (f *fakeRepo) LastViewedAt(_ context.Context, id string) (*int64, error) {
	return f.viewed[id], nil
}

func (f *fakeRepo) LastPriceChangeAt(_ context.Context, id string) (*int64, error) {
	return f.changed[id], nil
}

func TestBuildWorkList_OrderAndDue(t *testing.T) {
	// WHAT: Output is HIGH→MEDIUM→LOW→INACTIVE, due-filtered, stable
	// within tier by catalog order.
	now := time.Now()
	tracked := msAgo(now, 1*time.Hour) // recently tracked: not due

	repo := &fakeRepo{
		products: []*catalog.Product{
			{ID: "low-1", Merchant: "shopee"},
			{ID: "high-1", Merchant: "shopee"},
			{ID: "fresh", Merchant: "shopee", LastTrackedAt: tracked},
			{ID: "high-2", Merchant: "shopee"},
			{ID: "inactive-1", Merchant: "shopee"},
		},
		watchers: map[string]int{"high-1": 2, "high-2": 1, "fresh": 1},
		viewed: map[string]*int64{
			"low-1": msAgo(now, 10*24*time.Hour),
		},
		changed: map[string]*int64{},
	}

	items, err := BuildWorkList(context.Background(), repo, Options{Now: now}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var ids []string
	for _, it := range items {
		ids = append(ids, it.Product.ID)
	}
	want := []string{"high-1", "high-2", "low-1", "inactive-1"}
	if len(ids) != len(want) {
		t.Fatalf("work list: got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("work list order: got %v, want %v", ids, want)
		}
	}
}

func TestBuildWorkList_ForceIncludesFresh(t *testing.T) {
	// WHAT: Force mode bypasses the due-check entirely.
	now := time.Now()
	repo := &fakeRepo{
		products: []*catalog.Product{
			{ID: "fresh", LastTrackedAt: msAgo(now, time.Hour)},
		},
		watchers: map[string]int{"fresh": 1},
		viewed:   map[string]*int64{},
		changed:  map[string]*int64{},
	}

	items, err := BuildWorkList(context.Background(), repo, Options{Force: true, Now: now}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(items) != 1 || items[0].Product.ID != "fresh" {
		t.Fatalf("force: got %+v", items)
	}
}

func TestBuildWorkList_Limit(t *testing.T) {
	// WHAT: Truncation happens after ordering, so HIGH items survive.
	now := time.Now()
	repo := &fakeRepo{
		products: []*catalog.Product{
			{ID: "inactive-1"},
			{ID: "high-1"},
		},
		watchers: map[string]int{"high-1": 1},
		viewed:   map[string]*int64{},
		changed:  map[string]*int64{},
	}

	items, err := BuildWorkList(context.Background(), repo, Options{Limit: 1, Now: now}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(items) != 1 || items[0].Product.ID != "high-1" {
		t.Fatalf("limit: got %+v", items)
	}
}

func TestBuildWorkList_MerchantFilter(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{
		products: []*catalog.Product{
			{ID: "a", Merchant: "shopee"},
			{ID: "b", Merchant: "tiki"},
		},
		watchers: map[string]int{},
		viewed:   map[string]*int64{},
		changed:  map[string]*int64{},
	}

	items, err := BuildWorkList(context.Background(), repo, Options{Merchant: "tiki", Now: now}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(items) != 1 || items[0].Product.ID != "b" {
		t.Fatalf("merchant filter: got %+v", items)
	}
}
