package store

// Observation provenance tags.
const (
	SourceSeed      = "seed"
	SourceImport    = "import"
	SourceAutomated = "automated"
)

// PriceObservation is a single timestamped price reading. Append-only:
// the engine never mutates or deletes one.
type PriceObservation struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Source     string  `json:"source"`
	ObservedAt int64   `json:"observed_at"`
}

// Filter narrows ListProducts.
type Filter struct {
	Merchant string // empty = all merchants
	Limit    int    // 0 = no limit
}
