package catalog

import "github.com/google/uuid"

// Product is a seller catalog entry, loaded read-only from the catalog
// store at session start. Variants may be empty for single-SKU products.
type Product struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	SKU      string    `json:"sku"`
	Price    float64   `json:"price"`
	// SearchText is a precomputed composite of description and tags,
	// indexed at the lowest weight.
	SearchText string    `json:"search_text"`
	Variants   []Variant `json:"variants"`
}

// Variant is a sellable unit under a product.
type Variant struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	SKU     string    `json:"sku"`
	Price   float64   `json:"price"`
	Options []Option  `json:"options"`
}

// Option is one (name, value) pair on a variant, e.g. ("size", "L").
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MatchResult is the terminal output of the pipeline, handed to the
// checkout-link generator. A nil Product always carries zero confidence
// and NeedsConfirmation=true.
type MatchResult struct {
	Product           *Product `json:"product"`
	Variant           *Variant `json:"variant"`
	Confidence        float64  `json:"confidence"`
	Distance          float64  `json:"distance"`
	NeedsConfirmation bool     `json:"needs_confirmation"`
	MatchedFields     []string `json:"matched_fields,omitempty"`
}

// NoMatch is the canonical null-product result: empty catalog, short
// candidate, or nothing clearing the confidence floor all return this.
func NoMatch() MatchResult {
	return MatchResult{Confidence: 0, Distance: 1, NeedsConfirmation: true}
}
