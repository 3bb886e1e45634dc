package catalog

import (
	"testing"

	"github.com/google/uuid"
)

func testProducts() []Product {
	return []Product{
		{
			ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Title:      "Premium Black Hoodie",
			SKU:        "SK-BH-001",
			Price:      49.99,
			SearchText: "cotton fleece pullover streetwear",
			Variants: []Variant{
				{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"), Title: "Medium", SKU: "SK-BH-001-M"},
				{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"), Title: "Large", SKU: "SK-BH-001-L"},
			},
		},
		{
			ID:         uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Title:      "Ceramic Coffee Mug",
			SKU:        "SK-MG-002",
			Price:      14.99,
			SearchText: "stoneware 12oz kitchen drinkware",
		},
		{
			ID:         uuid.MustParse("33333333-3333-3333-3333-333333333333"),
			Title:      "Canvas Tote Bag",
			SKU:        "SK-TB-003",
			Price:      19.99,
			SearchText: "shopping carry everyday natural",
		},
	}
}

func TestIndex_QueryExactTitle(t *testing.T) {
	idx := NewIndex(testProducts())

	hit, ok := idx.Query("premium black hoodie")
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.Product.SKU != "SK-BH-001" {
		t.Errorf("expected hoodie, got %s", hit.Product.Title)
	}
	if hit.Distance > 0.01 {
		t.Errorf("exact title should score near-perfect, distance %f", hit.Distance)
	}
}

func TestIndex_QueryPartialTitle(t *testing.T) {
	idx := NewIndex(testProducts())

	hit, ok := idx.Query("black hoodie")
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.Product.SKU != "SK-BH-001" {
		t.Errorf("expected hoodie, got %s", hit.Product.Title)
	}
	if conf := 1 - hit.Distance; conf < 0.6 {
		t.Errorf("partial title match should clear the confirm floor, confidence %f", conf)
	}
}

func TestIndex_QueryFuzzyPlural(t *testing.T) {
	idx := NewIndex(testProducts())

	hit, ok := idx.Query("black hoodies")
	if !ok {
		t.Fatalf("expected a hit despite plural")
	}
	if hit.Product.SKU != "SK-BH-001" {
		t.Errorf("expected hoodie, got %s", hit.Product.Title)
	}
	if conf := 1 - hit.Distance; conf < 0.6 {
		t.Errorf("fuzzy plural should clear the confirm floor, confidence %f", conf)
	}
}

func TestIndex_QuerySKUSecondaryWeight(t *testing.T) {
	idx := NewIndex(testProducts())

	hit, ok := idx.Query("SK-MG-002")
	if !ok {
		t.Fatalf("expected a sku hit")
	}
	if hit.Product.Title != "Ceramic Coffee Mug" {
		t.Errorf("expected mug via sku, got %s", hit.Product.Title)
	}
	// SKU is a secondary field: even a perfect sku match must score below
	// a perfect title match.
	titleHit, _ := idx.Query("ceramic coffee mug")
	if hit.Distance <= titleHit.Distance {
		t.Errorf("sku match (distance %f) should rank below title match (distance %f)",
			hit.Distance, titleHit.Distance)
	}
}

func TestIndex_QueryNoOverlap(t *testing.T) {
	idx := NewIndex(testProducts())

	if _, ok := idx.Query("garden rake"); ok {
		t.Errorf("unrelated query should yield no hit")
	}
}

func TestIndex_QueryShortCandidate(t *testing.T) {
	idx := NewIndex(testProducts())

	if _, ok := idx.Query("m"); ok {
		t.Errorf("candidate below minimum length should yield no hit")
	}
}

func TestIndex_QueryEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)

	if _, ok := idx.Query("black hoodie"); ok {
		t.Errorf("empty index should yield no hit")
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"hoodie", "hoodie", 0},
		{"hoodie", "hoodies", 1},
		{"hoodie", "hood", 2},
		{"mug", "bag", 2},
		{"", "abc", 3},
	}

	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFuzzyTokenMatch_ShortTokensExcluded(t *testing.T) {
	if fuzzyTokenMatch("mug", "mut") {
		t.Errorf("short tokens must not fuzzy-match")
	}
	if !fuzzyTokenMatch("hoodie", "hoodies") {
		t.Errorf("long tokens within one edit should fuzzy-match")
	}
}
