package catalog

import (
	"log/slog"
	"strings"
	"sync"
)

// MatcherConfig exposes the confidence bands as configuration. The
// defaults are the observed production values; the band boundaries encode
// the product's tolerance for false positives versus friction.
type MatcherConfig struct {
	// AutoAcceptThreshold and above needs no human confirmation.
	AutoAcceptThreshold float64
	// ConfirmFloor up to AutoAcceptThreshold asks "did you mean X?".
	// Below ConfirmFloor no match is returned at all.
	ConfirmFloor float64
}

func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		AutoAcceptThreshold: 0.8,
		ConfirmFloor:        0.6,
	}
}

// Matcher resolves a product-name candidate to a catalog product and
// variant with a banded decision. Safe for concurrent use: catalog reloads
// arrive on the HTTP goroutine while matches run on the event-handler
// goroutine.
type Matcher struct {
	mu     sync.RWMutex
	index  *Index
	cfg    MatcherConfig
	logger *slog.Logger
}

func NewMatcher(index *Index, cfg MatcherConfig, logger *slog.Logger) *Matcher {
	if cfg.AutoAcceptThreshold <= 0 {
		cfg.AutoAcceptThreshold = DefaultMatcherConfig().AutoAcceptThreshold
	}
	if cfg.ConfirmFloor <= 0 {
		cfg.ConfirmFloor = DefaultMatcherConfig().ConfirmFloor
	}
	return &Matcher{index: index, cfg: cfg, logger: logger}
}

// Rebuild swaps in a fresh index built from a new catalog snapshot. There
// is no incremental update; price or stock changes mean a full rebuild.
func (m *Matcher) Rebuild(products []Product) {
	index := NewIndex(products)
	m.mu.Lock()
	m.index = index
	m.mu.Unlock()
	m.logger.Info("catalog index rebuilt", "products", len(products))
}

// Match runs the fuzzy search and applies the confidence-band policy.
// An empty catalog, a too-short candidate or nothing above the floor all
// yield the no-match result — never an error.
func (m *Matcher) Match(candidate string, attributes []string) MatchResult {
	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()

	hit, ok := index.Query(candidate)
	if !ok {
		return NoMatch()
	}
	return m.decide(hit, attributes)
}

// decide applies the confidence-band policy to a scored hit.
func (m *Matcher) decide(hit Hit, attributes []string) MatchResult {
	confidence := 1 - hit.Distance
	if confidence < m.cfg.ConfirmFloor {
		m.logger.Debug("match below confidence floor", "confidence", confidence)
		return NoMatch()
	}

	product := hit.Product
	result := MatchResult{
		Product:           &product,
		Confidence:        confidence,
		Distance:          hit.Distance,
		NeedsConfirmation: confidence < m.cfg.AutoAcceptThreshold,
		MatchedFields:     hit.MatchedFields,
	}
	result.Variant = resolveVariant(product, attributes)
	return result
}

// resolveVariant scans variants for one whose title, sku or option values
// contain any extracted attribute token. First hit wins. With variants
// present but none matching, the first variant is returned anyway: always
// hand back a sellable unit and defer disambiguation to a human.
func resolveVariant(product Product, attributes []string) *Variant {
	if len(product.Variants) == 0 {
		return nil
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		if variantMatches(v, attributes) {
			return v
		}
	}
	return &product.Variants[0]
}

func variantMatches(v *Variant, attributes []string) bool {
	for _, attr := range attributes {
		needle := strings.ToLower(strings.TrimSpace(attr))
		if needle == "" {
			continue
		}
		if strings.Contains(strings.ToLower(v.Title), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(v.SKU), needle) {
			return true
		}
		for _, opt := range v.Options {
			if strings.Contains(strings.ToLower(opt.Value), needle) {
				return true
			}
		}
	}
	return false
}
