package catalog

import (
	"regexp"
	"strings"
)

// Field weights. Title is the primary signal, sku secondary, composite
// search text tertiary.
const (
	weightTitle  = 1.0
	weightSKU    = 0.6
	weightSearch = 0.3
)

// Coverage blend: how much of the query appears in the field matters most,
// then how much of the field the query explains, then plain Jaccard.
const (
	queryCoverageWeight = 0.60
	fieldCoverageWeight = 0.20
	jaccardWeight       = 0.20
)

// Fuzzy token matches count at a fraction of an exact hit, and only apply
// to tokens long enough that one edit is unlikely to be a different word.
const (
	fuzzyWeightFactor = 0.8
	fuzzyMinTokenLen  = 5
	fuzzyEditDistance = 1
)

// substringBonus rewards the whole candidate appearing verbatim inside a
// field.
const substringBonus = 0.10

// MinQueryLength is the shortest candidate the index will search for.
const MinQueryLength = 2

var nonWordRe = regexp.MustCompile(`[^\pL\pN\s]`)

type indexedField struct {
	name   string
	weight float64
	text   string
	tokens []string
}

type indexEntry struct {
	product Product
	fields  []indexedField
}

// Index is a fuzzy full-text search index over one catalog snapshot. It is
// built once per snapshot and read-only for that snapshot's lifetime;
// refreshing the catalog means rebuilding wholesale.
type Index struct {
	entries []indexEntry
}

// NewIndex builds the index from a product snapshot.
func NewIndex(products []Product) *Index {
	idx := &Index{entries: make([]indexEntry, 0, len(products))}
	for _, p := range products {
		entry := indexEntry{product: p}
		for _, f := range []struct {
			name   string
			weight float64
			text   string
		}{
			{"title", weightTitle, p.Title},
			{"sku", weightSKU, p.SKU},
			{"searchText", weightSearch, p.SearchText},
		} {
			if strings.TrimSpace(f.text) == "" {
				continue
			}
			entry.fields = append(entry.fields, indexedField{
				name:   f.name,
				weight: f.weight,
				text:   strings.ToLower(f.text),
				tokens: tokenize(f.text),
			})
		}
		idx.entries = append(idx.entries, entry)
	}
	return idx
}

// Len returns the number of indexed products.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Hit is one scored candidate from a query.
type Hit struct {
	Product       Product
	Distance      float64 // normalized, 0 = perfect match
	MatchedFields []string
}

// Query scores every product against the candidate and returns the best
// hit. ok is false for an empty index or a candidate shorter than
// MinQueryLength — expected absences, not errors.
func (idx *Index) Query(candidate string) (Hit, bool) {
	candidate = strings.TrimSpace(candidate)
	if len(candidate) < MinQueryLength || len(idx.entries) == 0 {
		return Hit{}, false
	}

	queryTokens := tokenize(candidate)
	if len(queryTokens) == 0 {
		return Hit{}, false
	}
	queryLower := strings.ToLower(candidate)

	best := Hit{Distance: 1}
	found := false
	for _, entry := range idx.entries {
		score := 0.0
		var fields []string
		for _, f := range entry.fields {
			fs := fieldScore(queryTokens, queryLower, f)
			if fs <= 0 {
				continue
			}
			fields = append(fields, f.name)
			if weighted := fs * f.weight; weighted > score {
				score = weighted
			}
		}
		if score <= 0 {
			continue
		}
		dist := 1 - clamp01(score)
		if !found || dist < best.Distance {
			best = Hit{Product: entry.product, Distance: dist, MatchedFields: fields}
			found = true
		}
	}
	return best, found
}

// fieldScore blends token coverage both ways with Jaccard overlap, counts
// near-miss tokens at reduced weight, and rewards verbatim containment.
func fieldScore(queryTokens []string, queryLower string, f indexedField) float64 {
	if len(f.tokens) == 0 {
		return 0
	}

	queryMatched := coverage(queryTokens, f.tokens)
	if queryMatched == 0 {
		return 0
	}
	fieldMatched := coverage(f.tokens, queryTokens)

	queryCoverage := queryMatched / float64(len(queryTokens))
	fieldCoverage := fieldMatched / float64(len(f.tokens))
	union := float64(len(queryTokens)+len(f.tokens)) - minF(queryMatched, fieldMatched)
	jaccard := 0.0
	if union > 0 {
		jaccard = minF(queryMatched, fieldMatched) / union
	}

	score := queryCoverage*queryCoverageWeight + fieldCoverage*fieldCoverageWeight + jaccard*jaccardWeight

	if strings.Contains(f.text, queryLower) {
		score += substringBonus
	}
	return clamp01(score)
}

// coverage counts how many of tokens appear in others, counting fuzzy
// matches at fuzzyWeightFactor.
func coverage(tokens, others []string) float64 {
	total := 0.0
	for _, tok := range tokens {
		best := 0.0
		for _, other := range others {
			if tok == other {
				best = 1.0
				break
			}
			if fuzzyTokenMatch(tok, other) && fuzzyWeightFactor > best {
				best = fuzzyWeightFactor
			}
		}
		total += best
	}
	return total
}

// fuzzyTokenMatch reports whether two tokens are within the bounded edit
// distance. Short tokens are excluded: one edit on a four-letter word is
// usually a different word.
func fuzzyTokenMatch(a, b string) bool {
	if len(a) < fuzzyMinTokenLen || len(b) < fuzzyMinTokenLen {
		return false
	}
	if abs(len(a)-len(b)) > fuzzyEditDistance {
		return false
	}
	return editDistance(a, b) <= fuzzyEditDistance
}

// editDistance is classic Levenshtein with two rolling rows.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func tokenize(text string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(cleaned)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
