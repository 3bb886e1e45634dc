// Package parse extracts a structured partial order description from a
// message already judged commerce-relevant. It is pattern matching, not a
// grammar: an ordered list of (pattern, extract) pairs, first match wins,
// so patterns can be added or reordered without touching control flow.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedIntent is the parser output. Nil-able fields signal "intent
// detected but nothing extractable" — downstream treats that as "ask the
// user", never as a match attempt.
type ParsedIntent struct {
	ProductName *string  `json:"product_name"`
	Price       *float64 `json:"price"`
	Quantity    int      `json:"quantity"`
	Attributes  []string `json:"attributes,omitempty"`

	// IntentScore is a coarse 0-1 purchase-intent signal, independent of
	// the three-way classifier. Callers use it as a cheap gate before the
	// fuzzy catalog search.
	IntentScore float64 `json:"intent_score"`
}

// GateThreshold is the intent score below which callers skip catalog
// matching entirely.
const GateThreshold = 0.2

var priceTokens = []*regexp.Regexp{
	regexp.MustCompile(`\$\s?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d{1,2})?)\s?(?:usd|dollars?|bucks)\b`),
}

// productPattern pairs a construction regex with the capture group holding
// the candidate span.
type productPattern struct {
	re    *regexp.Regexp
	group int
}

var productPatterns = []productPattern{
	// "the X for/at/to ..."
	{regexp.MustCompile(`(?i)\bthe\s+([a-z0-9][a-z0-9\s'-]{1,60}?)\s+(?:for|at|to)\b`), 1},
	// "want/need/buy/order/get (the/a/an) X for/at ..."
	{regexp.MustCompile(`(?i)\b(?:want|need|buy|order|get|purchase)\s+(?:the\s+|a\s+|an\s+)?([a-z0-9][a-z0-9\s'-]{1,60}?)\s+(?:for|at|in|please|\$)`), 1},
	// "want/need/buy/order/get (the/a/an) X" to end of clause
	{regexp.MustCompile(`(?i)\b(?:want|need|buy|order|get|purchase)\s+(?:the\s+|a\s+|an\s+)?([a-z0-9][a-z0-9\s'-]{1,60}?)(?:[.,!?]|$)`), 1},
	// "item: X" / "product: X"
	{regexp.MustCompile(`(?i)\b(?:item|product)\s*:\s*([a-z0-9][a-z0-9\s'-]{1,60}?)(?:[.,!?]|$)`), 1},
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "this": true, "that": true,
	"some": true, "any": true, "my": true, "your": true, "me": true,
	"please": true, "pls": true, "one": true, "i": true, "to": true,
	"of": true, "in": true, "it": true, "for": true, "at": true,
}

var quantityWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"a": 1, "an": 1,
}

var (
	quantityUnitRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s?(?:pcs?|pieces?|units?|items?|x)\b`)
	quantityWordRe = regexp.MustCompile(`(?i)\b(one|two|three|four|five)\s+(?:of\b|[a-z])`)
	halfDozenRe    = regexp.MustCompile(`(?i)\bhalf\s+a?\s?dozen\b`)
	dozenRe        = regexp.MustCompile(`(?i)\ba?\s?dozen\b`)
	leadingCountRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s+(?:[a-z][a-z'-]+\s)?[a-z][a-z'-]+s\b`)
)

var sizeTokenRe = regexp.MustCompile(`(?i)\bsize\s+(xxl|xl|xs|s|m|l|small|medium|large)\b|\b(xxl|xl|xs|small|medium|large)\b`)

var colorWords = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange",
	"purple", "pink", "brown", "grey", "gray", "navy", "beige", "gold",
	"silver", "maroon", "teal", "olive", "cream",
}

var colorRe = regexp.MustCompile(`(?i)\b(` + strings.Join(colorWords, "|") + `)\b`)

var intentKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(want|need|buy|purchase|order|get me|take)\b`),
	regexp.MustCompile(`(?i)\bhow much\b|\bprice\b|\bcost\b`),
	regexp.MustCompile(`(?i)\b(in stock|available)\b`),
	regexp.MustCompile(`(?i)\b(ship|deliver)`),
}

// Parse extracts price, product candidate, quantity, attribute tokens and
// a coarse intent score from free text.
func Parse(body string) ParsedIntent {
	price := extractPrice(body)
	product := extractProduct(body, price)
	qty := extractQuantity(body)
	attrs := extractAttributes(body)

	return ParsedIntent{
		ProductName: product,
		Price:       price,
		Quantity:    qty,
		Attributes:  attrs,
		IntentScore: scoreIntent(body, price, qty, attrs),
	}
}

func extractPrice(body string) *float64 {
	for _, re := range priceTokens {
		m := re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return &v
	}
	return nil
}

func extractProduct(body string, price *float64) *string {
	for _, p := range productPatterns {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		candidate := cleanCandidate(m[p.group])
		if len(candidate) >= 3 && len(candidate) <= 50 {
			return &candidate
		}
	}

	// Weak fallback: the last one or two words before a price token.
	if price != nil {
		if c := wordsBeforePrice(body); c != "" {
			return &c
		}
	}
	return nil
}

// cleanCandidate strips stopwords, quantity noise and dangling punctuation
// from a captured span.
func cleanCandidate(span string) string {
	span = strings.TrimSpace(span)
	words := strings.Fields(span)
	var kept []string
	for _, w := range words {
		lw := strings.ToLower(strings.Trim(w, ".,!?"))
		if stopwords[lw] {
			continue
		}
		if _, isNum := quantityWords[lw]; isNum && len(kept) == 0 {
			continue
		}
		if _, err := strconv.Atoi(lw); err == nil && len(kept) == 0 {
			continue
		}
		kept = append(kept, strings.Trim(w, ".,!?"))
	}
	return strings.Join(kept, " ")
}

var beforePriceRe = regexp.MustCompile(`(?i)([a-z'-]+(?:\s+[a-z'-]+)?)\s*(?:for|at|:)?\s*\$\d`)

func wordsBeforePrice(body string) string {
	m := beforePriceRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	c := cleanCandidate(m[1])
	// Drop connective-only captures like "it for".
	if len(c) < 3 || stopwords[strings.ToLower(c)] {
		return ""
	}
	return c
}

func extractQuantity(body string) int {
	if halfDozenRe.MatchString(body) {
		return 6
	}
	if dozenRe.MatchString(body) {
		return 12
	}
	if m := quantityUnitRe.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if m := quantityWordRe.FindStringSubmatch(body); m != nil {
		if n, ok := quantityWords[strings.ToLower(m[1])]; ok {
			return n
		}
	}
	// Bare numeral directly before a plural noun, e.g. "3 blue hoodies".
	if m := leadingCountRe.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n < 1000 {
			return n
		}
	}
	return 1
}

func extractAttributes(body string) []string {
	var attrs []string
	seen := map[string]bool{}

	for _, m := range sizeTokenRe.FindAllStringSubmatch(body, -1) {
		tok := m[1]
		if tok == "" {
			tok = m[2]
		}
		tok = normalizeSize(tok)
		if tok != "" && !seen[tok] {
			seen[tok] = true
			attrs = append(attrs, tok)
		}
	}

	for _, m := range colorRe.FindAllString(body, -1) {
		color := strings.ToLower(m)
		if seen[color] {
			continue
		}
		seen[color] = true
		attrs = append(attrs, color)
	}
	return attrs
}

func normalizeSize(tok string) string {
	switch strings.ToLower(tok) {
	case "s", "small":
		return "small"
	case "m", "medium":
		return "medium"
	case "l", "large":
		return "large"
	case "xs":
		return "xs"
	case "xl":
		return "xl"
	case "xxl":
		return "xxl"
	default:
		return strings.ToLower(tok)
	}
}

// scoreIntent sums weighted contributions from keyword hits, a price
// token, and quantity/attribute signals, capped at 1.
func scoreIntent(body string, price *float64, qty int, attrs []string) float64 {
	score := 0.0
	for _, re := range intentKeywords {
		if re.MatchString(body) {
			score += 0.25
		}
	}
	if price != nil {
		score += 0.3
	}
	if qty > 1 {
		score += 0.15
	}
	if len(attrs) > 0 {
		score += 0.15
	}
	if score > 1 {
		score = 1
	}
	return score
}
