// Package intent routes messages into one of three mutually exclusive
// categories using ordered regex pattern sets. Intervention is tested
// first so an escalating customer is never miscategorized as a sales lead,
// even when the same message carries commerce words.
package intent

import "regexp"

// Category is the classification outcome.
type Category string

const (
	CategoryCommerce     Category = "commerce"
	CategorySupport      Category = "support"
	CategoryIntervention Category = "intervention"
)

// Priority is derived from the category, never configured independently.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Result is the classifier output. Matched lists the trigger patterns that
// fired, for explainability only; nothing downstream consumes it.
type Result struct {
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
	Matched  []string `json:"matched,omitempty"`
}

var interventionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(terrible|awful|horrible|worst|disgusting)\b`),
	regexp.MustCompile(`(?i)\b(scam|scammer|fraud|rip[- ]?off)\b`),
	regexp.MustCompile(`(?i)\b(lawyer|legal action|sue|lawsuit|report you)\b`),
	regexp.MustCompile(`(?i)\b(chargeback|dispute (the )?charge)\b`),
	regexp.MustCompile(`(?i)\b(speak|talk) (to|with) (a |the |your )?(manager|human|person|supervisor)\b`),
	regexp.MustCompile(`(?i)\b(refund (me )?now|money back now|cancel everything)\b`),
	regexp.MustCompile(`(?i)\b(never (buying|ordering|shopping)|unacceptable)\b`),
	regexp.MustCompile(`(?i)\bangry\b|\bfurious\b`),
}

var commercePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(buy|purchase)\b`),
	regexp.MustCompile(`(?i)\b(want to|wanna|like to|place an?|i'?ll) order\b`),
	regexp.MustCompile(`(?i)\b(i|we)('d| would)? (want|need|like|love)\b`),
	regexp.MustCompile(`(?i)\bhow much\b|\bprice\b|\bcost\b`),
	regexp.MustCompile(`(?i)\b(in stock|available|availability)\b`),
	regexp.MustCompile(`(?i)\b(ship|shipping|deliver|delivery)( cost| fee| time)?\b`),
	regexp.MustCompile(`(?i)\b(discount|coupon|promo|deal|sale)\b`),
	regexp.MustCompile(`(?i)\b(take|pay|send)( you)? \$?\d`),
	regexp.MustCompile(`(?i)\b(add to cart|check ?out|payment link)\b`),
}

var supportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(where('s| is)|status of) my (order|package|parcel)\b`),
	regexp.MustCompile(`(?i)\b(track|tracking)( number| info)?\b`),
	regexp.MustCompile(`(?i)\b(return|exchange)( policy| it| this)?\b`),
	regexp.MustCompile(`(?i)\brefund\b`),
	regexp.MustCompile(`(?i)\b(hasn'?t|not) (arrived|shipped|delivered)\b`),
	regexp.MustCompile(`(?i)\b(wrong|damaged|broken|defective) (item|product|size|order)\b`),
	regexp.MustCompile(`(?i)\b(cancel|change) my order\b`),
}

// Classify tests a message against the pattern sets in priority order:
// intervention, then commerce, then support. The first set with any match
// wins. A message matching nothing is conversational noise and returns nil.
func Classify(body string) *Result {
	if matched := matchSet(interventionPatterns, body); len(matched) > 0 {
		return &Result{Category: CategoryIntervention, Priority: PriorityUrgent, Matched: matched}
	}
	if matched := matchSet(commercePatterns, body); len(matched) > 0 {
		return &Result{Category: CategoryCommerce, Priority: PriorityHigh, Matched: matched}
	}
	if matched := matchSet(supportPatterns, body); len(matched) > 0 {
		return &Result{Category: CategorySupport, Priority: PriorityMedium, Matched: matched}
	}
	return nil
}

func matchSet(patterns []*regexp.Regexp, body string) []string {
	var matched []string
	for _, re := range patterns {
		if re.MatchString(body) {
			matched = append(matched, re.String())
		}
	}
	return matched
}

// PriorityFor maps a category to its fixed priority.
func PriorityFor(c Category) Priority {
	switch c {
	case CategoryIntervention:
		return PriorityUrgent
	case CategoryCommerce:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
