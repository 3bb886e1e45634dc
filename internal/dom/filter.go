package dom

import (
	"regexp"
	"strings"
)

const (
	minMessageLength = 5
	maxMessageLength = 2000
)

// Bare clock times and date-only strings, e.g. "12:04", "9:30 PM", "Today".
var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,2}:\d{2}(\s?[APap]\.?[Mm]\.?)?$`),
	regexp.MustCompile(`^(?i)(today|yesterday)$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`),
}

// UI chrome labels the chat surface renders between and around messages.
var chromePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^typing(\.{1,3}|…)?$`),
	regexp.MustCompile(`(?i)^(online|offline)$`),
	regexp.MustCompile(`(?i)^last seen .+$`),
	regexp.MustCompile(`(?i)^(seen|delivered|read|sent)( by .+)?$`),
	regexp.MustCompile(`^[✓✔]{1,2}$`),
	regexp.MustCompile(`(?i)^(click here|tap to|loading|new messages?)\b`),
}

// Platform system messages that show up inline with real messages.
var systemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)created (this )?group`),
	regexp.MustCompile(`(?i)(added|removed) .+ (to|from) (the )?group`),
	regexp.MustCompile(`(?i)(joined|left) (using|the) `),
	regexp.MustCompile(`(?i)changed (the (subject|group)|their phone number)`),
	regexp.MustCompile(`(?i)end-to-end encrypt`),
	regexp.MustCompile(`(?i)messages (and calls )?are secured`),
	regexp.MustCompile(`(?i)you (deleted|unsent) this message`),
	regexp.MustCompile(`(?i)this message was deleted`),
}

var letterPattern = regexp.MustCompile(`\p{L}`)

// IsValidMessage reports whether a candidate text should be promoted to a
// message. It rejects UI chrome, timestamps, system notices, degenerate
// lengths and letter-free strings. Applied to every candidate no matter
// which selector tier produced it.
func IsValidMessage(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minMessageLength || len(trimmed) > maxMessageLength {
		return false
	}
	if !letterPattern.MatchString(trimmed) {
		return false
	}
	for _, re := range timestampPatterns {
		if re.MatchString(trimmed) {
			return false
		}
	}
	for _, re := range chromePatterns {
		if re.MatchString(trimmed) {
			return false
		}
	}
	for _, re := range systemPatterns {
		if re.MatchString(trimmed) {
			return false
		}
	}
	return true
}
