package dom

// SelectorSet holds the tiered CSS selectors for one platform. Tiers are
// ordered by precision: primary selectors lean on ARIA roles and stable
// data attributes, secondary on class names that have historically held,
// fallback on broad structural shapes. Container selectors locate the
// scrollable message list so the last-resort tree walk never leaves it.
type SelectorSet struct {
	Platform  Platform
	Primary   []string
	Secondary []string
	Fallback  []string
	Container []string

	// OutgoingHints mark seller-side (our side) message bubbles. A message
	// whose ancestry matches none of these is attributed to the buyer.
	OutgoingHints []string

	// MediaHints detect non-text payloads inside a message element.
	ImageHints []string
	VideoHints []string
	AudioHints []string
}

// WhatsAppSelectors returns the selector set for WhatsApp Web.
func WhatsAppSelectors() SelectorSet {
	return SelectorSet{
		Platform: PlatformWhatsApp,
		Primary: []string{
			`div[role="row"] div[data-pre-plain-text]`,
			`div[data-pre-plain-text]`,
		},
		Secondary: []string{
			`div.message-in span.selectable-text, div.message-out span.selectable-text`,
			`span.selectable-text.copyable-text`,
		},
		Fallback: []string{
			`div[class*="message"] span[dir="ltr"]`,
			`div[role="row"] span`,
		},
		Container: []string{
			`div[data-testid="conversation-panel-messages"]`,
			`#main div.copyable-area`,
			`#main`,
		},
		OutgoingHints: []string{"message-out"},
		ImageHints:    []string{`img[src]`, `div[data-testid="image-thumb"]`},
		VideoHints:    []string{`span[data-icon="media-play"]`, `video`},
		AudioHints:    []string{`span[data-icon="audio-play"]`, `audio`},
	}
}

// MessengerSelectors returns the selector set for Facebook Messenger.
// Messenger's class names are build-time hashes, so the secondary tier
// leans on dir/auto text containers instead.
func MessengerSelectors() SelectorSet {
	return SelectorSet{
		Platform: PlatformMessenger,
		Primary: []string{
			`div[role="main"] div[role="row"] div[dir="auto"]`,
			`div[data-testid="message-container"] div[dir="auto"]`,
		},
		Secondary: []string{
			`div[role="gridcell"] div[dir="auto"]`,
			`div[role="presentation"] div[dir="auto"]`,
		},
		Fallback: []string{
			`div[role="main"] div[dir="auto"]`,
		},
		Container: []string{
			`div[role="main"]`,
			`div[aria-label="Messages"]`,
		},
		OutgoingHints: []string{"x1q0g3np", "outgoing"},
		ImageHints:    []string{`img[alt]`, `a[role="link"] img`},
		VideoHints:    []string{`video`},
		AudioHints:    []string{`audio`},
	}
}

// SelectorsFor returns the selector set for a platform, defaulting to
// WhatsApp when the platform is unknown.
func SelectorsFor(p Platform) SelectorSet {
	switch p {
	case PlatformMessenger:
		return MessengerSelectors()
	default:
		return WhatsAppSelectors()
	}
}
