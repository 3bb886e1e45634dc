package dom

import "time"

// Platform identifies the chat surface a snapshot was captured from.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformMessenger Platform = "messenger"
)

// Sender is the inferred role of a message author within the conversation.
type Sender string

const (
	SenderSeller Sender = "seller"
	SenderBuyer  Sender = "buyer"
)

// Tier records which selector strategy produced a message. Less precise
// tiers are only reached when every selector in the tiers above them
// matched nothing.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierFallback  Tier = "fallback"
	TierTreeWalk  Tier = "treewalk"
)

// ContentType classifies the message payload. Only text carries a body;
// media messages are surfaced for bookkeeping but never parsed or matched.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
)

// RawMessage is the ephemeral extraction unit. It carries only primitives
// copied out of the DOM snapshot — never a live node handle — so nothing
// downstream can retain a detached subtree.
type RawMessage struct {
	Text         string
	Sender       Sender
	Tier         Tier
	ContentType  ContentType
	Timestamp    time.Time // zero when the DOM exposed no usable time
	DiscoveredAt time.Time
}

// CanonicalMessage is the stable unit handed to the pipeline.
type CanonicalMessage struct {
	Platform       Platform    `json:"platform"`
	ConversationID string      `json:"conversation_id"`
	Sender         Sender      `json:"sender"`
	Timestamp      time.Time   `json:"timestamp"`
	Ordinal        int         `json:"ordinal"`
	Body           string      `json:"body"`
	ContentType    ContentType `json:"content_type"`
}

// ExtractResult is the outcome of one snapshot extraction pass. An empty
// Messages slice with ContainerFound=false is an expected transient state
// while the host page is loading, not an error.
type ExtractResult struct {
	Messages       []RawMessage
	Tier           Tier
	ContainerFound bool
}
