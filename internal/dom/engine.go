package dom

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// Bounds for text nodes accepted by the last-resort tree walk.
	walkMinLength = 5
	walkMaxLength = 2000
)

// Engine extracts messages from chat DOM snapshots using a tiered selector
// strategy. It holds no mutable state; one engine can serve many snapshots.
type Engine struct {
	set    SelectorSet
	logger *slog.Logger
}

func NewEngine(set SelectorSet, logger *slog.Logger) *Engine {
	return &Engine{set: set, logger: logger}
}

func (e *Engine) Platform() Platform {
	return e.set.Platform
}

// Extract runs one extraction pass over an HTML snapshot. Selector tiers
// are tried strictly in order; within a tier the first selector matching at
// least one element wins and extraction stops there. When every tier comes
// up empty the engine scopes a text-node walk to the message container. No
// container and no matches is a transient absence, returned as an empty
// result rather than an error.
func (e *Engine) Extract(snapshot string) (ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return ExtractResult{}, fmt.Errorf("parse snapshot: %w", err)
	}

	tiers := []struct {
		tier      Tier
		selectors []string
	}{
		{TierPrimary, e.set.Primary},
		{TierSecondary, e.set.Secondary},
		{TierFallback, e.set.Fallback},
	}

	for _, t := range tiers {
		for _, selector := range t.selectors {
			sel := doc.Find(selector)
			if sel.Length() == 0 {
				continue
			}
			msgs := e.collect(sel, t.tier)
			e.logger.Debug("selector tier matched",
				"platform", e.set.Platform,
				"tier", t.tier,
				"elements", sel.Length(),
				"messages", len(msgs),
			)
			return ExtractResult{Messages: msgs, Tier: t.tier, ContainerFound: true}, nil
		}
	}

	// Every tier failed. Walk text nodes under the container, if one exists.
	container := e.findContainer(doc)
	if container == nil {
		return ExtractResult{}, nil
	}
	msgs := e.walkTextNodes(container)
	e.logger.Debug("tree walk fallback",
		"platform", e.set.Platform,
		"messages", len(msgs),
	)
	return ExtractResult{Messages: msgs, Tier: TierTreeWalk, ContainerFound: true}, nil
}

// ExtractOne performs a minimal single-message extraction. Used by the
// health monitor as a heartbeat; cost is bounded by stopping at the first
// valid message.
func (e *Engine) ExtractOne(snapshot string) (RawMessage, bool) {
	res, err := e.Extract(snapshot)
	if err != nil || len(res.Messages) == 0 {
		return RawMessage{}, false
	}
	return res.Messages[0], true
}

func (e *Engine) collect(sel *goquery.Selection, tier Tier) []RawMessage {
	now := time.Now().UTC()
	var msgs []RawMessage
	sel.Each(func(_ int, s *goquery.Selection) {
		ct := e.contentType(s)
		if ct != ContentText {
			msgs = append(msgs, RawMessage{
				Sender:       e.senderOf(s),
				Tier:         tier,
				ContentType:  ct,
				DiscoveredAt: now,
			})
			return
		}
		text := strings.TrimSpace(s.Text())
		if !IsValidMessage(text) {
			return
		}
		msgs = append(msgs, RawMessage{
			Text:         text,
			Sender:       e.senderOf(s),
			Tier:         tier,
			ContentType:  ContentText,
			Timestamp:    e.timestampOf(s),
			DiscoveredAt: now,
		})
	})
	return msgs
}

func (e *Engine) findContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.set.Container {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// walkTextNodes visits every text node under the container and accepts any
// whose trimmed length fits the walk bounds and passes the noise filter.
// Scoping to the container keeps worst-case traversal bounded and keeps
// unrelated page chrome out of the result.
func (e *Engine) walkTextNodes(container *goquery.Selection) []RawMessage {
	now := time.Now().UTC()
	var msgs []RawMessage
	container.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				if child.Type != html.TextNode {
					continue
				}
				text := strings.TrimSpace(child.Data)
				if len(text) < walkMinLength || len(text) > walkMaxLength {
					continue
				}
				if !IsValidMessage(text) {
					continue
				}
				msgs = append(msgs, RawMessage{
					Text:         text,
					Sender:       e.senderOf(s),
					Tier:         TierTreeWalk,
					ContentType:  ContentText,
					DiscoveredAt: now,
				})
			}
		}
	})
	return msgs
}

func (e *Engine) senderOf(s *goquery.Selection) Sender {
	for _, hint := range e.set.OutgoingHints {
		if s.Closest("."+hint).Length() > 0 {
			return SenderSeller
		}
	}
	return SenderBuyer
}

func (e *Engine) contentType(s *goquery.Selection) ContentType {
	if strings.TrimSpace(s.Text()) != "" {
		return ContentText
	}
	for _, hint := range e.set.AudioHints {
		if s.Find(hint).Length() > 0 {
			return ContentAudio
		}
	}
	for _, hint := range e.set.VideoHints {
		if s.Find(hint).Length() > 0 {
			return ContentVideo
		}
	}
	for _, hint := range e.set.ImageHints {
		if s.Find(hint).Length() > 0 {
			return ContentImage
		}
	}
	return ContentText
}

// prePlainText is WhatsApp's bubble metadata attribute, e.g.
// "[14:03, 26/08/2026] Ada: ".
var prePlainText = regexp.MustCompile(`^\[(\d{1,2}:\d{2}),\s*(\d{1,2}/\d{1,2}/\d{4})\]`)

func (e *Engine) timestampOf(s *goquery.Selection) time.Time {
	attr, ok := s.Attr("data-pre-plain-text")
	if !ok {
		attr, ok = s.Closest("[data-pre-plain-text]").Attr("data-pre-plain-text")
		if !ok {
			return time.Time{}
		}
	}
	m := prePlainText.FindStringSubmatch(strings.TrimSpace(attr))
	if m == nil {
		return time.Time{}
	}
	ts, err := time.Parse("15:04 2/1/2006", m[1]+" "+m[2])
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Canonicalize promotes a raw extraction to the stable message unit passed
// downstream. Ordinal position stands in for the send time when the DOM
// exposed none.
func Canonicalize(platform Platform, conversationID string, raw RawMessage, ordinal int) (CanonicalMessage, bool) {
	if raw.ContentType != ContentText {
		return CanonicalMessage{
			Platform:       platform,
			ConversationID: conversationID,
			Sender:         raw.Sender,
			Timestamp:      raw.DiscoveredAt,
			Ordinal:        ordinal,
			ContentType:    raw.ContentType,
		}, true
	}
	body := strings.TrimSpace(raw.Text)
	if body == "" {
		return CanonicalMessage{}, false
	}
	ts := raw.Timestamp
	if ts.IsZero() {
		ts = raw.DiscoveredAt
	}
	return CanonicalMessage{
		Platform:       platform,
		ConversationID: conversationID,
		Sender:         raw.Sender,
		Timestamp:      ts,
		Ordinal:        ordinal,
		Body:           body,
		ContentType:    ContentText,
	}, true
}
