// Package pipeline orchestrates one conversation-observation session:
// snapshot in, extraction, dedup, classification, parsing, catalog match,
// events out. Every step is synchronous and non-blocking; anything that
// touches the network on the way out is fire-and-forget.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hawker-app/hawker/internal/bus"
	"github.com/hawker-app/hawker/internal/catalog"
	"github.com/hawker-app/hawker/internal/dedup"
	"github.com/hawker-app/hawker/internal/dom"
	"github.com/hawker-app/hawker/internal/health"
	"github.com/hawker-app/hawker/internal/intent"
	"github.com/hawker-app/hawker/internal/parse"
)

// SnapshotEvent is the inbound payload from the extension shim, arriving
// over NATS or the HTTP ingest endpoint.
type SnapshotEvent struct {
	Platform       string    `json:"platform"`
	ConversationID string    `json:"conversation_id"`
	URL            string    `json:"url"`
	HTML           string    `json:"html"`
	CapturedAt     time.Time `json:"captured_at"`
}

// MatchEvent is published for every commerce message that survives the
// gate, including no-match outcomes — the consumer decides how to render
// each confidence band.
type MatchEvent struct {
	SessionID      string              `json:"session_id"`
	MerchantID     string              `json:"merchant_id"`
	Platform       string              `json:"platform"`
	ConversationID string              `json:"conversation_id"`
	Message        string              `json:"message"`
	Intent         intent.Result       `json:"intent"`
	Parsed         parse.ParsedIntent  `json:"parsed"`
	Match          catalog.MatchResult `json:"match"`
}

// InterventionEvent flags an escalating customer for urgent human
// handling.
type InterventionEvent struct {
	MerchantID string          `json:"merchant_id"`
	IntentType intent.Category `json:"intent_type"`
	Priority   intent.Priority `json:"priority"`
	Message    string          `json:"message"`
}

// Publisher is the outbound event sink.
type Publisher interface {
	Publish(subject string, data any) error
}

// Stats counts pipeline activity for the status endpoint.
type Stats struct {
	Snapshots     int `json:"snapshots"`
	Messages      int `json:"messages"`
	Duplicates    int `json:"duplicates"`
	Matches       int `json:"matches"`
	Interventions int `json:"interventions"`
}

// Summary reports one snapshot's processing outcome to the HTTP ingest
// caller.
type Summary struct {
	Tier       dom.Tier `json:"tier"`
	Messages   int      `json:"messages"`
	Duplicates int      `json:"duplicates"`
	Matches    int      `json:"matches"`
}

// Session owns one observation lifecycle. All mutable pipeline state (the
// dedup cache, the latest snapshot, counters) is held here explicitly —
// constructed at observation start, torn down with Reset — so multiple
// sessions can coexist and tests never share state.
type Session struct {
	id         uuid.UUID
	merchantID string
	engine     *dom.Engine
	cache      *dedup.Cache
	matcher    *catalog.Matcher
	machine    *health.Machine
	publisher  Publisher
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.Mutex
	latestHTML string
	latestURL  string
	stats      Stats
}

func NewSession(merchantID string, engine *dom.Engine, cache *dedup.Cache, matcher *catalog.Matcher, machine *health.Machine, publisher Publisher, webhookURL string, logger *slog.Logger) *Session {
	return &Session{
		id:         uuid.New(),
		merchantID: merchantID,
		engine:     engine,
		cache:      cache,
		matcher:    matcher,
		machine:    machine,
		publisher:  publisher,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// HandleSnapshot is the NATS handler for hawker.snapshot.captured. One bad
// event never stops future observation: decode failures are logged and
// dropped.
func (s *Session) HandleSnapshot(subject string, data []byte) {
	var evt SnapshotEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		s.logger.Error("failed to parse snapshot event", "error", err)
		return
	}
	if _, err := s.Process(evt); err != nil {
		s.logger.Error("snapshot processing failed",
			"conversation", evt.ConversationID,
			"error", err,
		)
	}
}

// Process runs the full pipeline over one snapshot. Messages are handled
// in discovery order within the batch; a framework re-render delivering
// dozens of nodes in one event is the normal case, not an edge case.
func (s *Session) Process(evt SnapshotEvent) (Summary, error) {
	platform := dom.Platform(evt.Platform)

	res, err := s.engine.Extract(evt.HTML)
	if err != nil {
		return Summary{}, fmt.Errorf("extract snapshot: %w", err)
	}

	s.mu.Lock()
	s.latestHTML = evt.HTML
	s.latestURL = evt.URL
	s.stats.Snapshots++
	s.mu.Unlock()

	if !res.ContainerFound {
		// Expected while the host page is loading; caller polls again.
		s.machine.ContainerLost()
		return Summary{}, nil
	}
	s.machine.ContainerFound()

	summary := Summary{Tier: res.Tier}
	for i, raw := range res.Messages {
		msg, ok := dom.Canonicalize(platform, evt.ConversationID, raw, i)
		if !ok || msg.ContentType != dom.ContentText {
			continue
		}
		summary.Messages++
		if s.handleMessage(msg, &summary) {
			summary.Matches++
		}
	}

	s.mu.Lock()
	s.stats.Messages += summary.Messages
	s.stats.Duplicates += summary.Duplicates
	s.stats.Matches += summary.Matches
	s.mu.Unlock()

	return summary, nil
}

// handleMessage runs dedup → classify → parse → match for one message and
// reports whether a match event was published.
func (s *Session) handleMessage(msg dom.CanonicalMessage, summary *Summary) bool {
	key := dedup.KeyFor(msg.ConversationID, msg.Body, msg.Timestamp)
	if s.cache.Seen(key) {
		summary.Duplicates++
		return false
	}
	s.cache.Remember(key)

	cls := intent.Classify(msg.Body)
	if cls == nil {
		return false
	}

	switch cls.Category {
	case intent.CategoryIntervention:
		s.flagIntervention(msg, cls)
		return false
	case intent.CategorySupport:
		s.logger.Info("support message routed externally",
			"conversation", msg.ConversationID,
			"priority", cls.Priority,
		)
		return false
	}

	parsed := parse.Parse(msg.Body)
	if parsed.IntentScore < parse.GateThreshold {
		s.logger.Debug("intent score below gate, skipping match",
			"score", parsed.IntentScore,
		)
		return false
	}

	var match catalog.MatchResult
	if parsed.ProductName != nil {
		match = s.matcher.Match(*parsed.ProductName, parsed.Attributes)
	} else {
		// Intent without an extractable product: surface as "ask the
		// user", never as a guess.
		match = catalog.NoMatch()
	}

	event := MatchEvent{
		SessionID:      s.id.String(),
		MerchantID:     s.merchantID,
		Platform:       string(msg.Platform),
		ConversationID: msg.ConversationID,
		Message:        msg.Body,
		Intent:         *cls,
		Parsed:         parsed,
		Match:          match,
	}
	if err := s.publisher.Publish(bus.SubjectMatchResult, event); err != nil {
		s.logger.Error("failed to publish match result", "error", err)
		return false
	}

	s.logger.Info("match result published",
		"conversation", msg.ConversationID,
		"confidence", match.Confidence,
		"needs_confirmation", match.NeedsConfirmation,
	)
	return true
}

func (s *Session) flagIntervention(msg dom.CanonicalMessage, cls *intent.Result) {
	s.mu.Lock()
	s.stats.Interventions++
	s.mu.Unlock()

	event := InterventionEvent{
		MerchantID: s.merchantID,
		IntentType: cls.Category,
		Priority:   cls.Priority,
		Message:    msg.Body,
	}
	if err := s.publisher.Publish(bus.SubjectInterventionFlagged, event); err != nil {
		s.logger.Error("failed to publish intervention", "error", err)
	}

	if s.webhookURL != "" {
		// Fire-and-forget: observation never waits on the webhook, and
		// delivery failure is logged, not retried.
		go s.dispatchWebhook(event)
	}
}

func (s *Session) dispatchWebhook(event InterventionEvent) {
	payload, err := json.Marshal(map[string]any{
		"merchant_id": event.MerchantID,
		"intent_type": event.IntentType,
		"priority":    event.Priority,
		"message":     event.Message,
	})
	if err != nil {
		s.logger.Error("failed to marshal webhook payload", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		s.logger.Error("failed to build webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("webhook dispatch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Error("webhook dispatch rejected", "status", resp.StatusCode)
	}
}

// Latest implements health.Snapshotter over the most recent snapshot.
func (s *Session) Latest() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestHTML == "" {
		return "", "", false
	}
	return s.latestHTML, s.latestURL, true
}

// Probe implements health.Prober: a trivial one-message extraction.
func (s *Session) Probe(snapshot string) bool {
	_, ok := s.engine.ExtractOne(snapshot)
	return ok
}

// State exposes the session state machine for the status endpoint.
func (s *Session) State() health.State {
	return s.machine.State()
}

// Stats returns a copy of the running counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Reset tears the session's mutable state down: dedup cache, latest
// snapshot and counters. Called on page navigation or conversation switch.
func (s *Session) Reset() {
	s.cache.Reset()
	s.machine.ContainerLost()
	s.mu.Lock()
	s.latestHTML = ""
	s.latestURL = ""
	s.stats = Stats{}
	s.mu.Unlock()
	s.logger.Info("session reset", "session_id", s.id)
}
