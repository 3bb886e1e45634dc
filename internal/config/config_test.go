package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"HAWKER_PORT", "NATS_URL", "NATS_TOKEN", "DATABASE_URL", "LOG_LEVEL",
		"HAWKER_MERCHANT_ID", "HAWKER_PLATFORM", "HAWKER_DISPATCH_WEBHOOK_URL",
		"HAWKER_AUTO_ACCEPT", "HAWKER_CONFIRM_FLOOR", "HAWKER_DEDUP_CAPACITY",
		"HAWKER_HEARTBEAT_SECONDS", "HAWKER_HEARTBEAT_FAILURES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("expected default port 8760, got %d", cfg.Port)
	}
	if cfg.NatsURL != "nats://hermes:4222" {
		t.Errorf("expected default nats url, got %s", cfg.NatsURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.AutoAcceptThreshold != 0.8 {
		t.Errorf("expected default auto-accept 0.8, got %f", cfg.AutoAcceptThreshold)
	}
	if cfg.ConfirmFloor != 0.6 {
		t.Errorf("expected default confirm floor 0.6, got %f", cfg.ConfirmFloor)
	}
	if cfg.Platform != "whatsapp" {
		t.Errorf("expected default platform whatsapp, got %s", cfg.Platform)
	}
	if cfg.DedupCapacity != 500 {
		t.Errorf("expected default dedup capacity 500, got %d", cfg.DedupCapacity)
	}
	if cfg.HeartbeatSeconds != 30 {
		t.Errorf("expected default heartbeat seconds 30, got %d", cfg.HeartbeatSeconds)
	}
	if cfg.HeartbeatFailures != 3 {
		t.Errorf("expected default heartbeat failure threshold 3, got %d", cfg.HeartbeatFailures)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HAWKER_PORT", "9000")
	t.Setenv("HAWKER_AUTO_ACCEPT", "0.9")
	t.Setenv("HAWKER_DEDUP_CAPACITY", "100")
	t.Setenv("HAWKER_MERCHANT_ID", "m_123")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.AutoAcceptThreshold != 0.9 {
		t.Errorf("expected auto-accept 0.9, got %f", cfg.AutoAcceptThreshold)
	}
	if cfg.DedupCapacity != 100 {
		t.Errorf("expected dedup capacity 100, got %d", cfg.DedupCapacity)
	}
	if cfg.MerchantID != "m_123" {
		t.Errorf("expected merchant id m_123, got %s", cfg.MerchantID)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HAWKER_PORT", "not-a-number")
	t.Setenv("HAWKER_AUTO_ACCEPT", "not-a-float")

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("expected fallback port 8760, got %d", cfg.Port)
	}
	if cfg.AutoAcceptThreshold != 0.8 {
		t.Errorf("expected fallback auto-accept 0.8, got %f", cfg.AutoAcceptThreshold)
	}
}
