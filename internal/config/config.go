package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port               int
	NatsURL            string
	NatsToken          string
	DatabaseURL        string
	LogLevel           string
	MerchantID         string
	Platform           string
	DispatchWebhookURL string

	// Matcher confidence bands. Defaults are the tuned production values.
	AutoAcceptThreshold float64
	ConfirmFloor        float64

	// Dedup cache capacity (entries per observation session).
	DedupCapacity int

	// Health monitor cadence and failure tolerance.
	HeartbeatSeconds  int
	HeartbeatFailures int
}

func Load() Config {
	return Config{
		Port:                envInt("HAWKER_PORT", 8760),
		NatsURL:             envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:           envStr("NATS_TOKEN", ""),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		MerchantID:          envStr("HAWKER_MERCHANT_ID", ""),
		Platform:            envStr("HAWKER_PLATFORM", "whatsapp"),
		DispatchWebhookURL:  envStr("HAWKER_DISPATCH_WEBHOOK_URL", ""),
		AutoAcceptThreshold: envFloat("HAWKER_AUTO_ACCEPT", 0.8),
		ConfirmFloor:        envFloat("HAWKER_CONFIRM_FLOOR", 0.6),
		DedupCapacity:       envInt("HAWKER_DEDUP_CAPACITY", 500),
		HeartbeatSeconds:    envInt("HAWKER_HEARTBEAT_SECONDS", 30),
		HeartbeatFailures:   envInt("HAWKER_HEARTBEAT_FAILURES", 3),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
