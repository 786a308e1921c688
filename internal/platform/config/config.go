package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	BotToken      string
	ModSigningKey string
	// PremiumBypass disables the map entitlement guard (dev/staging).
	PremiumBypass bool
	// IncognitoAllowMatched lifts the incognito restriction toward users the
	// actor already matched with. Default off until product confirms intent.
	IncognitoAllowMatched bool
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("KINDRED_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "kindred.audit"
	}
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	return Server{
		Addr:                  addr,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		KafkaBrokers:          brokers,
		KafkaTopic:            topic,
		BotToken:              os.Getenv("BOT_TOKEN"),
		ModSigningKey:         os.Getenv("MOD_SIGNING_KEY"),
		PremiumBypass:         os.Getenv("PREMIUM_BYPASS") == "true",
		IncognitoAllowMatched: os.Getenv("INCOGNITO_ALLOW_MATCHED") == "true",
	}
}
