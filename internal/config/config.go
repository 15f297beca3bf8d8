package config

import (
	"strings"
	"time"

	"voyo/api_curator/pkg/config"
)

// Config stores environment configuration for the curator service.
type Config struct {
	Port         string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
	JWTSecret    string

	// Curation loop tuning
	BufferCapacity  int
	TriggerCooldown time.Duration
	SkipStreakLimit int
	MixboardLimit   int
	VibeShiftWindow int
	VibeShiftModes  int
	QueueLowWater   int
	MinutesPerTrack float64
	CurationTimeout time.Duration
}

// LoadConfig loads the curator configuration from environment variables.
func LoadConfig() Config {
	brokersEnv := strings.TrimSpace(config.GetEnv("KAFKA_BROKERS", ""))
	var brokers []string
	if brokersEnv != "" {
		for _, broker := range strings.Split(brokersEnv, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}

	return Config{
		Port:         config.GetEnv("PORT", "18030"),
		DatabaseURL:  config.GetEnv("DATABASE_URL", ""),
		RedisURL:     config.GetEnv("REDIS_URL", ""),
		KafkaBrokers: brokers,
		KafkaTopic:   config.GetEnv("CURATOR_KAFKA_TOPIC", "curator_events"),
		JWTSecret:    config.GetEnv("JWT_SECRET", ""),

		BufferCapacity:  config.GetEnvInt("CURATOR_BUFFER_CAPACITY", 500),
		TriggerCooldown: config.GetEnvDuration("CURATOR_COOLDOWN_S", 30*time.Second),
		SkipStreakLimit: config.GetEnvInt("CURATOR_SKIP_STREAK_LIMIT", 3),
		MixboardLimit:   config.GetEnvInt("CURATOR_MIXBOARD_LIMIT", 5),
		VibeShiftWindow: config.GetEnvInt("CURATOR_VIBE_SHIFT_WINDOW", 10),
		VibeShiftModes:  config.GetEnvInt("CURATOR_VIBE_SHIFT_MODES", 4),
		QueueLowWater:   config.GetEnvInt("CURATOR_QUEUE_LOW_WATER", 5),
		MinutesPerTrack: config.GetEnvFloat("CURATOR_MINUTES_PER_TRACK", 3.5),
		CurationTimeout: config.GetEnvDuration("CURATOR_CURATION_TIMEOUT", 45*time.Second),
	}
}
