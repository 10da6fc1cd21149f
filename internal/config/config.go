package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment and .env.
type Config struct {
	BotToken         string
	Port             string
	StoreDriver      string
	DatabaseFile     string
	MongoURI         string
	MongoDB          string
	ImageDir         string
	ReportDir        string
	EnableTicketFlow bool
	SeedCatalog      bool
	RateLimit        int
	LogLevel         string
	LogFormat        string
	Artifact         ArtifactConfig
	MQTT             MQTTConfig
}

// ArtifactConfig selects the MinIO/S3 photo backend. Disabled when Endpoint is empty.
type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MQTTConfig selects the MQTT notifier. Disabled when Broker is empty.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := firstNonEmpty(env("PORT"), "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	cfg := &Config{
		BotToken:         firstNonEmpty(env("BOT_TOKEN"), env("TOKEN")),
		Port:             port,
		StoreDriver:      strings.ToLower(firstNonEmpty(env("STORE_DRIVER"), "sqlite")),
		DatabaseFile:     firstNonEmpty(env("DATABASE_FILE"), "data/maintenance.db"),
		MongoURI:         env("MONGO_URI"),
		MongoDB:          firstNonEmpty(env("MONGO_DB"), "maintenance"),
		ImageDir:         firstNonEmpty(env("IMAGE_DIR"), "uploads"),
		ReportDir:        firstNonEmpty(env("REPORT_DIR"), "reports"),
		EnableTicketFlow: envBool("ENABLE_TICKET_FLOW", false),
		SeedCatalog:      envBool("SEED_CATALOG", true),
		RateLimit:        envInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:         firstNonEmpty(env("LOG_LEVEL"), "info"),
		LogFormat:        strings.ToLower(firstNonEmpty(env("LOG_FORMAT"), "text")),
		Artifact:         loadArtifactConfig(),
		MQTT: MQTTConfig{
			Broker:      env("MQTT_BROKER"),
			ClientID:    firstNonEmpty(env("MQTT_CLIENT_ID"), "maintenance-bot"),
			TopicPrefix: firstNonEmpty(env("MQTT_TOPIC_PREFIX"), "maintenance/notifications"),
		},
	}

	switch cfg.StoreDriver {
	case "sqlite":
	case "mongo":
		if cfg.MongoURI == "" {
			cfg.MongoURI = "mongodb://localhost:27017"
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want sqlite or mongo)", cfg.StoreDriver)
	}
	return cfg, nil
}

func loadArtifactConfig() ArtifactConfig {
	endpoint := env("ARTIFACT_S3_ENDPOINT")
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(env("ARTIFACT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(env("ARTIFACT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(env("ARTIFACT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(env("ARTIFACT_S3_BUCKET"), "maintenance-photos"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
	}
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func (c *Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBool(key string, fallback bool) bool {
	raw := env(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithField("key", key).Warnf("invalid boolean %q, using %v", raw, fallback)
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := env(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.WithField("key", key).Warnf("invalid integer %q, using %d", raw, fallback)
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
