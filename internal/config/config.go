package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DatabaseURL string

	JWTSecret []byte
	TokenTTL  time.Duration

	ImageDir string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
}

// Load reads configuration from a .env file (if present) and the process
// environment. The JWT secret is the only value without a usable default.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("IMAGE_DIR", "images")

	ttl, err := time.ParseDuration(v.GetString("TOKEN_TTL"))
	if err != nil {
		ttl = 7 * 24 * time.Hour
	}

	cfg := &Config{
		ServerPort:   v.GetInt("SERVER_PORT"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		JWTSecret:    []byte(v.GetString("JWT_SECRET")),
		TokenTTL:     ttl,
		ImageDir:     v.GetString("IMAGE_DIR"),
		KafkaBrokers: csv(v.GetString("KAFKA_BROKERS")),
		ESURL:        v.GetString("ES_URL"),
		ESUser:       v.GetString("ES_USER"),
		ESPassword:   v.GetString("ES_PASSWORD"),
	}

	return cfg, nil
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
