package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Database struct {
	Username string `env:"DB_USERNAME"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME"`
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.Username, d.Password, d.Host, d.Port, d.Name)
}

type Storage struct {
	AccountID       string `env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	BucketName      string `env:"R2_BUCKET_NAME"`
}

type Model struct {
	APIKey  string        `env:"GOOGLE_API_KEY"`
	Name    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	Timeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"30s"`
}

type Apple struct {
	TeamID           string `env:"APPLE_TEAM_ID"`
	KeyID            string `env:"APPLE_KEY_ID"`
	ClientID         string `env:"APPLE_CLIENT_ID"`
	PrivateKeyBase64 string `env:"APPLE_SIGNIN_PKEY_BASE64"`
}

type Limits struct {
	MaxImageBytes        int64 `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`
	MaxBatchSize         int   `env:"MAX_BATCH_SIZE" envDefault:"10"`
	MaxInspirationImages int   `env:"MAX_INSPIRATION_IMAGES" envDefault:"6"`
	// longest side after downscaling, in pixels
	MaxImageDimension int     `env:"MAX_IMAGE_DIMENSION" envDefault:"1920"`
	RateLimit         float64 `env:"RATE_LIMIT" envDefault:"3"`
}

type Config struct {
	Env            string `env:"ENV" envDefault:"local"`
	Port           string `env:"PORT" envDefault:"8083"`
	JWTSecret      string `env:"JWT_SECRET"`
	BrokerAddress  string `env:"ASYNC_BROKER_ADDRESS" envDefault:"localhost:6379"`
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
	SentryDSN      string `env:"SENTRY_DSN"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	TelegramToken  string `env:"TG_TOKEN"`
	TelegramChatID int64  `env:"TG_ALERT_CHAT_ID"`

	Database Database
	Storage  Storage
	Model    Model
	Apple    Apple
	Limits   Limits
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every required key that is missing. The worker does not
// need auth settings, so callers pass what they require on top of the base set.
func (c Config) Validate(extra ...string) error {
	required := map[string]string{
		"DB_USERNAME":          c.Database.Username,
		"DB_NAME":              c.Database.Name,
		"ASYNC_BROKER_ADDRESS": c.BrokerAddress,
		"R2_ACCOUNT_ID":        c.Storage.AccountID,
		"R2_ACCESS_KEY_ID":     c.Storage.AccessKeyID,
		"R2_ACCESS_KEY_SECRET": c.Storage.AccessKeySecret,
		"R2_BUCKET_NAME":       c.Storage.BucketName,
		"JWT_SECRET":           c.JWTSecret,
		"GOOGLE_API_KEY":       c.Model.APIKey,
		"GOOGLE_CLIENT_ID":     c.GoogleClientID,
	}
	keys := []string{
		"DB_USERNAME", "DB_NAME", "ASYNC_BROKER_ADDRESS",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME",
	}
	keys = append(keys, extra...)

	var missing []string
	for _, key := range keys {
		if value, ok := required[key]; ok && strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("MODEL_TIMEOUT must be positive, got %s", c.Model.Timeout)
	}
	if c.Limits.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be at least 1")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsLocal() bool {
	return c.Env == "" || c.Env == "local"
}
