package config

import "time"

// classifier providers accepted by CLASSIFIER_PROVIDER
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderArk       = "ark"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Environment    string   `env:"ENVIRONMENT" envDefault:"development"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// storage (all optional; in-memory state is authoritative)
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`
	RedisURL    string `env:"REDIS_URL"`

	// mood classifier
	ClassifierProvider string        `env:"CLASSIFIER_PROVIDER" envDefault:"none"`
	ClassifierTimeout  time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"8s"`
	AnthropicKey       string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel     string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-haiku-20240307"`
	ArkAPIKey          string        `env:"ARK_API_KEY"`
	ArkModel           string        `env:"ARK_MODEL"`
	ArkBaseURL         string        `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`

	// background work
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	InactiveTimeout     time.Duration `env:"INACTIVE_TIMEOUT" envDefault:"24h"`
	PersistInterval     time.Duration `env:"PERSIST_INTERVAL" envDefault:"10s"`
	BufferFlushInterval time.Duration `env:"BUFFER_FLUSH_INTERVAL" envDefault:"5s"`

	RequireUniqueSessionNames bool   `env:"REQUIRE_UNIQUE_SESSION_NAMES" envDefault:"false"`
	RateLimit                 string `env:"RATE_LIMIT" envDefault:"300-M"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
