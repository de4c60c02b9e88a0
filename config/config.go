package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Alpaca   AlpacaConfig   `mapstructure:"alpaca"`
	Log      LogConfig      `mapstructure:"log"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type AlpacaConfig struct {
	StreamURL string        `mapstructure:"stream_url"` // base URL, feed path appended at start
	TradeURL  string        `mapstructure:"trade_url"`
	Feed      string        `mapstructure:"feed"` // default feed: "sip" or "iex"
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// RecorderConfig gates the optional Postgres bar recorder.
type RecorderConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	CreateDB bool `mapstructure:"create_db"`
}

// NATSConfig gates the optional record fan-out to NATS.
type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Load loads application configuration using Viper. It reads config.yaml
// when present and overrides with environment variables; the server can run
// on env vars alone, so a missing file is not fatal.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("alpaca.stream_url", "wss://stream.data.alpaca.markets/v2")
	v.SetDefault("alpaca.trade_url", "https://paper-api.alpaca.markets")
	v.SetDefault("alpaca.feed", "sip")
	v.SetDefault("alpaca.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "dev")
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject_prefix", "market")
	v.SetDefault("postgres.sslmode", "disable")

	// Support environment variables with dot notation (e.g., ALPACA_FEED)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// AlpacaCredentials resolves the broker API key pair: from the environment,
// or from SSM Parameter Store in the prod environment (same credential path
// the Postgres config uses). Missing credentials fail the calling start
// attempt only.
func AlpacaCredentials(env string) (key, secret string, err error) {
	key = firstEnv("APCA_API_KEY_ID", "ALPACA_API_KEY")
	secret = firstEnv("APCA_API_SECRET_KEY", "ALPACA_SECRET_KEY")

	if env == "prod" {
		if key == "" {
			key = getParameterStoreValue("TRADESTREAM_ALPACA_KEY_ID", true)
		}
		if secret == "" {
			secret = getParameterStoreValue("TRADESTREAM_ALPACA_SECRET_KEY", true)
		}
	}

	if key == "" || secret == "" {
		return "", "", fmt.Errorf("alpaca credentials not found; set APCA_API_KEY_ID and APCA_API_SECRET_KEY")
	}
	return key, secret, nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
