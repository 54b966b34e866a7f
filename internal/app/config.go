package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/insightpath-backend/internal/data/db"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
	"github.com/yungbote/insightpath-backend/internal/platform/llm"
	"github.com/yungbote/insightpath-backend/internal/platform/redisclient"
)

type Config struct {
	Server   ServerConfig       `mapstructure:"server"`
	Database DatabaseConfig     `mapstructure:"database"`
	Redis    redisclient.Config `mapstructure:"redis"`
	Auth     AuthConfig         `mapstructure:"auth"`
	AI       aigateway.Config   `mapstructure:"ai"`
	Log      LogConfig          `mapstructure:"log"`
	Otel     OtelConfig         `mapstructure:"otel"`
	Metrics  MetricsConfig      `mapstructure:"metrics"`
	Engine   EngineConfig       `mapstructure:"engine"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type OtelConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	Endpoint    string  `mapstructure:"endpoint"`
	Headers     string  `mapstructure:"headers"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	ScrapeInterval time.Duration `mapstructure:"scrape_interval"`
}

type EngineConfig struct {
	// TxAttempts bounds retries of serialization failures and deadlocks.
	TxAttempts int `mapstructure:"tx_attempts"`
}

func (c DatabaseConfig) toDB() db.Config {
	return db.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		SQLitePath:      c.SQLitePath,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// LoadConfig reads an optional config file, then environment variables (database.host ->
// DATABASE_HOST). An empty path searches config.yaml in . and ./config.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(strings.TrimSpace(c.AI.Mode)) {
	case "http":
		if strings.TrimSpace(c.AI.HTTP.BaseURL) == "" {
			return fmt.Errorf("config: ai.http.base_url is required in http mode")
		}
	case "llm":
		if p := strings.ToLower(strings.TrimSpace(c.AI.LLM.Provider)); p == "mock" || p == "" {
			return fmt.Errorf("config: ai.llm.provider must name a real provider (anthropic, openai, gemini)")
		}
	case "mock":
		return fmt.Errorf("config: ai.mode mock is a scripted test double and cannot serve learners")
	case "":
		return fmt.Errorf("config: ai.mode is required (http or llm)")
	default:
		return fmt.Errorf("config: unknown ai.mode %q", c.AI.Mode)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	// Database
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "insightpath")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "insightpath.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	// Redis (empty addr disables the catalog cache)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.catalog_ttl", 10*time.Minute)

	// Auth
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	// AI gateway
	llmDefaults := llm.DefaultConfig()
	v.SetDefault("ai.mode", "http")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.log_queue", 256)
	v.SetDefault("ai.record_log", true)
	v.SetDefault("ai.http.base_url", "http://localhost:8000")
	v.SetDefault("ai.http.timeout", 45*time.Second)
	v.SetDefault("ai.http.max_retries", 2)
	v.SetDefault("ai.http.backoff", 500*time.Millisecond)
	v.SetDefault("ai.llm.provider", "anthropic")
	v.SetDefault("ai.llm.anthropic.api_key", "")
	v.SetDefault("ai.llm.anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("ai.llm.openai.api_key", "")
	v.SetDefault("ai.llm.openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("ai.llm.openai.base_url", "")
	v.SetDefault("ai.llm.gemini.api_key", "")
	v.SetDefault("ai.llm.gemini.model", llmDefaults.Gemini.Model)
	v.SetDefault("ai.llm.retry.max_attempts", llmDefaults.Retry.MaxAttempts)
	v.SetDefault("ai.llm.retry.initial_wait", llmDefaults.Retry.InitialWait)
	v.SetDefault("ai.llm.retry.max_wait", llmDefaults.Retry.MaxWait)
	v.SetDefault("ai.llm.max_tokens", llmDefaults.MaxTokens)
	v.SetDefault("ai.llm.temperature", llmDefaults.Temperature)

	// Log
	v.SetDefault("log.mode", "development")

	// Observability
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "insightpath-api")
	v.SetDefault("otel.environment", "development")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.headers", "")
	v.SetDefault("otel.insecure", true)
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.scrape_interval", 15*time.Second)

	// Engine
	v.SetDefault("engine.tx_attempts", 3)
}
