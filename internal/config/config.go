package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
	AI       AIConfig       `koanf:"ai"`
	Twilio   TwilioConfig   `koanf:"twilio"`
	Feed     FeedConfig     `koanf:"feed"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         string        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`

	// AIRatePerMinute limits calls to the AI endpoints per client IP.
	AIRatePerMinute int `koanf:"ai_rate_per_minute"`
	AIBurst         int `koanf:"ai_burst"`

	// AuthRatePerMinute limits password reset requests per client IP.
	AuthRatePerMinute int `koanf:"auth_rate_per_minute"`
	AuthBurst         int `koanf:"auth_burst"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres, mysql, sqlite
	DSN             string        `koanf:"dsn"`
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	LogLevel        string        `koanf:"log_level"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend    string `koanf:"backend"` // sql or doc
	BadgerPath string `koanf:"badger_path"`
}

type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	AffinityTTL  time.Duration `koanf:"affinity_ttl"`
	ResetCodeTTL time.Duration `koanf:"reset_code_ttl"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type AIConfig struct {
	OpenAIAPIKey    string        `koanf:"openai_api_key"`
	OpenAIBaseURL   string        `koanf:"openai_base_url"`
	ChatModel       string        `koanf:"chat_model"`
	MaxChatTokens   int           `koanf:"max_chat_tokens"`
	Temperature     float32       `koanf:"temperature"`
	GeminiAPIKey    string        `koanf:"gemini_api_key"`
	GeminiModel     string        `koanf:"gemini_model"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

type TwilioConfig struct {
	AccountSID string `koanf:"account_sid"`
	AuthToken  string `koanf:"auth_token"`
	FromNumber string `koanf:"from_number"`
}

// Enabled reports whether SMS delivery is configured.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type FeedConfig struct {
	Limit int `koanf:"limit"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     time.Minute,
			CORSOrigins:     []string{"*"},
			AIRatePerMinute: 20,
			AIBurst:         5,

			AuthRatePerMinute: 10,
			AuthBurst:         3,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "cheffry",
			SSLMode:         "disable",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			LogLevel:        "warn",
		},
		Store: StoreConfig{
			Backend:    "sql",
			BadgerPath: "data/badger",
		},
		Redis: RedisConfig{
			AffinityTTL:  10 * time.Minute,
			ResetCodeTTL: 15 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		AI: AIConfig{
			ChatModel:       "gpt-4o-mini",
			MaxChatTokens:   2000,
			Temperature:     0.7,
			GeminiModel:     "gemini-2.5-flash",
			RequestTimeout:  30 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Feed: FeedConfig{
			Limit: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with precedence ENV > file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerations and clamps out-of-range values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sql", "doc":
	default:
		return fmt.Errorf("store.backend must be sql or doc, got %q", c.Store.Backend)
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres, mysql or sqlite, got %q", c.Database.Driver)
	}

	if c.Store.Backend == "doc" && c.Store.BadgerPath == "" {
		return fmt.Errorf("store.badger_path is required for the doc backend")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}

	if c.Feed.Limit <= 0 || c.Feed.Limit > 100 {
		c.Feed.Limit = 100
	}
	return nil
}

// PostgresDSN builds a libpq-style connection string unless DSN is set.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// MySQLDSN builds a go-sql-driver DSN unless DSN is set.
func (d DatabaseConfig) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// legacyEnv keeps the variable names used by earlier deployments working.
var legacyEnv = map[string]string{
	"port":               "server.port",
	"db_host":            "database.host",
	"db_port":            "database.port",
	"db_user":            "database.user",
	"db_password":        "database.password",
	"db_name":            "database.name",
	"db_sslmode":         "database.sslmode",
	"db_driver":          "database.driver",
	"database_url":       "database.dsn",
	"jwt_secret":         "auth.jwt_secret",
	"openai_api_key":     "ai.openai_api_key",
	"openai_base_url":    "ai.openai_base_url",
	"gemini_api_key":     "ai.gemini_api_key",
	"api_key":            "ai.gemini_api_key",
	"twilio_account_sid": "twilio.account_sid",
	"twilio_auth_token":  "twilio.auth_token",
	"twilio_from_number": "twilio.from_number",
}

var sections = map[string]bool{
	"server": true, "database": true, "store": true, "redis": true, "auth": true,
	"ai": true, "twilio": true, "feed": true, "log": true,
}

// envTransformFunc maps SECTION_KEY to section.key, e.g. REDIS_AFFINITY_TTL
// to redis.affinity_ttl. Variables outside known sections map to "" and
// are dropped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := legacyEnv[key]; ok {
		return mapped
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok || !sections[section] {
		return ""
	}
	return section + "." + rest
}
