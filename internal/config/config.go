package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the full application configuration.
type Config struct {
	Store           StoreConfig           `yaml:"store" mapstructure:"store"`
	Validation      ValidationConfig      `yaml:"validation" mapstructure:"validation"`
	Tariff          TariffConfig          `yaml:"tariff" mapstructure:"tariff"`
	FederalRegister FederalRegisterConfig `yaml:"federal_register" mapstructure:"federal_register"`
	Anthropic       AnthropicConfig       `yaml:"anthropic" mapstructure:"anthropic"`
	Alerts          AlertsConfig          `yaml:"alerts" mapstructure:"alerts"`
	Upload          UploadConfig          `yaml:"upload" mapstructure:"upload"`
	Server          ServerConfig          `yaml:"server" mapstructure:"server"`
	Log             LogConfig             `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the key-value backend holding the profile.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres, redis
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	RedisURL    string `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	ProfileKey  string `yaml:"profile_key" mapstructure:"profile_key"`
	SummaryKey  string `yaml:"summary_key" mapstructure:"summary_key"`
}

// ValidationConfig tunes the step validator.
type ValidationConfig struct {
	StepsFile             string  `yaml:"steps_file" mapstructure:"steps_file"`
	StaleAfterDays        int     `yaml:"stale_after_days" mapstructure:"stale_after_days"`
	MinExternalConfidence float64 `yaml:"min_external_confidence" mapstructure:"min_external_confidence"`
}

// TariffConfig holds rate fallbacks for the impact calculator.
type TariffConfig struct {
	DefaultRate  float64            `yaml:"default_rate" mapstructure:"default_rate"`
	HTSOverrides map[string]float64 `yaml:"hts_overrides" mapstructure:"hts_overrides"`
	RatesFile    string             `yaml:"rates_file" mapstructure:"rates_file"`
}

// FederalRegisterConfig configures the tariff notice sync.
type FederalRegisterConfig struct {
	BaseURL           string   `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Terms             []string `yaml:"terms" mapstructure:"terms"`
	PerPage           int      `yaml:"per_page" mapstructure:"per_page"`
	Confidence        float64  `yaml:"confidence" mapstructure:"confidence"`
}

// AnthropicConfig holds Anthropic API settings for recommendations.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AlertsConfig configures risk alert delivery.
type AlertsConfig struct {
	WebhookURL     string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CurrencyLocale string `yaml:"currency_locale" mapstructure:"currency_locale"`
}

// UploadConfig configures purchase-order parsing.
type UploadConfig struct {
	Charset   string `yaml:"charset" mapstructure:"charset"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
	MaxRows   int    `yaml:"max_rows" mapstructure:"max_rows"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TARIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "tariff.db")
	v.SetDefault("store.profile_key", "tariff_business_data")
	v.SetDefault("store.summary_key", "tariff_data_summary")
	v.SetDefault("validation.stale_after_days", 30)
	v.SetDefault("validation.min_external_confidence", 0.7)
	v.SetDefault("tariff.default_rate", 0.0)
	v.SetDefault("federal_register.base_url", "https://www.federalregister.gov/api/v1")
	v.SetDefault("federal_register.requests_per_second", 2.0)
	v.SetDefault("federal_register.terms", []string{"tariff", "section 301", "harmonized tariff schedule"})
	v.SetDefault("federal_register.per_page", 20)
	v.SetDefault("federal_register.confidence", 0.85)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("alerts.timeout_secs", 10)
	v.SetDefault("alerts.currency_locale", "en-US")
	v.SetDefault("upload.charset", "utf-8")
	v.SetDefault("upload.delimiter", ",")
	v.SetDefault("upload.max_rows", 100000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. When cfg.File is set, log
// lines go to a size-rotated file and only errors reach stderr.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.File == "" {
		logger, err := zapCfg.Build()
		if err != nil {
			return eris.Wrap(err, "config: build logger")
		}
		zap.ReplaceGlobals(logger)
		return nil
	}

	var enc zapcore.Encoder
	if cfg.Format == "console" {
		enc = zapcore.NewConsoleEncoder(zapCfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(zapCfg.EncoderConfig)
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	})
	core := zapcore.NewTee(
		zapcore.NewCore(enc, sink, zapCfg.Level),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(zapcore.ErrorLevel)),
	)
	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))
	return nil
}

// Validate checks that the settings a command mode depends on are present.
// Modes: "store", "advise", "notices", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "store":
		errs = c.validateStore()
	case "advise":
		errs = c.validateStore()
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "notices":
		errs = c.validateStore()
		if c.FederalRegister.BaseURL == "" {
			errs = append(errs, "federal_register.base_url is required")
		}
		if len(c.FederalRegister.Terms) == 0 {
			errs = append(errs, "federal_register.terms must not be empty")
		}
	case "serve":
		errs = c.validateStore()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for sqlite")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			errs = append(errs, "store.redis_url is required for redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Store.ProfileKey == "" {
		errs = append(errs, "store.profile_key is required")
	}
	return errs
}
