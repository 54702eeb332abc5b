package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lankadata/csepipe/internal/acquire"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig       `yaml:"store" mapstructure:"store"`
	Scrape    ScrapeConfig      `yaml:"scrape" mapstructure:"scrape"`
	Anthropic AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig      `yaml:"server" mapstructure:"server"`
	Log       LogConfig         `yaml:"log" mapstructure:"log"`
	Companies []acquire.Company `yaml:"companies" mapstructure:"companies"`
}

// StoreConfig configures the document stores and run ledger.
type StoreConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
	LedgerPath   string `yaml:"ledger_path" mapstructure:"ledger_path"`
}

// ScrapeConfig configures report discovery and download.
type ScrapeConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	LookbackYears   int    `yaml:"lookback_years" mapstructure:"lookback_years"`
	PageDelaySecs   int    `yaml:"page_delay_secs" mapstructure:"page_delay_secs"`
	WaitTimeoutSecs int    `yaml:"wait_timeout_secs" mapstructure:"wait_timeout_secs"`
	DownloadRetries int    `yaml:"download_retries" mapstructure:"download_retries"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	Headless        bool   `yaml:"headless" mapstructure:"headless"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CSEPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.raw_dir", "data/raw")
	v.SetDefault("store.processed_dir", "data/processed")
	v.SetDefault("store.ledger_path", "data/csepipe.db")
	v.SetDefault("scrape.base_url", "https://www.cse.lk/pages/company-profile/company-profile.component.html")
	v.SetDefault("scrape.lookback_years", 5)
	v.SetDefault("scrape.page_delay_secs", 2)
	v.SetDefault("scrape.wait_timeout_secs", 10)
	v.SetDefault("scrape.download_retries", 3)
	v.SetDefault("scrape.user_agent", "csepipe/1.0")
	v.SetDefault("scrape.headless", true)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("server.port", 8000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	// The tracked listings are fixed; config only overrides them when a
	// company's filing template moves its statement page.
	if len(cfg.Companies) == 0 {
		cfg.Companies = acquire.DefaultCompanies()
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
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

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
