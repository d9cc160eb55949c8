// Package config loads and validates control panel configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Gateway  GatewayConfig `mapstructure:"gateway"`
	Storage  StorageConfig `mapstructure:"storage"`
	Output   OutputConfig  `mapstructure:"output"`
	Defaults CrawlDefaults `mapstructure:"defaults"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// GatewayConfig points at the external crawl engine and LLM gateway.
type GatewayConfig struct {
	CrawlBaseURL   string `mapstructure:"crawl_base_url"`
	LLMBaseURL     string `mapstructure:"llm_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig locates the JSON record files.
type StorageConfig struct {
	Root string `mapstructure:"root"`
}

// OutputConfig locates crawl output written by the engine.
type OutputConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// CrawlDefaults seed the settings record when none has been saved yet.
type CrawlDefaults struct {
	CrawlDepth     int  `mapstructure:"crawl_depth"`
	Concurrency    int  `mapstructure:"concurrency"`
	PDFDownloads   bool `mapstructure:"pdf_downloads"`
	OtherDownloads bool `mapstructure:"other_downloads"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("gateway.crawl_base_url", "http://crawl4ai:11235")
	v.SetDefault("gateway.llm_base_url", "http://litellm:4000")
	v.SetDefault("gateway.timeout_seconds", 300)
	v.SetDefault("storage.root", "./data")
	v.SetDefault("output.base_path", "/app/data/output")
	v.SetDefault("defaults.crawl_depth", 2)
	v.SetDefault("defaults.concurrency", 5)
	v.SetDefault("defaults.pdf_downloads", false)
	v.SetDefault("defaults.other_downloads", false)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Gateway.CrawlBaseURL == "" {
		return fmt.Errorf("gateway.crawl_base_url must be set")
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("gateway.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		return fmt.Errorf("storage.root must be set")
	}
	return nil
}

// GatewayTimeout converts the gateway timeout config into a duration.
func (c Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// DefaultSettings builds the settings record returned before one has ever
// been saved.
func (c Config) DefaultSettings() crawl.Settings {
	return crawl.Settings{
		CrawlBaseURL:          c.Gateway.CrawlBaseURL,
		LLMBaseURL:            c.Gateway.LLMBaseURL,
		OutputBasePath:        c.Output.BasePath,
		FileStoragePath:       c.Storage.Root,
		DefaultCrawlDepth:     c.Defaults.CrawlDepth,
		DefaultConcurrency:    c.Defaults.Concurrency,
		DefaultPDFDownloads:   c.Defaults.PDFDownloads,
		DefaultOtherDownloads: c.Defaults.OtherDownloads,
	}
}
