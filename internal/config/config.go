package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/promobot/core/config"
	coredatabase "github.com/m3rciful/promobot/core/database"
)

// FormsConfig controls multi-step conversation sessions.
type FormsConfig struct {
	// TimeoutSeconds is how long a form session may live before it is reaped; 0 -> default.
	TimeoutSeconds       int `yaml:"timeout_seconds" envconfig:"FORM_TIMEOUT_SECONDS"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" envconfig:"FORM_SWEEP_INTERVAL_SECONDS"`
}

// Timeout returns the form session lifetime as a duration.
func (f FormsConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// SweepInterval returns the background sweep period as a duration.
func (f FormsConfig) SweepInterval() time.Duration {
	return time.Duration(f.SweepIntervalSeconds) * time.Second
}

// AdminsConfig controls the admin roster cache.
type AdminsConfig struct {
	// CacheTTLSeconds bounds how stale the cached roster may get before a reload; 0 -> default.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" envconfig:"ADMIN_CACHE_TTL_SECONDS"`
}

// CacheTTL returns the roster cache lifetime as a duration.
func (a AdminsConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

// CatalogConfig holds promo catalog presentation settings.
type CatalogConfig struct {
	PageSize int `yaml:"page_size" envconfig:"CATALOG_PAGE_SIZE"`
}

// AIConfig describes the Ark chat model used for conversational replies.
// Optional tuning knobs stay nil when unset so the provider defaults apply.
type AIConfig struct {
	APIKey       string   `yaml:"api_key" envconfig:"ARK_API_KEY"`
	Model        string   `yaml:"model" envconfig:"ARK_MODEL"`
	BaseURL      string   `yaml:"base_url" envconfig:"ARK_BASE_URL"`
	Region       string   `yaml:"region" envconfig:"ARK_REGION"`
	MaxTokens    *int     `yaml:"max_tokens" envconfig:"ARK_MAX_TOKENS"`
	Temperature  *float32 `yaml:"temperature" envconfig:"ARK_TEMPERATURE"`
	TopP         *float32 `yaml:"top_p" envconfig:"ARK_TOP_P"`
	HistoryLimit int      `yaml:"history_limit" envconfig:"AI_HISTORY_LIMIT"`
	SystemPrompt string   `yaml:"system_prompt" envconfig:"AI_SYSTEM_PROMPT"`
}

// Enabled reports whether the Ark credentials required for chat are present.
func (a AIConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKey) != "" && strings.TrimSpace(a.Model) != ""
}

// OpsConfig holds the operational HTTP endpoint settings.
// An empty listen address disables the ops server.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config aggregates core framework settings with promobot-specific sections.
// Both bots share this schema; each binary loads its own YAML file.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Forms    FormsConfig         `yaml:"forms"`
	Admins   AdminsConfig        `yaml:"admins"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	AI       AIConfig            `yaml:"ai"`
	Ops      OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const (
	defaultFormTimeoutSeconds  = 900
	defaultSweepSeconds        = 60
	defaultAdminCacheSeconds   = 300
	defaultCatalogPageSize     = 10
	defaultAIHistoryLimit      = 20
	defaultDatabasePort        = "5432"
	defaultDatabaseSSLMode     = "disable"
	defaultDatabaseConnections = 4
)

// Normalize validates promobot-specific sections and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database.host is required")
	}
	if strings.TrimSpace(cfg.Database.User) == "" {
		return fmt.Errorf("database.user is required")
	}
	if strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("database.name is required")
	}
	if strings.TrimSpace(cfg.Database.Port) == "" {
		cfg.Database.Port = defaultDatabasePort
	}
	if strings.TrimSpace(cfg.Database.SSLMode) == "" {
		cfg.Database.SSLMode = defaultDatabaseSSLMode
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = defaultDatabaseConnections
	}

	if cfg.Forms.TimeoutSeconds < 0 {
		return fmt.Errorf("forms.timeout_seconds must be >= 0")
	}
	if cfg.Forms.TimeoutSeconds == 0 {
		cfg.Forms.TimeoutSeconds = defaultFormTimeoutSeconds
	}
	if cfg.Forms.SweepIntervalSeconds < 0 {
		return fmt.Errorf("forms.sweep_interval_seconds must be >= 0")
	}
	if cfg.Forms.SweepIntervalSeconds == 0 {
		cfg.Forms.SweepIntervalSeconds = defaultSweepSeconds
	}

	if cfg.Admins.CacheTTLSeconds < 0 {
		return fmt.Errorf("admins.cache_ttl_seconds must be >= 0")
	}
	if cfg.Admins.CacheTTLSeconds == 0 {
		cfg.Admins.CacheTTLSeconds = defaultAdminCacheSeconds
	}

	if cfg.Catalog.PageSize <= 0 {
		cfg.Catalog.PageSize = defaultCatalogPageSize
	}

	if cfg.AI.HistoryLimit <= 0 {
		cfg.AI.HistoryLimit = defaultAIHistoryLimit
	}
	if strings.TrimSpace(cfg.AI.BaseURL) == "" {
		cfg.AI.BaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}
	if strings.TrimSpace(cfg.AI.Region) == "" {
		cfg.AI.Region = "cn-beijing"
	}

	cfg.Ops.Listen = strings.TrimSpace(cfg.Ops.Listen)

	return nil
}
