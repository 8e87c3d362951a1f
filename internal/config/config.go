package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mibitech/mibitech-site/pkg/datafetch"
)

type Config struct {
	Server struct {
		Listen         string `yaml:"listen"`
		ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs int    `yaml:"write_timeout_ms"`
		StaticRoot     string `yaml:"static_root"`
		// ViewsDir is relative to StaticRoot unless absolute.
		ViewsDir string `yaml:"views_dir"`
		PidFile  string `yaml:"pid_file"`
	} `yaml:"server"`

	API struct {
		BaseURL          string `yaml:"base_url"`
		MaxRetries       *int   `yaml:"max_retries"`
		InitialBackoffMs int    `yaml:"initial_backoff_ms"`
		MaxBackoffMs     int    `yaml:"max_backoff_ms"`
		TimeoutMs        int    `yaml:"timeout_ms"`
	} `yaml:"api"`

	Proxy struct {
		// BreakerFailures consecutive failures open the breaker.
		BreakerFailures  int     `yaml:"breaker_failures"`
		BreakerTimeoutMs int     `yaml:"breaker_timeout_ms"`
		WriteRPS         float64 `yaml:"write_rps"`
		WriteBurst       int     `yaml:"write_burst"`
	} `yaml:"proxy"`

	Content struct {
		AssetPrefixFrom string `yaml:"asset_prefix_from"`
		AssetPrefixTo   string `yaml:"asset_prefix_to"`
		// PortfolioFile is an optional projects yaml; the sample catalogue is
		// used when unset or missing.
		PortfolioFile string `yaml:"portfolio_file"`
	} `yaml:"content"`

	Site struct {
		Environment string `yaml:"environment"`
		Version     string `yaml:"version"`
		// PublicURL is used for absolute links in sitemap.xml.
		PublicURL string `yaml:"public_url"`
	} `yaml:"site"`

	DevAPI struct {
		Listen string `yaml:"listen"`
		DB     string `yaml:"db"`
	} `yaml:"devapi"`

	Logging struct {
		Level         string `yaml:"level"`
		Format        string `yaml:"format"`
		AccessLog     bool   `yaml:"access_log"`
		AccessLogPath string `yaml:"access_log_path"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Load reads a yaml file. An empty path yields defaults plus environment
// overrides.
func Load(path string) (*Config, error) {
	// access log is on unless the file turns it off
	cfg := Config{}
	cfg.Logging.AccessLog = true
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := Config{}
	cfg.Logging.AccessLog = true
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":3000"
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = 30000
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = 30000
	}
	if strings.TrimSpace(cfg.Server.StaticRoot) == "" {
		cfg.Server.StaticRoot = "./web"
	}
	if strings.TrimSpace(cfg.Server.ViewsDir) == "" {
		cfg.Server.ViewsDir = "views"
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.MaxRetries == nil {
		n := 3
		cfg.API.MaxRetries = &n
	}
	if cfg.API.InitialBackoffMs <= 0 {
		cfg.API.InitialBackoffMs = 1000
	}
	if cfg.API.MaxBackoffMs <= 0 {
		cfg.API.MaxBackoffMs = 10000
	}
	if cfg.Proxy.BreakerFailures <= 0 {
		cfg.Proxy.BreakerFailures = 5
	}
	if cfg.Proxy.BreakerTimeoutMs <= 0 {
		cfg.Proxy.BreakerTimeoutMs = 30000
	}
	if cfg.Proxy.WriteRPS <= 0 {
		cfg.Proxy.WriteRPS = 2
	}
	if cfg.Proxy.WriteBurst <= 0 {
		cfg.Proxy.WriteBurst = 5
	}
	if cfg.Content.AssetPrefixFrom == "" {
		cfg.Content.AssetPrefixFrom = "../public/"
	}
	if cfg.Content.AssetPrefixTo == "" {
		cfg.Content.AssetPrefixTo = "/public/"
	}
	if strings.TrimSpace(cfg.Site.Environment) == "" {
		cfg.Site.Environment = "development"
	}
	if strings.TrimSpace(cfg.Site.Version) == "" {
		cfg.Site.Version = "1.0.0"
	}
	if strings.TrimSpace(cfg.DevAPI.Listen) == "" {
		cfg.DevAPI.Listen = ":8000"
	}
	if strings.TrimSpace(cfg.DevAPI.DB) == "" {
		cfg.DevAPI.DB = "./mibitech.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func applyEnvOverrides(cfg *Config) {
	// PORT and API_BASE_URL are the variables the site has always honoured.
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Server.Listen = ":" + strings.TrimPrefix(v, ":")
	}
	if v := strings.TrimSpace(os.Getenv("SITE_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("API_BASE_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_API_BASE_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_STATIC_ROOT")); v != "" {
		cfg.Server.StaticRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_PID_FILE")); v != "" {
		cfg.Server.PidFile = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_API_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.API.MaxRetries = &n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SITE_API_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.API.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SITE_PORTFOLIO_FILE")); v != "" {
		cfg.Content.PortfolioFile = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_ENV")); v != "" {
		cfg.Site.Environment = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_PUBLIC_URL")); v != "" {
		cfg.Site.PublicURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_DEVAPI_LISTEN")); v != "" {
		cfg.DevAPI.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_DEVAPI_DB")); v != "" {
		cfg.DevAPI.DB = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("SITE_LOG_FORMAT")); v != "" {
		cfg.Logging.Format = v
	}
	cfg.Logging.AccessLog = envBool("SITE_ACCESS_LOG", cfg.Logging.AccessLog)
	if v := strings.TrimSpace(os.Getenv("SITE_ACCESS_LOG_PATH")); v != "" {
		cfg.Logging.AccessLogPath = v
	}
	cfg.Metrics.Enabled = envBool("SITE_METRICS_ENABLED", cfg.Metrics.Enabled)
}

func validate(cfg *Config) error {
	u, err := url.Parse(strings.TrimSpace(cfg.API.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("api.base_url must be an absolute http(s) url (or set API_BASE_URL)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if cfg.API.MaxRetries != nil && *cfg.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be non-negative")
	}
	if cfg.API.MaxBackoffMs < cfg.API.InitialBackoffMs {
		return errors.New("api.max_backoff_ms must be >= api.initial_backoff_ms")
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported %q", cfg.Logging.Format)
	}
	if cfg.Site.PublicURL != "" {
		if pu, err := url.Parse(cfg.Site.PublicURL); err != nil || pu.Host == "" {
			return errors.New("site.public_url must be an absolute url")
		}
	}
	return nil
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (c *Config) ReadTimeout() time.Duration  { return ms(c.Server.ReadTimeoutMs) }
func (c *Config) WriteTimeout() time.Duration { return ms(c.Server.WriteTimeoutMs) }

// APIMaxRetries is the configured retry count, 3 when unset.
func (c *Config) APIMaxRetries() int {
	if c.API.MaxRetries == nil {
		return 3
	}
	return *c.API.MaxRetries
}

func (c *Config) InitialBackoff() time.Duration { return ms(c.API.InitialBackoffMs) }
func (c *Config) MaxBackoff() time.Duration     { return ms(c.API.MaxBackoffMs) }
func (c *Config) APITimeout() time.Duration     { return ms(c.API.TimeoutMs) }
func (c *Config) BreakerTimeout() time.Duration { return ms(c.Proxy.BreakerTimeoutMs) }

// ViewsPath resolves Server.ViewsDir against Server.StaticRoot.
func (c *Config) ViewsPath() string {
	if filepath.IsAbs(c.Server.ViewsDir) {
		return c.Server.ViewsDir
	}
	return filepath.Join(c.Server.StaticRoot, c.Server.ViewsDir)
}

// FetchConfig is the data fetcher configuration derived from the api section.
func (c *Config) FetchConfig() datafetch.Config {
	return datafetch.Config{
		BaseURL:        c.API.BaseURL,
		MaxRetries:     datafetch.Retries(c.APIMaxRetries()),
		InitialBackoff: c.InitialBackoff(),
		MaxBackoff:     c.MaxBackoff(),
		Timeout:        c.APITimeout(),
	}
}
