package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.Server.Listen)
	require.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	require.Equal(t, 3, cfg.APIMaxRetries())
	require.Equal(t, time.Second, cfg.InitialBackoff())
	require.Equal(t, 10*time.Second, cfg.MaxBackoff())
	require.Equal(t, "../public/", cfg.Content.AssetPrefixFrom)
	require.Equal(t, "/public/", cfg.Content.AssetPrefixTo)
	require.True(t, cfg.Logging.AccessLog)
	require.Equal(t, filepath.Join("web", "views"), cfg.ViewsPath())
}

func TestLoadFileAndZeroRetries(t *testing.T) {
	p := writeFile(t, `
server:
  listen: ":8080"
api:
  base_url: "https://api.mibitech.com.br"
  max_retries: 0
logging:
  format: json
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Listen)
	require.Equal(t, "https://api.mibitech.com.br", cfg.API.BaseURL)
	require.Equal(t, 0, cfg.APIMaxRetries())

	fc := cfg.FetchConfig()
	require.Equal(t, "https://api.mibitech.com.br", fc.BaseURL)
	require.NotNil(t, fc.MaxRetries)
	require.Equal(t, 0, *fc.MaxRetries)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("API_BASE_URL", "http://backend:8000")
	t.Setenv("SITE_API_MAX_RETRIES", "1")
	t.Setenv("SITE_METRICS_ENABLED", "yes")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":4000", cfg.Server.Listen)
	require.Equal(t, "http://backend:8000", cfg.API.BaseURL)
	require.Equal(t, 1, cfg.APIMaxRetries())
	require.True(t, cfg.Metrics.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []string{
		"api:\n  base_url: \"localhost:8000/x\"\n",
		"api:\n  base_url: \"ftp://x\"\n",
		"api:\n  max_retries: -1\n",
		"api:\n  initial_backoff_ms: 5000\n  max_backoff_ms: 100\n",
		"logging:\n  format: xml\n",
		"site:\n  public_url: \"/relative\"\n",
	}
	for _, body := range cases {
		_, err := Load(writeFile(t, body))
		require.Error(t, err, body)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "site.example.yaml"))
	require.NoError(t, err)
	require.Equal(t, "https://www.mibitech.com.br", cfg.Site.PublicURL)
	require.Equal(t, 15*time.Second, cfg.APITimeout())
	require.True(t, cfg.Metrics.Enabled)
}

func TestAccessLogCanBeDisabled(t *testing.T) {
	cfg, err := Load(writeFile(t, "logging:\n  access_log: false\n"))
	require.NoError(t, err)
	require.False(t, cfg.Logging.AccessLog)
}
