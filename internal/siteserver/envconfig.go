package siteserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/version"
)

const EnvConfigPath = "/public/js/env-config.js"

// browserEnv is the object exposed to the page as window.ENV.
type browserEnv struct {
	APIBaseURL string `json:"API_BASE_URL"`
	NodeEnv    string `json:"NODE_ENV"`
	Version    string `json:"VERSION"`
	Build      string `json:"BUILD"`
}

func renderEnvConfig(cfg *config.Config) ([]byte, error) {
	env := browserEnv{
		APIBaseURL: cfg.API.BaseURL,
		NodeEnv:    cfg.Site.Environment,
		Version:    cfg.Site.Version,
		Build:      version.Get().Short(),
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("// generated by mibitech-site\n")
	fmt.Fprintf(&buf, "window.ENV = Object.assign(window.ENV || {}, %s);\n", b)
	buf.WriteString("if (typeof module !== 'undefined' && module.exports) {\n  module.exports = { ENV: window.ENV };\n}\n")
	return buf.Bytes(), nil
}

func envConfigHandler(st *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := renderEnvConfig(st.Config())
		if err != nil {
			writeError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "application/javascript", body)
	}
}
