package siteserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mibitech/mibitech-site/internal/version"
)

func NewRouter(st *state, accessLogger *log.Logger, accessColor bool) *gin.Engine {
	cfg := st.Config()

	r := gin.New()
	r.Use(requestIDMiddleware())
	if cfg.Logging.AccessLog {
		r.Use(requestLoggerWithColor(accessLogger, accessColor))
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	if cfg.Metrics.Enabled {
		r.Use(metricsMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Use(compressMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/version", func(c *gin.Context) {
		info := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"version":      info.Version,
			"commit":       info.Commit,
			"build_date":   info.BuildDate,
			"site_version": st.Config().Site.Version,
			"started_at":   st.StartedAtUnix(),
		})
	})

	r.GET(EnvConfigPath, envConfigHandler(st))
	r.GET("/sitemap.xml", sitemapHandler(st))

	r.Any("/api/*path", func(c *gin.Context) {
		st.Proxy().handle(c)
	})

	static := staticHandler{root: cfg.Server.StaticRoot, views: cfg.ViewsPath()}
	r.NoRoute(static.serve)
	return r
}
