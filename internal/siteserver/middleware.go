package siteserver

import (
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"

	"github.com/mibitech/mibitech-site/internal/logx"
	"github.com/mibitech/mibitech-site/internal/requestid"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.FromHeader(c.Request.Header)
		c.Header(requestid.HeaderKey, id)
		c.Set(requestid.HeaderKey, id)
		c.Next()
	}
}

func requestLoggerWithColor(l *log.Logger, color bool) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", 0)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		fields := map[string]any{}
		if v := c.GetString(requestid.HeaderKey); v != "" {
			fields["request_id"] = v
		}
		if n := c.Writer.Size(); n > 0 {
			fields["bytes"] = n
		}
		for _, k := range []string{"upstream", "upstream_status", "breaker", "fallback", "encoding"} {
			if v, ok := c.Get("site." + k); ok {
				fields[k] = v
			}
		}
		l.Println(logx.FormatRequestLineWithColor(time.Now(), status, latency, c.ClientIP(), c.Request.Method, c.Request.URL.Path, fields, color))
	}
}

// corsMiddleware sets the permissive headers the site has always sent and
// answers preflight requests directly.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		httpRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

var compressibleExt = map[string]struct{}{
	"":      {},
	".html": {},
	".css":  {},
	".js":   {},
	".mjs":  {},
	".json": {},
	".svg":  {},
	".xml":  {},
	".txt":  {},
}

type brotliWriter struct {
	gin.ResponseWriter
	bw *brotli.Writer
}

func (w *brotliWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	w.Header().Del("Content-Length")
	return w.bw.Write(b)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// compressMiddleware brotli-encodes text responses for clients that accept
// it. The API proxy and the metrics endpoint pass through untouched.
func compressMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if req.Method != http.MethodGet ||
			!acceptsBrotli(req.Header.Get("Accept-Encoding")) ||
			strings.HasPrefix(req.URL.Path, "/api/") ||
			req.URL.Path == "/metrics" {
			c.Next()
			return
		}
		if _, ok := compressibleExt[strings.ToLower(path.Ext(req.URL.Path))]; !ok {
			c.Next()
			return
		}

		bw := brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression)
		c.Header("Content-Encoding", "br")
		c.Header("Vary", "Accept-Encoding")
		c.Writer = &brotliWriter{ResponseWriter: c.Writer, bw: bw}
		c.Set("site.encoding", "br")
		defer func() { _ = bw.Close() }()
		c.Next()
	}
}

func acceptsBrotli(h string) bool {
	for _, part := range strings.Split(h, ",") {
		enc, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "br") {
			continue
		}
		q := strings.TrimSpace(params)
		if v, ok := strings.CutPrefix(q, "q="); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return err == nil && f > 0
		}
		return true
	}
	return false
}

func writeError(c *gin.Context, status int, msg string) {
	body := gin.H{"error": msg}
	if id := c.GetString(requestid.HeaderKey); id != "" {
		body["request_id"] = id
	}
	c.AbortWithStatusJSON(status, body)
}
