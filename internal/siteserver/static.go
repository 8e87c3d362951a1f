package siteserver

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

var mimeTypes = map[string]string{
	".html":  "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".ttf":   "font/ttf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".eot":   "application/vnd.ms-fontobject",
	".otf":   "font/otf",
	".wasm":  "application/wasm",
}

const notFoundHTML = "<h1>404 Not Found</h1>"

// contentType uses the extension table and sniffs anything else.
func contentType(ext string, body []byte) string {
	if ct, ok := mimeTypes[ext]; ok {
		return ct
	}
	return mimetype.Detect(body).String()
}

// safeJoin maps a request path onto root, dropping every segment that
// contains "..".
func safeJoin(root, reqPath string) string {
	parts := []string{root}
	for _, seg := range strings.Split(reqPath, "/") {
		if seg == "" || strings.Contains(seg, "..") {
			continue
		}
		parts = append(parts, seg)
	}
	return filepath.Join(parts...)
}

type staticHandler struct {
	root  string
	views string
}

func (h staticHandler) serve(c *gin.Context) {
	reqPath := c.Request.URL.Path
	if reqPath == "/" {
		reqPath = "/index.html"
	}
	file := safeJoin(h.root, reqPath)
	ext := strings.ToLower(filepath.Ext(file))

	// #nosec G304 -- path is confined to the static root by safeJoin.
	body, err := os.ReadFile(file)
	if err == nil {
		c.Data(http.StatusOK, contentType(ext, body), body)
		return
	}
	if !errors.Is(err, fs.ErrNotExist) {
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("Server Error: "+errCode(err)))
		return
	}
	if ext != ".html" {
		c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte("File not found: "+c.Request.URL.RequestURI()))
		return
	}

	if b, err := os.ReadFile(filepath.Join(h.views, filepath.Base(file))); err == nil {
		c.Set("site.fallback", "views")
		staticFallbacksTotal.WithLabelValues("views").Inc()
		c.Data(http.StatusOK, "text/html", b)
		return
	}
	if b, err := os.ReadFile(filepath.Join(h.views, "index.html")); err == nil {
		c.Set("site.fallback", "index")
		staticFallbacksTotal.WithLabelValues("index").Inc()
		c.Data(http.StatusOK, "text/html", b)
		return
	}
	c.Data(http.StatusNotFound, "text/html", []byte(notFoundHTML))
}

// errCode names common filesystem errors by their errno.
func errCode(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EISDIR:
			return "EISDIR"
		case syscall.EACCES:
			return "EACCES"
		case syscall.EMFILE:
			return "EMFILE"
		}
	}
	if errors.Is(err, fs.ErrPermission) {
		return "EACCES"
	}
	return err.Error()
}
