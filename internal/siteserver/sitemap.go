package siteserver

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/gin-gonic/gin"

	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/internal/pages"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

func buildSitemap(base string, pf *models.Portfolio) ([]byte, error) {
	base = strings.TrimRight(base, "/")
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", sitemapNS)
	for _, p := range pages.SitemapPaths(pf) {
		u := urlset.CreateElement("url")
		u.CreateElement("loc").SetText(base + p)
	}
	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sitemapHandler(st *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		base := st.Config().Site.PublicURL
		if base == "" {
			scheme := "http"
			if c.Request.TLS != nil {
				scheme = "https"
			}
			base = scheme + "://" + c.Request.Host
		}
		body, err := buildSitemap(base, st.Portfolio())
		if err != nil {
			writeError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
	}
}
