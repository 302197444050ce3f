package controllers

import (
	"net/http"
	"strings"

	"github.com/beevik/etree"

	"github.com/genesoft/portal-backend/api/responses"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// PublicPaths are the marketing pages listed in the sitemap.
var PublicPaths = []string{"/", "/services", "/case-studies", "/about", "/contact"}

// BuildSitemap renders a sitemap for the public pages under baseURL.
func BuildSitemap(baseURL string, paths []string) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", sitemapNamespace)
	for _, p := range paths {
		u := urlset.CreateElement("url")
		u.CreateElement("loc").SetText(base + p)
	}
	doc.Indent(2)
	return doc.WriteToBytes()
}

// Sitemap handles GET /sitemap.xml. It runs behind middleware.CrawlerOnly.
func Sitemap(baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := BuildSitemap(baseURL, PublicPaths)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build sitemap"))
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
