package middleware

import (
	"net/http"
	"strings"

	"github.com/genesoft/portal-backend/api/responses"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
)

var crawlerAgents = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"applebot",
}

// IsCrawler reports whether the user agent belongs to a known search crawler.
func IsCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, agent := range crawlerAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}

// CrawlerOnly answers 403 to anything that is not a search crawler.
func CrawlerOnly(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsCrawler(r.UserAgent()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
