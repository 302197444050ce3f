package controllers

import (
	"net/http"
	"time"

	"github.com/genesoft/portal-backend/pkg/config"
)

func setSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg config.SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken returns the bearer token, or the session cookie when no
// Authorization header is present.
func sessionToken(r *http.Request, cfg config.SessionConfig) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return header
	}
	if cookie, err := r.Cookie(cfg.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
