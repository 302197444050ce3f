package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/genesoft/portal-backend/api/middleware"
	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
)

func TestPageExposesUsernameAndRole(t *testing.T) {
	principal := &pkgAuth.Principal{ID: uuid.New(), Email: "jane@genesoft.internal"}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), principal, enums.RoleStaff))
	rec := httptest.NewRecorder()

	Page(JSONPageRenderer{}, testLogger()).ServeHTTP(rec, req)

	var body struct {
		Data PageContext `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Username != "jane" || body.Data.Role != enums.RoleStaff || body.Data.Path != "/dashboard" {
		t.Fatalf("unexpected page context %+v", body.Data)
	}
}

func TestPagePublicHasNoIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	Page(JSONPageRenderer{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services", nil))
	if strings.Contains(rec.Body.String(), "userId") {
		t.Fatalf("public page must not carry identity: %s", rec.Body.String())
	}
}

func TestBuildSitemap(t *testing.T) {
	body, err := BuildSitemap("https://genesoft.example/", []string{"/", "/services"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := string(body)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		`<loc>https://genesoft.example/</loc>`,
		`<loc>https://genesoft.example/services</loc>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("sitemap missing %q:\n%s", want, out)
		}
	}
}

func TestSitemapHandlerContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	Sitemap("https://genesoft.example", testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
