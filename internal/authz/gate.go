// Package authz decides who may reach which route. The page gate turns
// denials into redirects; the API authorizer turns them into 401/403 errors.
package authz

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/metrics"
)

// RouteClass groups page paths by the check they need.
type RouteClass string

const (
	ClassPublic        RouteClass = "public"
	ClassAuthenticated RouteClass = "authenticated"
	ClassAdmin         RouteClass = "admin"
)

const (
	DashboardPath = "/dashboard"
	AdminPath     = "/dashboard/admin"
	LoginPath     = "/login"
)

// Classify maps a request path to its route class. Matching is on whole path
// segments, so /dashboardx is public.
func Classify(p string) RouteClass {
	cleaned := path.Clean("/" + p)
	switch {
	case underSegment(cleaned, AdminPath):
		return ClassAdmin
	case underSegment(cleaned, DashboardPath):
		return ClassAuthenticated
	default:
		return ClassPublic
	}
}

// CanonicalPath returns the cleaned form of p and whether p already is in
// that form. Dot segments, repeated slashes and trailing slashes are not
// canonical.
func CanonicalPath(p string) (string, bool) {
	cleaned := path.Clean("/" + p)
	return cleaned, cleaned == p
}

func underSegment(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Decision is the outcome of evaluating one page request.
type Decision struct {
	Class      RouteClass
	Allow      bool
	RedirectTo string
	Principal  *auth.Principal
	Role       enums.Role
}

type sessionResolver interface {
	ResolveFromSession(r *http.Request) (*auth.Principal, error)
}

type roleStore interface {
	GetRole(ctx context.Context, principal auth.Principal) (enums.Role, error)
}

// Gate evaluates page requests.
type Gate struct {
	resolver sessionResolver
	roles    roleStore
	metrics  *metrics.GateMetrics
}

// NewGate constructs a page gate.
func NewGate(resolver sessionResolver, roles roleStore, m *metrics.GateMetrics) *Gate {
	return &Gate{resolver: resolver, roles: roles, metrics: m}
}

// Decide evaluates the request without writing a response.
func (g *Gate) Decide(r *http.Request) Decision {
	decision := g.decide(r)
	outcome := metrics.OutcomeAllow
	if !decision.Allow {
		outcome = metrics.OutcomeRedirect
	}
	g.metrics.Observe(string(decision.Class), outcome)
	return decision
}

func (g *Gate) decide(r *http.Request) Decision {
	class := Classify(r.URL.Path)
	if class == ClassPublic {
		return Decision{Class: class, Allow: true}
	}

	principal, err := g.resolver.ResolveFromSession(r)
	if err != nil || principal == nil {
		return Decision{Class: class, RedirectTo: LoginPath}
	}

	role, err := g.roles.GetRole(r.Context(), *principal)
	if class == ClassAdmin && (err != nil || role != enums.RoleAdmin) {
		return Decision{Class: class, RedirectTo: DashboardPath, Principal: principal}
	}
	if err != nil {
		// Dashboard pages only need a principal; the role is informational.
		role = ""
	}
	return Decision{Class: class, Allow: true, Principal: principal, Role: role}
}
