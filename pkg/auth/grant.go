package auth

import (
	"fmt"

	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
)

// AdminGrant is proof that an admin check passed for the current request.
// Its zero value grants nothing.
type AdminGrant struct {
	actor  Principal
	job    string
	issued bool
}

// GrantAdmin issues a grant for a principal whose role was just read as admin.
func GrantAdmin(p Principal, role enums.Role) (AdminGrant, error) {
	if p.ID == uuid.Nil {
		return AdminGrant{}, fmt.Errorf("grant requires a principal")
	}
	if role != enums.RoleAdmin {
		return AdminGrant{}, fmt.Errorf("role %q cannot be granted admin", role)
	}
	return AdminGrant{actor: p, issued: true}, nil
}

// SystemGrant issues a grant for a maintenance job run by an operator
// outside any HTTP request.
func SystemGrant(job string) AdminGrant {
	if job == "" {
		return AdminGrant{}
	}
	return AdminGrant{job: job, issued: true}
}

func (g AdminGrant) Valid() bool {
	return g.issued
}

// ActorID is uuid.Nil for system grants.
func (g AdminGrant) ActorID() uuid.UUID {
	return g.actor.ID
}

// Actor returns the admin the grant was issued to. It is nil for system
// grants.
func (g AdminGrant) Actor() *Principal {
	if !g.issued || g.job != "" {
		return nil
	}
	actor := g.actor
	return &actor
}

func (g AdminGrant) IsSystem() bool {
	return g.issued && g.job != ""
}

func (g AdminGrant) String() string {
	switch {
	case !g.issued:
		return "none"
	case g.job != "":
		return "system:" + g.job
	default:
		return "admin:" + g.actor.ID.String()
	}
}
