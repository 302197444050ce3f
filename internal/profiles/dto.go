package profiles

import (
	"time"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/google/uuid"
)

// View is the profile as returned to its owner.
type View struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Role        enums.Role `json:"role"`
	CompanyName *string    `json:"companyName,omitempty"`
	LogoURL     *string    `json:"logoUrl,omitempty"`
	WebsiteURL  *string    `json:"websiteUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromModel converts a profile row. Shadow emails are shown as usernames.
func FromModel(p *models.Profile) View {
	return View{
		ID:          p.ID,
		Username:    auth.FromShadowEmail(p.Email),
		Email:       p.Email,
		FullName:    p.FullName,
		Role:        p.Role,
		CompanyName: p.CompanyName,
		LogoURL:     p.LogoURL,
		WebsiteURL:  p.WebsiteURL,
		CreatedAt:   p.CreatedAt,
	}
}
