// Package maintenance holds one-shot jobs run by the maintenance binaries.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/metrics"
)

// SyncProfilesJobName labels logs and metrics for the email sync.
const SyncProfilesJobName = "sync-profiles"

type identityLister interface {
	ListIdentities(ctx context.Context, scope *db.ElevatedScope) ([]models.Identity, error)
}

type profileSyncer interface {
	SyncEmails(ctx context.Context, scope *db.ElevatedScope, identities []models.Identity) (profiles.SyncReport, error)
	CountByRole(ctx context.Context, scope *db.ElevatedScope, role enums.Role) (int64, error)
}

// SyncProfilesParams bundles the job's collaborators.
type SyncProfilesParams struct {
	DB         *db.Client
	Identities identityLister
	Profiles   profileSyncer
	Metrics    *metrics.JobMetrics
	Logger     *logger.Logger
}

// SyncProfilesJob copies each identity's login email onto its profile row and
// reports how many profiles hold each role.
type SyncProfilesJob struct {
	db         *db.Client
	identities identityLister
	profiles   profileSyncer
	metrics    *metrics.JobMetrics
	logg       *logger.Logger
}

// SyncProfilesResult is what one run found and changed.
type SyncProfilesResult struct {
	profiles.SyncReport
	RoleCounts map[enums.Role]int64
}

func NewSyncProfilesJob(params SyncProfilesParams) (*SyncProfilesJob, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Identities == nil {
		return nil, fmt.Errorf("identity lister is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile syncer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &SyncProfilesJob{
		db:         params.DB,
		identities: params.Identities,
		profiles:   params.Profiles,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// Run executes the sync once. Per-profile failures do not stop the run; they
// are returned together once every identity has been visited.
func (j *SyncProfilesJob) Run(ctx context.Context) (result SyncProfilesResult, err error) {
	started := time.Now()
	ctx = j.logg.WithField(ctx, "job", SyncProfilesJobName)
	defer func() {
		j.metrics.ObserveDuration(SyncProfilesJobName, time.Since(started))
		if err != nil {
			j.metrics.IncFailure(SyncProfilesJobName)
			return
		}
		j.metrics.IncSuccess(SyncProfilesJobName)
	}()

	scope, err := db.NewElevatedScope(j.db, auth.SystemGrant(SyncProfilesJobName))
	if err != nil {
		return result, err
	}

	identities, err := j.identities.ListIdentities(ctx, scope)
	if err != nil {
		return result, err
	}

	report, syncErr := j.profiles.SyncEmails(ctx, scope, identities)
	result.SyncReport = report

	result.RoleCounts = make(map[enums.Role]int64, len(enums.Roles()))
	for _, role := range enums.Roles() {
		count, countErr := j.profiles.CountByRole(ctx, scope, role)
		if countErr != nil {
			j.logg.Error(ctx, "role count failed", countErr)
			continue
		}
		result.RoleCounts[role] = count
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"checked": report.Checked,
		"updated": report.Updated,
		"missing": report.Missing,
		"admins":  result.RoleCounts[enums.RoleAdmin],
		"staff":   result.RoleCounts[enums.RoleStaff],
		"clients": result.RoleCounts[enums.RoleClient],
	}), "profile sync finished")

	return result, syncErr
}
