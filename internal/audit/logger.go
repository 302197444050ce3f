package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	dbtypes "github.com/genesoft/portal-backend/pkg/db/types"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultWriteTimeout = 5 * time.Second

type ipKey struct{}

// WithClientIP stores the caller's address for records written later in the
// request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ipKey{}, ip)
}

func clientIP(ctx context.Context) *string {
	if ip, ok := ctx.Value(ipKey{}).(string); ok && ip != "" {
		return &ip
	}
	return nil
}

// Entry describes one action to record.
type Entry struct {
	Action     enums.LogAction
	EntityType enums.EntityType
	EntityID   *string
	Details    map[string]any
	IPAddress  *string
}

// recordStore writes a record on behalf of the actor.
type recordStore interface {
	Insert(ctx context.Context, actor auth.Principal, record *models.ActivityLog) error
}

// sessionStore inserts under the actor's own session scope so row level
// policies check that user_id matches the caller.
type sessionStore struct {
	db *db.Client
}

func (s sessionStore) Insert(ctx context.Context, actor auth.Principal, record *models.ActivityLog) error {
	scope, err := db.NewSessionScope(s.db, actor)
	if err != nil {
		return err
	}
	return scope.Run(ctx, func(tx *gorm.DB) error {
		return NewRepository(tx).Insert(ctx, record)
	})
}

// LoggerParams bundles the dependencies of the audit logger.
type LoggerParams struct {
	DB           *db.Client
	Logger       *logger.Logger
	Metrics      *metrics.AuditMetrics
	WriteTimeout time.Duration

	store recordStore
}

// Logger records privileged and business mutations without ever failing the
// action that triggered it.
type Logger struct {
	store   recordStore
	logg    *logger.Logger
	metrics *metrics.AuditMetrics
	timeout time.Duration
}

// NewLogger constructs an audit logger.
func NewLogger(params LoggerParams) (*Logger, error) {
	store := params.store
	if store == nil {
		if params.DB == nil {
			return nil, fmt.Errorf("db client is required")
		}
		store = sessionStore{db: params.DB}
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := params.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Logger{
		store:   store,
		logg:    params.Logger,
		metrics: params.Metrics,
		timeout: timeout,
	}, nil
}

// LogActivity dispatches the write and returns immediately. The returned
// channel yields the write result once and is then closed; callers that do
// not care may ignore it. Without an actor nothing is written.
func (l *Logger) LogActivity(ctx context.Context, actor *auth.Principal, entry Entry) <-chan error {
	done := make(chan error, 1)

	if actor == nil || actor.ID == uuid.Nil {
		l.logg.Warn(ctx, "audit skipped: no authenticated principal")
		l.metrics.ObserveWrite(metrics.OutcomeSkipped)
		close(done)
		return done
	}
	if !entry.Action.IsValid() || !entry.EntityType.IsValid() {
		err := fmt.Errorf("invalid audit entry: action %q entity type %q", entry.Action, entry.EntityType)
		l.logg.Error(ctx, "audit skipped", err)
		l.metrics.ObserveWrite(metrics.OutcomeDropped)
		done <- err
		close(done)
		return done
	}

	principal := *actor
	if entry.IPAddress == nil {
		entry.IPAddress = clientIP(ctx)
	}
	record := &models.ActivityLog{
		ID:         uuid.New(),
		UserID:     principal.ID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    dbtypes.JSONMap(entry.Details),
		IPAddress:  entry.IPAddress,
	}

	go func() {
		defer close(done)
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		err := l.insert(writeCtx, principal, record)
		if err != nil {
			l.metrics.ObserveWrite(metrics.OutcomeFailure)
			l.logg.Error(writeCtx, fmt.Sprintf("audit write failed for %s", entry.Action), err)
		} else {
			l.metrics.ObserveWrite(metrics.OutcomeSuccess)
		}
		done <- err
	}()

	return done
}

func (l *Logger) insert(ctx context.Context, actor auth.Principal, record *models.ActivityLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit store panic: %v", r)
		}
	}()
	return l.store.Insert(ctx, actor, record)
}
