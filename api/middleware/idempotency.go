package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/pkg/auth"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	// claimTTL bounds how long a crashed request can hold its key.
	claimTTL      = 2 * time.Minute
	completionTTL = 24 * time.Hour

	maxIdempotentBody = 1 << 20
)

// IdempotencyStore holds claims and completed responses.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Creating routes where a retried request would duplicate a row or an account.
var idempotentRoutes = map[string]bool{
	http.MethodPost + " /api/admin/create-user": true,
	http.MethodPost + " /api/products":          true,
	http.MethodPost + " /api/tickets":           true,
}

// CallerCheck authenticates a request before its idempotency record is read
// or claimed and returns the caller's ID.
type CallerCheck func(r *http.Request) (string, error)

type adminChecker interface {
	RequireAdmin(ctx context.Context, header string) (auth.AdminGrant, error)
}

// AdminCaller checks the bearer credential for a current admin. Revoked or
// demoted callers are refused before a stored response can be replayed.
func AdminCaller(authorizer adminChecker) CallerCheck {
	return func(r *http.Request) (string, error) {
		grant, err := authorizer.RequireAdmin(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			return "", err
		}
		return grant.ActorID().String(), nil
	}
}

type idempotencyRecord struct {
	RequestHash string `json:"request_hash"`
	Done        bool   `json:"done"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes create requests that carry an Idempotency-Key safe to
// retry. The first request claims the key before its handler runs, so a
// concurrent duplicate gets 409 instead of a second execution. A 2xx response
// is kept for a day and replayed to later retries; any other outcome releases
// the claim. Requests without the header pass through.
func Idempotency(store IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return IdempotencyWithCaller(store, logg, nil)
}

// IdempotencyWithCaller is Idempotency for routes that authenticate inside
// their handler. check runs first on every keyed request, replays included.
func IdempotencyWithCaller(store IdempotencyStore, logg *logger.Logger, check CallerCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || id == "" || !idempotentRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			caller := UserIDFromContext(ctx)
			if check != nil {
				checked, err := check(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				caller = checked
			}
			if caller == "" {
				// Anonymous requests never share records; the handler rejects them.
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := store.IdempotencyKey(callerScope(caller, r), id)
			hash := requestHash(body)

			claim, _ := json.Marshal(idempotencyRecord{RequestHash: hash})
			acquired, err := store.SetNX(ctx, key, string(claim), claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim idempotency key"))
				return
			}
			if !acquired {
				replayOrReject(ctx, store, logg, w, key, hash)
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			// The client may have gone away; settle the key regardless.
			settleCtx := context.WithoutCancel(ctx)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				if err := store.Del(settleCtx, key); err != nil {
					logError(settleCtx, logg, "release idempotency claim", err)
				}
				return
			}

			done, err := json.Marshal(idempotencyRecord{
				RequestHash: hash,
				Done:        true,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			})
			if err == nil {
				err = store.Set(settleCtx, key, string(done), completionTTL)
			}
			if err != nil {
				logError(settleCtx, logg, "persist idempotency record", err)
			}
		})
	}
}

func replayOrReject(ctx context.Context, store IdempotencyStore, logg *logger.Logger, w http.ResponseWriter, key, hash string) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// Released between our SetNX and Get: the first attempt failed.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load idempotency record"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key reused with different request body"))
	case !record.Done:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

func callerScope(caller string, r *http.Request) string {
	return caller + "|" + r.Method + "|" + strings.TrimSuffix(r.URL.Path, "/")
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// idempotentRoute matches on the request path; the middleware runs before
// chi has resolved the final route pattern.
func idempotentRoute(method, path string) bool {
	return idempotentRoutes[method+" "+strings.TrimSuffix(path, "/")]
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
