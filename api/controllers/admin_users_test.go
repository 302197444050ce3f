package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/genesoft/portal-backend/internal/admin"
	pkgAuth "github.com/genesoft/portal-backend/pkg/auth"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/dbtest"
	"github.com/genesoft/portal-backend/pkg/enums"
	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/types"
)

type stubAdminAuthorizer struct {
	err error
}

func (s stubAdminAuthorizer) RequireAdmin(context.Context, string) (pkgAuth.AdminGrant, error) {
	if s.err != nil {
		return pkgAuth.AdminGrant{}, s.err
	}
	return pkgAuth.GrantAdmin(pkgAuth.Principal{ID: uuid.New(), Email: "root@genesoft.internal"}, enums.RoleAdmin)
}

type stubExecutor struct {
	calls      int
	scope      *db.ElevatedScope
	createIn   admin.CreateUserInput
	usernameIn admin.UpdateUsernameInput
	outcome    admin.Outcome
	user       *types.UserHandle
}

func (s *stubExecutor) CreateUser(_ context.Context, scope *db.ElevatedScope, input admin.CreateUserInput) admin.CreateUserOutcome {
	s.calls++
	s.scope = scope
	s.createIn = input
	return admin.CreateUserOutcome{Outcome: s.outcome, User: s.user}
}

func (s *stubExecutor) UpdateUsername(_ context.Context, scope *db.ElevatedScope, input admin.UpdateUsernameInput) admin.Outcome {
	s.calls++
	s.scope = scope
	s.usernameIn = input
	return s.outcome
}

func (s *stubExecutor) UpdatePassword(_ context.Context, scope *db.ElevatedScope, _ admin.UpdatePasswordInput) admin.Outcome {
	s.calls++
	s.scope = scope
	return s.outcome
}

func (s *stubExecutor) DeleteUser(_ context.Context, scope *db.ElevatedScope, _ admin.DeleteUserInput) admin.Outcome {
	s.calls++
	s.scope = scope
	return s.outcome
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: "debug", Output: io.Discard})
}

func doAdmin(t *testing.T, handler http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/admin/x", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminCreateUser(t *testing.T) {
	client := dbtest.New(t)
	okOutcome := admin.Outcome{Primary: admin.StepResult{Attempted: true}, Secondary: admin.StepResult{Attempted: true}}

	t.Run("unauthenticated before body validation", func(t *testing.T) {
		exec := &stubExecutor{}
		deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized")}, DB: client, Executor: exec, Logger: testLogger()}
		rec := doAdmin(t, AdminCreateUser(deps), http.MethodPost, `not json`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if exec.calls != 0 {
			t.Fatal("executor must not run")
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		exec := &stubExecutor{}
		deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{err: pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")}, DB: client, Executor: exec, Logger: testLogger()}
		rec := doAdmin(t, AdminCreateUser(deps), http.MethodPost, `{}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("success body", func(t *testing.T) {
		id := uuid.NewString()
		exec := &stubExecutor{outcome: okOutcome, user: &types.UserHandle{ID: id, Email: "jane@genesoft.internal"}}
		deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{}, DB: client, Executor: exec, Logger: testLogger()}
		rec := doAdmin(t, AdminCreateUser(deps), http.MethodPost, `{"email":"jane","password":"pw","fullName":"Jane","companyName":"Acme"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Success bool `json:"success"`
			User    struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.Success || body.User.ID != id || body.User.Email != "jane@genesoft.internal" {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
		if exec.scope == nil || exec.scope.Grant().Actor() == nil {
			t.Fatal("expected an elevated scope carrying the admin")
		}
		if exec.createIn.CompanyName == nil || *exec.createIn.CompanyName != "Acme" {
			t.Fatalf("expected companyName forwarded, got %+v", exec.createIn)
		}
	})

	t.Run("secondary failure still succeeds", func(t *testing.T) {
		outcome := admin.Outcome{Primary: admin.StepResult{Attempted: true}, Secondary: admin.StepResult{Attempted: true, Err: errors.New("profile update failed")}}
		exec := &stubExecutor{outcome: outcome, user: &types.UserHandle{ID: uuid.NewString(), Email: "a@b.com"}}
		deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{}, DB: client, Executor: exec, Logger: testLogger()}
		rec := doAdmin(t, AdminCreateUser(deps), http.MethodPost, `{"email":"a@b.com","password":"pw","fullName":"A"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("provider error surfaces message only", func(t *testing.T) {
		msg := "a user with this email address has already been registered"
		cause := errors.New("pq: duplicate key value violates unique constraint")
		exec := &stubExecutor{outcome: admin.Outcome{Primary: admin.StepResult{Attempted: true, Err: pkgerrors.Wrap(pkgerrors.CodeProvider, cause, msg)}}}
		deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{}, DB: client, Executor: exec, Logger: testLogger()}
		rec := doAdmin(t, AdminCreateUser(deps), http.MethodPost, `{"email":"a@b.com","password":"pw","fullName":"A"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), msg) {
			t.Fatalf("expected provider message in body, got %s", rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "pq:") {
			t.Fatalf("provider internals leaked: %s", rec.Body.String())
		}
	})

	t.Run("validation error", func(t *testing.T) {
		exec := &stubExecutor{outcome: admin.Outcome{Primary: admin.StepResult{Err: pkgerrors.New(pkgerrors.CodeValidation, "email, password and fullName are required")}}}
		deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{}, DB: client, Executor: exec, Logger: testLogger()}
		rec := doAdmin(t, AdminCreateUser(deps), http.MethodPost, `{"email":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAdminUpdateUsername(t *testing.T) {
	client := dbtest.New(t)
	userID := uuid.NewString()
	exec := &stubExecutor{outcome: admin.Outcome{Primary: admin.StepResult{Attempted: true}, Secondary: admin.StepResult{Attempted: true}}}
	deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{}, DB: client, Executor: exec, Logger: testLogger()}

	rec := doAdmin(t, AdminUpdateUsername(deps), http.MethodPost, `{"userId":"`+userID+`","email":"newname"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if exec.usernameIn.UserID != userID || exec.usernameIn.Email != "newname" {
		t.Fatalf("unexpected input %+v", exec.usernameIn)
	}
	var body types.ActionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Message != "Username updated successfully" || body.User != nil {
		t.Fatalf("unexpected body %+v", body)
	}

	exec.outcome = admin.Outcome{Primary: admin.StepResult{Attempted: true, Err: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}}
	rec = doAdmin(t, AdminUpdateUsername(deps), http.MethodPost, `{"userId":"`+userID+`","email":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminPasswordAndDelete(t *testing.T) {
	client := dbtest.New(t)
	exec := &stubExecutor{outcome: admin.Outcome{Primary: admin.StepResult{Attempted: true}}}
	deps := AdminUsersDeps{Authorizer: stubAdminAuthorizer{}, DB: client, Executor: exec, Logger: testLogger()}

	rec := doAdmin(t, AdminUpdatePassword(deps), http.MethodPost, `{"userId":"`+uuid.NewString()+`","password":"new-secret"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Password updated successfully") {
		t.Fatalf("unexpected password response %d %s", rec.Code, rec.Body.String())
	}

	rec = doAdmin(t, AdminDeleteUser(deps), http.MethodDelete, `{"userId":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "User deleted successfully") {
		t.Fatalf("unexpected delete response %d %s", rec.Code, rec.Body.String())
	}
	if exec.calls != 2 {
		t.Fatalf("expected two executor calls, got %d", exec.calls)
	}
}
