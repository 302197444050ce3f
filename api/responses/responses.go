// Package responses writes the JSON bodies the API returns: {"data": ...} on
// success, {"error": {...}} on failure, and the fixed admin action bodies.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteActionResult writes the {success, message|user} body of the admin
// identity endpoints.
func WriteActionResult(w http.ResponseWriter, result types.ActionResult) {
	result.Success = true
	WriteJSON(w, http.StatusOK, result)
}

// PublicError maps err onto the status and body a caller may see. Messages
// and details of codes that keep them private are replaced; the wrapped
// cause never leaves the process.
func PublicError(err error) (int, types.APIError) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	body := types.APIError{Code: string(typed.Code()), Message: meta.PublicMessage}
	if m := typed.Message(); meta.MessagePublic && m != "" {
		body.Message = m
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}
	return meta.HTTPStatus, body
}

// WriteError logs err with its full chain (error level for 5xx, warn
// otherwise) and writes the public envelope.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	status, body := PublicError(err)

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if status >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	WriteJSON(w, status, types.ErrorEnvelope{Error: body})
}

// WriteJSON marks every body uncacheable; responses carry per-user data.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"encode response","err":%q}`, err.Error())
	}
}
