package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/genesoft/portal-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter. A missing value yields
// def; anything outside [min, max] is a validation error.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").
			WithDetails(map[string]any{"field": key})
	case n < min || n > max:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return n, nil
}

// ParseQueryEnum reads an optional enum query parameter.
func ParseQueryEnum[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	return ParseOptionalEnum(r.URL.Query().Get(key), key, parse)
}

// ParseOptionalEnum returns nil for a blank value and a validation error
// naming field when parse rejects it.
func ParseOptionalEnum[T any](raw, field string, parse func(string) (T, error)) (*T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return &v, nil
}
