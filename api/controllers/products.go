package controllers

import (
	"net/http"
	"strings"

	"github.com/genesoft/portal-backend/api/responses"
	"github.com/genesoft/portal-backend/api/validators"
	product "github.com/genesoft/portal-backend/internal/products"
	"github.com/genesoft/portal-backend/pkg/enums"
	"github.com/genesoft/portal-backend/pkg/logger"
)

type createProductRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Category     string  `json:"category" validate:"required,max=100"`
	SerialNumber string  `json:"serialNumber" validate:"required,max=100"`
	Model        string  `json:"model" validate:"max=100"`
	Status       *string `json:"status"`
}

type updateProductRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	Category     *string `json:"category" validate:"omitempty,max=100"`
	SerialNumber *string `json:"serialNumber" validate:"omitempty,max=100"`
	Model        *string `json:"model" validate:"omitempty,max=100"`
	Status       *string `json:"status"`
}

// ProductList handles GET /api/products?status=&category=&q=.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseProductStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListProducts(r.Context(), principal, product.ListFilters{
			Status:   status,
			Category: strings.TrimSpace(query.Get("category")),
			Query:    validators.SanitizeString(query.Get("q"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ProductCreate handles POST /api/products.
func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseOptionalEnum(optionalString(body.Status), "status", enums.ParseProductStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.CreateProductInput{
			Name:         validators.SanitizeString(body.Name, 200),
			Category:     validators.SanitizeString(body.Category, 100),
			SerialNumber: body.SerialNumber,
			Model:        body.Model,
		}
		if status != nil {
			input.Status = *status
		}

		created, err := svc.CreateProduct(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ProductUpdate handles PUT /api/products/{productId}.
func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseOptionalEnum(optionalString(body.Status), "status", enums.ParseProductStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), principal, productID, product.UpdateProductInput{
			Name:         body.Name,
			Category:     body.Category,
			SerialNumber: body.SerialNumber,
			Model:        body.Model,
			Status:       status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ProductDelete handles DELETE /api/products/{productId}.
func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), principal, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
