// Package handler contains the HTTP layer: request decoding, validation,
// and response writing. Handlers never touch the store directly; they call
// services and translate the result.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nahid/queryhive-server/internal/auth"
	"github.com/nahid/queryhive-server/internal/model"
	"github.com/nahid/queryhive-server/internal/service"
	"github.com/nahid/queryhive-server/internal/validation"
)

// QueryHandler manages the boycott-query routes.
type QueryHandler struct {
	queries  *service.QueryService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(queries *service.QueryService, validate *validation.Validator, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		queries:  queries,
		validate: validate,
		logger:   logger,
	}
}

// createQueryRequest is the POST /add-query body. The validate tags are the
// schema this API enforces; the app it replaces inserted whatever arrived.
type createQueryRequest struct {
	UserEmail               string    `json:"userEmail" validate:"required,email"`
	UserName                string    `json:"userName" validate:"max=100"`
	QueryTitle              string    `json:"queryTitle" validate:"required,max=200"`
	ProductName             string    `json:"productName" validate:"required,max=200"`
	ProductBrand            string    `json:"productBrand" validate:"max=200"`
	ProductImageURL         string    `json:"productImageURL" validate:"omitempty,url"`
	BoycottingReasonDetails string    `json:"boycottingReasonDetails" validate:"max=5000"`
	Timestamp               time.Time `json:"timestamp"`
}

// HandleRecent returns the newest queries, capped at the configured limit.
//
// HTTP: GET /recent-queries
func (h *QueryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	queries, err := h.queries.ListRecent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

// HandleAll returns every query, newest first.
//
// HTTP: GET /all-queries
func (h *QueryHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	queries, err := h.queries.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

// HandleMine returns the authenticated user's queries.
//
// HTTP: GET /my-queries?email=...  and  GET /my-queries/{email}
// Auth: RequireAuth; the service additionally checks the requested email
// against the identity (403 on mismatch).
//
// Both shapes existed across client versions, so both are routed here; the
// path parameter wins when present.
func (h *QueryHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		email = r.URL.Query().Get("email")
	}

	identity, _ := auth.IdentityFromContext(r.Context())

	queries, err := h.queries.ListByOwner(r.Context(), email, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

// HandleDetails returns a single query, 404 when absent.
//
// HTTP: GET /details/{id}
func (h *QueryHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	query, err := h.queries.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, query)
}

// HandleCreate creates a query.
//
// HTTP: POST /add-query
func (h *QueryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid query JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.validate.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	query := &model.Query{
		UserEmail:               req.UserEmail,
		UserName:                req.UserName,
		QueryTitle:              req.QueryTitle,
		ProductName:             req.ProductName,
		ProductBrand:            req.ProductBrand,
		ProductImageURL:         req.ProductImageURL,
		BoycottingReasonDetails: req.BoycottingReasonDetails,
		Timestamp:               req.Timestamp,
	}

	created, err := h.queries.Create(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate applies the whitelisted mutable fields to a query, creating
// it when absent (upsert). Decoding into model.QueryUpdate IS the
// whitelist: fields outside it are silently dropped, and the counter and
// owner can't be expressed at all.
//
// HTTP: PUT /update/{id}
func (h *QueryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var upd model.QueryUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.Warn("invalid query update JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	updated, err := h.queries.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes a query and its recommendations.
//
// HTTP: DELETE /my-queries-delete/{id}
// Auth: RequireAuth + owner check in the service.
func (h *QueryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.queries.Delete(r.Context(), r.PathValue("id"), identity); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
