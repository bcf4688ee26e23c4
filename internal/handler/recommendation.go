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

// RecommendationHandler manages the recommendation routes.
type RecommendationHandler struct {
	recs     *service.RecommendationService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(recs *service.RecommendationService, validate *validation.Validator, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recs:     recs,
		validate: validate,
		logger:   logger,
	}
}

// createRecommendationRequest is the POST /recommendation body.
type createRecommendationRequest struct {
	QueryID                    string `json:"queryId" validate:"required"`
	RecommendationTitle        string `json:"recommendationTitle" validate:"required,max=200"`
	RecommendedProductName     string `json:"recommendedProductName" validate:"max=200"`
	RecommendedProductImageURL string `json:"recommendedProductImageURL" validate:"omitempty,url"`
	RecommendationReason       string `json:"recommendationReason" validate:"max=5000"`
	RecommendationEmail        string `json:"recommendationEmail" validate:"required,email"`
	RecommenderName            string `json:"recommenderName" validate:"max=100"`
}

// HandleCreate attaches a recommendation to a query. The service enforces
// the self-recommendation rule and the counter pairing; a failure of either
// leaves the store untouched.
//
// HTTP: POST /recommendation
func (h *RecommendationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid recommendation JSON", slog.String("error", err.Error()))
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

	rec := &model.Recommendation{
		QueryID:                    req.QueryID,
		RecommendationTitle:        req.RecommendationTitle,
		RecommendedProductName:     req.RecommendedProductName,
		RecommendedProductImageURL: req.RecommendedProductImageURL,
		RecommendationReason:       req.RecommendationReason,
		RecommendationEmail:        req.RecommendationEmail,
		RecommenderName:            req.RecommenderName,
		CreatedAt:                  time.Now(),
	}

	created, err := h.recs.Create(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleListAll returns every recommendation.
//
// HTTP: GET /recommendation
func (h *RecommendationHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recs.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleMine returns the recommendations the authenticated user has written.
//
// HTTP: GET /my-recommendation/{email}
// Auth: RequireAuth + owner check in the service.
func (h *RecommendationHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	recs, err := h.recs.ListByAuthor(r.Context(), r.PathValue("email"), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleForMe returns the recommendations other users attached to the
// authenticated user's queries.
//
// HTTP: GET /recommendations-for-me/{email}
// Auth: RequireAuth + owner check in the service.
func (h *RecommendationHandler) HandleForMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	recs, err := h.recs.ListForOwnersQueries(r.Context(), r.PathValue("email"), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleForQuery returns the recommendations attached to one query.
//
// HTTP: GET /recommendations/{queryId}
func (h *RecommendationHandler) HandleForQuery(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recs.ListForQuery(r.Context(), r.PathValue("queryId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleDelete removes a recommendation; the parent query's counter is
// decremented in the same store transaction.
//
// HTTP: DELETE /my-recommendation-delete/{id}
func (h *RecommendationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.recs.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
