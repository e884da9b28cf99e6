package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/akozlov/webstore/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID, productID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error)
	GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	UpdateReview(ctx context.Context, userID, id uuid.UUID, req *models.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, userID, id uuid.UUID) error
	CanUserReview(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type ReviewHandler struct {
	reviewService ReviewService
	validator     *validator.Validate
}

func NewReviewHandler(reviewService ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, validator: validator.New()}
}

func (h *ReviewHandler) CreateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.CreateReviewRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		review, err := h.reviewService.CreateReview(r.Context(), claims.UserID, productID, &req)
		if err != nil {
			logger.Warn("Review creation failed", slog.String("productId", productID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Review created", slog.String("reviewId", review.ID.String()))
		response.Success(w, http.StatusCreated, review)
	}
}

func (h *ReviewHandler) GetReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		review, err := h.reviewService.GetReviewByID(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, review)
	}
}

func (h *ReviewHandler) ListReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		productID, err := pathUUID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		reviews, err := h.reviewService.ListReviewsByProduct(r.Context(), productID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, reviews)
	}
}

func (h *ReviewHandler) UpdateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateReviewRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		review, err := h.reviewService.UpdateReview(r.Context(), claims.UserID, id, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, review)
	}
}

func (h *ReviewHandler) DeleteReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.reviewService.DeleteReview(r.Context(), claims.UserID, id); err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Review deleted", slog.String("reviewId", id.String()))
		response.Success(w, http.StatusOK, map[string]string{"message": "Review deleted"})
	}
}

func (h *ReviewHandler) CanReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		canReview, err := h.reviewService.CanUserReview(r.Context(), claims.UserID, productID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.CanReviewResponse{CanReview: canReview})
	}
}
