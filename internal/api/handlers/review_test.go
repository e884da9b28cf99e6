package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akozlov/webstore/internal/api/handlers"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewHandler_CreateReview(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	payload := map[string]any{"rating": 4, "comment": "Solid shoe"}

	t.Run("creates a review", func(t *testing.T) {
		review := &models.Review{ID: uuid.New(), UserID: userID, ProductID: productID, Rating: 4, Comment: "Solid shoe"}

		svc := new(mocks.ReviewService)
		svc.On("CreateReview", mock.Anything, userID, productID, mock.AnythingOfType("*models.CreateReviewRequest")).Return(review, nil)

		h := handlers.NewReviewHandler(svc)

		req := withClaims(testRequest(t, http.MethodPost, "/api/products/"+productID.String()+"/reviews", payload), userClaims(userID))
		req.SetPathValue("productId", productID.String())
		rec := httptest.NewRecorder()

		h.CreateReview()(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var got models.Review
		decodeData(t, decodeResponse(t, rec), &got)
		assert.Equal(t, 4, got.Rating)
	})

	t.Run("duplicate review maps to 409", func(t *testing.T) {
		svc := new(mocks.ReviewService)
		svc.On("CreateReview", mock.Anything, userID, productID, mock.AnythingOfType("*models.CreateReviewRequest")).
			Return(nil, errors.ConflictError("You have already reviewed this product"))

		h := handlers.NewReviewHandler(svc)

		req := withClaims(testRequest(t, http.MethodPost, "/api/products/"+productID.String()+"/reviews", payload), userClaims(userID))
		req.SetPathValue("productId", productID.String())
		rec := httptest.NewRecorder()

		h.CreateReview()(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, errors.ErrCodeConflict, resp.Error.Code)
	})

	t.Run("rejects an out-of-range rating", func(t *testing.T) {
		svc := new(mocks.ReviewService)
		h := handlers.NewReviewHandler(svc)

		req := withClaims(testRequest(t, http.MethodPost, "/api/products/"+productID.String()+"/reviews", map[string]any{"rating": 6}), userClaims(userID))
		req.SetPathValue("productId", productID.String())
		rec := httptest.NewRecorder()

		h.CreateReview()(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReviewHandler_ListReviews(t *testing.T) {
	productID := uuid.New()

	reviews := []models.Review{{ID: uuid.New(), ProductID: productID, Rating: 5}}

	svc := new(mocks.ReviewService)
	svc.On("ListReviewsByProduct", mock.Anything, productID).Return(reviews, nil)

	h := handlers.NewReviewHandler(svc)

	req := testRequest(t, http.MethodGet, "/api/products/"+productID.String()+"/reviews", nil)
	req.SetPathValue("productId", productID.String())
	rec := httptest.NewRecorder()

	h.ListReviews()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []models.Review
	decodeData(t, decodeResponse(t, rec), &got)
	assert.Len(t, got, 1)
}

func TestReviewHandler_CanReview(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	svc := new(mocks.ReviewService)
	svc.On("CanUserReview", mock.Anything, userID, productID).Return(false, nil)

	h := handlers.NewReviewHandler(svc)

	req := withClaims(testRequest(t, http.MethodGet, "/api/products/"+productID.String()+"/reviews/can-review", nil), userClaims(userID))
	req.SetPathValue("productId", productID.String())
	rec := httptest.NewRecorder()

	h.CanReview()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got models.CanReviewResponse
	decodeData(t, decodeResponse(t, rec), &got)
	assert.False(t, got.CanReview)
}

func TestReviewHandler_DeleteReview(t *testing.T) {
	userID := uuid.New()
	reviewID := uuid.New()

	t.Run("author can delete", func(t *testing.T) {
		svc := new(mocks.ReviewService)
		svc.On("DeleteReview", mock.Anything, userID, reviewID).Return(nil)

		h := handlers.NewReviewHandler(svc)

		req := withClaims(testRequest(t, http.MethodDelete, "/api/reviews/"+reviewID.String(), nil), userClaims(userID))
		req.SetPathValue("id", reviewID.String())
		rec := httptest.NewRecorder()

		h.DeleteReview()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("foreign review maps to 404", func(t *testing.T) {
		svc := new(mocks.ReviewService)
		svc.On("DeleteReview", mock.Anything, userID, reviewID).Return(errors.NotFoundError("Review not found"))

		h := handlers.NewReviewHandler(svc)

		req := withClaims(testRequest(t, http.MethodDelete, "/api/reviews/"+reviewID.String(), nil), userClaims(userID))
		req.SetPathValue("id", reviewID.String())
		rec := httptest.NewRecorder()

		h.DeleteReview()(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
