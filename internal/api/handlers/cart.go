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

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartResponse, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartResponse, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartResponse, error)
}

type CartHandler struct {
	cartService CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddCartItemRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Warn("Adding cart item failed", slog.String("variantId", req.ProductVariantID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateCartItemRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.UpdateItem(r.Context(), claims.UserID, itemID, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), claims.UserID, itemID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}
