package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/akozlov/webstore/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type VariantService interface {
	CreateVariant(ctx context.Context, productID uuid.UUID, req *models.VariantRequest) (*models.ProductVariant, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, req *models.VariantRequest) (*models.ProductVariant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}

type VariantHandler struct {
	variantService VariantService
	validator      *validator.Validate
}

func NewVariantHandler(variantService VariantService) *VariantHandler {
	return &VariantHandler{variantService: variantService, validator: validator.New()}
}

func (h *VariantHandler) CreateVariant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		productID, err := pathUUID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.VariantRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		variant, err := h.variantService.CreateVariant(r.Context(), productID, &req)
		if err != nil {
			logger.Warn("Variant creation failed", slog.String("productId", productID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Variant created", slog.String("variantId", variant.ID.String()))
		response.Success(w, http.StatusCreated, variant)
	}
}

func (h *VariantHandler) GetVariant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		variant, err := h.variantService.GetVariantByID(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, variant)
	}
}

func (h *VariantHandler) ListVariants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		productID, err := pathUUID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		variants, err := h.variantService.ListVariantsByProduct(r.Context(), productID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, variants)
	}
}

func (h *VariantHandler) UpdateVariant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.VariantRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		variant, err := h.variantService.UpdateVariant(r.Context(), id, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, variant)
	}
}

func (h *VariantHandler) DeleteVariant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.variantService.DeleteVariant(r.Context(), id); err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Variant deleted", slog.String("variantId", id.String()))
		response.Success(w, http.StatusOK, map[string]string{"message": "Variant deleted"})
	}
}
