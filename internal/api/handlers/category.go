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

type CategoryService interface {
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type CategoryHandler struct {
	categoryService CategoryService
	validator       *validator.Validate
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, validator: validator.New()}
}

func (h *CategoryHandler) CreateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateCategoryRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		category, err := h.categoryService.CreateCategory(r.Context(), &req)
		if err != nil {
			logger.Warn("Category creation failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Category created", slog.String("categoryId", category.ID.String()))
		response.Success(w, http.StatusCreated, category)
	}
}

func (h *CategoryHandler) GetCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		category, err := h.categoryService.GetCategoryByID(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, category)
	}
}

func (h *CategoryHandler) ListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		categories, err := h.categoryService.ListCategories(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, categories)
	}
}

func (h *CategoryHandler) UpdateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateCategoryRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		category, err := h.categoryService.UpdateCategory(r.Context(), id, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, category)
	}
}

func (h *CategoryHandler) DeleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.categoryService.DeleteCategory(r.Context(), id); err != nil {
			logger.Warn("Category deletion refused", slog.String("categoryId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Category deleted", slog.String("categoryId", id.String()))
		response.Success(w, http.StatusOK, map[string]string{"message": "Category deleted"})
	}
}
