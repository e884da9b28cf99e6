package handlers

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/akozlov/webstore/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20 // 10 MiB

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest, file multipart.File, header *multipart.FileHeader) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest, file multipart.File, header *multipart.FileHeader) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ProductHandler struct {
	productService ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			response.Error(w, errors.BadRequestError("Invalid multipart form").WithError(err))
			return
		}

		categoryID, err := uuid.Parse(r.FormValue("category_id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid category_id").WithError(err))
			return
		}

		price, err := strconv.ParseFloat(r.FormValue("price"), 64)
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid price").WithError(err))
			return
		}

		req := models.CreateProductRequest{
			CategoryID:  categoryID,
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Price:       price,
		}

		if !utils.ValidateRequest(w, &req, h.validator) {
			return
		}

		file, header := formImage(r)
		if file != nil {
			defer file.Close()
		}

		product, err := h.productService.CreateProduct(r.Context(), &req, file, header)
		if err != nil {
			logger.Warn("Product creation failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product created", slog.String("productId", product.ID.String()))
		response.Success(w, http.StatusCreated, product)
	}
}

func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		product, err := h.productService.GetProductByID(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		page := queryInt(r, "page", 1)
		size := queryInt(r, "size", defaultPageSize)

		products, total, err := h.productService.ListProducts(r.Context(), page, size)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]any{
			"products": products,
			"total":    total,
			"page":     page,
			"size":     size,
		})
	}
}

func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			response.Error(w, errors.BadRequestError("Invalid multipart form").WithError(err))
			return
		}

		var req models.UpdateProductRequest

		if v, ok := formField(r, "category_id"); ok {

			categoryID, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, errors.BadRequestError("Invalid category_id").WithError(err))
				return
			}

			req.CategoryID = &categoryID
		}

		if v, ok := formField(r, "name"); ok {
			req.Name = &v
		}

		if v, ok := formField(r, "description"); ok {
			req.Description = &v
		}

		if v, ok := formField(r, "price"); ok {

			price, err := strconv.ParseFloat(v, 64)
			if err != nil {
				response.Error(w, errors.BadRequestError("Invalid price").WithError(err))
				return
			}

			req.Price = &price
		}

		if !utils.ValidateRequest(w, &req, h.validator) {
			return
		}

		file, header := formImage(r)
		if file != nil {
			defer file.Close()
		}

		product, err := h.productService.UpdateProduct(r.Context(), id, &req, file, header)
		if err != nil {
			logger.Warn("Product update failed", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product updated", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) DeleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Product deleted", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, map[string]string{"message": "Product deleted"})
	}
}

// formField reports whether the multipart form carried the field at all,
// so absent and empty values can be told apart on partial updates.
func formField(r *http.Request, name string) (string, bool) {

	if r.MultipartForm == nil {
		return "", false
	}

	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

// formImage extracts the optional image upload. A missing file is fine.
func formImage(r *http.Request) (multipart.File, *multipart.FileHeader) {

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, nil
	}

	return file, header
}
