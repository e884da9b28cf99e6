package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"log/slog"
	"mime/multipart"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/cache"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	repository "github.com/akozlov/webstore/internal/repositories"
	"github.com/akozlov/webstore/internal/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        cache.Cache
	images       storage.ImageStore
	baseURL      string
	sanitizer    *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository, cache cache.Cache, images storage.ImageStore, baseURL string) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
		cache:        cache,
		images:       images,
		baseURL:      baseURL,
		sanitizer:    bluemonday.UGCPolicy(),
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {

	_, err := s.categoryRepo.GetCategoryByID(ctx, req.CategoryID)
	if err != nil {
		return nil, errors.NotFoundError("Category not found").WithError(err)
	}

	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: s.sanitizer.Sanitize(req.Description),
		Price:       req.Price,
	}

	if file != nil {

		relPath, err := s.images.Save(file, header)
		if err != nil {
			return nil, errors.BadRequestError("Failed to store product image").WithError(err)
		}

		product.ImagePath = relPath
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	product.ImageURL = s.images.URL(s.baseURL, product.ImagePath)

	return product, nil
}

func (s *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)
	cacheKey := cache.Key(cache.ProductKeyPrefix, id.String())

	cached := &models.Product{}

	hit, err := s.cache.Get(ctx, cacheKey, cached)
	if err != nil {
		logger.Warn("Product cache read failed", slog.String("key", cacheKey), slog.Any("error", err))
	}

	if hit {
		return cached, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	product.ImageURL = s.images.URL(s.baseURL, product.ImagePath)

	if err := s.cache.Set(ctx, cacheKey, product, 0); err != nil {
		logger.Warn("Product cache write failed", slog.String("key", cacheKey), slog.Any("error", err))
	}

	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 50 {
		size = 20
	}

	products, total, err := s.repo.ListProducts(ctx, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch products").WithError(err)
	}

	for i := range products {
		products[i].ImageURL = s.images.URL(s.baseURL, products[i].ImagePath)
	}

	return products, total, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	if req.CategoryID != nil {

		_, err := s.categoryRepo.GetCategoryByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, errors.NotFoundError("Category not found").WithError(err)
		}

		product.CategoryID = *req.CategoryID
	}

	if req.Name != nil {
		product.Name = *req.Name
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if file != nil {

		oldImage := product.ImagePath

		relPath, err := s.images.Save(file, header)
		if err != nil {
			return nil, errors.BadRequestError("Failed to store product image").WithError(err)
		}

		product.ImagePath = relPath

		if err := s.images.Delete(oldImage); err != nil {
			middleware.LoggerFromContext(ctx).Warn("Failed to remove replaced product image", slog.String("path", oldImage), slog.Any("error", err))
		}
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to update product").WithError(err)
	}

	s.invalidate(ctx, id)

	product.ImageURL = s.images.URL(s.baseURL, product.ImagePath)

	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return errors.NotFoundError("Product not found").WithError(err)
	}

	err = s.repo.DeleteProduct(ctx, id)
	if err != nil {

		if stdErrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("Product not found").WithError(err)
		}

		return errors.DatabaseError("Failed to delete product").WithError(err)
	}

	if err := s.images.Delete(product.ImagePath); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to remove product image", slog.String("path", product.ImagePath), slog.Any("error", err))
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id uuid.UUID) {

	cacheKey := cache.Key(cache.ProductKeyPrefix, id.String())

	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Product cache invalidation failed", slog.String("key", cacheKey), slog.Any("error", err))
	}
}
