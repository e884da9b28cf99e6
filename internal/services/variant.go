package service

import (
	"context"
	"database/sql"
	stdErrors "errors"

	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	repository "github.com/akozlov/webstore/internal/repositories"
	"github.com/google/uuid"
)

type VariantService struct {
	repo        repository.VariantRepository
	productRepo repository.ProductRepository
}

func NewVariantService(repo repository.VariantRepository, productRepo repository.ProductRepository) *VariantService {
	return &VariantService{repo: repo, productRepo: productRepo}
}

func (s *VariantService) CreateVariant(ctx context.Context, productID uuid.UUID, req *models.VariantRequest) (*models.ProductVariant, error) {

	_, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	variant := &models.ProductVariant{
		ProductID:       productID,
		Size:            req.Size,
		Color:           req.Color,
		StockQuantity:   req.StockQuantity,
		AdditionalPrice: req.AdditionalPrice,
	}

	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, errors.DatabaseError("Failed to create product variant").WithError(err)
	}

	return variant, nil
}

func (s *VariantService) GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {

	variant, err := s.repo.GetVariantByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Product variant not found").WithError(err)
	}

	return variant, nil
}

func (s *VariantService) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {

	_, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	variants, err := s.repo.ListVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch product variants").WithError(err)
	}

	return variants, nil
}

func (s *VariantService) UpdateVariant(ctx context.Context, id uuid.UUID, req *models.VariantRequest) (*models.ProductVariant, error) {

	variant, err := s.repo.GetVariantByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Product variant not found").WithError(err)
	}

	variant.Size = req.Size
	variant.Color = req.Color
	variant.StockQuantity = req.StockQuantity
	variant.AdditionalPrice = req.AdditionalPrice

	if err := s.repo.UpdateVariant(ctx, variant); err != nil {
		return nil, errors.DatabaseError("Failed to update product variant").WithError(err)
	}

	return variant, nil
}

func (s *VariantService) DeleteVariant(ctx context.Context, id uuid.UUID) error {

	err := s.repo.DeleteVariant(ctx, id)
	if err != nil {

		if stdErrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("Product variant not found").WithError(err)
		}

		return errors.DatabaseError("Failed to delete product variant").WithError(err)
	}

	return nil
}
