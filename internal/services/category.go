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

type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.repo.CreateCategory(ctx, category)
	if err != nil {

		if repository.IsUniqueViolation(err) {
			return nil, errors.DuplicateEntryError("Category already exists")
		}

		return nil, errors.DatabaseError("Failed to create category").WithError(err)
	}

	return category, nil
}

func (s *CategoryService) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {

	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Category not found").WithError(err)
	}

	return category, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch categories").WithError(err)
	}

	return categories, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error) {

	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Category not found").WithError(err)
	}

	if req.Name != nil {
		category.Name = *req.Name
	}

	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, errors.DatabaseError("Failed to update category").WithError(err)
	}

	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {

	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return errors.DatabaseError("Failed to check category usage").WithError(err)
	}

	if count > 0 {
		return errors.ConflictError("Cannot delete a category that still has products")
	}

	err = s.repo.DeleteCategory(ctx, id)
	if err != nil {

		if stdErrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("Category not found").WithError(err)
		}

		return errors.DatabaseError("Failed to delete category").WithError(err)
	}

	return nil
}
