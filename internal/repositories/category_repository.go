package repository

import (
	"context"
	"database/sql"

	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/google/uuid"
)

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CountProducts(ctx context.Context, id uuid.UUID) (int, error)
}

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepo(db *sql.DB) CategoryRepository {
	return &categoryRepository{DB: db}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id`

	return r.DB.QueryRowContext(dbCtx, query, category.Name, category.Description).Scan(&category.ID)
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	category := &models.Category{}

	query := `SELECT id, name, description FROM categories WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&category.ID, &category.Name, &category.Description)
	if err != nil {
		return nil, err
	}

	return category, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var categories []models.Category

	for rows.Next() {
		var category models.Category

		if err := rows.Scan(&category.ID, &category.Name, &category.Description); err != nil {
			return nil, err
		}

		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE categories SET name = $1, description = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(dbCtx, query, category.Name, category.Description, category.ID)
	if err != nil {
		return err
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if updated == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if deleted == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *categoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var count int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
