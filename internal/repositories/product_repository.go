package repository

import (
	"context"
	"database/sql"

	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/google/uuid"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (category_id, name, description, price, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	return r.DB.QueryRowContext(dbCtx, query, product.CategoryID, product.Name, product.Description, product.Price, product.ImagePath).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}
	category := &models.Category{}

	query := `
		SELECT p.id, p.category_id, p.name, p.description, p.price, p.image_path, p.created_at, p.updated_at,
		       c.id, c.name, c.description
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&product.ID, &product.CategoryID, &product.Name, &product.Description, &product.Price,
		&product.ImagePath, &product.CreatedAt, &product.UpdatedAt,
		&category.ID, &category.Name, &category.Description)
	if err != nil {
		return nil, err
	}

	product.Category = category

	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT p.id, p.category_id, p.name, p.description, p.price, p.image_path, p.created_at, p.updated_at,
		       c.id, c.name, c.description
		FROM products p
		JOIN categories c ON p.category_id = c.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(dbCtx, query, size, offset)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	var products []models.Product

	for rows.Next() {
		var product models.Product

		category := &models.Category{}

		err := rows.Scan(
			&product.ID, &product.CategoryID, &product.Name, &product.Description, &product.Price,
			&product.ImagePath, &product.CreatedAt, &product.UpdatedAt,
			&category.ID, &category.Name, &category.Description)
		if err != nil {
			return nil, 0, err
		}

		product.Category = category
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, price = $4, image_path = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`

	return r.DB.QueryRowContext(dbCtx, query, product.CategoryID, product.Name, product.Description, product.Price, product.ImagePath, product.ID).
		Scan(&product.UpdatedAt)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM products WHERE id = $1`, id)
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
