package repository

import (
	"context"
	"database/sql"

	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/google/uuid"
)

type VariantRepository interface {
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	// GetVariantByID loads the variant joined with its product, so callers
	// can price the line as product price + additional price.
	GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error)
	UpdateVariant(ctx context.Context, variant *models.ProductVariant) error
	UpdateStock(ctx context.Context, id uuid.UUID, stockQuantity int) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}

type variantRepository struct {
	DB *sql.DB
}

func NewVariantRepo(db *sql.DB) VariantRepository {
	return &variantRepository{DB: db}
}

func (r *variantRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO product_variants (product_id, size, color, stock_quantity, additional_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.DB.QueryRowContext(dbCtx, query, variant.ProductID, variant.Size, variant.Color, variant.StockQuantity, variant.AdditionalPrice).
		Scan(&variant.ID)
}

func (r *variantRepository) GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	variant := &models.ProductVariant{}
	product := &models.Product{}

	query := `
		SELECT v.id, v.product_id, v.size, v.color, v.stock_quantity, v.additional_price,
		       p.id, p.name, p.price
		FROM product_variants v
		JOIN products p ON v.product_id = p.id
		WHERE v.id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&variant.ID, &variant.ProductID, &variant.Size, &variant.Color, &variant.StockQuantity, &variant.AdditionalPrice,
		&product.ID, &product.Name, &product.Price)
	if err != nil {
		return nil, err
	}

	variant.Product = product

	return variant, nil
}

func (r *variantRepository) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, product_id, size, color, stock_quantity, additional_price
		FROM product_variants
		WHERE product_id = $1
		ORDER BY size, color`

	rows, err := r.DB.QueryContext(dbCtx, query, productID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var variants []models.ProductVariant

	for rows.Next() {
		var variant models.ProductVariant

		err := rows.Scan(&variant.ID, &variant.ProductID, &variant.Size, &variant.Color, &variant.StockQuantity, &variant.AdditionalPrice)
		if err != nil {
			return nil, err
		}

		variants = append(variants, variant)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *variantRepository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE product_variants
		SET size = $1, color = $2, stock_quantity = $3, additional_price = $4
		WHERE id = $5`

	result, err := r.DB.ExecContext(dbCtx, query, variant.Size, variant.Color, variant.StockQuantity, variant.AdditionalPrice, variant.ID)
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

func (r *variantRepository) UpdateStock(ctx context.Context, id uuid.UUID, stockQuantity int) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE product_variants SET stock_quantity = $1 WHERE id = $2`, stockQuantity, id)
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

func (r *variantRepository) DeleteVariant(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM product_variants WHERE id = $1`, id)
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
