package repository

import (
	"context"
	"database/sql"

	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/google/uuid"
)

type CartRepository interface {
	CreateCart(ctx context.Context, cart *models.Cart) error
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// GetCartLines returns the cart rows joined with variant and product,
	// priced at read time.
	GetCartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) CreateCart(ctx context.Context, cart *models.Cart) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO carts (user_id)
		VALUES ($1)
		RETURNING id`

	return r.DB.QueryRowContext(dbCtx, query, cart.UserID).Scan(&cart.ID)
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	cart := &models.Cart{}

	query := `SELECT id, user_id FROM carts WHERE user_id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(&cart.ID, &cart.UserID)
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepository) GetCartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT ci.id, ci.product_variant_id, p.name, v.size || ' / ' || v.color, ci.quantity,
		       p.price + v.additional_price
		FROM cart_items ci
		JOIN product_variants v ON ci.product_variant_id = v.id
		JOIN products p ON v.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`

	rows, err := r.DB.QueryContext(dbCtx, query, cartID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var lines []models.CartLine

	for rows.Next() {
		var line models.CartLine

		err := rows.Scan(&line.ID, &line.ProductVariantID, &line.ProductName, &line.VariantInfo, &line.Quantity, &line.UnitPrice)
		if err != nil {
			return nil, err
		}

		line.TotalPrice = line.UnitPrice * float64(line.Quantity)
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *cartRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	item := &models.CartItem{}

	query := `SELECT id, cart_id, product_variant_id, quantity FROM cart_items WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, itemID).Scan(&item.ID, &item.CartID, &item.ProductVariantID, &item.Quantity)
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *cartRepository) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	item := &models.CartItem{}

	query := `
		SELECT id, cart_id, product_variant_id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND product_variant_id = $2`

	err := r.DB.QueryRowContext(dbCtx, query, cartID, variantID).Scan(&item.ID, &item.CartID, &item.ProductVariantID, &item.Quantity)
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *cartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (cart_id, product_variant_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id`

	return r.DB.QueryRowContext(dbCtx, query, item.CartID, item.ProductVariantID, item.Quantity).Scan(&item.ID)
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE cart_items SET quantity = $1 WHERE id = $2`, quantity, itemID)
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

func (r *cartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE id = $1`, itemID)
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

func (r *cartRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	_, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)

	return err
}
