package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/google/uuid"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO orders (id, user_id, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(dbCtx, query, order.ID, order.UserID, order.Status, order.TotalAmount).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {

		item := &order.Items[i]
		item.OrderID = order.ID

		query := `
			INSERT INTO order_items (id, order_id, product_variant_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4, $5)`

		_, err := r.DB.ExecContext(dbCtx, query, item.ID, item.OrderID, item.ProductVariantID, item.Quantity, item.PriceAtPurchase)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{ID: id}

	query := `
		SELECT user_id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	items, err := r.getOrderItems(dbCtx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, status, total_amount, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var order models.Order

		order.UserID = userID

		err := rows.Scan(&order.ID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, err
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {

		items, err := r.getOrderItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, err
		}

		orders[i].Items = items
	}

	return orders, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
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

func (r *orderRepository) getOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT oi.id, oi.product_variant_id, oi.quantity, oi.price_at_purchase,
		       p.name, v.size || ' / ' || v.color
		FROM order_items oi
		JOIN product_variants v ON oi.product_variant_id = v.id
		JOIN products p ON v.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {
		var item models.OrderItem

		item.OrderID = orderID

		err := rows.Scan(&item.ID, &item.ProductVariantID, &item.Quantity, &item.PriceAtPurchase, &item.ProductName, &item.VariantInfo)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
