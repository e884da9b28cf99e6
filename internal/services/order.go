package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	repository "github.com/akozlov/webstore/internal/repositories"
	"github.com/akozlov/webstore/pkg/sendgrid"
	"github.com/google/uuid"
)

type OrderService struct {
	repo        repository.OrderRepository
	cartRepo    repository.CartRepository
	variantRepo repository.VariantRepository
	userRepo    repository.UserRepository
	email       sendgrid.EmailService
}

func NewOrderService(repo repository.OrderRepository, cartRepo repository.CartRepository, variantRepo repository.VariantRepository, userRepo repository.UserRepository, email sendgrid.EmailService) *OrderService {
	return &OrderService{
		repo:        repo,
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		userRepo:    userRepo,
		email:       email,
	}
}

// CreateOrder walks the requested lines one by one: load the variant, check
// stock, snapshot the unit price and decrement the stock, then writes the
// order. The steps run sequentially without a cross-statement transaction,
// so concurrent orders can race on the same variant.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.OrderStatusPending,
	}

	for _, line := range req.Items {

		variant, err := s.variantRepo.GetVariantByID(ctx, line.ProductVariantID)
		if err != nil {
			return nil, errors.BadRequestError("Product variant not found: " + line.ProductVariantID.String()).WithError(err)
		}

		if variant.StockQuantity < line.Quantity {
			return nil, errors.BadRequestError("Insufficient stock for variant: " + line.ProductVariantID.String())
		}

		unitPrice := variant.Product.Price + variant.AdditionalPrice

		if err := s.variantRepo.UpdateStock(ctx, variant.ID, variant.StockQuantity-line.Quantity); err != nil {
			return nil, errors.DatabaseError("Failed to update inventory").WithError(err)
		}

		order.Items = append(order.Items, models.OrderItem{
			ID:               uuid.New(),
			OrderID:          order.ID,
			ProductVariantID: line.ProductVariantID,
			Quantity:         line.Quantity,
			PriceAtPurchase:  unitPrice,
		})

		order.TotalAmount += unitPrice * float64(line.Quantity)
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	s.clearCart(ctx, userID)
	s.sendConfirmation(ctx, userID, order)

	return order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, claims *models.Claims, id uuid.UUID) (*models.Order, error) {

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Order not found").WithError(err)
	}

	// someone else's order looks like a missing one
	if order.UserID != claims.UserID && !claims.IsAdmin() {
		return nil, errors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {

	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	err := s.repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {

		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to update order status").WithError(err)
	}

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch updated order").WithError(err)
	}

	return order, nil
}

// clearCart empties the user's cart after checkout. Failures are logged
// and swallowed, the order already exists.
func (s *OrderService) clearCart(ctx context.Context, userID uuid.UUID) {

	logger := middleware.LoggerFromContext(ctx)

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {

		if !stdErrors.Is(err, sql.ErrNoRows) {
			logger.Warn("Failed to load cart for clearing", slog.Any("error", err))
		}

		return
	}

	if err := s.cartRepo.ClearCart(ctx, cart.ID); err != nil {
		logger.Warn("Failed to clear cart after order", slog.Any("error", err))
	}
}

// sendConfirmation emails the buyer. Best effort only.
func (s *OrderService) sendConfirmation(ctx context.Context, userID uuid.UUID, order *models.Order) {

	if s.email == nil {
		return
	}

	logger := middleware.LoggerFromContext(ctx)

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load user for order confirmation email", slog.Any("error", err))
		return
	}

	req := &models.EmailRequest{
		To:      user.Email,
		ToName:  user.FullName,
		Subject: "Your order has been placed",
		Content: fmt.Sprintf("Hi %s,\n\nwe received your order %s for a total of %.2f. We will let you know once it ships.\n", user.FullName, order.ID, order.TotalAmount),
	}

	if err := s.email.Send(ctx, req); err != nil {
		logger.Warn("Failed to send order confirmation email", slog.String("orderId", order.ID.String()), slog.Any("error", err))
	}
}
