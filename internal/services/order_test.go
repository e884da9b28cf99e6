package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/repositories/mocks"
	service "github.com/akozlov/webstore/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeEmailService struct {
	sent []*models.EmailRequest
}

func (f *fakeEmailService) Send(_ context.Context, req *models.EmailRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	variantID := uuid.New()

	variant := func(stock int) *models.ProductVariant {
		return &models.ProductVariant{
			ID:              variantID,
			ProductID:       uuid.New(),
			StockQuantity:   stock,
			AdditionalPrice: 2.50,
			Product:         &models.Product{Price: 10.00},
		}
	}

	t.Run("snapshots price, decrements stock and clears the cart", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil)

		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("GetVariantByID", ctx, variantID).Return(variant(3), nil)
		variantRepo.On("UpdateStock", ctx, variantID, 1).Return(nil)

		cart := &models.Cart{ID: uuid.New(), UserID: userID}
		cartRepo := new(mocks.CartRepository)
		cartRepo.On("GetCartByUserID", ctx, userID).Return(cart, nil)
		cartRepo.On("ClearCart", ctx, cart.ID).Return(nil)

		user := &models.User{ID: userID, Email: "shopper@example.com", FullName: "Avery Shopper"}
		userRepo := new(mocks.UserRepository)
		userRepo.On("GetUserByID", ctx, userID).Return(user, nil)

		email := &fakeEmailService{}

		svc := service.NewOrderService(orderRepo, cartRepo, variantRepo, userRepo, email)

		order, err := svc.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			Items: []models.OrderLineRequest{{ProductVariantID: variantID, Quantity: 2}},
		})

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		require.Len(t, order.Items, 1)
		assert.InDelta(t, 12.50, order.Items[0].PriceAtPurchase, 0.001)
		assert.InDelta(t, 25.00, order.TotalAmount, 0.001)

		variantRepo.AssertCalled(t, "UpdateStock", ctx, variantID, 1)
		cartRepo.AssertCalled(t, "ClearCart", ctx, cart.ID)

		require.Len(t, email.sent, 1)
		assert.Equal(t, user.Email, email.sent[0].To)
	})

	t.Run("insufficient stock fails without touching inventory", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)

		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("GetVariantByID", ctx, variantID).Return(variant(1), nil)

		svc := service.NewOrderService(orderRepo, new(mocks.CartRepository), variantRepo, new(mocks.UserRepository), nil)

		_, err := svc.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			Items: []models.OrderLineRequest{{ProductVariantID: variantID, Quantity: 2}},
		})

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeBadRequest, appErr.Code)

		variantRepo.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
		orderRepo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("unknown variant fails the order", func(t *testing.T) {
		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("GetVariantByID", ctx, variantID).Return(nil, sql.ErrNoRows)

		svc := service.NewOrderService(new(mocks.OrderRepository), new(mocks.CartRepository), variantRepo, new(mocks.UserRepository), nil)

		_, err := svc.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			Items: []models.OrderLineRequest{{ProductVariantID: variantID, Quantity: 1}},
		})

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeBadRequest, appErr.Code)
	})

	t.Run("order survives a cart clearing failure", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil)

		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("GetVariantByID", ctx, variantID).Return(variant(5), nil)
		variantRepo.On("UpdateStock", ctx, variantID, 4).Return(nil)

		cartRepo := new(mocks.CartRepository)
		cartRepo.On("GetCartByUserID", ctx, userID).Return(nil, sql.ErrNoRows)

		svc := service.NewOrderService(orderRepo, cartRepo, variantRepo, new(mocks.UserRepository), nil)

		order, err := svc.CreateOrder(ctx, userID, &models.CreateOrderRequest{
			Items: []models.OrderLineRequest{{ProductVariantID: variantID, Quantity: 1}},
		})

		require.NoError(t, err)
		assert.NotNil(t, order)
	})
}

func TestOrderService_SequentialOrdersDrainStock(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	variantID := uuid.New()

	stock := 3

	variantAt := func(stock int) *models.ProductVariant {
		return &models.ProductVariant{
			ID:            variantID,
			ProductID:     uuid.New(),
			StockQuantity: stock,
			Product:       &models.Product{Price: 10.00},
		}
	}

	variantRepo := new(mocks.VariantRepository)
	variantRepo.On("GetVariantByID", ctx, variantID).Return(variantAt(3), nil).Once()
	variantRepo.On("GetVariantByID", ctx, variantID).Return(variantAt(1), nil).Once()
	variantRepo.On("UpdateStock", ctx, variantID, mock.AnythingOfType("int")).Return(nil).Run(func(args mock.Arguments) {
		stock = args.Int(2)
	})

	orderRepo := new(mocks.OrderRepository)
	orderRepo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil)

	cartRepo := new(mocks.CartRepository)
	cartRepo.On("GetCartByUserID", ctx, userID).Return(nil, sql.ErrNoRows)

	svc := service.NewOrderService(orderRepo, cartRepo, variantRepo, new(mocks.UserRepository), nil)

	req := &models.CreateOrderRequest{Items: []models.OrderLineRequest{{ProductVariantID: variantID, Quantity: 2}}}

	first, err := svc.CreateOrder(ctx, userID, req)
	require.NoError(t, err)
	assert.InDelta(t, 20.00, first.TotalAmount, 0.001)
	assert.Equal(t, 1, stock)

	_, err = svc.CreateOrder(ctx, userID, req)
	require.Error(t, err)

	appErr, ok := errors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeBadRequest, appErr.Code)
	assert.Equal(t, 1, stock)
}

func TestOrderService_GetOrderByID(t *testing.T) {
	ctx := context.Background()

	owner := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: owner, Status: models.OrderStatusPending}

	t.Run("owner can read their order", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("GetOrderByID", ctx, order.ID).Return(order, nil)

		svc := service.NewOrderService(orderRepo, new(mocks.CartRepository), new(mocks.VariantRepository), new(mocks.UserRepository), nil)

		got, err := svc.GetOrderByID(ctx, &models.Claims{UserID: owner, Role: models.RoleUser}, order.ID)

		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("someone else's order looks missing", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("GetOrderByID", ctx, order.ID).Return(order, nil)

		svc := service.NewOrderService(orderRepo, new(mocks.CartRepository), new(mocks.VariantRepository), new(mocks.UserRepository), nil)

		_, err := svc.GetOrderByID(ctx, &models.Claims{UserID: uuid.New(), Role: models.RoleUser}, order.ID)

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("admin can read any order", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("GetOrderByID", ctx, order.ID).Return(order, nil)

		svc := service.NewOrderService(orderRepo, new(mocks.CartRepository), new(mocks.VariantRepository), new(mocks.UserRepository), nil)

		got, err := svc.GetOrderByID(ctx, &models.Claims{UserID: uuid.New(), Role: models.RoleAdmin}, order.ID)

		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("updates and returns the fresh order", func(t *testing.T) {
		updated := &models.Order{ID: orderID, Status: models.OrderStatusShipping}

		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("UpdateOrderStatus", ctx, orderID, models.OrderStatusShipping).Return(nil)
		orderRepo.On("GetOrderByID", ctx, orderID).Return(updated, nil)

		svc := service.NewOrderService(orderRepo, new(mocks.CartRepository), new(mocks.VariantRepository), new(mocks.UserRepository), nil)

		got, err := svc.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipping)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipping, got.Status)
	})

	t.Run("missing order maps to not found", func(t *testing.T) {
		orderRepo := new(mocks.OrderRepository)
		orderRepo.On("UpdateOrderStatus", ctx, orderID, models.OrderStatusShipping).Return(sql.ErrNoRows)

		svc := service.NewOrderService(orderRepo, new(mocks.CartRepository), new(mocks.VariantRepository), new(mocks.UserRepository), nil)

		_, err := svc.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipping)

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	})
}
