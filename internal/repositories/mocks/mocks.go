// Package mocks provides testify doubles for the repository interfaces.
package mocks

import (
	"context"

	"github.com/akozlov/webstore/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.User), args.Error(1)
}

func (m *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type RateLimitRepository struct {
	mock.Mock
}

func (m *RateLimitRepository) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	args := m.Called(ctx, username)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}

type CategoryRepository struct {
	mock.Mock
}

func (m *CategoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)

	return args.Error(0)
}

func (m *CategoryRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *CategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *CategoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)

	return args.Error(0)
}

func (m *CategoryRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *CategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)

	return args.Int(0), args.Error(1)
}

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)

	return args.Error(0)
}

func (m *ProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductRepository) ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error) {
	args := m.Called(ctx, page, size)

	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]models.Product), args.Int(1), args.Error(2)
}

func (m *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)

	return args.Error(0)
}

func (m *ProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type VariantRepository struct {
	mock.Mock
}

func (m *VariantRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	args := m.Called(ctx, variant)

	return args.Error(0)
}

func (m *VariantRepository) GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *VariantRepository) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	args := m.Called(ctx, productID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ProductVariant), args.Error(1)
}

func (m *VariantRepository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {
	args := m.Called(ctx, variant)

	return args.Error(0)
}

func (m *VariantRepository) UpdateStock(ctx context.Context, id uuid.UUID, stockQuantity int) error {
	args := m.Called(ctx, id, stockQuantity)

	return args.Error(0)
}

func (m *VariantRepository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) CreateCart(ctx context.Context, cart *models.Cart) error {
	args := m.Called(ctx, cart)

	return args.Error(0)
}

func (m *CartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartRepository) GetCartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	args := m.Called(ctx, cartID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.CartLine), args.Error(1)
}

func (m *CartRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	args := m.Called(ctx, itemID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *CartRepository) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	args := m.Called(ctx, cartID, variantID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *CartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	args := m.Called(ctx, item)

	return args.Error(0)
}

func (m *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	args := m.Called(ctx, itemID, quantity)

	return args.Error(0)
}

func (m *CartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)

	return args.Error(0)
}

func (m *CartRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)

	return args.Error(0)
}

func (m *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *OrderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	args := m.Called(ctx, id, status)

	return args.Error(0)
}

type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)

	return args.Error(0)
}

func (m *ReviewRepository) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *ReviewRepository) ListReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, productID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *ReviewRepository) ListReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *ReviewRepository) UpdateReview(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)

	return args.Error(0)
}

func (m *ReviewRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *ReviewRepository) HasUserReviewedProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)

	return args.Bool(0), args.Error(1)
}
