// Package mocks provides testify doubles for the service interfaces the
// handlers consume.
package mocks

import (
	"context"
	"mime/multipart"

	"github.com/akozlov/webstore/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type UserService struct {
	mock.Mock
}

func (m *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *UserService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)

	return args.Bool(0), args.Error(1)
}

func (m *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserService) GetUserWithDetails(ctx context.Context, id uuid.UUID) (*models.UserWithDetails, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.UserWithDetails), args.Error(1)
}

func (m *UserService) ListUserOrders(ctx context.Context, id uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *UserService) ListUserReviews(ctx context.Context, id uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.User), args.Error(1)
}

func (m *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, id, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *UserService) ChangeRole(ctx context.Context, id uuid.UUID, req *models.ChangeRoleRequest) (*models.User, error) {
	args := m.Called(ctx, id, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

type CategoryService struct {
	mock.Mock
}

func (m *CategoryService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *CategoryService) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, id, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type ProductService struct {
	mock.Mock
}

func (m *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {
	args := m.Called(ctx, req, file, header)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductService) ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error) {
	args := m.Called(ctx, page, size)

	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]models.Product), args.Int(1), args.Error(2)
}

func (m *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {
	args := m.Called(ctx, id, req, file, header)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type VariantService struct {
	mock.Mock
}

func (m *VariantService) CreateVariant(ctx context.Context, productID uuid.UUID, req *models.VariantRequest) (*models.ProductVariant, error) {
	args := m.Called(ctx, productID, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *VariantService) GetVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *VariantService) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	args := m.Called(ctx, productID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ProductVariant), args.Error(1)
}

func (m *VariantService) UpdateVariant(ctx context.Context, id uuid.UUID, req *models.VariantRequest) (*models.ProductVariant, error) {
	args := m.Called(ctx, id, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *VariantService) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type CartService struct {
	mock.Mock
}

func (m *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartResponse, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartResponse), args.Error(1)
}

func (m *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartResponse, error) {
	args := m.Called(ctx, userID, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartResponse), args.Error(1)
}

func (m *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartResponse, error) {
	args := m.Called(ctx, userID, itemID, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartResponse), args.Error(1)
}

func (m *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartResponse, error) {
	args := m.Called(ctx, userID, itemID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartResponse), args.Error(1)
}

type OrderService struct {
	mock.Mock
}

func (m *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
	args := m.Called(ctx, userID, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderService) GetOrderByID(ctx context.Context, claims *models.Claims, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, claims, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, id, status)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

type ReviewService struct {
	mock.Mock
}

func (m *ReviewService) CreateReview(ctx context.Context, userID, productID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error) {
	args := m.Called(ctx, userID, productID, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *ReviewService) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *ReviewService) ListReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, productID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *ReviewService) UpdateReview(ctx context.Context, userID, id uuid.UUID, req *models.UpdateReviewRequest) (*models.Review, error) {
	args := m.Called(ctx, userID, id, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *ReviewService) DeleteReview(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)

	return args.Error(0)
}

func (m *ReviewService) CanUserReview(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)

	return args.Bool(0), args.Error(1)
}
