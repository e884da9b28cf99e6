package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"testing"
	"time"

	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/repositories/mocks"
	service "github.com/akozlov/webstore/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memCache keeps entries in a map so cache behavior is observable without
// a Redis server.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, value any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(raw, value)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.entries[key] = raw

	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *memCache) Close() error {
	return nil
}

// nopImageStore records deletions and never touches the disk.
type nopImageStore struct {
	deleted []string
}

func (s *nopImageStore) Save(_ multipart.File, _ *multipart.FileHeader) (string, error) {
	return "products/" + uuid.NewString() + ".jpg", nil
}

func (s *nopImageStore) Delete(relPath string) error {
	s.deleted = append(s.deleted, relPath)
	return nil
}

func (s *nopImageStore) URL(baseURL, relPath string) string {
	if relPath == "" {
		return ""
	}

	return baseURL + "/uploads/" + relPath
}

func (s *nopImageStore) Dir() string {
	return ""
}

const testBaseURL = "http://localhost:8082"

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	categoryID := uuid.New()
	category := &models.Category{ID: categoryID, Name: "Shoes"}

	t.Run("creates a product with sanitized description", func(t *testing.T) {
		categoryRepo := new(mocks.CategoryRepository)
		categoryRepo.On("GetCategoryByID", ctx, categoryID).Return(category, nil)

		productRepo := new(mocks.ProductRepository)
		productRepo.On("CreateProduct", ctx, mock.AnythingOfType("*models.Product")).Return(nil)

		svc := service.NewProductService(productRepo, categoryRepo, newMemCache(), &nopImageStore{}, testBaseURL)

		product, err := svc.CreateProduct(ctx, &models.CreateProductRequest{
			CategoryID:  categoryID,
			Name:        "Trail Runner",
			Description: `Light <script>alert("x")</script>and fast`,
			Price:       79.99,
		}, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, "Trail Runner", product.Name)
		assert.NotContains(t, product.Description, "<script>")
		productRepo.AssertExpectations(t)
	})

	t.Run("unknown category maps to not found", func(t *testing.T) {
		categoryRepo := new(mocks.CategoryRepository)
		categoryRepo.On("GetCategoryByID", ctx, categoryID).Return(nil, sql.ErrNoRows)

		svc := service.NewProductService(new(mocks.ProductRepository), categoryRepo, newMemCache(), &nopImageStore{}, testBaseURL)

		_, err := svc.CreateProduct(ctx, &models.CreateProductRequest{CategoryID: categoryID, Name: "Trail Runner", Price: 79.99}, nil, nil)

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	})
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	product := &models.Product{ID: id, Name: "Trail Runner", Price: 79.99, ImagePath: "products/a.jpg"}

	t.Run("second read is served from cache", func(t *testing.T) {
		productRepo := new(mocks.ProductRepository)
		productRepo.On("GetProductByID", ctx, id).Return(product, nil).Once()

		svc := service.NewProductService(productRepo, new(mocks.CategoryRepository), newMemCache(), &nopImageStore{}, testBaseURL)

		first, err := svc.GetProductByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, testBaseURL+"/uploads/products/a.jpg", first.ImageURL)

		second, err := svc.GetProductByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first.Name, second.Name)

		productRepo.AssertNumberOfCalls(t, "GetProductByID", 1)
	})

	t.Run("missing product maps to not found", func(t *testing.T) {
		productRepo := new(mocks.ProductRepository)
		productRepo.On("GetProductByID", ctx, id).Return(nil, sql.ErrNoRows)

		svc := service.NewProductService(productRepo, new(mocks.CategoryRepository), newMemCache(), &nopImageStore{}, testBaseURL)

		_, err := svc.GetProductByID(ctx, id)

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	})
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()

	products := []models.Product{{ID: uuid.New(), Name: "Trail Runner", ImagePath: "products/a.jpg"}}

	t.Run("clamps page and size", func(t *testing.T) {
		productRepo := new(mocks.ProductRepository)
		productRepo.On("ListProducts", ctx, 1, 20).Return(products, 1, nil)

		svc := service.NewProductService(productRepo, new(mocks.CategoryRepository), newMemCache(), &nopImageStore{}, testBaseURL)

		got, total, err := svc.ListProducts(ctx, -3, 900)

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, got, 1)
		assert.Equal(t, testBaseURL+"/uploads/products/a.jpg", got[0].ImageURL)
		productRepo.AssertExpectations(t)
	})
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("partial update keeps untouched fields and invalidates cache", func(t *testing.T) {
		stored := &models.Product{ID: id, CategoryID: uuid.New(), Name: "Trail Runner", Price: 79.99}

		productRepo := new(mocks.ProductRepository)
		productRepo.On("GetProductByID", ctx, id).Return(stored, nil)
		productRepo.On("UpdateProduct", ctx, mock.AnythingOfType("*models.Product")).Return(nil)

		cache := newMemCache()

		svc := service.NewProductService(productRepo, new(mocks.CategoryRepository), cache, &nopImageStore{}, testBaseURL)

		// warm the cache through a read
		_, err := svc.GetProductByID(ctx, id)
		require.NoError(t, err)
		require.Len(t, cache.entries, 1)

		newPrice := 89.99

		updated, err := svc.UpdateProduct(ctx, id, &models.UpdateProductRequest{Price: &newPrice}, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, "Trail Runner", updated.Name)
		assert.InDelta(t, 89.99, updated.Price, 0.001)
		assert.Empty(t, cache.entries)
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	product := &models.Product{ID: id, Name: "Trail Runner", ImagePath: "products/a.jpg"}

	images := &nopImageStore{}

	productRepo := new(mocks.ProductRepository)
	productRepo.On("GetProductByID", ctx, id).Return(product, nil)
	productRepo.On("DeleteProduct", ctx, id).Return(nil)

	svc := service.NewProductService(productRepo, new(mocks.CategoryRepository), newMemCache(), images, testBaseURL)

	require.NoError(t, svc.DeleteProduct(ctx, id))
	assert.Contains(t, images.deleted, "products/a.jpg")
}
