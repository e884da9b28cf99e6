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

func TestVariantService_CreateVariant(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	req := &models.VariantRequest{Size: "42", Color: "black", StockQuantity: 10, AdditionalPrice: 5.00}

	t.Run("creates a variant for an existing product", func(t *testing.T) {
		productRepo := new(mocks.ProductRepository)
		productRepo.On("GetProductByID", ctx, productID).Return(&models.Product{ID: productID}, nil)

		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("CreateVariant", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)

		svc := service.NewVariantService(variantRepo, productRepo)

		variant, err := svc.CreateVariant(ctx, productID, req)

		require.NoError(t, err)
		assert.Equal(t, productID, variant.ProductID)
		assert.Equal(t, "42", variant.Size)
		assert.Equal(t, 10, variant.StockQuantity)
		variantRepo.AssertExpectations(t)
	})

	t.Run("unknown product maps to not found", func(t *testing.T) {
		productRepo := new(mocks.ProductRepository)
		productRepo.On("GetProductByID", ctx, productID).Return(nil, sql.ErrNoRows)

		variantRepo := new(mocks.VariantRepository)

		svc := service.NewVariantService(variantRepo, productRepo)

		_, err := svc.CreateVariant(ctx, productID, req)

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
		variantRepo.AssertNotCalled(t, "CreateVariant", mock.Anything, mock.Anything)
	})
}

func TestVariantService_UpdateVariant(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("replaces all variant fields", func(t *testing.T) {
		stored := &models.ProductVariant{ID: id, ProductID: uuid.New(), Size: "41", Color: "white", StockQuantity: 2}

		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("GetVariantByID", ctx, id).Return(stored, nil)
		variantRepo.On("UpdateVariant", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)

		svc := service.NewVariantService(variantRepo, new(mocks.ProductRepository))

		variant, err := svc.UpdateVariant(ctx, id, &models.VariantRequest{Size: "43", Color: "red", StockQuantity: 7, AdditionalPrice: 1.50})

		require.NoError(t, err)
		assert.Equal(t, "43", variant.Size)
		assert.Equal(t, "red", variant.Color)
		assert.Equal(t, 7, variant.StockQuantity)
		assert.InDelta(t, 1.50, variant.AdditionalPrice, 0.001)
	})

	t.Run("missing variant maps to not found", func(t *testing.T) {
		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("GetVariantByID", ctx, id).Return(nil, sql.ErrNoRows)

		svc := service.NewVariantService(variantRepo, new(mocks.ProductRepository))

		_, err := svc.UpdateVariant(ctx, id, &models.VariantRequest{Size: "43", Color: "red"})

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	})
}

func TestVariantService_DeleteVariant(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("deletes an existing variant", func(t *testing.T) {
		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("DeleteVariant", ctx, id).Return(nil)

		svc := service.NewVariantService(variantRepo, new(mocks.ProductRepository))

		require.NoError(t, svc.DeleteVariant(ctx, id))
	})

	t.Run("missing variant maps to not found", func(t *testing.T) {
		variantRepo := new(mocks.VariantRepository)
		variantRepo.On("DeleteVariant", ctx, id).Return(sql.ErrNoRows)

		svc := service.NewVariantService(variantRepo, new(mocks.ProductRepository))

		err := svc.DeleteVariant(ctx, id)

		require.Error(t, err)

		appErr, ok := errors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	})
}
