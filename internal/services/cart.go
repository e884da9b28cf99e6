package service

import (
	"context"
	"database/sql"
	stdErrors "errors"

	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	repository "github.com/akozlov/webstore/internal/repositories"
	"github.com/google/uuid"
)

type CartService struct {
	repo        repository.CartRepository
	variantRepo repository.VariantRepository
}

func NewCartService(repo repository.CartRepository, variantRepo repository.VariantRepository) *CartService {
	return &CartService{repo: repo, variantRepo: variantRepo}
}

// GetCart returns the caller's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartResponse, error) {

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.buildResponse(ctx, cart)
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartResponse, error) {

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	variant, err := s.variantRepo.GetVariantByID(ctx, req.ProductVariantID)
	if err != nil {
		return nil, errors.NotFoundError("Product variant not found").WithError(err)
	}

	quantity := req.Quantity

	// same variant already in the cart merges into one line
	existing, err := s.repo.FindItemByVariant(ctx, cart.ID, req.ProductVariantID)
	if err != nil && !stdErrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to read cart").WithError(err)
	}

	if existing != nil {
		quantity += existing.Quantity
	}

	if variant.StockQuantity < quantity {
		return nil, errors.BadRequestError("Insufficient stock for the requested quantity")
	}

	if existing != nil {

		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, quantity); err != nil {
			return nil, errors.DatabaseError("Failed to update cart item").WithError(err)
		}

	} else {

		item := &models.CartItem{
			CartID:           cart.ID,
			ProductVariantID: req.ProductVariantID,
			Quantity:         quantity,
		}

		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, errors.DatabaseError("Failed to add cart item").WithError(err)
		}
	}

	return s.buildResponse(ctx, cart)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartResponse, error) {

	cart, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	variant, err := s.variantRepo.GetVariantByID(ctx, item.ProductVariantID)
	if err != nil {
		return nil, errors.NotFoundError("Product variant not found").WithError(err)
	}

	if variant.StockQuantity < req.Quantity {
		return nil, errors.BadRequestError("Insufficient stock for the requested quantity")
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, req.Quantity); err != nil {
		return nil, errors.DatabaseError("Failed to update cart item").WithError(err)
	}

	return s.buildResponse(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartResponse, error) {

	cart, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, errors.DatabaseError("Failed to remove cart item").WithError(err)
	}

	return s.buildResponse(ctx, cart)
}

func (s *CartService) getOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !stdErrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to read cart").WithError(err)
	}

	cart = &models.Cart{UserID: userID}

	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to create cart").WithError(err)
	}

	return cart, nil
}

// ownedItem loads the item and verifies it belongs to the caller's cart.
// A foreign item looks exactly like a missing one.
func (s *CartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, errors.NotFoundError("Cart item not found").WithError(err)
	}

	if item.CartID != cart.ID {
		return nil, nil, errors.NotFoundError("Cart item not found")
	}

	return cart, item, nil
}

func (s *CartService) buildResponse(ctx context.Context, cart *models.Cart) (*models.CartResponse, error) {

	lines, err := s.repo.GetCartLines(ctx, cart.ID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to read cart items").WithError(err)
	}

	var total float64

	for _, line := range lines {
		total += line.TotalPrice
	}

	return &models.CartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  lines,
		Total:  total,
	}, nil
}
