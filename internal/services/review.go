package service

import (
	"context"

	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	repository "github.com/akozlov/webstore/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ReviewService struct {
	repo        repository.ReviewRepository
	productRepo repository.ProductRepository
	sanitizer   *bluemonday.Policy
}

func NewReviewService(repo repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{
		repo:        repo,
		productRepo: productRepo,
		sanitizer:   bluemonday.UGCPolicy(),
	}
}

func (s *ReviewService) CreateReview(ctx context.Context, userID, productID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error) {

	_, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	reviewed, err := s.repo.HasUserReviewedProduct(ctx, userID, productID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to check existing reviews").WithError(err)
	}

	if reviewed {
		return nil, errors.ConflictError("You have already reviewed this product")
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   s.sanitizer.Sanitize(req.Comment),
	}

	err = s.repo.CreateReview(ctx, review)
	if err != nil {

		// two first reviews racing hit the unique constraint
		if repository.IsUniqueViolation(err) {
			return nil, errors.ConflictError("You have already reviewed this product")
		}

		return nil, errors.DatabaseError("Failed to create review").WithError(err)
	}

	return review, nil
}

func (s *ReviewService) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {

	review, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Review not found").WithError(err)
	}

	return review, nil
}

func (s *ReviewService) ListReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {

	_, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	reviews, err := s.repo.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch reviews").WithError(err)
	}

	return reviews, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, userID, id uuid.UUID, req *models.UpdateReviewRequest) (*models.Review, error) {

	review, err := s.ownedReview(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}

	if req.Comment != nil {
		review.Comment = s.sanitizer.Sanitize(*req.Comment)
	}

	if err := s.repo.UpdateReview(ctx, review); err != nil {
		return nil, errors.DatabaseError("Failed to update review").WithError(err)
	}

	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, userID, id uuid.UUID) error {

	review, err := s.ownedReview(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteReview(ctx, review.ID); err != nil {
		return errors.DatabaseError("Failed to delete review").WithError(err)
	}

	return nil
}

// CanUserReview reports whether the user has not yet reviewed the product.
func (s *ReviewService) CanUserReview(ctx context.Context, userID, productID uuid.UUID) (bool, error) {

	_, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return false, errors.NotFoundError("Product not found").WithError(err)
	}

	reviewed, err := s.repo.HasUserReviewedProduct(ctx, userID, productID)
	if err != nil {
		return false, errors.DatabaseError("Failed to check existing reviews").WithError(err)
	}

	return !reviewed, nil
}

// ownedReview hides reviews that belong to other users.
func (s *ReviewService) ownedReview(ctx context.Context, userID, id uuid.UUID) (*models.Review, error) {

	review, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Review not found").WithError(err)
	}

	if review.UserID != userID {
		return nil, errors.NotFoundError("Review not found")
	}

	return review, nil
}
