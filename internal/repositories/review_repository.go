package repository

import (
	"context"
	"database/sql"

	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/google/uuid"
)

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	ListReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
	HasUserReviewedProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type reviewRepository struct {
	DB *sql.DB
}

func NewReviewRepo(db *sql.DB) ReviewRepository {
	return &reviewRepository{DB: db}
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO reviews (user_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	return r.DB.QueryRowContext(dbCtx, query, review.UserID, review.ProductID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt)
}

func (r *reviewRepository) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	review := &models.Review{}

	query := `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, u.full_name
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&review.ID, &review.UserID, &review.ProductID, &review.Rating, &review.Comment, &review.CreatedAt, &review.UserName)
	if err != nil {
		return nil, err
	}

	return review, nil
}

func (r *reviewRepository) ListReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, u.full_name
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC`

	return r.queryReviews(dbCtx, query, productID)
}

func (r *reviewRepository) ListReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, u.full_name
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`

	return r.queryReviews(dbCtx, query, userID)
}

func (r *reviewRepository) UpdateReview(ctx context.Context, review *models.Review) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE reviews SET rating = $1, comment = $2 WHERE id = $3`,
		review.Rating, review.Comment, review.ID)
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

func (r *reviewRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM reviews WHERE id = $1`, id)
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

func (r *reviewRepository) HasUserReviewedProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)`

	err := r.DB.QueryRowContext(dbCtx, query, userID, productID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *reviewRepository) queryReviews(ctx context.Context, query string, arg any) ([]models.Review, error) {

	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var reviews []models.Review

	for rows.Next() {
		var review models.Review

		err := rows.Scan(&review.ID, &review.UserID, &review.ProductID, &review.Rating, &review.Comment, &review.CreatedAt, &review.UserName)
		if err != nil {
			return nil, err
		}

		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}
