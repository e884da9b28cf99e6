package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"time"

	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	repository "github.com/akozlov/webstore/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = time.Hour

type UserService struct {
	repo          repository.UserRepository
	orderRepo     repository.OrderRepository
	reviewRepo    repository.ReviewRepository
	rateLimitRepo repository.RateLimitRepository
	jwtKey        []byte
}

func NewUserService(repo repository.UserRepository, orderRepo repository.OrderRepository, reviewRepo repository.ReviewRepository, rateLimitRepo repository.RateLimitRepository, jwtKey []byte) *UserService {
	return &UserService{
		repo:          repo,
		orderRepo:     orderRepo,
		reviewRepo:    reviewRepo,
		rateLimitRepo: rateLimitRepo,
		jwtKey:        jwtKey,
	}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {

	existingUser, _ := s.repo.GetUserByEmail(ctx, req.Email)
	if existingUser != nil {
		return nil, errors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalError("Failed to secure password").WithError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         models.RoleUser,
	}

	err = s.repo.CreateUser(ctx, user)
	if err != nil {

		if repository.IsUniqueViolation(err) {
			return nil, errors.DuplicateEntryError("Email already registered")
		}

		return nil, errors.DatabaseError("Failed to create user").WithError(err)
	}

	return s.issueToken(user)
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	allowed, _, retryAfter, err := s.rateLimitRepo.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, errors.InternalError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return nil, errors.TooManyRequestsError("Too many login attempts. Please try again later.").
			WithDetail("Retry after " + (time.Duration(retryAfter) * time.Second).String())
	}

	// a missing user and a wrong password must be indistinguishable
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.UnauthorizedError("Invalid email or password")
	}

	return s.issueToken(user)
}

func (s *UserService) issueToken(user *models.User) (*models.LoginResponse, error) {

	expiresAt := time.Now().Add(tokenLifetime)

	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return nil, errors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return &models.LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// IsEmailAvailable reports whether no account uses the given email yet.
func (s *UserService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {

		if stdErrors.Is(err, sql.ErrNoRows) {
			return true, nil
		}

		return false, errors.DatabaseError("Failed to check email").WithError(err)
	}

	return false, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("User not found").WithError(err)
	}

	return user, nil
}

// GetUserWithDetails returns the user together with their orders and reviews.
func (s *UserService) GetUserWithDetails(ctx context.Context, id uuid.UUID) (*models.UserWithDetails, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("User not found").WithError(err)
	}

	orders, err := s.orderRepo.ListOrdersByUser(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch user orders").WithError(err)
	}

	reviews, err := s.reviewRepo.ListReviewsByUser(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch user reviews").WithError(err)
	}

	return &models.UserWithDetails{
		User:    user,
		Orders:  orders,
		Reviews: reviews,
	}, nil
}

func (s *UserService) ListUserOrders(ctx context.Context, id uuid.UUID) ([]models.Order, error) {

	_, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("User not found").WithError(err)
	}

	orders, err := s.orderRepo.ListOrdersByUser(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch user orders").WithError(err)
	}

	return orders, nil
}

func (s *UserService) ListUserReviews(ctx context.Context, id uuid.UUID) ([]models.Review, error) {

	_, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("User not found").WithError(err)
	}

	reviews, err := s.reviewRepo.ListReviewsByUser(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch user reviews").WithError(err)
	}

	return reviews, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch users").WithError(err)
	}

	return users, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("User not found").WithError(err)
	}

	if req.Email != nil && *req.Email != user.Email {

		existing, _ := s.repo.GetUserByEmail(ctx, *req.Email)
		if existing != nil {
			return nil, errors.DuplicateEntryError("Email already registered")
		}

		user.Email = *req.Email
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}

	if req.Password != nil {

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.InternalError("Failed to secure password").WithError(err)
		}

		user.PasswordHash = string(hashedPassword)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {

		if repository.IsUniqueViolation(err) {
			return nil, errors.DuplicateEntryError("Email already registered")
		}

		return nil, errors.DatabaseError("Failed to update user").WithError(err)
	}

	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {

	err := s.repo.DeleteUser(ctx, id)
	if err != nil {

		if stdErrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("User not found").WithError(err)
		}

		return errors.DatabaseError("Failed to delete user").WithError(err)
	}

	return nil
}

func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, req *models.ChangeRoleRequest) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("User not found").WithError(err)
	}

	// admins cannot be demoted through this endpoint
	if user.Role == models.RoleAdmin && req.Role != models.RoleAdmin {
		return nil, errors.ForbiddenError("Cannot demote an admin")
	}

	user.Role = req.Role

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, errors.DatabaseError("Failed to update user role").WithError(err)
	}

	return user, nil
}
