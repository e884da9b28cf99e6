package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils"
	"github.com/akozlov/webstore/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserService is the surface of the user/auth service the handler consumes.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserWithDetails(ctx context.Context, id uuid.UUID) (*models.UserWithDetails, error)
	ListUserOrders(ctx context.Context, id uuid.UUID) ([]models.Order, error)
	ListUserReviews(ctx context.Context, id uuid.UUID) ([]models.Review, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ChangeRole(ctx context.Context, id uuid.UUID, req *models.ChangeRoleRequest) (*models.User, error)
}

type UserHandler struct {
	userService UserService
	validator   *validator.Validate
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService, validator: validator.New()}
}

func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.userService.Register(r.Context(), &req)
		if err != nil {
			logger.Warn("User registration failed", slog.String("email", req.Email), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("User registered", slog.String("userId", resp.User.ID.String()))
		response.Success(w, http.StatusCreated, resp)
	}
}

func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.userService.Login(r.Context(), &req)
		if err != nil {
			logger.Warn("Login failed", slog.String("email", req.Email), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("User logged in", slog.String("userId", resp.User.ID.String()))
		response.Success(w, http.StatusOK, resp)
	}
}

func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		user, err := h.userService.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, user)
	}
}

func (h *UserHandler) CheckEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		email := r.URL.Query().Get("email")
		if email == "" {
			response.Error(w, errors.BadRequestError("Query parameter 'email' is required"))
			return
		}

		available, err := h.userService.IsEmailAvailable(r.Context(), email)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"available": available})
	}
}

func (h *UserHandler) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		users, err := h.userService.ListUsers(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, users)
	}
}

func (h *UserHandler) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, id, ok := h.selfOrAdmin(w, r)
		if !ok {
			return
		}

		details, err := h.userService.GetUserWithDetails(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, details)
	}
}

func (h *UserHandler) GetUserOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, id, ok := h.selfOrAdmin(w, r)
		if !ok {
			return
		}

		orders, err := h.userService.ListUserOrders(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}

func (h *UserHandler) GetUserReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, id, ok := h.selfOrAdmin(w, r)
		if !ok {
			return
		}

		reviews, err := h.userService.ListUserReviews(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, reviews)
	}
}

func (h *UserHandler) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		_, id, ok := h.selfOrAdmin(w, r)
		if !ok {
			return
		}

		var req models.UpdateUserRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		user, err := h.userService.UpdateUser(r.Context(), id, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("User updated", slog.String("userId", id.String()))
		response.Success(w, http.StatusOK, user)
	}
}

func (h *UserHandler) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.userService.DeleteUser(r.Context(), id); err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("User deleted", slog.String("userId", id.String()))
		response.Success(w, http.StatusOK, map[string]string{"message": "User deleted"})
	}
}

func (h *UserHandler) ChangeRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.ChangeRoleRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		user, err := h.userService.ChangeRole(r.Context(), id, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("User role changed", slog.String("userId", id.String()), slog.String("role", string(user.Role)))
		response.Success(w, http.StatusOK, user)
	}
}

// selfOrAdmin resolves the {id} path value and enforces the access rule
// shared by the per-user endpoints.
func (h *UserHandler) selfOrAdmin(w http.ResponseWriter, r *http.Request) (*models.Claims, uuid.UUID, bool) {

	claims, ok := claimsFromContext(r.Context())
	if !ok {
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return nil, uuid.Nil, false
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, err)
		return nil, uuid.Nil, false
	}

	if !canAccessUser(claims, id) {
		response.Error(w, errors.ForbiddenError("Access denied"))
		return nil, uuid.Nil, false
	}

	return claims, id, true
}
