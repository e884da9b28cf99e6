package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akozlov/webstore/internal/api/handlers"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_Register(t *testing.T) {

	t.Run("returns 201 with a token", func(t *testing.T) {
		user := &models.User{ID: uuid.New(), Email: "shopper@example.com", FullName: "Avery Shopper", Role: models.RoleUser}

		svc := new(mocks.UserService)
		svc.On("Register", mock.Anything, mock.AnythingOfType("*models.RegisterRequest")).
			Return(&models.LoginResponse{Token: "token-123", ExpiresAt: time.Now().Add(time.Hour), User: user}, nil)

		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"email":     "shopper@example.com",
			"password":  "correct-horse",
			"full_name": "Avery Shopper",
		})
		rec := httptest.NewRecorder()

		h.Register()(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)

		var loginResp models.LoginResponse
		decodeData(t, resp, &loginResp)
		assert.Equal(t, "token-123", loginResp.Token)
		assert.Equal(t, user.Email, loginResp.User.Email)
	})

	t.Run("returns 400 on an invalid payload", func(t *testing.T) {
		svc := new(mocks.UserService)
		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"email":    "not-an-email",
			"password": "short",
		})
		rec := httptest.NewRecorder()

		h.Register()(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("maps duplicate email to 409", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("Register", mock.Anything, mock.AnythingOfType("*models.RegisterRequest")).
			Return(nil, errors.DuplicateEntryError("Email already registered"))

		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
			"email":     "shopper@example.com",
			"password":  "correct-horse",
			"full_name": "Avery Shopper",
		})
		rec := httptest.NewRecorder()

		h.Register()(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, errors.ErrCodeDuplicateEntry, resp.Error.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {

	t.Run("returns the token on success", func(t *testing.T) {
		user := &models.User{ID: uuid.New(), Email: "shopper@example.com", Role: models.RoleUser}

		svc := new(mocks.UserService)
		svc.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(&models.LoginResponse{Token: "token-456", ExpiresAt: time.Now().Add(time.Hour), User: user}, nil)

		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "shopper@example.com",
			"password": "correct-horse",
		})
		rec := httptest.NewRecorder()

		h.Login()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var loginResp models.LoginResponse
		decodeData(t, decodeResponse(t, rec), &loginResp)
		assert.Equal(t, "token-456", loginResp.Token)
	})

	t.Run("maps bad credentials to 401", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(nil, errors.UnauthorizedError("Invalid email or password"))

		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "shopper@example.com",
			"password": "wrong",
		})
		rec := httptest.NewRecorder()

		h.Login()(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Invalid email or password", resp.Error.Message)
	})

	t.Run("maps throttling to 429", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(nil, errors.TooManyRequestsError("Too many login attempts. Please try again later."))

		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "shopper@example.com",
			"password": "correct-horse",
		})
		rec := httptest.NewRecorder()

		h.Login()(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestUserHandler_Profile(t *testing.T) {

	t.Run("returns the caller's profile", func(t *testing.T) {
		user := &models.User{ID: uuid.New(), Email: "shopper@example.com", Role: models.RoleUser}

		svc := new(mocks.UserService)
		svc.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodGet, "/api/auth/me", nil), userClaims(user.ID))
		rec := httptest.NewRecorder()

		h.Profile()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got models.User
		decodeData(t, decodeResponse(t, rec), &got)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("returns 401 without claims", func(t *testing.T) {
		svc := new(mocks.UserService)
		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()

		h.Profile()(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})
}

func TestUserHandler_CheckEmail(t *testing.T) {

	t.Run("reports availability", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("IsEmailAvailable", mock.Anything, "new@example.com").Return(true, nil)

		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodGet, "/api/auth/check-email?email=new@example.com", nil)
		rec := httptest.NewRecorder()

		h.CheckEmail()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var data map[string]bool
		decodeData(t, decodeResponse(t, rec), &data)
		assert.True(t, data["available"])
	})

	t.Run("requires the email parameter", func(t *testing.T) {
		svc := new(mocks.UserService)
		h := handlers.NewUserHandler(svc)

		req := testRequest(t, http.MethodGet, "/api/auth/check-email", nil)
		rec := httptest.NewRecorder()

		h.CheckEmail()(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_GetUser(t *testing.T) {
	userID := uuid.New()

	details := &models.UserWithDetails{
		User:    &models.User{ID: userID, Email: "shopper@example.com", Role: models.RoleUser},
		Orders:  []models.Order{},
		Reviews: []models.Review{},
	}

	t.Run("self access is allowed", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("GetUserWithDetails", mock.Anything, userID).Return(details, nil)

		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodGet, "/api/users/"+userID.String(), nil), userClaims(userID))
		req.SetPathValue("id", userID.String())
		rec := httptest.NewRecorder()

		h.GetUser()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin access is allowed", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("GetUserWithDetails", mock.Anything, userID).Return(details, nil)

		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodGet, "/api/users/"+userID.String(), nil), adminClaims())
		req.SetPathValue("id", userID.String())
		rec := httptest.NewRecorder()

		h.GetUser()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("another user's profile is forbidden", func(t *testing.T) {
		svc := new(mocks.UserService)
		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodGet, "/api/users/"+userID.String(), nil), userClaims(uuid.New()))
		req.SetPathValue("id", userID.String())
		rec := httptest.NewRecorder()

		h.GetUser()(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		svc.AssertNotCalled(t, "GetUserWithDetails", mock.Anything, mock.Anything)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		svc := new(mocks.UserService)
		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodGet, "/api/users/not-a-uuid", nil), adminClaims())
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.GetUser()(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_ChangeRole(t *testing.T) {
	userID := uuid.New()

	t.Run("promotes a user", func(t *testing.T) {
		updated := &models.User{ID: userID, Email: "shopper@example.com", Role: models.RoleAdmin}

		svc := new(mocks.UserService)
		svc.On("ChangeRole", mock.Anything, userID, mock.AnythingOfType("*models.ChangeRoleRequest")).Return(updated, nil)

		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodPatch, "/api/users/"+userID.String()+"/role", map[string]string{"role": "admin"}), adminClaims())
		req.SetPathValue("id", userID.String())
		rec := httptest.NewRecorder()

		h.ChangeRole()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got models.User
		decodeData(t, decodeResponse(t, rec), &got)
		assert.Equal(t, models.RoleAdmin, got.Role)
	})

	t.Run("demoting an admin maps to 403", func(t *testing.T) {
		svc := new(mocks.UserService)
		svc.On("ChangeRole", mock.Anything, userID, mock.AnythingOfType("*models.ChangeRoleRequest")).
			Return(nil, errors.ForbiddenError("Cannot demote an admin"))

		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodPatch, "/api/users/"+userID.String()+"/role", map[string]string{"role": "user"}), adminClaims())
		req.SetPathValue("id", userID.String())
		rec := httptest.NewRecorder()

		h.ChangeRole()(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects an unknown role value", func(t *testing.T) {
		svc := new(mocks.UserService)
		h := handlers.NewUserHandler(svc)

		req := withClaims(testRequest(t, http.MethodPatch, "/api/users/"+userID.String()+"/role", map[string]string{"role": "superuser"}), adminClaims())
		req.SetPathValue("id", userID.String())
		rec := httptest.NewRecorder()

		h.ChangeRole()(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ChangeRole", mock.Anything, mock.Anything, mock.Anything)
	})
}
