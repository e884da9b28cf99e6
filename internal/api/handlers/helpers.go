// Package handlers wires HTTP requests to the service layer. Every handler
// returns an http.HandlerFunc closure over its dependencies.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/errors"
	"github.com/akozlov/webstore/internal/models"
	"github.com/google/uuid"
)

// pagination bounds for list endpoints
const (
	defaultPageSize = 20
	maxPageSize     = 50
)

func claimsFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(middleware.UserContextKey).(*models.Claims)

	return claims, ok
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {

	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.BadRequestError("Invalid " + name).WithError(err)
	}

	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {

	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return n
}

// canAccessUser allows a user to reach their own resources, and admins to
// reach anyone's.
func canAccessUser(claims *models.Claims, userID uuid.UUID) bool {
	return claims.UserID == userID || claims.IsAdmin()
}
