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

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, claims *models.Claims, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type OrderHandler struct {
	orderService OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

func (h *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.CreateOrderRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		order, err := h.orderService.CreateOrder(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Warn("Order creation failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order placed", slog.String("orderId", order.ID.String()), slog.Float64("total", order.TotalAmount))
		response.Success(w, http.StatusCreated, order)
	}
}

func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrderByID(r.Context(), claims, id)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := claimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		orders, err := h.orderService.ListOrdersByUser(r.Context(), claims.UserID)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}

func (h *OrderHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := pathUUID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateOrderStatusRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		order, err := h.orderService.UpdateOrderStatus(r.Context(), id, req.Status)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Order status updated", slog.String("orderId", id.String()), slog.String("status", string(order.Status)))
		response.Success(w, http.StatusOK, order)
	}
}
