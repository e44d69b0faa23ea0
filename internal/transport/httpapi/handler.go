// Package httpapi exposes the order and status components over a JSON HTTP
// API consumed by the back-office UI.
package httpapi

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/kasamart/sales-api/internal/domain/order"
	"github.com/kasamart/sales-api/internal/domain/status"
)

// OrderService is the slice of the order component the API needs.
type OrderService interface {
	CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.OrderView, error)
	GetOrder(ctx context.Context, id string) (*order.OrderView, error)
	ListOrders(ctx context.Context, limit, offset int) ([]order.OrderView, error)
}

// StatusService is the slice of the status component the API needs.
type StatusService interface {
	ChangeStatus(ctx context.Context, orderID, newStatusID string) (*status.Status, error)
	History(ctx context.Context, orderID string) ([]status.HistoryEntry, error)
}

// StatusCatalog provides read access to the configured statuses.
type StatusCatalog interface {
	List(ctx context.Context) ([]status.Status, error)
	GetByID(ctx context.Context, id string) (*status.Status, error)
}

// Handler holds the API endpoints and their dependencies.
type Handler struct {
	orders   OrderService
	statuses StatusService
	catalog  StatusCatalog
}

// NewHandler constructs a Handler with the required services.
func NewHandler(orders OrderService, statuses StatusService, catalog StatusCatalog) *Handler {
	return &Handler{
		orders:   orders,
		statuses: statuses,
		catalog:  catalog,
	}
}

// Routes registers all API endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.changeStatus)
	r.Get("/orders/{id}/history", h.orderHistory)
	r.Get("/statuses", h.listStatuses)
}
