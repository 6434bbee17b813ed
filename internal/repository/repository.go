package repository

import (
	"context"
	"errors"
	"time"

	"chopnow/internal/model"
)

var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint rejects a write,
// e.g. an order number collision.
var ErrDuplicate = errors.New("duplicate")

// StatusChange describes one status write plus the delivery side effects
// that must land in the same transaction.
type StatusChange struct {
	OrderID           string
	Status            model.OrderStatus
	EstimatedDelivery *time.Time
	DeliveryStatus    model.DeliveryStatus // empty means leave unchanged
	StampPickup       bool                 // set picked_up_at if not already set
	StampDelivery     bool                 // set delivered_at if not already set
}

// OrderFilter scopes a listing. Zero-value fields are not applied.
type OrderFilter struct {
	CustomerID   string
	RestaurantID string
	RiderID      string
	Page         int
	Limit        int
}

// OrderStore is the persistence port of the order lifecycle engine.
type OrderStore interface {
	RestaurantByID(ctx context.Context, id string) (*model.Restaurant, error)
	RestaurantByOwner(ctx context.Context, ownerID string) (*model.Restaurant, error)
	MenuItemsByIDs(ctx context.Context, ids []string) (map[string]model.MenuItem, error)

	// CreateOrder persists the order together with its items, delivery and
	// payment rows in one transaction. IDs are filled in on success.
	CreateOrder(ctx context.Context, o *model.Order) error

	// OrderByID returns the fully joined order: items, delivery, payment,
	// restaurant and customer summaries.
	OrderByID(ctx context.Context, id string) (*model.Order, error)

	UpdateOrderStatus(ctx context.Context, ch StatusChange) error

	// CancelOrder sets the order status to CANCELLED and the payment status
	// to REFUNDED in one transaction.
	CancelOrder(ctx context.Context, orderID string) error

	// AssignRider attaches a rider to an unassigned delivery. ErrDuplicate
	// when a rider is already assigned.
	AssignRider(ctx context.Context, orderID, riderID string) error

	ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, int, error)
}
