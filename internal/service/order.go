package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"time"

	"chopnow/internal/model"
	"chopnow/internal/notify"
	"chopnow/internal/repository"
)

// taxRate is applied to the subtotal. Fixed at 8%.
const taxRate = 0.08

type OrderService struct {
	store    repository.OrderStore
	notifier notify.Notifier
}

func NewOrderService(store repository.OrderStore, notifier notify.Notifier) *OrderService {
	return &OrderService{store: store, notifier: notifier}
}

type CreateOrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

type CreateOrderInput struct {
	RestaurantID    string            `json:"restaurant_id"`
	Items           []CreateOrderItem `json:"items"`
	DeliveryAddress string            `json:"delivery_address"`
	DeliveryNotes   string            `json:"delivery_notes,omitempty"`
}

// Create validates the request, computes totals and persists the order
// with its items, delivery and payment in one transaction. On success a
// best-effort newOrder event goes to the restaurant's room.
func (s *OrderService) Create(ctx context.Context, customerID string, in CreateOrderInput) (*model.Order, error) {
	restaurant, err := s.store.RestaurantByID(ctx, in.RestaurantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if !restaurant.IsActive || !restaurant.IsOpen {
		return nil, ErrRestaurantClosed
	}

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.MenuItemID)
	}
	menu, err := s.store.MenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}

	var subtotal float64
	items := make([]model.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		menuItem, ok := menu[it.MenuItemID]
		if !ok || menuItem.RestaurantID != restaurant.ID {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, it.MenuItemID)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, menuItem.Name)
		}
		subtotal += menuItem.Price * float64(it.Quantity)
		items = append(items, model.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   it.Quantity,
			Price:      menuItem.Price, // snapshot, not a live reference
			Notes:      it.Notes,
		})
	}

	subtotal = round2(subtotal)
	if subtotal < restaurant.MinOrder {
		return nil, fmt.Errorf("%w: minimum is %.2f", ErrBelowMinimum, restaurant.MinOrder)
	}

	deliveryFee := restaurant.DeliveryFee
	tax := round2(subtotal * taxRate)
	total := round2(subtotal + deliveryFee + tax)
	eta := time.Now().Add(time.Duration(restaurant.DeliveryTime) * time.Minute)

	order := &model.Order{
		OrderNumber:       newOrderNumber(),
		CustomerID:        customerID,
		RestaurantID:      restaurant.ID,
		Items:             items,
		DeliveryAddress:   in.DeliveryAddress,
		DeliveryNotes:     in.DeliveryNotes,
		Subtotal:          subtotal,
		DeliveryFee:       deliveryFee,
		Tax:               tax,
		Total:             total,
		Status:            model.StatusPending,
		EstimatedDelivery: &eta,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrOrderNumberConflict
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := s.store.OrderByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load created order: %w", err)
	}

	s.notifier.Publish(ctx, notify.RestaurantChannel(restaurant.ID), notify.EventNewOrder, created)

	return created, nil
}

// statusUpdateEvent is the payload broadcast on the order's room; clients
// treat it as a hint to re-read the order.
type statusUpdateEvent struct {
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
}

// UpdateStatus applies one status transition under the role policy. The
// delivery side effects of OUT_FOR_DELIVERY and DELIVERED land in the same
// transaction as the status write; the outward broadcast stays
// best-effort.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID string, next model.OrderStatus, eta *time.Time) (*model.Order, error) {
	ord, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := authorizeTransition(actor, ord, next); err != nil {
		return nil, err
	}

	change := repository.StatusChange{
		OrderID:           orderID,
		Status:            next,
		EstimatedDelivery: eta,
	}
	switch next {
	case model.StatusOutForDelivery:
		change.DeliveryStatus = model.DeliveryInTransit
		change.StampPickup = true
	case model.StatusDelivered:
		change.DeliveryStatus = model.DeliveryDelivered
		change.StampDelivery = true
	}

	if err := s.store.UpdateOrderStatus(ctx, change); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	updated, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load updated order: %w", err)
	}

	s.notifier.Publish(ctx, notify.OrderChannel(orderID), notify.EventOrderStatusUpdate, statusUpdateEvent{
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		Status:      updated.Status,
	})
	if updated.Delivery != nil && updated.Delivery.RiderID != nil {
		s.notifier.Publish(ctx, notify.RiderChannel(*updated.Delivery.RiderID), notify.EventOrderUpdate, updated)
	}

	return updated, nil
}

// Cancel is the narrower cancellation operation. The payment moves to
// REFUNDED in the same transaction; no gateway call exists behind it.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	ord, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := authorizeCancel(actor, ord); err != nil {
		return nil, err
	}

	if err := s.store.CancelOrder(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	cancelled, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load cancelled order: %w", err)
	}

	s.notifier.Publish(ctx, notify.OrderChannel(orderID), notify.EventOrderCancelled, statusUpdateEvent{
		OrderID:     cancelled.ID,
		OrderNumber: cancelled.OrderNumber,
		Status:      cancelled.Status,
	})

	return cancelled, nil
}

// Get returns one order if the actor may see it. An existing order the
// actor cannot see is a permission error, not a not-found.
func (s *OrderService) Get(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	ord, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !canView(actor, ord) {
		return nil, ErrPermissionDenied
	}
	return ord, nil
}

type ListQuery struct {
	Page         int
	Limit        int
	RestaurantID string // admin filter
	CustomerID   string // admin filter
}

type ListResult struct {
	Orders []model.Order `json:"orders"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
	Total  int           `json:"total"`
	Pages  int           `json:"pages"`
}

// List returns the actor's role-scoped order page: customers their own
// orders, owners their restaurant's, riders their assigned deliveries,
// admins everything with optional filters.
func (s *OrderService) List(ctx context.Context, actor Actor, q ListQuery) (*ListResult, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 10
	}

	filter := repository.OrderFilter{Page: q.Page, Limit: q.Limit}

	switch actor.Role {
	case model.RoleCustomer:
		filter.CustomerID = actor.ID
	case model.RoleRestaurantOwner:
		restaurant, err := s.store.RestaurantByOwner(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &ListResult{Orders: []model.Order{}, Page: q.Page, Limit: q.Limit}, nil
			}
			return nil, fmt.Errorf("get restaurant: %w", err)
		}
		filter.RestaurantID = restaurant.ID
	case model.RoleRider:
		filter.RiderID = actor.ID
	case model.RoleAdmin:
		filter.RestaurantID = q.RestaurantID
		filter.CustomerID = q.CustomerID
	default:
		return nil, ErrPermissionDenied
	}

	orders, total, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	return &ListResult{
		Orders: orders,
		Page:   q.Page,
		Limit:  q.Limit,
		Total:  total,
		Pages:  int(math.Ceil(float64(total) / float64(q.Limit))),
	}, nil
}

// AssignRider lets a rider claim an unassigned delivery. Terminal orders
// cannot be claimed.
func (s *OrderService) AssignRider(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	if actor.Role != model.RoleRider && actor.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}

	ord, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if ord.Status == model.StatusDelivered || ord.Status == model.StatusCancelled {
		return nil, ErrOrderClosed
	}

	if err := s.store.AssignRider(ctx, orderID, actor.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrRiderAssigned
		}
		return nil, fmt.Errorf("assign rider: %w", err)
	}

	updated, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load updated order: %w", err)
	}

	s.notifier.Publish(ctx, notify.OrderChannel(orderID), notify.EventOrderUpdate, updated)

	return updated, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newOrderNumber builds "ORD-<millis>-<6 random chars>". Collisions are
// extremely unlikely but not impossible; the unique constraint on
// order_number is the final authority and a collision surfaces as a
// creation failure.
func newOrderNumber() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// time-only fallback if the random source is unavailable
		return fmt.Sprintf("ORD-%d-%06d", time.Now().UnixMilli(), time.Now().Nanosecond()%1000000)
	}
	for i := range b {
		b[i] = orderNumberCharset[int(b[i])%len(orderNumberCharset)]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), b)
}
