package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chopnow/internal/model"
)

// Memory is an in-memory OrderStore. It mirrors the transactional
// semantics of the Postgres implementation closely enough for the order
// lifecycle engine to be exercised without a database.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]model.User
	restaurants map[string]model.Restaurant
	menuItems   map[string]model.MenuItem
	orders      map[string]*model.Order
	numbers     map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]model.User),
		restaurants: make(map[string]model.Restaurant),
		menuItems:   make(map[string]model.MenuItem),
		orders:      make(map[string]*model.Order),
		numbers:     make(map[string]bool),
	}
}

func (m *Memory) AddUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) AddRestaurant(r model.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants[r.ID] = r
}

func (m *Memory) AddMenuItem(it model.MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menuItems[it.ID] = it
}

func (m *Memory) RestaurantByID(_ context.Context, id string) (*model.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) RestaurantByOwner(_ context.Context, ownerID string) (*model.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			rc := r
			return &rc, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) MenuItemsByIDs(_ context.Context, ids []string) (map[string]model.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := make(map[string]model.MenuItem, len(ids))
	for _, id := range ids {
		if it, ok := m.menuItems[id]; ok {
			found[id] = it
		}
	}
	return found, nil
}

func (m *Memory) CreateOrder(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.numbers[o.OrderNumber] {
		return ErrDuplicate
	}

	o.ID = uuid.NewString()
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	for i := range o.Items {
		o.Items[i].ID = uuid.NewString()
		o.Items[i].OrderID = o.ID
	}
	o.Delivery = &model.Delivery{
		ID:      uuid.NewString(),
		OrderID: o.ID,
		Status:  model.DeliveryPending,
	}
	o.Payment = &model.Payment{
		ID:      uuid.NewString(),
		OrderID: o.ID,
		Amount:  o.Total,
		Method:  "CASH",
		Status:  model.PaymentPending,
	}

	m.numbers[o.OrderNumber] = true
	stored := cloneOrder(o)
	m.orders[o.ID] = stored
	return nil
}

func (m *Memory) OrderByID(_ context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneOrder(o)
	if r, ok := m.restaurants[o.RestaurantID]; ok {
		out.Restaurant = &model.RestaurantSummary{ID: r.ID, OwnerID: r.OwnerID, Name: r.Name, Address: r.Address}
	}
	if u, ok := m.users[o.CustomerID]; ok {
		out.Customer = &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, ch StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[ch.OrderID]
	if !ok {
		return ErrNotFound
	}

	o.Status = ch.Status
	if ch.EstimatedDelivery != nil {
		t := *ch.EstimatedDelivery
		o.EstimatedDelivery = &t
	}
	o.UpdatedAt = time.Now()

	if ch.DeliveryStatus != "" && o.Delivery != nil {
		o.Delivery.Status = ch.DeliveryStatus
		now := time.Now()
		if ch.StampPickup && o.Delivery.PickedUpAt == nil {
			o.Delivery.PickedUpAt = &now
		}
		if ch.StampDelivery && o.Delivery.DeliveredAt == nil {
			o.Delivery.DeliveredAt = &now
		}
	}

	return nil
}

func (m *Memory) CancelOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = model.StatusCancelled
	o.UpdatedAt = time.Now()
	if o.Payment != nil {
		o.Payment.Status = model.PaymentRefunded
	}
	return nil
}

func (m *Memory) AssignRider(_ context.Context, orderID, riderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok || o.Delivery == nil {
		return ErrNotFound
	}
	if o.Delivery.RiderID != nil {
		return ErrDuplicate
	}
	rid := riderID
	o.Delivery.RiderID = &rid
	o.Delivery.Status = model.DeliveryAssigned
	return nil
}

func (m *Memory) ListOrders(_ context.Context, f OrderFilter) ([]model.Order, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*model.Order
	for _, o := range m.orders {
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if f.RestaurantID != "" && o.RestaurantID != f.RestaurantID {
			continue
		}
		if f.RiderID != "" {
			if o.Delivery == nil || o.Delivery.RiderID == nil || *o.Delivery.RiderID != f.RiderID {
				continue
			}
		}
		matched = append(matched, o)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]model.Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, *cloneOrder(o))
	}
	return out, total, nil
}

func cloneOrder(o *model.Order) *model.Order {
	out := *o
	out.Items = append([]model.OrderItem(nil), o.Items...)
	if o.Delivery != nil {
		d := *o.Delivery
		if o.Delivery.RiderID != nil {
			rid := *o.Delivery.RiderID
			d.RiderID = &rid
		}
		if o.Delivery.PickedUpAt != nil {
			t := *o.Delivery.PickedUpAt
			d.PickedUpAt = &t
		}
		if o.Delivery.DeliveredAt != nil {
			t := *o.Delivery.DeliveredAt
			d.DeliveredAt = &t
		}
		out.Delivery = &d
	}
	if o.Payment != nil {
		p := *o.Payment
		out.Payment = &p
	}
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		out.EstimatedDelivery = &t
	}
	return &out
}
