package model

import "time"

type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReadyForPickup,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID                string             `json:"id"`
	OrderNumber       string             `json:"order_number"`
	CustomerID        string             `json:"customer_id"`
	RestaurantID      string             `json:"restaurant_id"`
	Items             []OrderItem        `json:"items,omitempty"`
	DeliveryAddress   string             `json:"delivery_address"`
	DeliveryNotes     string             `json:"delivery_notes,omitempty"`
	Subtotal          float64            `json:"subtotal"`
	DeliveryFee       float64            `json:"delivery_fee"`
	Tax               float64            `json:"tax"`
	Total             float64            `json:"total"`
	Status            OrderStatus        `json:"status"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Delivery          *Delivery          `json:"delivery,omitempty"`
	Payment           *Payment           `json:"payment,omitempty"`
	Restaurant        *RestaurantSummary `json:"restaurant,omitempty"`
	Customer          *UserSummary       `json:"customer,omitempty"`
}

// OrderItem carries the price snapshot taken at order time; it never
// tracks later menu price changes.
type OrderItem struct {
	ID         string  `json:"id"`
	OrderID    string  `json:"order_id"`
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name,omitempty"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Notes      string  `json:"notes,omitempty"`
}

type Delivery struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	RiderID     *string        `json:"rider_id,omitempty"`
	Status      DeliveryStatus `json:"status"`
	PickedUpAt  *time.Time     `json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}

type Payment struct {
	ID      string        `json:"id"`
	OrderID string        `json:"order_id"`
	Amount  float64       `json:"amount"`
	Method  string        `json:"method"`
	Status  PaymentStatus `json:"status"`
}
