package service

import "errors"

var (
	// auth
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")

	// orders
	ErrOrderNotFound       = errors.New("order not found")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrRestaurantClosed    = errors.New("restaurant is not accepting orders")
	ErrMenuItemUnavailable = errors.New("menu item unavailable")
	ErrBelowMinimum        = errors.New("order is below the restaurant minimum")
	ErrOrderNumberConflict = errors.New("order number already exists")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCancelWindowClosed  = errors.New("order can no longer be cancelled")
	ErrRiderAssigned       = errors.New("rider already assigned")
	ErrOrderClosed         = errors.New("order is already closed")

	// restaurants
	ErrOwnerHasRestaurant = errors.New("owner already has a restaurant")
	ErrMenuItemNotFound   = errors.New("menu item not found")
)
