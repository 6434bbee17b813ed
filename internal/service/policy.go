package service

import "chopnow/internal/model"

// Actor is the authenticated identity a request acts as.
type Actor struct {
	ID   string
	Role model.Role
}

// transitionRights maps role -> statuses that role may set. Admins are
// handled separately (any status, any order). Customers have no direct
// transition right; their path is the narrower Cancel operation.
//
// The table restricts who may set which status, not status adjacency: an
// owner moving PENDING straight to READY_FOR_PICKUP is legal.
var transitionRights = map[model.Role]map[model.OrderStatus]bool{
	model.RoleRestaurantOwner: {
		model.StatusConfirmed:      true,
		model.StatusPreparing:      true,
		model.StatusReadyForPickup: true,
		model.StatusCancelled:      true,
	},
	model.RoleRider: {
		model.StatusOutForDelivery: true,
		model.StatusDelivered:      true,
	},
}

// authorizeTransition decides whether the actor may set the given status
// on the given order. Ownership is checked before the status-set lookup,
// so an unrelated owner or an unassigned rider is rejected even for a
// status their role could otherwise set.
func authorizeTransition(actor Actor, ord *model.Order, next model.OrderStatus) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleRestaurantOwner:
		if ord.Restaurant == nil || ord.Restaurant.OwnerID != actor.ID {
			return ErrPermissionDenied
		}
	case model.RoleRider:
		if ord.Delivery == nil || ord.Delivery.RiderID == nil || *ord.Delivery.RiderID != actor.ID {
			return ErrPermissionDenied
		}
	default:
		return ErrPermissionDenied
	}

	if !transitionRights[actor.Role][next] {
		return ErrPermissionDenied
	}
	return nil
}

// authorizeCancel implements the narrower cancellation rights: admins
// always, customers only their own PENDING/CONFIRMED orders, owners any
// order of their restaurant, riders never.
func authorizeCancel(actor Actor, ord *model.Order) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if ord.CustomerID != actor.ID {
			return ErrPermissionDenied
		}
		if ord.Status != model.StatusPending && ord.Status != model.StatusConfirmed {
			return ErrCancelWindowClosed
		}
		return nil
	case model.RoleRestaurantOwner:
		if ord.Restaurant == nil || ord.Restaurant.OwnerID != actor.ID {
			return ErrPermissionDenied
		}
		return nil
	default:
		return ErrPermissionDenied
	}
}

// canView is the visibility predicate shared by Get and List. An existing
// but invisible order is a permission error, never a not-found.
func canView(actor Actor, ord *model.Order) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleCustomer:
		return ord.CustomerID == actor.ID
	case model.RoleRestaurantOwner:
		return ord.Restaurant != nil && ord.Restaurant.OwnerID == actor.ID
	case model.RoleRider:
		return ord.Delivery != nil && ord.Delivery.RiderID != nil && *ord.Delivery.RiderID == actor.ID
	}
	return false
}
