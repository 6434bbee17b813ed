package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"chopnow/internal/model"
	"chopnow/internal/mw"
	"chopnow/internal/service"
)

func actorFrom(r *http.Request) service.Actor {
	userID, _ := r.Context().Value(mw.UserCtxKey).(string)
	role, _ := r.Context().Value(mw.RoleCtxKey).(model.Role)
	return service.Actor{ID: userID, Role: role}
}

func validateCreateOrder(in service.CreateOrderInput) []string {
	var errs []string
	if in.RestaurantID == "" {
		errs = append(errs, "restaurant_id is required")
	}
	if len(in.Items) == 0 {
		errs = append(errs, "items must not be empty")
	}
	for _, it := range in.Items {
		if it.MenuItemID == "" {
			errs = append(errs, "items: menu_item_id is required")
			break
		}
		if it.Quantity < 1 {
			errs = append(errs, "items: quantity must be at least 1")
			break
		}
	}
	if in.DeliveryAddress == "" {
		errs = append(errs, "delivery_address is required")
	}
	return errs
}

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.Role != model.RoleCustomer {
			writeError(w, http.StatusForbidden, "only customers can place orders")
			return
		}

		var in service.CreateOrderInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if errs := validateCreateOrder(in); len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "validation error", errs...)
			return
		}

		order, err := orderSvc.Create(r.Context(), actor.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusCreated, "order created successfully", order)
	}
}

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := service.ListQuery{
			RestaurantID: r.URL.Query().Get("restaurantId"),
			CustomerID:   r.URL.Query().Get("customerId"),
		}
		q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
		q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := orderSvc.List(r.Context(), actorFrom(r), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "", result)
	}
}

func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.Get(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "", order)
	}
}

type updateStatusRequest struct {
	Status            model.OrderStatus `json:"status"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery,omitempty"`
}

func UpdateOrderStatusHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if !model.ValidOrderStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "validation error", "status must be a valid order status")
			return
		}

		order, err := orderSvc.UpdateStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Status, req.EstimatedDelivery)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "order status updated successfully", order)
	}
}

func CancelOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.Cancel(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "order cancelled successfully", order)
	}
}

// AssignDeliveryHandler lets a rider claim an unassigned delivery.
func AssignDeliveryHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.AssignRider(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "delivery assigned successfully", order)
	}
}
