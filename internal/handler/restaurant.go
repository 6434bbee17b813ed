package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chopnow/internal/model"
	"chopnow/internal/service"
)

func ListRestaurantsHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurants, err := restaurantSvc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if restaurants == nil {
			restaurants = []model.Restaurant{}
		}

		writeData(w, http.StatusOK, "", restaurants)
	}
}

func GetRestaurantHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurant, err := restaurantSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "", restaurant)
	}
}

func CreateRestaurantHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.Role != model.RoleRestaurantOwner {
			writeError(w, http.StatusForbidden, "only restaurant owners can create restaurants")
			return
		}

		var in service.RestaurantInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		var errs []string
		if len(in.Name) < 2 {
			errs = append(errs, "name must be at least 2 characters long")
		}
		if in.Address == "" {
			errs = append(errs, "address is required")
		}
		if in.Phone == "" {
			errs = append(errs, "phone is required")
		}
		if in.DeliveryFee < 0 || in.MinOrder < 0 {
			errs = append(errs, "delivery_fee and min_order must not be negative")
		}
		if len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "validation error", errs...)
			return
		}

		restaurant, err := restaurantSvc.Create(r.Context(), actor.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusCreated, "restaurant created successfully", restaurant)
	}
}

type setOpenRequest struct {
	IsOpen bool `json:"is_open"`
}

func SetRestaurantOpenHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.Role != model.RoleRestaurantOwner {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		var req setOpenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := restaurantSvc.SetOpen(r.Context(), actor.ID, chi.URLParam(r, "id"), req.IsOpen); err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "restaurant updated successfully", nil)
	}
}
