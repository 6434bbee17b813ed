package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chopnow/internal/model"
	"chopnow/internal/service"
)

func ListMenuHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := restaurantSvc.Menu(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if items == nil {
			items = []model.MenuItem{}
		}

		writeData(w, http.StatusOK, "", items)
	}
}

func CreateMenuItemHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.Role != model.RoleRestaurantOwner {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		var in service.MenuItemInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		var errs []string
		if in.Name == "" {
			errs = append(errs, "name is required")
		}
		if in.Price <= 0 {
			errs = append(errs, "price must be greater than zero")
		}
		if len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "validation error", errs...)
			return
		}

		item, err := restaurantSvc.CreateMenuItem(r.Context(), actor.ID, chi.URLParam(r, "id"), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusCreated, "menu item created successfully", item)
	}
}

func UpdateMenuItemHandler(restaurantSvc *service.RestaurantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.Role != model.RoleRestaurantOwner {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		var in service.MenuItemUpdate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if in.Price != nil && *in.Price <= 0 {
			writeError(w, http.StatusBadRequest, "validation error", "price must be greater than zero")
			return
		}

		item, err := restaurantSvc.UpdateMenuItem(r.Context(), actor.ID, chi.URLParam(r, "id"), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeData(w, http.StatusOK, "menu item updated successfully", item)
	}
}
