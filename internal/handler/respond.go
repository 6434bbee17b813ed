package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chopnow/internal/service"
)

type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, code int, message string, fieldErrors ...string) {
	writeJSON(w, code, response{Success: false, Message: message, Errors: fieldErrors})
}

// writeServiceError maps service sentinel errors onto the HTTP taxonomy:
// 403 permission, 404 not found, 409 conflict, 400 business rule,
// 500 for everything unexpected.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrRestaurantNotFound),
		errors.Is(err, service.ErrMenuItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrOrderNumberConflict),
		errors.Is(err, service.ErrRiderAssigned),
		errors.Is(err, service.ErrOwnerHasRestaurant),
		errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRestaurantClosed),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrCancelWindowClosed),
		errors.Is(err, service.ErrOrderClosed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
