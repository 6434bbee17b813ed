package handler

import (
	"errors"
	"net/http"

	"chopnow/internal/mw"
	"chopnow/internal/service"
)

func GetProfileHandler(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(mw.UserCtxKey).(string)

		user, err := authSvc.UserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeData(w, http.StatusOK, "", user)
	}
}
