package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"

	"chopnow/internal/model"
	"chopnow/internal/mw"
	"chopnow/internal/service"
)

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

type authData struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func issueToken(secret string, user *model.User, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}

func validateRegister(req registerRequest) []string {
	var errs []string
	if !strings.Contains(req.Email, "@") || len(req.Email) > 100 {
		errs = append(errs, "email must be a valid address")
	}
	if msg := passwordError(req.Password); msg != "" {
		errs = append(errs, msg)
	}
	if len(strings.TrimSpace(req.Name)) < 2 {
		errs = append(errs, "name must be at least 2 characters long")
	}
	if req.Role != "" && req.Role != model.RoleCustomer &&
		req.Role != model.RoleRestaurantOwner && req.Role != model.RoleRider {
		errs = append(errs, "role must be one of: CUSTOMER, RESTAURANT_OWNER, RIDER")
	}
	return errs
}

func passwordError(password string) string {
	if len(password) < 8 || len(password) > 128 {
		return "password must be between 8 and 128 characters"
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "password must contain at least one uppercase letter, one lowercase letter and one number"
	}
	return ""
}

func RegisterHandler(authSvc *service.AuthService, guard *service.Guard, secret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if errs := validateRegister(req); len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "validation error", errs...)
			return
		}

		role := req.Role
		if role == "" {
			role = model.RoleCustomer
		}

		user, err := authSvc.Register(r.Context(), service.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     strings.TrimSpace(req.Name),
			Phone:    strings.TrimSpace(req.Phone),
			Role:     role,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		token, err := issueToken(secret, user, tokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "token generation failed")
			return
		}

		if err := guard.CreateSession(r.Context(), user.ID, token); err != nil {
			slog.Warn("session create failed", "user", user.ID, "error", err)
		}

		writeData(w, http.StatusCreated, "user registered successfully", authData{User: user, Token: token})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func LoginHandler(authSvc *service.AuthService, guard *service.Guard, secret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "validation error", "email and password are required")
			return
		}

		locked, err := guard.IsLocked(r.Context(), req.Email)
		if err != nil {
			slog.Warn("lockout check failed", "error", err)
		}
		if locked {
			writeError(w, http.StatusLocked, "account is temporarily locked due to multiple failed login attempts")
			return
		}

		user, err := authSvc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidCredentials):
				if gerr := guard.RegisterFailure(r.Context(), req.Email); gerr != nil {
					slog.Warn("failure tracking failed", "error", gerr)
				}
				writeError(w, http.StatusUnauthorized, "invalid email or password")
			case errors.Is(err, service.ErrAccountDisabled):
				writeError(w, http.StatusUnauthorized, "account is disabled")
			default:
				slog.Error("login failed", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		if err := guard.ClearFailures(r.Context(), req.Email); err != nil {
			slog.Warn("failure reset failed", "error", err)
		}

		token, err := issueToken(secret, user, tokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "token generation failed")
			return
		}

		if err := guard.CreateSession(r.Context(), user.ID, token); err != nil {
			slog.Warn("session create failed", "user", user.ID, "error", err)
		}

		writeData(w, http.StatusOK, "login successful", authData{User: user, Token: token})
	}
}

// LogoutHandler blacklists the presented token for its remaining lifetime
// and drops the session pointer.
func LogoutHandler(guard *service.Guard, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := r.Context().Value(mw.TokenCtxKey).(string)
		userID, _ := r.Context().Value(mw.UserCtxKey).(string)

		if claims, err := mw.ParseClaims(secret, token); err == nil && !claims.Exp.IsZero() {
			if err := guard.BlacklistToken(r.Context(), token, time.Until(claims.Exp)); err != nil {
				slog.Warn("token blacklist failed", "error", err)
			}
		}

		if err := guard.DeleteSession(r.Context(), userID); err != nil {
			slog.Warn("session delete failed", "user", userID, "error", err)
		}

		writeData(w, http.StatusOK, "logout successful", nil)
	}
}
