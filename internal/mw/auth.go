package mw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chopnow/internal/model"
	"chopnow/internal/service"
)

type contextKey string

const (
	UserCtxKey  contextKey = "user_id"
	EmailCtxKey contextKey = "email"
	RoleCtxKey  contextKey = "role"
	TokenCtxKey contextKey = "token"
)

// Claims is the bearer token payload: subject, email and role.
type Claims struct {
	UserID string
	Email  string
	Role   model.Role
	Exp    time.Time
}

// ParseClaims verifies an HS256 token and extracts the claims. It does
// not consult the blacklist.
func ParseClaims(secret, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return nil, errors.New("incomplete claims")
	}

	out := &Claims{UserID: userID, Email: email, Role: model.Role(role)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Exp = exp.Time
	}
	return out, nil
}

// AuthMiddleware rejects requests without a valid, non-blacklisted bearer
// token and stores the token claims in the request context.
func AuthMiddleware(secret string, guard *service.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "access token required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "invalid token format")
				return
			}
			tokenString := parts[1]

			blacklisted, err := guard.IsBlacklisted(r.Context(), tokenString)
			if err == nil && blacklisted {
				unauthorized(w, "token has been invalidated")
				return
			}

			claims, err := ParseClaims(secret, tokenString)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailCtxKey, claims.Email)
			ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
			ctx = context.WithValue(ctx, TokenCtxKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
