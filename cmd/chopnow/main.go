package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"chopnow/internal/config"
	"chopnow/internal/database"
	"chopnow/internal/handler"
	"chopnow/internal/mw"
	"chopnow/internal/notify"
	"chopnow/internal/repository"
	"chopnow/internal/service"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(context.Background(), db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services
	guard := service.NewGuard(rdb)
	notifier := notify.NewRedisNotifier(rdb)
	store := repository.NewPostgres(db)
	authSvc := service.NewAuthService(db)
	orderSvc := service.NewOrderService(store, notifier)
	restaurantSvc := service.NewRestaurantService(db)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(guard))
		r.Post("/api/auth/register", handler.RegisterHandler(authSvc, guard, cfg.JWTSecret, cfg.TokenTTL))
		r.Post("/api/auth/login", handler.LoginHandler(authSvc, guard, cfg.JWTSecret, cfg.TokenTTL))
	})
	r.Get("/api/restaurants", handler.ListRestaurantsHandler(restaurantSvc))
	r.Get("/api/restaurants/{id}", handler.GetRestaurantHandler(restaurantSvc))
	r.Get("/api/restaurants/{id}/menu", handler.ListMenuHandler(restaurantSvc))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret, guard))

		r.Post("/api/auth/logout", handler.LogoutHandler(guard, cfg.JWTSecret))
		r.Get("/api/users/me", handler.GetProfileHandler(authSvc))

		r.Get("/api/orders", handler.ListOrdersHandler(orderSvc))
		r.Post("/api/orders", handler.CreateOrderHandler(orderSvc))
		r.Get("/api/orders/{id}", handler.GetOrderHandler(orderSvc))
		r.Put("/api/orders/{id}/status", handler.UpdateOrderStatusHandler(orderSvc))
		r.Delete("/api/orders/{id}", handler.CancelOrderHandler(orderSvc))

		r.Put("/api/deliveries/{orderID}/assign", handler.AssignDeliveryHandler(orderSvc))

		r.Post("/api/restaurants", handler.CreateRestaurantHandler(restaurantSvc))
		r.Put("/api/restaurants/{id}/status", handler.SetRestaurantOpenHandler(restaurantSvc))
		r.Post("/api/restaurants/{id}/menu", handler.CreateMenuItemHandler(restaurantSvc))
		r.Put("/api/menu/{id}", handler.UpdateMenuItemHandler(restaurantSvc))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
