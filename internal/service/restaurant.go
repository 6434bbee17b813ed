package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"chopnow/internal/model"
)

type RestaurantService struct {
	db *sql.DB
}

func NewRestaurantService(db *sql.DB) *RestaurantService {
	return &RestaurantService{db: db}
}

const restaurantColumns = `id, owner_id, name, COALESCE(description, ''), address, phone,
	COALESCE(image_url, ''), delivery_fee, min_order, delivery_time, rating,
	is_active, is_open, created_at`

func scanRestaurantRow(scan func(dest ...any) error) (*model.Restaurant, error) {
	var r model.Restaurant
	err := scan(&r.ID, &r.OwnerID, &r.Name, &r.Description, &r.Address, &r.Phone,
		&r.ImageURL, &r.DeliveryFee, &r.MinOrder, &r.DeliveryTime, &r.Rating,
		&r.IsActive, &r.IsOpen, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns all active restaurants ordered by rating.
func (s *RestaurantService) List(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		WHERE is_active = TRUE
		ORDER BY rating DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []model.Restaurant
	for rows.Next() {
		r, err := scanRestaurantRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, *r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return restaurants, nil
}

func (s *RestaurantService) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	r, err := scanRestaurantRow(s.db.QueryRowContext(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1
	`, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return r, nil
}

type RestaurantInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone"`
	ImageURL     string  `json:"image_url,omitempty"`
	DeliveryFee  float64 `json:"delivery_fee"`
	MinOrder     float64 `json:"min_order"`
	DeliveryTime int     `json:"delivery_time"`
}

// Create registers the owner's restaurant. One restaurant per owner.
func (s *RestaurantService) Create(ctx context.Context, ownerID string, in RestaurantInput) (*model.Restaurant, error) {
	if in.DeliveryTime <= 0 {
		in.DeliveryTime = 30
	}

	r, err := scanRestaurantRow(s.db.QueryRowContext(ctx, `
		INSERT INTO restaurants (owner_id, name, description, address, phone, image_url,
		                         delivery_fee, min_order, delivery_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+restaurantColumns,
		ownerID, in.Name, nullString(in.Description), in.Address, in.Phone,
		nullString(in.ImageURL), in.DeliveryFee, in.MinOrder, in.DeliveryTime).Scan)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrOwnerHasRestaurant
		}
		return nil, fmt.Errorf("insert restaurant: %w", err)
	}

	return r, nil
}

// SetOpen toggles order acceptance for the owner's restaurant.
func (s *RestaurantService) SetOpen(ctx context.Context, ownerID, restaurantID string, open bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE restaurants SET is_open = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, open, restaurantID, ownerID)
	if err != nil {
		return fmt.Errorf("update restaurant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.restaurantAccessError(ctx, restaurantID)
	}
	return nil
}

func (s *RestaurantService) Menu(ctx context.Context, restaurantID string) ([]model.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, COALESCE(description, ''), price,
		       COALESCE(category, ''), COALESCE(image_url, ''), is_available, created_at
		FROM menu_items
		WHERE restaurant_id = $1 AND is_available = TRUE
		ORDER BY category ASC, name ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price,
			&m.Category, &m.ImageURL, &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

type MenuItemInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

func (s *RestaurantService) CreateMenuItem(ctx context.Context, ownerID, restaurantID string, in MenuItemInput) (*model.MenuItem, error) {
	if err := s.checkOwnership(ctx, ownerID, restaurantID); err != nil {
		return nil, err
	}

	var m model.MenuItem
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (restaurant_id, name, description, price, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, restaurant_id, name, COALESCE(description, ''), price,
		          COALESCE(category, ''), COALESCE(image_url, ''), is_available, created_at
	`, restaurantID, in.Name, nullString(in.Description), in.Price,
		nullString(in.Category), nullString(in.ImageURL)).
		Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price,
			&m.Category, &m.ImageURL, &m.IsAvailable, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}

	return &m, nil
}

type MenuItemUpdate struct {
	Price       *float64 `json:"price,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
	Description *string  `json:"description,omitempty"`
}

func (s *RestaurantService) UpdateMenuItem(ctx context.Context, ownerID, itemID string, in MenuItemUpdate) (*model.MenuItem, error) {
	var restaurantID string
	err := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id FROM menu_items WHERE id = $1
	`, itemID).Scan(&restaurantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	if err := s.checkOwnership(ctx, ownerID, restaurantID); err != nil {
		return nil, err
	}

	var m model.MenuItem
	err = s.db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET price = COALESCE($1, price),
		    is_available = COALESCE($2, is_available),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $4
		RETURNING id, restaurant_id, name, COALESCE(description, ''), price,
		          COALESCE(category, ''), COALESCE(image_url, ''), is_available, created_at
	`, in.Price, in.IsAvailable, in.Description, itemID).
		Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price,
			&m.Category, &m.ImageURL, &m.IsAvailable, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}

	return &m, nil
}

func (s *RestaurantService) checkOwnership(ctx context.Context, ownerID, restaurantID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id FROM restaurants WHERE id = $1
	`, restaurantID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRestaurantNotFound
		}
		return fmt.Errorf("get restaurant owner: %w", err)
	}
	if owner != ownerID {
		return ErrPermissionDenied
	}
	return nil
}

// restaurantAccessError distinguishes a missing restaurant from one owned
// by someone else after a scoped update matched no rows.
func (s *RestaurantService) restaurantAccessError(ctx context.Context, restaurantID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM restaurants WHERE id = $1)
	`, restaurantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check restaurant: %w", err)
	}
	if !exists {
		return ErrRestaurantNotFound
	}
	return ErrPermissionDenied
}
