package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chopnow/internal/model"
)

// Postgres implements OrderStore over database/sql with the pgx driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) RestaurantByID(ctx context.Context, id string) (*model.Restaurant, error) {
	return scanRestaurant(p.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, COALESCE(description, ''), address, phone,
		       COALESCE(image_url, ''), delivery_fee, min_order, delivery_time,
		       rating, is_active, is_open, created_at
		FROM restaurants
		WHERE id = $1
	`, id))
}

func (p *Postgres) RestaurantByOwner(ctx context.Context, ownerID string) (*model.Restaurant, error) {
	return scanRestaurant(p.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, COALESCE(description, ''), address, phone,
		       COALESCE(image_url, ''), delivery_fee, min_order, delivery_time,
		       rating, is_active, is_open, created_at
		FROM restaurants
		WHERE owner_id = $1
	`, ownerID))
}

func scanRestaurant(row *sql.Row) (*model.Restaurant, error) {
	var r model.Restaurant
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Description, &r.Address, &r.Phone,
		&r.ImageURL, &r.DeliveryFee, &r.MinOrder, &r.DeliveryTime,
		&r.Rating, &r.IsActive, &r.IsOpen, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan restaurant: %w", err)
	}
	return &r, nil
}

func (p *Postgres) MenuItemsByIDs(ctx context.Context, ids []string) (map[string]model.MenuItem, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, COALESCE(description, ''), price,
		       COALESCE(category, ''), COALESCE(image_url, ''), is_available, created_at
		FROM menu_items
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	items := make(map[string]model.MenuItem, len(ids))
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price,
			&m.Category, &m.ImageURL, &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items[m.ID] = m
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

func (p *Postgres) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	o.ID = uuid.NewString()
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, customer_id, restaurant_id, delivery_address,
		                    delivery_notes, subtotal, delivery_fee, tax, total, status,
		                    estimated_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, o.ID, o.OrderNumber, o.CustomerID, o.RestaurantID, o.DeliveryAddress,
		nullable(o.DeliveryNotes), o.Subtotal, o.DeliveryFee, o.Tax, o.Total, o.Status,
		o.EstimatedDelivery, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.ID = uuid.NewString()
		item.OrderID = o.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, quantity, price, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.OrderID, item.MenuItemID, item.Quantity, item.Price, nullable(item.Notes))
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	o.Delivery = &model.Delivery{
		ID:      uuid.NewString(),
		OrderID: o.ID,
		Status:  model.DeliveryPending,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO deliveries (id, order_id, status) VALUES ($1, $2, $3)
	`, o.Delivery.ID, o.ID, o.Delivery.Status)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	o.Payment = &model.Payment{
		ID:      uuid.NewString(),
		OrderID: o.ID,
		Amount:  o.Total,
		Method:  "CASH",
		Status:  model.PaymentPending,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, method, status) VALUES ($1, $2, $3, $4, $5)
	`, o.Payment.ID, o.ID, o.Payment.Amount, o.Payment.Method, o.Payment.Status)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (p *Postgres) OrderByID(ctx context.Context, id string) (*model.Order, error) {
	var (
		o     model.Order
		rest  model.RestaurantSummary
		cust  model.UserSummary
		notes sql.NullString
		eta   sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT o.id, o.order_number, o.customer_id, o.restaurant_id, o.delivery_address,
		       o.delivery_notes, o.subtotal, o.delivery_fee, o.tax, o.total, o.status,
		       o.estimated_delivery, o.created_at, o.updated_at,
		       r.id, r.owner_id, r.name, r.address,
		       u.id, u.name, u.email
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		JOIN users u ON u.id = o.customer_id
		WHERE o.id = $1
	`, id).Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.RestaurantID, &o.DeliveryAddress,
		&notes, &o.Subtotal, &o.DeliveryFee, &o.Tax, &o.Total, &o.Status,
		&eta, &o.CreatedAt, &o.UpdatedAt,
		&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address,
		&cust.ID, &cust.Name, &cust.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query order: %w", err)
	}

	o.DeliveryNotes = notes.String
	if eta.Valid {
		t := eta.Time
		o.EstimatedDelivery = &t
	}
	o.Restaurant = &rest
	o.Customer = &cust

	if o.Items, err = p.orderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Delivery, err = p.orderDelivery(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Payment, err = p.orderPayment(ctx, o.ID); err != nil {
		return nil, err
	}

	return &o, nil
}

func (p *Postgres) orderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT i.id, i.order_id, i.menu_item_id, m.name, i.quantity, i.price, COALESCE(i.notes, '')
		FROM order_items i
		JOIN menu_items m ON m.id = i.menu_item_id
		WHERE i.order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.Price, &it.Notes); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

func (p *Postgres) orderDelivery(ctx context.Context, orderID string) (*model.Delivery, error) {
	var (
		d       model.Delivery
		riderID sql.NullString
		picked  sql.NullTime
		dropped sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, order_id, rider_id, status, picked_up_at, delivered_at
		FROM deliveries
		WHERE order_id = $1
	`, orderID).Scan(&d.ID, &d.OrderID, &riderID, &d.Status, &picked, &dropped)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query delivery: %w", err)
	}
	if riderID.Valid {
		d.RiderID = &riderID.String
	}
	if picked.Valid {
		t := picked.Time
		d.PickedUpAt = &t
	}
	if dropped.Valid {
		t := dropped.Time
		d.DeliveredAt = &t
	}
	return &d, nil
}

func (p *Postgres) orderPayment(ctx context.Context, orderID string) (*model.Payment, error) {
	var pay model.Payment
	err := p.db.QueryRowContext(ctx, `
		SELECT id, order_id, amount, method, status FROM payments WHERE order_id = $1
	`, orderID).Scan(&pay.ID, &pay.OrderID, &pay.Amount, &pay.Method, &pay.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &pay, nil
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, ch StatusChange) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    estimated_delivery = COALESCE($2, estimated_delivery),
		    updated_at = NOW()
		WHERE id = $3
	`, ch.Status, ch.EstimatedDelivery, ch.OrderID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if ch.DeliveryStatus != "" {
		// pickup/delivery stamps are set-once: a repeated transition must
		// not move an already recorded timestamp
		_, err = tx.ExecContext(ctx, `
			UPDATE deliveries
			SET status = $1,
			    picked_up_at = CASE WHEN $2 THEN COALESCE(picked_up_at, NOW()) ELSE picked_up_at END,
			    delivered_at = CASE WHEN $3 THEN COALESCE(delivered_at, NOW()) ELSE delivered_at END
			WHERE order_id = $4
		`, ch.DeliveryStatus, ch.StampPickup, ch.StampDelivery, ch.OrderID)
		if err != nil {
			return fmt.Errorf("update delivery: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (p *Postgres) CancelOrder(ctx context.Context, orderID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, model.StatusCancelled, orderID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payments SET status = $1 WHERE order_id = $2
	`, model.PaymentRefunded, orderID)
	if err != nil {
		return fmt.Errorf("refund payment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (p *Postgres) AssignRider(ctx context.Context, orderID, riderID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT rider_id FROM deliveries WHERE order_id = $1 FOR UPDATE
	`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get delivery: %w", err)
	}
	if current.Valid {
		return ErrDuplicate
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE deliveries SET rider_id = $1, status = $2 WHERE order_id = $3
	`, riderID, model.DeliveryAssigned, orderID)
	if err != nil {
		return fmt.Errorf("assign rider: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (p *Postgres) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	where := []string{"1=1"}
	args := []any{}

	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.CustomerID != "" {
		add("o.customer_id = $%d", f.CustomerID)
	}
	if f.RestaurantID != "" {
		add("o.restaurant_id = $%d", f.RestaurantID)
	}
	if f.RiderID != "" {
		add("d.rider_id = $%d", f.RiderID)
	}

	cond := strings.Join(where, " AND ")

	var total int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders o
		LEFT JOIN deliveries d ON d.order_id = o.id
		WHERE `+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT o.id, o.order_number, o.customer_id, o.restaurant_id, o.delivery_address,
		       o.delivery_notes, o.subtotal, o.delivery_fee, o.tax, o.total, o.status,
		       o.estimated_delivery, o.created_at, o.updated_at,
		       r.id, r.owner_id, r.name, r.address,
		       u.id, u.name, u.email
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		JOIN users u ON u.id = o.customer_id
		LEFT JOIN deliveries d ON d.order_id = o.id
		WHERE `+cond+`
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d
	`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var (
			o     model.Order
			rest  model.RestaurantSummary
			cust  model.UserSummary
			notes sql.NullString
			eta   sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.RestaurantID, &o.DeliveryAddress,
			&notes, &o.Subtotal, &o.DeliveryFee, &o.Tax, &o.Total, &o.Status,
			&eta, &o.CreatedAt, &o.UpdatedAt,
			&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address,
			&cust.ID, &cust.Name, &cust.Email); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		o.DeliveryNotes = notes.String
		if eta.Valid {
			t := eta.Time
			o.EstimatedDelivery = &t
		}
		o.Restaurant = &rest
		o.Customer = &cust
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, total, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
