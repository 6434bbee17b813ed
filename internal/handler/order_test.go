package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chopnow/internal/model"
	"chopnow/internal/mw"
	"chopnow/internal/repository"
	"chopnow/internal/service"
)

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, string, string, any) {}

func newOrderRouter(t *testing.T) (*chi.Mux, *repository.Memory) {
	t.Helper()

	store := repository.NewMemory()
	store.AddUser(model.User{ID: "cust-1", Email: "alice@example.com", Name: "Alice", Role: model.RoleCustomer})
	store.AddUser(model.User{ID: "owner-1", Email: "bob@example.com", Name: "Bob", Role: model.RoleRestaurantOwner})
	store.AddRestaurant(model.Restaurant{
		ID: "rest-1", OwnerID: "owner-1", Name: "Burger Barn", Address: "1 Main St",
		DeliveryFee: 2.99, MinOrder: 15.00, DeliveryTime: 30, IsActive: true, IsOpen: true,
	})
	store.AddMenuItem(model.MenuItem{ID: "item-burger", RestaurantID: "rest-1", Name: "Burger", Price: 10.00, IsAvailable: true})

	orderSvc := service.NewOrderService(store, noopNotifier{})

	r := chi.NewRouter()
	r.Get("/api/orders", ListOrdersHandler(orderSvc))
	r.Post("/api/orders", CreateOrderHandler(orderSvc))
	r.Get("/api/orders/{id}", GetOrderHandler(orderSvc))
	r.Put("/api/orders/{id}/status", UpdateOrderStatusHandler(orderSvc))
	r.Delete("/api/orders/{id}", CancelOrderHandler(orderSvc))
	r.Put("/api/deliveries/{orderID}/assign", AssignDeliveryHandler(orderSvc))
	return r, store
}

// doAs issues a request with the identity a passed auth middleware would
// have put in the context.
func doAs(t *testing.T, router http.Handler, userID string, role model.Role, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), mw.UserCtxKey, userID)
	ctx = context.WithValue(ctx, mw.RoleCtxKey, role)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func placeOrder(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodPost, "/api/orders", map[string]any{
		"restaurant_id":    "rest-1",
		"items":            []map[string]any{{"menu_item_id": "item-burger", "quantity": 5}},
		"delivery_address": "1 Elm St",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	return data["id"].(string)
}

func TestCreateOrderHandler(t *testing.T) {
	router, _ := newOrderRouter(t)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodPost, "/api/orders", map[string]any{
		"restaurant_id":    "rest-1",
		"items":            []map[string]any{{"menu_item_id": "item-burger", "quantity": 5}},
		"delivery_address": "1 Elm St",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, 56.99, data["total"])
	assert.Equal(t, "PENDING", data["status"])
	assert.NotEmpty(t, data["order_number"])
}

func TestCreateOrderHandler_NonCustomer(t *testing.T) {
	router, _ := newOrderRouter(t)

	rec := doAs(t, router, "owner-1", model.RoleRestaurantOwner, http.MethodPost, "/api/orders", map[string]any{
		"restaurant_id":    "rest-1",
		"items":            []map[string]any{{"menu_item_id": "item-burger", "quantity": 5}},
		"delivery_address": "1 Elm St",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateOrderHandler_Validation(t *testing.T) {
	router, _ := newOrderRouter(t)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodPost, "/api/orders", map[string]any{
		"restaurant_id": "rest-1",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["errors"])
}

func TestCreateOrderHandler_BelowMinimum(t *testing.T) {
	router, _ := newOrderRouter(t)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodPost, "/api/orders", map[string]any{
		"restaurant_id":    "rest-1",
		"items":            []map[string]any{{"menu_item_id": "item-burger", "quantity": 1}},
		"delivery_address": "1 Elm St",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "minimum")
}

func TestGetOrderHandler(t *testing.T) {
	router, store := newOrderRouter(t)
	store.AddUser(model.User{ID: "cust-2", Email: "carol@example.com", Name: "Carol", Role: model.RoleCustomer})
	orderID := placeOrder(t, router)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodGet, "/api/orders/"+orderID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doAs(t, router, "cust-2", model.RoleCustomer, http.MethodGet, "/api/orders/"+orderID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, router, "cust-1", model.RoleCustomer, http.MethodGet, "/api/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	router, _ := newOrderRouter(t)
	orderID := placeOrder(t, router)

	rec := doAs(t, router, "owner-1", model.RoleRestaurantOwner, http.MethodPut, "/api/orders/"+orderID+"/status",
		map[string]any{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "CONFIRMED", data["status"])
}

func TestUpdateOrderStatusHandler_InvalidStatus(t *testing.T) {
	router, _ := newOrderRouter(t)
	orderID := placeOrder(t, router)

	rec := doAs(t, router, "owner-1", model.RoleRestaurantOwner, http.MethodPut, "/api/orders/"+orderID+"/status",
		map[string]any{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatusHandler_CustomerDenied(t *testing.T) {
	router, _ := newOrderRouter(t)
	orderID := placeOrder(t, router)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodPut, "/api/orders/"+orderID+"/status",
		map[string]any{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelOrderHandler(t *testing.T) {
	router, _ := newOrderRouter(t)
	orderID := placeOrder(t, router)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodDelete, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "CANCELLED", data["status"])
}

func TestAssignDeliveryHandler(t *testing.T) {
	router, store := newOrderRouter(t)
	store.AddUser(model.User{ID: "rider-1", Email: "dave@example.com", Name: "Dave", Role: model.RoleRider})
	orderID := placeOrder(t, router)

	rec := doAs(t, router, "rider-1", model.RoleRider, http.MethodPut, "/api/deliveries/"+orderID+"/assign", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAs(t, router, "rider-2", model.RoleRider, http.MethodPut, "/api/deliveries/"+orderID+"/assign", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListOrdersHandler(t *testing.T) {
	router, _ := newOrderRouter(t)
	placeOrder(t, router)
	placeOrder(t, router)

	rec := doAs(t, router, "cust-1", model.RoleCustomer, http.MethodGet, "/api/orders?page=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(2), data["pages"])
	assert.Len(t, data["orders"].([]any), 1)
}
