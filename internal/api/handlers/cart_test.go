package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/servicehubhq/cart-service/internal/api/handlers"
	"github.com/servicehubhq/cart-service/internal/cart"
	"github.com/servicehubhq/cart-service/internal/events"
	"github.com/servicehubhq/cart-service/internal/models"
	service "github.com/servicehubhq/cart-service/internal/services"
	"github.com/servicehubhq/cart-service/internal/testutils"
	"github.com/servicehubhq/cart-service/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLocal struct {
	mu        sync.Mutex
	snapshots map[string][]models.CartLineItem
}

func newMemoryLocal() *memoryLocal {
	return &memoryLocal{snapshots: make(map[string][]models.CartLineItem)}
}

func (m *memoryLocal) Read(_ context.Context, deviceID string) ([]models.CartLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.CartLineItem(nil), m.snapshots[deviceID]...), nil
}

func (m *memoryLocal) Write(_ context.Context, deviceID string, items []models.CartLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[deviceID] = append([]models.CartLineItem(nil), items...)

	return nil
}

func (m *memoryLocal) Delete(_ context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, deviceID)

	return nil
}

type stubGateway struct {
	mu     sync.Mutex
	remote []models.CartLineItem
	pushed [][]models.CartLineItem
}

func (g *stubGateway) FetchCart(context.Context) ([]models.CartLineItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]models.CartLineItem(nil), g.remote...), nil
}

func (g *stubGateway) ReplaceCart(_ context.Context, items []models.CartLineItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pushed = append(g.pushed, items)

	return nil
}

func (g *stubGateway) pushCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.pushed)
}

func setupCartTest() (*memoryLocal, *stubGateway, *handlers.CartHandler) {
	local := newMemoryLocal()
	remote := &stubGateway{}
	store := cart.NewStore(local, remote, events.NewNotifier(), time.Second)
	handler := handlers.NewCartHandler(service.NewCartService(store))

	return local, remote, handler
}

func decodeCart(t *testing.T, recorder *httptest.ResponseRecorder) models.CartResponse {
	t.Helper()

	var resp struct {
		Success bool                `json:"success"`
		Data    models.CartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	return resp.Data
}

func int64Ptr(v int64) *int64 { return &v }

func addItemBody(t *testing.T, productID string, qty int, price int64) []byte {
	t.Helper()

	body, err := json.Marshal(models.AddItemRequest{
		ProductID:     productID,
		ProductName:   "Product " + productID,
		AccessType:    models.AccessShared,
		BillingPeriod: models.BillingMonthly,
		Quantity:      qty,
		Prices:        models.PriceSnapshot{PriceSharedMonthly: int64Ptr(price)},
	})
	require.NoError(t, err)

	return body
}

func TestAddItemHandler(t *testing.T) {
	t.Run("Success - Adds And Returns Cart With Total", func(t *testing.T) {
		// Arrange
		_, _, handler := setupCartTest()
		req := testutils.CreateAnonymousRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemBody(t, "p1", 2, 500)), "device-1")
		recorder := httptest.NewRecorder()

		// Act
		handler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		data := decodeCart(t, recorder)
		require.Len(t, data.Items, 1)
		assert.Equal(t, "sharedMonthly", data.Items[0].SelectedPlan)
		assert.Equal(t, int64(1000), data.Total)
	})

	t.Run("Failure - Missing Device ID", func(t *testing.T) {
		_, _, handler := setupCartTest()
		req := testutils.CreateAnonymousRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemBody(t, "p1", 1, 500)), "")
		recorder := httptest.NewRecorder()

		handler.AddItem()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Failure - Validation Errors Are Itemized", func(t *testing.T) {
		_, _, handler := setupCartTest()

		body, err := json.Marshal(map[string]any{"productId": "p1", "quantity": 0})
		require.NoError(t, err)

		req := testutils.CreateAnonymousRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body), "device-1")
		recorder := httptest.NewRecorder()

		handler.AddItem()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.NotEmpty(t, resp.Error.Details)
	})

	t.Run("Failure - Empty Body", func(t *testing.T) {
		_, _, handler := setupCartTest()
		req := testutils.CreateAnonymousRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(nil), "device-1")
		recorder := httptest.NewRecorder()

		handler.AddItem()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Authenticated - Push Reaches Gateway", func(t *testing.T) {
		_, remote, handler := setupCartTest()
		req := testutils.CreateAuthenticatedRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(addItemBody(t, "p1", 1, 500)), "device-1", uuid.New())
		recorder := httptest.NewRecorder()

		handler.AddItem()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Eventually(t, func() bool { return remote.pushCount() == 1 }, time.Second, 5*time.Millisecond)
	})
}

func TestGetCartHandler(t *testing.T) {
	t.Run("Anonymous - Returns Local Cart", func(t *testing.T) {
		local, _, handler := setupCartTest()

		seed := []models.CartLineItem{{
			ProductID:     "p1",
			ProductName:   "Product p1",
			SelectedPlan:  "sharedMonthly",
			AccessType:    models.AccessShared,
			BillingPeriod: models.BillingMonthly,
			Price:         500,
			Quantity:      2,
		}}
		require.NoError(t, local.Write(context.Background(), "device-1", seed))

		req := testutils.CreateAnonymousRequest(http.MethodGet, "/api/v1/cart", nil, "device-1")
		recorder := httptest.NewRecorder()

		handler.GetCart()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := decodeCart(t, recorder)
		require.Len(t, data.Items, 1)
		assert.Equal(t, int64(1000), data.Total)
	})

	t.Run("Authenticated - Merges Remote Cart", func(t *testing.T) {
		local, remote, handler := setupCartTest()

		require.NoError(t, local.Write(context.Background(), "device-1", []models.CartLineItem{{
			ProductID: "A", SelectedPlan: "sharedMonthly", Price: 500, Quantity: 3,
		}}))
		remote.remote = []models.CartLineItem{
			{ProductID: "A", SelectedPlan: "sharedMonthly", Price: 500, Quantity: 1},
			{ProductID: "C", SelectedPlan: "privateYearly", Price: 9000, Quantity: 1},
		}

		req := testutils.CreateAuthenticatedRequest(http.MethodGet, "/api/v1/cart", nil, "device-1", uuid.New())
		recorder := httptest.NewRecorder()

		handler.GetCart()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := decodeCart(t, recorder)
		require.Len(t, data.Items, 2)
		assert.Equal(t, "A", data.Items[0].ProductID)
		assert.Equal(t, 3, data.Items[0].Quantity) // local quantity wins
		assert.Equal(t, "C", data.Items[1].ProductID)
	})
}

func TestUpdateQuantityHandler(t *testing.T) {
	t.Run("Success - Applies Delta", func(t *testing.T) {
		local, _, handler := setupCartTest()

		require.NoError(t, local.Write(context.Background(), "device-1", []models.CartLineItem{{
			ProductID: "p1", SelectedPlan: "sharedMonthly", Price: 500, Quantity: 3,
		}}))

		body, err := json.Marshal(models.UpdateQuantityRequest{ProductID: "p1", SelectedPlan: "sharedMonthly", Delta: -1})
		require.NoError(t, err)

		req := testutils.CreateAnonymousRequest(http.MethodPatch, "/api/v1/cart/items", bytes.NewReader(body), "device-1")
		recorder := httptest.NewRecorder()

		handler.UpdateQuantity()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := decodeCart(t, recorder)
		assert.Equal(t, 2, data.Items[0].Quantity)
	})

	t.Run("Failure - Unknown Item", func(t *testing.T) {
		_, _, handler := setupCartTest()

		body, err := json.Marshal(models.UpdateQuantityRequest{ProductID: "ghost", SelectedPlan: "sharedMonthly", Delta: 1})
		require.NoError(t, err)

		req := testutils.CreateAnonymousRequest(http.MethodPatch, "/api/v1/cart/items", bytes.NewReader(body), "device-1")
		recorder := httptest.NewRecorder()

		handler.UpdateQuantity()(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestRemoveAndClearHandlers(t *testing.T) {
	t.Run("Remove Item", func(t *testing.T) {
		local, _, handler := setupCartTest()

		require.NoError(t, local.Write(context.Background(), "device-1", []models.CartLineItem{
			{ProductID: "p1", SelectedPlan: "sharedMonthly", Price: 500, Quantity: 1},
			{ProductID: "p2", SelectedPlan: "privateYearly", Price: 9000, Quantity: 1},
		}))

		body, err := json.Marshal(models.RemoveItemRequest{ProductID: "p1", SelectedPlan: "sharedMonthly"})
		require.NoError(t, err)

		req := testutils.CreateAnonymousRequest(http.MethodDelete, "/api/v1/cart/items", bytes.NewReader(body), "device-1")
		recorder := httptest.NewRecorder()

		handler.RemoveItem()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := decodeCart(t, recorder)
		require.Len(t, data.Items, 1)
		assert.Equal(t, "p2", data.Items[0].ProductID)
	})

	t.Run("Clear Cart", func(t *testing.T) {
		local, _, handler := setupCartTest()

		require.NoError(t, local.Write(context.Background(), "device-1", []models.CartLineItem{
			{ProductID: "p1", SelectedPlan: "sharedMonthly", Price: 500, Quantity: 1},
		}))

		req := testutils.CreateAnonymousRequest(http.MethodDelete, "/api/v1/cart", nil, "device-1")
		recorder := httptest.NewRecorder()

		handler.ClearCart()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := decodeCart(t, recorder)
		assert.Empty(t, data.Items)
		assert.Equal(t, int64(0), data.Total)
	})
}

func TestQuoteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := cart.NewStore(newMemoryLocal(), &stubGateway{}, events.NewNotifier(), time.Second)
		handler := handlers.NewPricingHandler(service.NewCartService(store))

		body, err := json.Marshal(models.QuoteRequest{
			AccessType:    models.AccessPrivate,
			BillingPeriod: models.BillingMonthly,
			Prices:        models.PriceSnapshot{PrivatePriceMonthly: int64Ptr(900)},
		})
		require.NoError(t, err)

		req := testutils.CreateAnonymousRequest(http.MethodPost, "/api/v1/pricing/quote", bytes.NewReader(body), "")
		recorder := httptest.NewRecorder()

		handler.Quote()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				SelectedPlan string `json:"selectedPlan"`
				Price        int64  `json:"price"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "privateMonthly", resp.Data.SelectedPlan)
		assert.Equal(t, int64(900), resp.Data.Price)
	})

	t.Run("Failure - Invalid Variant", func(t *testing.T) {
		store := cart.NewStore(newMemoryLocal(), &stubGateway{}, events.NewNotifier(), time.Second)
		handler := handlers.NewPricingHandler(service.NewCartService(store))

		body, err := json.Marshal(map[string]string{"accessType": "pooled", "billingPeriod": "monthly"})
		require.NoError(t, err)

		req := testutils.CreateAnonymousRequest(http.MethodPost, "/api/v1/pricing/quote", bytes.NewReader(body), "")
		recorder := httptest.NewRecorder()

		handler.Quote()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
