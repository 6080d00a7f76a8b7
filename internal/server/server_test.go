package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"grocery/internal/config"
	"grocery/internal/domain/model"
	"grocery/internal/infra/db"
	"grocery/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testClient struct {
	baseURL string
	http    *http.Client
}

type errorBody struct {
	Error string `json:"error"`
}

type authBody struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type cartBody struct {
	Items []struct {
		Quantity int64 `json:"quantity"`
	} `json:"items"`
	Total int64 `json:"total"`
}

func newTestServer(t *testing.T) (*testClient, *gorm.DB) {
	t.Helper()

	cfg := config.Config{
		DBDriver:            "sqlite",
		SQLitePath:          filepath.Join(t.TempDir(), "server.db"),
		JWTSecret:           "test-secret",
		AccessTokenTTL:      time.Hour,
		BcryptCost:          4,
		FEURL:               "*",
		CheckoutMaxAttempts: 3,
		StrictOrderStatus:   true,
	}
	gormDB, err := db.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	ts := httptest.NewServer(server.New(cfg, server.Deps{DB: gormDB}))
	t.Cleanup(func() {
		ts.Close()
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &testClient{baseURL: ts.URL, http: ts.Client()}, gormDB
}

func (c *testClient) doJSON(t *testing.T, method, path, bearer string, body interface{}, header ...string) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.baseURL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := c.http.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func requireStatus(t *testing.T, got int, want int, body []byte) {
	t.Helper()
	require.Equal(t, want, got, "body=%s", string(body))
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body=%s", string(body))
	return v
}

func (c *testClient) register(t *testing.T, name string) authBody {
	t.Helper()
	status, body := c.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	requireStatus(t, status, http.StatusCreated, body)
	return decode[authBody](t, body)
}

// 登録してからDBでadminに昇格。roleは毎リクエストDBから読むのでトークンはそのまま使える。
func (c *testClient) registerAdmin(t *testing.T, gormDB *gorm.DB) authBody {
	t.Helper()
	out := c.register(t, "admin")
	require.NoError(t, gormDB.Model(&model.User{}).Where("id = ?", out.User.ID).Update("role", model.RoleAdmin).Error)
	return out
}

func (c *testClient) createProduct(t *testing.T, adminToken string, name string, price, stock int64) model.Product {
	t.Helper()
	status, body := c.doJSON(t, http.MethodPost, "/api/products", adminToken, map[string]interface{}{
		"name": name, "price": price, "stock": stock, "category": "dairy",
	})
	requireStatus(t, status, http.StatusCreated, body)
	return decode[model.Product](t, body)
}

func TestHealthz(t *testing.T) {
	c, _ := newTestServer(t)

	status, body := c.doJSON(t, http.MethodGet, "/healthz", "", nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	c, _ := newTestServer(t)

	status, body := c.doJSON(t, http.MethodGet, "/api/nope", "", nil)
	requireStatus(t, status, http.StatusNotFound, body)
	assert.NotEmpty(t, decode[errorBody](t, body).Error)
}

func TestAuthFlow(t *testing.T) {
	c, _ := newTestServer(t)

	alice := c.register(t, "alice")
	assert.NotEmpty(t, alice.Token)
	assert.Equal(t, model.RoleCustomer, alice.User.Role)

	//同じメールは409
	status, body := c.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "ALICE@example.com", "password": "password123",
	})
	requireStatus(t, status, http.StatusConflict, body)

	//短いパスワードは400
	status, body = c.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "short",
	})
	requireStatus(t, status, http.StatusBadRequest, body)

	status, body = c.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	requireStatus(t, status, http.StatusUnauthorized, body)

	status, body = c.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	requireStatus(t, status, http.StatusOK, body)
	login := decode[authBody](t, body)

	status, body = c.doJSON(t, http.MethodGet, "/api/auth", login.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, "alice@example.com", decode[model.User](t, body).Email)

	//旧ヘッダでも通る
	status, body = c.doJSON(t, http.MethodGet, "/api/auth", "", nil, "x-auth-token", login.Token)
	requireStatus(t, status, http.StatusOK, body)

	//全端末ログアウト後は両方のトークンが使えない
	status, body = c.doJSON(t, http.MethodPost, "/api/auth/logout-all", login.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	for _, tok := range []string{alice.Token, login.Token} {
		status, body = c.doJSON(t, http.MethodGet, "/api/auth", tok, nil)
		requireStatus(t, status, http.StatusUnauthorized, body)
	}
}

func TestProductAdminGate(t *testing.T) {
	c, gormDB := newTestServer(t)
	admin := c.registerAdmin(t, gormDB)
	alice := c.register(t, "alice")

	req := map[string]interface{}{"name": "Milk", "price": 199, "stock": 3}
	status, body := c.doJSON(t, http.MethodPost, "/api/products", "", req)
	requireStatus(t, status, http.StatusUnauthorized, body)
	status, body = c.doJSON(t, http.MethodPost, "/api/products", alice.Token, req)
	requireStatus(t, status, http.StatusForbidden, body)

	p := c.createProduct(t, admin.Token, "Milk", 199, 3)

	//部分更新。nameは変わらない
	status, body = c.doJSON(t, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), admin.Token, map[string]interface{}{"price": 249})
	requireStatus(t, status, http.StatusOK, body)
	updated := decode[model.Product](t, body)
	assert.Equal(t, "Milk", updated.Name)
	assert.Equal(t, int64(249), updated.Price)

	status, body = c.doJSON(t, http.MethodGet, "/api/products?q=mil", "", nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Len(t, decode[[]model.Product](t, body), 1)

	status, body = c.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), admin.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	status, body = c.doJSON(t, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), "", nil)
	requireStatus(t, status, http.StatusNotFound, body)
}

func TestCheckoutFlow(t *testing.T) {
	c, gormDB := newTestServer(t)
	admin := c.registerAdmin(t, gormDB)
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")
	p := c.createProduct(t, admin.Token, "Cheese", 250, 5)

	//在庫超過は400
	status, body := c.doJSON(t, http.MethodPost, "/api/cart", alice.Token, map[string]int64{"productId": p.ID, "quantity": 6})
	requireStatus(t, status, http.StatusBadRequest, body)

	status, body = c.doJSON(t, http.MethodPost, "/api/cart", alice.Token, map[string]int64{"productId": p.ID, "quantity": 2})
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, int64(500), decode[cartBody](t, body).Total)

	status, body = c.doJSON(t, http.MethodPost, "/api/orders", alice.Token, nil, "X-Idempotency-Key", "order-1")
	requireStatus(t, status, http.StatusCreated, body)
	order := decode[model.Order](t, body)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(500), order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Cheese", order.Items[0].ProductNameSnapshot)

	//同じキーなら同じ注文が返る
	status, body = c.doJSON(t, http.MethodPost, "/api/orders", alice.Token, nil, "X-Idempotency-Key", "order-1")
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, order.ID, decode[model.Order](t, body).ID)

	//カートは空、空カートの注文は400
	status, body = c.doJSON(t, http.MethodGet, "/api/cart", alice.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Empty(t, decode[cartBody](t, body).Items)
	status, body = c.doJSON(t, http.MethodPost, "/api/orders", alice.Token, nil)
	requireStatus(t, status, http.StatusBadRequest, body)

	status, body = c.doJSON(t, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), "", nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, int64(3), decode[model.Product](t, body).Stock)

	//他人の注文は存在しない扱い
	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	status, body = c.doJSON(t, http.MethodGet, orderPath, bob.Token, nil)
	requireStatus(t, status, http.StatusNotFound, body)
	status, body = c.doJSON(t, http.MethodGet, "/api/orders/999999", bob.Token, nil)
	requireStatus(t, status, http.StatusNotFound, body)
	status, body = c.doJSON(t, http.MethodGet, orderPath, admin.Token, nil)
	requireStatus(t, status, http.StatusOK, body)

	status, body = c.doJSON(t, http.MethodGet, "/api/orders", bob.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Empty(t, decode[[]model.Order](t, body))
	status, body = c.doJSON(t, http.MethodGet, "/api/orders?status=pending", admin.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Len(t, decode[[]model.Order](t, body), 1)

	//ステータス変更はadminのみ
	statusPath := orderPath + "/status"
	status, body = c.doJSON(t, http.MethodPut, statusPath, alice.Token, map[string]string{"status": "processing"})
	requireStatus(t, status, http.StatusForbidden, body)
	status, body = c.doJSON(t, http.MethodPut, statusPath, admin.Token, map[string]string{"status": "processing"})
	requireStatus(t, status, http.StatusOK, body)
	status, body = c.doJSON(t, http.MethodPut, statusPath, admin.Token, map[string]string{"status": "delivered"})
	requireStatus(t, status, http.StatusBadRequest, body)
	status, body = c.doJSON(t, http.MethodPut, statusPath, admin.Token, map[string]string{"status": "cancelled"})
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, model.OrderStatusCancelled, decode[model.Order](t, body).Status)

	//キャンセルで在庫が戻る
	status, body = c.doJSON(t, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), "", nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, int64(5), decode[model.Product](t, body).Stock)

	status, body = c.doJSON(t, http.MethodGet, "/api/admin/audit-logs?resource_type=order", admin.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Len(t, decode[[]model.AuditLog](t, body), 2)
	status, body = c.doJSON(t, http.MethodGet, "/api/admin/audit-logs", alice.Token, nil)
	requireStatus(t, status, http.StatusForbidden, body)
}

func TestCartLineOperations(t *testing.T) {
	c, gormDB := newTestServer(t)
	admin := c.registerAdmin(t, gormDB)
	alice := c.register(t, "alice")
	p := c.createProduct(t, admin.Token, "Eggs", 300, 10)
	linePath := fmt.Sprintf("/api/cart/%d", p.ID)

	status, body := c.doJSON(t, http.MethodPut, linePath, alice.Token, map[string]int64{"quantity": 2})
	requireStatus(t, status, http.StatusNotFound, body)

	status, body = c.doJSON(t, http.MethodPost, "/api/cart", alice.Token, map[string]int64{"product_id": p.ID, "quantity": 1})
	requireStatus(t, status, http.StatusOK, body)

	status, body = c.doJSON(t, http.MethodPut, linePath, alice.Token, map[string]int64{"quantity": 4})
	requireStatus(t, status, http.StatusOK, body)
	assert.Equal(t, int64(1200), decode[cartBody](t, body).Total)

	status, body = c.doJSON(t, http.MethodDelete, linePath, alice.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Empty(t, decode[cartBody](t, body).Items)

	status, body = c.doJSON(t, http.MethodDelete, "/api/cart", alice.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.JSONEq(t, `{"msg":"Cart cleared"}`, string(body))
}

func TestGroceryListsAndItems(t *testing.T) {
	c, _ := newTestServer(t)
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")

	status, body := c.doJSON(t, http.MethodPost, "/api/lists", alice.Token, map[string]string{"name": "Weekend"})
	requireStatus(t, status, http.StatusCreated, body)
	list := decode[model.List](t, body)

	status, body = c.doJSON(t, http.MethodPost, "/api/items", alice.Token, map[string]interface{}{
		"name": "Apples", "category": "produce", "quantity": 3, "list": list.ID,
	})
	requireStatus(t, status, http.StatusCreated, body)
	item := decode[model.Item](t, body)
	require.NotNil(t, item.ListID)
	itemPath := fmt.Sprintf("/api/items/%d", item.ID)

	status, body = c.doJSON(t, http.MethodGet, fmt.Sprintf("/api/items?list=%d", list.ID), alice.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	assert.Len(t, decode[[]model.Item](t, body), 1)

	//他人のアイテムは403、他人のリストへの付け替えは400
	status, body = c.doJSON(t, http.MethodGet, itemPath, bob.Token, nil)
	requireStatus(t, status, http.StatusForbidden, body)
	status, body = c.doJSON(t, http.MethodPost, "/api/items", bob.Token, map[string]interface{}{
		"name": "Pears", "category": "produce", "list": list.ID,
	})
	requireStatus(t, status, http.StatusBadRequest, body)

	//list: null でリストから外す
	status, body = c.doJSON(t, http.MethodPut, itemPath, alice.Token, map[string]interface{}{"list": nil, "purchased": true})
	requireStatus(t, status, http.StatusOK, body)
	updated := decode[model.Item](t, body)
	assert.Nil(t, updated.ListID)
	assert.True(t, updated.Purchased)
	assert.Equal(t, "Apples", updated.Name)

	status, body = c.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/lists/%d", list.ID), alice.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
	status, body = c.doJSON(t, http.MethodGet, itemPath, alice.Token, nil)
	requireStatus(t, status, http.StatusOK, body)
}
