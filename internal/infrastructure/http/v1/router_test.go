package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/domaintest"
	v1 "distribuidora/internal/infrastructure/http/v1"
	"distribuidora/internal/infrastructure/http/v1/middleware"
	"distribuidora/internal/infrastructure/storage/postgres"
	"distribuidora/pkg/logger"
)

type memoryIdempotency struct {
	mu      sync.Mutex
	replays map[string]*postgres.IdempotencyReplay
}

func (m *memoryIdempotency) AcquireKey(_ context.Context, key, _, _, _ string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replays[key], nil
}

func (m *memoryIdempotency) CompleteKey(_ context.Context, key string, status int, contentType string, response any) error {
	return m.store(key, status, contentType, response)
}

func (m *memoryIdempotency) FailKey(_ context.Context, key string, status int, contentType string, response any) error {
	return m.store(key, status, contentType, response)
}

func (m *memoryIdempotency) store(key string, status int, contentType string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replays[key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: contentType, Body: body}
	return nil
}

type testServer struct {
	router *gin.Engine
	f      *domaintest.Fixture
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := domaintest.NewFixture(domaintest.Options{})
	router, err := v1.NewRouter(v1.RouterConfig{
		Logger:       logger.NewNop(),
		Tenants:      tenant.NewRegistry(string(tenant.Uruapan), string(tenant.Lazaro)),
		JWTValidator: auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		Idempotency:  &memoryIdempotency{replays: map[string]*postgres.IdempotencyReplay{}},
		Services: v1.Services{
			Auth:        f.Auth,
			Products:    f.Products,
			Customers:   f.Customers,
			Routes:      f.Routes,
			Adjustments: f.Adjustments,
			Sales:       f.Sales,
			Dispatches:  f.Dispatches,
			Ledger:      f.Ledger,
		},
	})
	require.NoError(t, err)
	return &testServer{router: router, f: f}
}

// user creates a user directly and logs in over HTTP.
func (s *testServer) user(t *testing.T, city tenant.Key, username string, role auth.Role) string {
	t.Helper()
	_, err := s.f.Auth.CreateUser(domaintest.Ctx(city, "seed"), auth.CreateUserRequest{
		Username:    username,
		Password:    "secreto-123",
		DisplayName: username,
		Role:        role,
	})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"city":     string(city),
		"username": username,
		"password": "secreto-123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token.AccessToken)
	return resp.Token.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_UnknownCity(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"city": "MORELIA", "username": "x", "password": "y",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.user(t, tenant.Uruapan, "gerente", auth.RoleManager)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"city": "uruapan", "username": "gerente", "password": "incorrecta",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "gerente", auth.RoleManager)

	w := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "gerente", body["username"])
	assert.Equal(t, "URUAPAN", body["city"])
}

func TestAuth_MissingToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestAuth_CityHeaderMustMatchToken(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "gerente", auth.RoleManager)

	w := s.do(t, http.MethodGet, "/api/v1/products", token, nil, middleware.TenantHeader, "LAZARO")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/products", token, nil, middleware.TenantHeader, "uruapan")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoles_CarrierCannotWriteCatalog(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "chofer", auth.RoleCarrier)

	w := s.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name": "hielo", "price": "25", "quantity": 10,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/products", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoles_OnlyManagerCreatesUsers(t *testing.T) {
	s := newTestServer(t)
	cashier := s.user(t, tenant.Uruapan, "cajera", auth.RoleCashier)
	manager := s.user(t, tenant.Uruapan, "gerente", auth.RoleManager)
	req := map[string]any{
		"username": "nuevo", "password": "password-123", "displayName": "Nuevo", "role": "carrier",
	}

	w := s.do(t, http.MethodPost, "/api/v1/users", cashier, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/users", manager, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "CARRIER", decode(t, w)["role"])
}

func TestProductAndCounterSale(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "cajera", auth.RoleCashier)

	w := s.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name": "hielo", "price": "25", "quantity": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode(t, w)
	assert.Equal(t, "HIELO", product["name"])
	productID := product["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"payment": "cash",
		"lines":   []map[string]any{{"productId": productID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "M-1", decode(t, w)["folio"])

	w = s.do(t, http.MethodGet, "/api/v1/products/"+productID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 17, decode(t, w)["quantity"])

	w = s.do(t, http.MethodGet, "/api/v1/products/"+productID+"/movements?sourceType=sale", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
}

func TestSale_InsufficientStock(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "cajera", auth.RoleCashier)
	p := s.f.Product(t, domaintest.Ctx(tenant.Uruapan, "seed"), "agua", 1, "15")

	w := s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"payment": "CASH",
		"lines":   []map[string]any{{"productId": p.ID.String(), "quantity": 5}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, w)["code"])
	assert.Equal(t, 1.0, s.f.Quantity(p.ID))
}

func TestValidation_ReportsFields(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "cajera", auth.RoleCashier)

	w := s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{"payment": "BITCOIN"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	details := decode(t, w)["details"].(map[string]any)
	assert.Contains(t, details, "fields")
}

func TestIdempotency_ReplaysCreate(t *testing.T) {
	s := newTestServer(t)
	token := s.user(t, tenant.Uruapan, "cajera", auth.RoleCashier)
	body := map[string]any{"name": "hielo", "price": "25", "quantity": 20}

	first := s.do(t, http.MethodPost, "/api/v1/products", token, body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := s.do(t, http.MethodPost, "/api/v1/products", token, body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])

	w := s.do(t, http.MethodGet, "/api/v1/products", token, nil)
	assert.EqualValues(t, 1, decode(t, w)["totalCount"])
}

func TestCitiesAreIsolated(t *testing.T) {
	s := newTestServer(t)
	uruapan := s.user(t, tenant.Uruapan, "cajera", auth.RoleCashier)
	lazaro := s.user(t, tenant.Lazaro, "cajera", auth.RoleCashier)
	p := s.f.Product(t, domaintest.Ctx(tenant.Uruapan, "seed"), "hielo", 5, "25")

	w := s.do(t, http.MethodGet, "/api/v1/products/"+p.ID.String(), uruapan, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/products/"+p.ID.String(), lazaro, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
