package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/cache"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/config"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/database/dbtest"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/clock"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
)

type envelope struct {
	Success bool                `json:"success"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	clock  *clock.MockClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithCatalog(t, nil)
}

// newTestServerWithCatalog uses categories, or a lazy loader for the
// repository catalog when it is nil.
func newTestServerWithCatalog(t *testing.T, categories *catalog.Loader) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	redisClient, err := cache.NewRedisClient(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret",
		JWTTTL:              time.Hour,
		CategoryCatalogPath: "../../config/constants/products/product_category.json",
		CORSAllowedHosts:    []string{"localhost:5173"},
		Redis:               config.RedisConfig{ListCacheTTL: time.Minute},
		Pagination:          config.PaginationConfig{PerPage: 15, MaxPerPage: 100},
	}
	clk := clock.NewMockClock(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	if categories == nil {
		categories = catalog.NewLoader(cfg.CategoryCatalogPath)
	}
	app := buildApp(cfg, dbtest.New(t), redisClient, categories, clk)
	t.Cleanup(app.Close)

	return &testServer{t: t, router: app.Router, clock: clk}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) register(name, email string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "password_confirmation": "password123",
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

type productJSON struct {
	ID            int64  `json:"product_id"`
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	Brand         string `json:"brand"`
	Price         string `json:"price"`
	Category      string `json:"category"`
	StockQuantity int    `json:"stock_quantity"`
}

func (s *testServer) createProduct(token, name, category string, price float64, stock int) productJSON {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name": name, "brand": "Acme", "price": price, "category": category, "stock_quantity": stock,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	assert.Equal(s.t, "Product stored successfully.", env.Message)
	var p productJSON
	require.NoError(s.t, json.Unmarshal(env.Data, &p))
	return p
}

type pageJSON struct {
	CurrentPage int           `json:"current_page"`
	Data        []productJSON `json:"data"`
	From        *int          `json:"from"`
	To          *int          `json:"to"`
	LastPage    int           `json:"last_page"`
	PerPage     int           `json:"per_page"`
	Total       int           `json:"total"`
	NextPageURL *string       `json:"next_page_url"`
	Path        string        `json:"path"`
	Links       []struct {
		URL    *string `json:"url"`
		Label  string  `json:"label"`
		Active bool    `json:"active"`
	} `json:"links"`
}

func (s *testServer) list(token, query string) (int, pageJSON, envelope) {
	s.t.Helper()
	code, env := s.do(http.MethodGet, "/api/v1/products"+query, token, nil)
	var page pageJSON
	if code == http.StatusOK {
		require.NoError(s.t, json.Unmarshal(env.Data, &page))
	}
	return code, page, env
}

func TestAPI_ProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	p := s.createProduct(alice, "Gaming Laptop", "computers", 1499.5, 3)
	assert.Equal(t, "1499.50", p.Price)

	code, page, _ := s.list(alice, "?filter[name]=laptop")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, page.Data, 1)
	assert.Equal(t, p.ID, page.Data[0].ID)

	// Foreign update is rejected and leaves the record alone.
	code, env := s.do(http.MethodPut, fmt.Sprintf("/api/v1/products/%d", p.ID), bob, map[string]interface{}{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You do not own this product to modify this.", env.Message)

	code, env = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", p.ID), alice, map[string]interface{}{"stock_quantity": 10})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Product updated successfully.", env.Message)
	var updated productJSON
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Gaming Laptop", updated.Name)
	assert.Equal(t, 10, updated.StockQuantity)

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", p.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", p.ID), alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Product deleted successfully.", env.Message)

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, page, _ = s.list(alice, "")
	assert.Empty(t, page.Data)
	assert.Zero(t, page.Total)
}

func TestAPI_Validation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice", "alice@example.com")

	code, env := s.do(http.MethodPost, "/api/v1/products", alice, map[string]interface{}{
		"name": "Lamp", "brand": "Acme", "price": 10, "category": "spaceships", "stock_quantity": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, []string{"The selected category is invalid."}, env.Errors["category"])

	code, env = s.do(http.MethodPost, "/api/v1/products", alice, `{"name":"Lamp","brand":"Acme","price":10,"category":"furniture","stock_quantity":"many"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "stock_quantity")

	code, env = s.do(http.MethodPost, "/api/v1/products", alice, `{"name":"Lamp","brand":"Acme","price":"cheap","category":"furniture","stock_quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "price")

	code, _ = s.do(http.MethodPost, "/api/v1/products", alice, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, env = s.list(alice, "?filter[color]=red")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "filter")

	code, _, env = s.list(alice, "?sort=name")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "sort")

	code, _ = s.do(http.MethodGet, "/api/v1/products/abc", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_BodyBinding(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice", "alice@example.com")

	code, env := s.do(http.MethodPost, "/api/v1/products", alice, `{"name":5,"brand":"Acme","price":10,"category":"furniture","stock_quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, []string{"The name field must be a string."}, env.Errors["name"])

	code, env = s.do(http.MethodPost, "/api/v1/products", alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	for _, field := range []string{"name", "brand", "price", "category", "stock_quantity"} {
		assert.Contains(t, env.Errors, field)
	}

	code, env = s.do(http.MethodPost, "/api/v1/products", alice, `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", env.Message)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", `{"email":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestAPI_PaginationEnvelope(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice", "alice@example.com")
	for i := 0; i < 35; i++ {
		s.createProduct(alice, fmt.Sprintf("Item %02d", i), "books", float64(i), i)
		s.clock.Advance(time.Second)
	}

	code, page, _ := s.list(alice, "?page=2&sort=-price")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 35, page.Total)
	require.Len(t, page.Data, 15)
	assert.Equal(t, "Item 19", page.Data[0].Name)
	require.NotNil(t, page.From)
	assert.Equal(t, 16, *page.From)
	require.NotNil(t, page.NextPageURL)
	assert.Contains(t, *page.NextPageURL, "page=3")
	assert.Contains(t, *page.NextPageURL, "sort=-price")
	assert.Equal(t, "&laquo; Previous", page.Links[0].Label)
	assert.True(t, page.Links[2].Active)

	_, page, _ = s.list(alice, "?page=3")
	assert.Len(t, page.Data, 5)

	_, page, _ = s.list(alice, "?page=7")
	assert.Empty(t, page.Data)
	assert.Equal(t, 7, page.CurrentPage)
	assert.Equal(t, 35, page.Total)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)

	_, page, _ = s.list(alice, "?per_page=1000")
	assert.Equal(t, 100, page.PerPage)
	assert.Len(t, page.Data, 35)
}

func TestAPI_PageURLsUseForwardedScheme(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice", "alice@example.com")

	path := func(proto string) string {
		req := httptest.NewRequest(http.MethodGet, "http://shop.test/api/v1/products", nil)
		req.Header.Set("Authorization", "Bearer "+alice)
		if proto != "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		var page pageJSON
		require.NoError(t, json.Unmarshal(env.Data, &page))
		return page.Path
	}

	assert.Equal(t, "http://shop.test/api/v1/products", path(""))
	assert.Equal(t, "https://shop.test/api/v1/products", path("https"))
	assert.Equal(t, "https://shop.test/api/v1/products", path("HTTPS, http"))
	assert.Equal(t, "http://shop.test/api/v1/products", path("javascript"))
	assert.Equal(t, "http://shop.test/api/v1/products", path("https://evil.test/x?"))
}

func TestAPI_AuthFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token := s.register("Alice", "alice@example.com")

	code, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials.", env.Message)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAPI_LoginThrottle(t *testing.T) {
	s := newTestServer(t)
	s.register("Alice", "alice@example.com")

	bad := map[string]string{"email": "alice@example.com", "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		code, _ := s.do(http.MethodPost, "/api/v1/auth/login", "", bad)
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code, _ := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestAPI_CategoriesAndHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/product-categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	var data struct {
		ProductCategory map[string]string `json:"productCategory"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Computers & Accessories", data.ProductCategory["computers"])

	code, _ = s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAPI_CategoriesServePrimedCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product_category.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"productCategory":{"books":"Books","toys":"Toys"}}`), 0o600))
	categories := catalog.NewLoader(path)
	_, err := categories.Reload()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"productCategory":`), 0o600))
	s := newTestServerWithCatalog(t, categories)

	code, env := s.do(http.MethodGet, "/api/v1/product-categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	var data struct {
		ProductCategory map[string]string `json:"productCategory"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, map[string]string{"books": "Books", "toys": "Toys"}, data.ProductCategory)

	alice := s.register("Alice", "alice@example.com")
	p := s.createProduct(alice, "Atlas", "books", 12, 1)
	assert.Equal(t, "books", p.Category)
}

func TestAPI_MetricsAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/health", "", nil)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `product_api_http_requests_total{code="200",method="GET",route="/api/v1/health"} 1`)
	assert.Contains(t, w.Body.String(), "product_api_sse_clients 0")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
