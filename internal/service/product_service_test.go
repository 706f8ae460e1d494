package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/cache"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/config"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/database/dbtest"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/clock"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/repository"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
)

const catalogPath = "../../config/constants/products/product_category.json"

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(kind string, p *models.Product) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+":"+p.Name)
}

func (n *recordingNotifier) NotifyProductCreated(p *models.Product) { n.record("created", p) }
func (n *recordingNotifier) NotifyProductUpdated(p *models.Product) { n.record("updated", p) }
func (n *recordingNotifier) NotifyProductDeleted(p *models.Product) { n.record("deleted", p) }

type fixture struct {
	db     *sqlx.DB
	svc    *ProductService
	clock  *clock.MockClock
	events *recordingNotifier
	alice  int64
	bob    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	clk := clock.NewMockClock(start)
	events := &recordingNotifier{}

	svc := NewProductService(db, repository.NewProductRepository(db), catalog.NewLoader(catalogPath), clk)
	svc.SetNotifier(events)

	users := repository.NewUserRepository(db)
	alice := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", CreatedAt: start, UpdatedAt: start}
	bob := &models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", CreatedAt: start, UpdatedAt: start}
	require.NoError(t, users.Create(context.Background(), alice))
	require.NoError(t, users.Create(context.Background(), bob))

	return &fixture{db: db, svc: svc, clock: clk, events: events, alice: alice.ID, bob: bob.ID}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func pricePtr(s string) *money.Price {
	p := money.MustPrice(s)
	return &p
}

func validCreate(name string) *CreateProductRequest {
	return &CreateProductRequest{
		Name:          strPtr(name),
		Brand:         strPtr("Acme"),
		Price:         pricePtr("19.99"),
		Category:      strPtr("electronics"),
		StockQuantity: intPtr(5),
	}
}

func (f *fixture) create(t *testing.T, owner int64, name string) *models.Product {
	t.Helper()
	p, err := f.svc.Create(context.Background(), owner, validCreate(name))
	require.NoError(t, err)
	return p
}

func TestProductService_CreateStoresOwnerAndTimestamps(t *testing.T) {
	f := newFixture(t)

	p := f.create(t, f.alice, "  Phone  ")
	assert.NotZero(t, p.ID)
	assert.Equal(t, f.alice, p.UserID)
	assert.Equal(t, "Phone", p.Name)
	assert.True(t, start.Equal(p.CreatedAt))
	assert.True(t, start.Equal(p.UpdatedAt))

	got, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.Price.String())
	assert.Equal(t, []string{"created:Phone"}, f.events.events)
}

func TestProductService_CreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(r *CreateProductRequest)
		field  string
	}{
		{"missing name", func(r *CreateProductRequest) { r.Name = nil }, "name"},
		{"blank brand", func(r *CreateProductRequest) { r.Brand = strPtr("   ") }, "brand"},
		{"short name", func(r *CreateProductRequest) { r.Name = strPtr("x") }, "name"},
		{"missing price", func(r *CreateProductRequest) { r.Price = nil }, "price"},
		{"negative price", func(r *CreateProductRequest) { r.Price = pricePtr("-1") }, "price"},
		{"price too large", func(r *CreateProductRequest) { r.Price = pricePtr("1000000") }, "price"},
		{"price scale", func(r *CreateProductRequest) { r.Price = pricePtr("1.999") }, "price"},
		{"unknown category", func(r *CreateProductRequest) { r.Category = strPtr("spaceships") }, "category"},
		{"missing stock", func(r *CreateProductRequest) { r.StockQuantity = nil }, "stock_quantity"},
		{"negative stock", func(r *CreateProductRequest) { r.StockQuantity = intPtr(-1) }, "stock_quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate("Phone")
			tt.mutate(req)
			_, err := f.svc.Create(context.Background(), f.alice, req)
			require.ErrorIs(t, err, utils.ErrValidation)
			assert.Contains(t, validationFields(t, err), tt.field)
		})
	}

	_, total, err := repository.NewProductRepository(f.db).List(context.Background(), models.ProductFilter{}, models.ProductSort{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.events.events)
}

func TestProductService_CreateAcceptsZeroStockAndPrice(t *testing.T) {
	f := newFixture(t)
	req := validCreate("Freebie")
	req.Price = pricePtr("0")
	req.StockQuantity = intPtr(0)

	p, err := f.svc.Create(context.Background(), f.alice, req)
	require.NoError(t, err)
	assert.Equal(t, "0.00", p.Price.String())
	assert.Zero(t, p.StockQuantity)
}

func TestProductService_CreatePersistenceFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	_, err := f.db.Exec(`CREATE TRIGGER reject_products BEFORE INSERT ON products BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.alice, validCreate("Phone"))
	assert.ErrorIs(t, err, utils.ErrInternal)
	assert.NotContains(t, err.Error(), "disk full")
	assert.Empty(t, f.events.events)
}

func TestProductService_UpdatePartial(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, f.alice, "Phone")
	f.clock.Advance(time.Minute)

	updated, err := f.svc.Update(context.Background(), f.alice, p.ID, &UpdateProductRequest{StockQuantity: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.StockQuantity)
	assert.Equal(t, "Phone", updated.Name)
	assert.Equal(t, "19.99", updated.Price.String())
	assert.Equal(t, f.alice, updated.UserID)
	assert.True(t, start.Equal(updated.CreatedAt))
	assert.True(t, start.Add(time.Minute).Equal(updated.UpdatedAt))
	assert.Equal(t, []string{"created:Phone", "updated:Phone"}, f.events.events)
}

func TestProductService_UpdateNeverMovesUpdatedAtBackwards(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, f.alice, "Phone")
	f.clock.Set(start.Add(-time.Hour))

	updated, err := f.svc.Update(context.Background(), f.alice, p.ID, &UpdateProductRequest{Name: strPtr("Phone 2")})
	require.NoError(t, err)
	assert.True(t, start.Equal(updated.UpdatedAt))
}

func TestProductService_UpdateCheckOrder(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, f.alice, "Phone")
	invalid := &UpdateProductRequest{Price: pricePtr("-5")}

	_, err := f.svc.Update(context.Background(), f.alice, p.ID+100, invalid)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.svc.Update(context.Background(), f.bob, p.ID, invalid)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.svc.Update(context.Background(), f.alice, p.ID, invalid)
	assert.ErrorIs(t, err, utils.ErrValidation)

	got, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.Price.String())
}

func TestProductService_UpdateRejectsEmptyAndBlank(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, f.alice, "Phone")

	_, err := f.svc.Update(context.Background(), f.alice, p.ID, &UpdateProductRequest{})
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Contains(t, validationFields(t, err), "request")

	_, err = f.svc.Update(context.Background(), f.alice, p.ID, &UpdateProductRequest{Name: strPtr("  ")})
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{"The name field is required."}, validationFields(t, err)["name"])

	_, err = f.svc.Update(context.Background(), f.alice, p.ID, &UpdateProductRequest{Category: strPtr("spaceships")})
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{"The selected category is invalid."}, validationFields(t, err)["category"])
}

func TestProductService_Delete(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, f.alice, "Phone")

	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.bob, p.ID), utils.ErrForbidden)
	_, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), f.alice, p.ID))
	_, err = f.svc.Get(context.Background(), p.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.alice, p.ID), utils.ErrNotFound)
	assert.Equal(t, []string{"created:Phone", "deleted:Phone"}, f.events.events)
}

func TestProductService_ListPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 35; i++ {
		f.create(t, f.alice, "Item")
		f.clock.Advance(time.Second)
	}

	page, err := f.svc.List(context.Background(), ListQuery{Page: 3, PerPage: 15})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 35, page.Total)
	assert.Equal(t, 3, page.LastPage)

	page, err = f.svc.List(context.Background(), ListQuery{Page: 9, PerPage: 15})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 9, page.Page)
	assert.Equal(t, 35, page.Total)
}

func TestProductService_ListOrdersTiesByUpdatedAtThenID(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, f.alice, "A")
	b := f.create(t, f.alice, "B")
	f.clock.Advance(time.Second)
	c := f.create(t, f.alice, "C")
	f.clock.Advance(time.Second)
	_, err := f.svc.Update(context.Background(), f.alice, a.ID, &UpdateProductRequest{Brand: strPtr("Globex")})
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), ListQuery{Page: 1, PerPage: 15, Sort: models.ProductSort{Field: models.SortPrice}})
	require.NoError(t, err)
	got := make([]int64, 0, len(page.Items))
	for _, p := range page.Items {
		got = append(got, p.ID)
	}
	assert.Equal(t, []int64{b.ID, c.ID, a.ID}, got)
}

func TestProductService_ListCacheIsInvalidatedByWrites(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	f.svc.SetListCache(cache.NewProductListCache(client, time.Minute))

	q := ListQuery{Page: 1, PerPage: 15}
	f.create(t, f.alice, "Phone")

	page, err := f.svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	// Served from cache while nothing changes.
	_, err = f.db.Exec(`DELETE FROM products`)
	require.NoError(t, err)
	page, err = f.svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	f.create(t, f.alice, "Tablet")
	page, err = f.svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Tablet", page.Items[0].Name)
}

func TestProductService_ConcurrentListsAgree(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 20; i++ {
		f.create(t, f.alice, "Item")
	}
	q := ListQuery{Page: 2, PerPage: 15}

	var wg sync.WaitGroup
	totals := make([]int, 8)
	lens := make([]int, 8)
	for i := range totals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := f.svc.List(context.Background(), q)
			if assert.NoError(t, err) {
				totals[i], lens[i] = page.Total, len(page.Items)
			}
		}(i)
	}
	wg.Wait()
	for i := range totals {
		assert.Equal(t, 20, totals[i])
		assert.Equal(t, 5, lens[i])
	}

	f.create(t, f.alice, "Item")
	page, err := f.svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 21, page.Total)
}

func TestProductService_SharedListSurvivesFirstCallerCancel(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.create(t, f.alice, "Item")
	}
	q := ListQuery{Page: 1, PerPage: 15}

	// Hold the only connection so the shared query stays in flight.
	tx, err := f.db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.List(firstCtx, q)
		firstErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	type result struct {
		page *models.PageResult
		err  error
	}
	second := make(chan result, 1)
	go func() {
		page, err := f.svc.List(context.Background(), q)
		second <- result{page, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	require.NoError(t, tx.Rollback())
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, 3, res.page.Total)
		assert.Len(t, res.page.Items, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}
