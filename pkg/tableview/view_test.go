package tableview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productapi"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productstore"
)

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		current, last int
		want          []int
	}{
		{1, 0, nil},
		{1, 1, []int{1}},
		{3, 5, []int{1, 2, 3, 4, 5}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{2, 10, []int{1, 2, 3, 4, 5}},
		{3, 10, []int{1, 3, 4, 5, 6}},
		{6, 10, []int{1, 6, 7, 8, 9}},
		{8, 10, []int{1, 7, 8, 9, 10}},
		{9, 10, []int{1, 7, 8, 9, 10}},
		{10, 10, []int{1, 7, 8, 9, 10}},
		{4, 6, []int{1, 3, 4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.current, tt.last), func(t *testing.T) {
			got := PageNumbers(tt.current, tt.last)
			assert.Equal(t, tt.want, got)
			for _, p := range got {
				assert.LessOrEqual(t, p, tt.last)
			}
		})
	}
}

type fakeAPI struct {
	products map[int64]productapi.Product
	nextID   int64
	fail     error
}

func newFakeAPI(n int) *fakeAPI {
	api := &fakeAPI{products: map[int64]productapi.Product{}}
	for i := 0; i < n; i++ {
		api.nextID++
		api.products[api.nextID] = productapi.Product{
			ID: api.nextID, Name: fmt.Sprintf("Item %d", api.nextID), Brand: "Acme",
			Price: money.FromCents(api.nextID * 250), Category: "computers", StockQuantity: int(api.nextID),
			UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}
	return api
}

func (f *fakeAPI) ListProducts(_ context.Context, params productapi.ListParams) (*productapi.Page, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	perPage := params.PerPage
	total := int64(len(f.products))
	page := &productapi.Page{PageMeta: productapi.PageMeta{
		CurrentPage: params.Page,
		PerPage:     perPage,
		Total:       int(total),
		LastPage:    int((total + int64(perPage) - 1) / int64(perPage)),
	}}
	for id := int64((params.Page-1)*perPage) + 1; id <= int64(params.Page*perPage); id++ {
		if p, ok := f.products[id]; ok {
			page.Data = append(page.Data, p)
		}
	}
	return page, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, in productapi.ProductInput) (*productapi.Product, error) {
	f.nextID++
	p := productapi.Product{ID: f.nextID, Name: *in.Name, Category: *in.Category}
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, id int64, in productapi.ProductInput) (*productapi.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, &productapi.APIError{StatusCode: 404}
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	f.products[id] = p
	return &p, nil
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return &productapi.APIError{StatusCode: 404}
	}
	delete(f.products, id)
	return nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Entry{Key: "computers", Label: "Computers & Accessories"})
	require.NoError(t, err)
	return c
}

func newView(t *testing.T, n int) (*View, *fakeAPI, *productstore.Store) {
	api := newFakeAPI(n)
	store := productstore.NewStore(api, productapi.ListParams{PerPage: 5})
	return New(store, api, testCatalog(t)), api, store
}

func TestView_RenderRowsAndFooter(t *testing.T) {
	v, _, _ := newView(t, 12)
	require.NoError(t, v.GoToPage(context.Background(), 2))

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "Item 6")
	assert.Contains(t, out, "Computers & Accessories")
	assert.Contains(t, out, "15.00")
	assert.NotContains(t, out, "Item 11")
	assert.Contains(t, out, "Page 2 of 3, 12 products")
	assert.Contains(t, out, "< Prev 1 [2] 3 Next >")
}

func TestView_RenderStatusLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderState(&buf, productstore.State{Loading: true}, nil))
	assert.Contains(t, buf.String(), "Loading data...")

	buf.Reset()
	require.NoError(t, RenderState(&buf, productstore.State{Error: "boom"}, nil))
	assert.Contains(t, buf.String(), "Error: boom")

	buf.Reset()
	require.NoError(t, RenderState(&buf, productstore.State{}, nil))
	assert.Contains(t, buf.String(), "No results.")
}

func TestView_GoToPageBounds(t *testing.T) {
	v, _, store := newView(t, 12)
	require.NoError(t, v.GoToPage(context.Background(), 1))

	assert.ErrorIs(t, v.GoToPage(context.Background(), 0), ErrPageOutOfRange)
	assert.ErrorIs(t, v.GoToPage(context.Background(), 4), ErrPageOutOfRange)
	assert.ErrorIs(t, v.Prev(context.Background()), ErrPageOutOfRange)

	require.NoError(t, v.Next(context.Background()))
	assert.Equal(t, 2, store.State().CurrentPage)
}

func TestView_MutationsPatchStore(t *testing.T) {
	v, api, store := newView(t, 3)
	require.NoError(t, v.GoToPage(context.Background(), 1))

	name, category := "Keyboard", "computers"
	created, err := v.Create(context.Background(), productapi.ProductInput{Name: &name, Category: &category})
	require.NoError(t, err)
	assert.Len(t, store.State().Products, 4)

	renamed := "Mechanical Keyboard"
	_, err = v.Update(context.Background(), created.ID, productapi.ProductInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, store.State().Products[3].Name)

	require.NoError(t, v.Delete(context.Background(), 1))
	assert.Len(t, store.State().Products, 3)
	assert.Equal(t, 3, store.State().Pagination.Total)

	err = v.Delete(context.Background(), 1)
	assert.Equal(t, 404, productapi.StatusCode(err))
	assert.Len(t, store.State().Products, 3)

	api.fail = errors.New("offline")
	assert.Error(t, v.GoToPage(context.Background(), 1))
	assert.Len(t, store.State().Products, 3)
}
