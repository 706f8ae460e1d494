// Package tableview renders the product store as a text table and routes
// page changes and edits through the API.
package tableview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productapi"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productstore"
)

// ErrPageOutOfRange is returned by GoToPage for pages outside 1..last.
var ErrPageOutOfRange = errors.New("tableview: page out of range")

// Mutator performs product writes.
type Mutator interface {
	CreateProduct(ctx context.Context, in productapi.ProductInput) (*productapi.Product, error)
	UpdateProduct(ctx context.Context, id int64, in productapi.ProductInput) (*productapi.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// View presents a product store.
type View struct {
	store      *productstore.Store
	api        Mutator
	categories *catalog.Catalog
}

// New creates a View. categories may be nil, in which case raw category keys
// are shown.
func New(store *productstore.Store, api Mutator, categories *catalog.Catalog) *View {
	return &View{store: store, api: api, categories: categories}
}

// Categories returns the catalog used for category labels.
func (v *View) Categories() *catalog.Catalog {
	return v.categories
}

// Render writes the current store state to w.
func (v *View) Render(w io.Writer) error {
	return RenderState(w, v.store.State(), v.categories)
}

// GoToPage fetches page. Once pagination is known, pages outside 1..last are
// rejected without a request.
func (v *View) GoToPage(ctx context.Context, page int) error {
	st := v.store.State()
	last := 0
	if st.Pagination != nil {
		last = st.Pagination.LastPage
	}
	if page < 1 || (last > 0 && page > last) {
		return fmt.Errorf("%w: %d not in 1..%d", ErrPageOutOfRange, page, last)
	}
	return v.store.Fetch(ctx, page)
}

// Next fetches the page after the current one.
func (v *View) Next(ctx context.Context) error {
	return v.GoToPage(ctx, v.store.State().CurrentPage+1)
}

// Prev fetches the page before the current one.
func (v *View) Prev(ctx context.Context) error {
	return v.GoToPage(ctx, v.store.State().CurrentPage-1)
}

// Create stores a product and appends it to the table.
func (v *View) Create(ctx context.Context, in productapi.ProductInput) (*productapi.Product, error) {
	p, err := v.api.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	v.store.Add(*p)
	return p, nil
}

// Update changes a product and replaces its row.
func (v *View) Update(ctx context.Context, id int64, in productapi.ProductInput) (*productapi.Product, error) {
	p, err := v.api.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	v.store.Update(*p)
	return p, nil
}

// Delete removes a product and its row.
func (v *View) Delete(ctx context.Context, id int64) error {
	if err := v.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	v.store.Delete(id)
	return nil
}

// RenderState writes st as a table followed by a pagination footer. While a
// fetch is running, or after one failed, the rows are replaced by a status line.
func RenderState(w io.Writer, st productstore.State, categories *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tCATEGORY\tSTOCK\tUPDATED")

	switch {
	case st.Loading:
		fmt.Fprintln(tw, "Loading data...")
	case st.Error != "":
		fmt.Fprintf(tw, "Error: %s\n", st.Error)
	case len(st.Products) == 0:
		fmt.Fprintln(tw, "No results.")
	default:
		for _, p := range st.Products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
				p.ID, p.Name, p.Brand, p.Price.String(), categoryLabel(categories, p.Category),
				p.StockQuantity, p.UpdatedAt.UTC().Format(time.DateTime))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if st.Pagination == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d, %d products\n%s\n",
		st.CurrentPage, st.Pagination.LastPage, st.Pagination.Total,
		footer(st.CurrentPage, st.Pagination.LastPage))
	return err
}

func footer(current, last int) string {
	parts := make([]string, 0, maxButtons+2)
	if current > 1 {
		parts = append(parts, "< Prev")
	}
	for _, p := range PageNumbers(current, last) {
		label := strconv.Itoa(p)
		if p == current {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	if current < last {
		parts = append(parts, "Next >")
	}
	return strings.Join(parts, " ")
}

func categoryLabel(categories *catalog.Catalog, key string) string {
	if categories == nil {
		return key
	}
	if label, ok := categories.Label(key); ok {
		return label
	}
	return key
}
