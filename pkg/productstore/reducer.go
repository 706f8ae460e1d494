package productstore

import (
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productapi"
)

// State is the client-side view of the product list.
type State struct {
	Products []productapi.Product
	// Pagination is the metadata of the last successful fetch, nil before it.
	Pagination  *productapi.PageMeta
	CurrentPage int
	Loading     bool
	// Error is the message of the last failed fetch, empty otherwise.
	Error string
}

// Action is a state transition applied by Reduce.
type Action interface {
	isAction()
}

// FetchStarted marks a list request as in flight.
type FetchStarted struct{}

// FetchSucceeded replaces the list with a fetched page.
type FetchSucceeded struct {
	Page *productapi.Page
}

// FetchFailed records a failed list request. Products are kept.
type FetchFailed struct {
	Err error
}

// ProductAdded appends a created product.
type ProductAdded struct {
	Product productapi.Product
}

// ProductUpdated replaces the product with the same id, if present.
type ProductUpdated struct {
	Product productapi.Product
}

// ProductDeleted removes the product with ID, if present.
type ProductDeleted struct {
	ID int64
}

func (FetchStarted) isAction()   {}
func (FetchSucceeded) isAction() {}
func (FetchFailed) isAction()    {}
func (ProductAdded) isAction()   {}
func (ProductUpdated) isAction() {}
func (ProductDeleted) isAction() {}

// Reduce returns the state after applying a. It never modifies s; the
// returned state shares no mutable slices with it.
//
// Mutations patch the product slice only. Pagination keeps describing the
// last fetch until the next one, so totals go stale after local changes.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case FetchStarted:
		s.Loading = true
		s.Error = ""
	case FetchSucceeded:
		s.Loading = false
		s.Error = ""
		if a.Page == nil {
			return s
		}
		s.Products = append([]productapi.Product(nil), a.Page.Data...)
		meta := a.Page.PageMeta
		meta.Links = append([]productapi.PageLink(nil), meta.Links...)
		s.Pagination = &meta
		s.CurrentPage = meta.CurrentPage
	case FetchFailed:
		s.Loading = false
		s.Error = "request failed"
		if a.Err != nil {
			s.Error = a.Err.Error()
		}
	case ProductAdded:
		products := make([]productapi.Product, 0, len(s.Products)+1)
		products = append(products, s.Products...)
		s.Products = append(products, a.Product)
	case ProductUpdated:
		for i, p := range s.Products {
			if p.ID == a.Product.ID {
				products := append([]productapi.Product(nil), s.Products...)
				products[i] = a.Product
				s.Products = products
				break
			}
		}
	case ProductDeleted:
		for i, p := range s.Products {
			if p.ID == a.ID {
				products := make([]productapi.Product, 0, len(s.Products)-1)
				products = append(products, s.Products[:i]...)
				s.Products = append(products, s.Products[i+1:]...)
				break
			}
		}
	}
	return s
}
