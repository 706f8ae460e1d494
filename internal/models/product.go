package models

import (
	"time"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
)

// Product represents an item in the catalog owned by one user.
// Fields are tagged for both DB scanning and JSON serialization.
type Product struct {
	ID            int64       `db:"id" json:"product_id"`
	UserID        int64       `db:"user_id" json:"user_id"`
	Name          string      `db:"name" json:"name"`
	Brand         string      `db:"brand" json:"brand"`
	Price         money.Price `db:"price" json:"price"`
	Category      string      `db:"category" json:"category"`
	StockQuantity int         `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// SortField is a product column the listing may be ordered by.
type SortField string

const (
	SortStockQuantity SortField = "stock_quantity"
	SortPrice         SortField = "price"
	SortUpdatedAt     SortField = "updated_at"
)

// SortFields lists the allowed sort fields in the order they are documented.
var SortFields = []SortField{SortStockQuantity, SortPrice, SortUpdatedAt}

// ProductFilter narrows a product listing. Empty fields are ignored.
// Name and Brand match case-insensitive substrings; Category matches exactly.
type ProductFilter struct {
	Name     string `json:"name,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// ProductSort is the requested primary ordering. A zero value means none.
type ProductSort struct {
	Field SortField `json:"field,omitempty"`
	Desc  bool      `json:"desc,omitempty"`
}

// PageResult is one page of products plus the counts needed to navigate.
type PageResult struct {
	Items    []Product `json:"items"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
	Total    int       `json:"total"`
	LastPage int       `json:"last_page"`
}

// LastPageFor returns max(1, ceil(total/perPage)).
func LastPageFor(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// String renders the sort as a query value ("price", "-price" or "").
func (s ProductSort) String() string {
	if s.Field == "" {
		return ""
	}
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}
