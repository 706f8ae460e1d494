package productapi

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
)

// Product is a product as returned by the API.
type Product struct {
	ID            int64       `json:"product_id"`
	UserID        int64       `json:"user_id"`
	Name          string      `json:"name"`
	Brand         string      `json:"brand"`
	Price         money.Price `json:"price"`
	Category      string      `json:"category"`
	StockQuantity int         `json:"stock_quantity"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ProductInput is the body of create and update calls. Nil fields are not
// sent; updates leave them unchanged.
type ProductInput struct {
	Name          *string      `json:"name,omitempty"`
	Brand         *string      `json:"brand,omitempty"`
	Price         *money.Price `json:"price,omitempty"`
	Category      *string      `json:"category,omitempty"`
	StockQuantity *int         `json:"stock_quantity,omitempty"`
}

// PageLink is one entry of a page's navigation links. URL is nil for
// disabled entries and elided gaps.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// PageMeta is the pagination metadata of a list response.
type PageMeta struct {
	CurrentPage  int        `json:"current_page"`
	FirstPageURL string     `json:"first_page_url"`
	From         *int       `json:"from"`
	LastPage     int        `json:"last_page"`
	LastPageURL  string     `json:"last_page_url"`
	Links        []PageLink `json:"links"`
	NextPageURL  *string    `json:"next_page_url"`
	Path         string     `json:"path"`
	PerPage      int        `json:"per_page"`
	PrevPageURL  *string    `json:"prev_page_url"`
	To           *int       `json:"to"`
	Total        int        `json:"total"`
}

// Page is one page of products.
type Page struct {
	PageMeta
	Data []Product `json:"data"`
}

// ListParams selects the products to list. Zero values are omitted.
type ListParams struct {
	Page     int
	PerPage  int
	Name     string
	Brand    string
	Category string
	// Sort is a field name, prefixed with "-" for descending order.
	Sort string
}

// Values encodes the parameters as a query string.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Name != "" {
		v.Set("filter[name]", p.Name)
	}
	if p.Brand != "" {
		v.Set("filter[brand]", p.Brand)
	}
	if p.Category != "" {
		v.Set("filter[category]", p.Category)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	return v
}

// User is an account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	// Fields holds per-field validation messages on 422 responses.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], "; "))
	}
	return fmt.Sprintf("api error %d (%s): %s [%s]", e.StatusCode, e.Code, e.Message, strings.Join(parts, ", "))
}
