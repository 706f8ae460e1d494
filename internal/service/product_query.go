package service

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
)

// Allowed filter keys, in documented order.
var allowedFilters = []string{"name", "brand", "category"}

// PageDefaults bounds the page size of product listings.
type PageDefaults struct {
	PerPage    int
	MaxPerPage int
}

// ListQuery is a validated product listing request.
type ListQuery struct {
	Filter  models.ProductFilter
	Sort    models.ProductSort
	Page    int
	PerPage int
}

// CacheKey renders the query canonically; equal queries give equal keys.
func (q ListQuery) CacheKey() string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	v.Set("filter[name]", q.Filter.Name)
	v.Set("filter[brand]", q.Filter.Brand)
	v.Set("filter[category]", q.Filter.Category)
	v.Set("sort", q.Sort.String())
	return v.Encode()
}

// ParseListQuery validates listing parameters:
//
//	filter[name]=<substring>   filter[brand]=<substring>   filter[category]=<key>
//	sort=<field> | sort=-<field>   (stock_quantity, price, updated_at)
//	page=<n>   per_page=<n>
//
// Unknown filter keys, unknown or multiple sort fields and non-positive page
// numbers fail with a ValidationError. per_page above the maximum is clamped.
// Parameters outside these families are ignored.
func ParseListQuery(values url.Values, defaults PageDefaults) (ListQuery, error) {
	q := ListQuery{Page: 1, PerPage: defaults.PerPage}
	verr := utils.NewValidationError()

	var unknown []string
	for key := range values {
		name, ok := filterName(key)
		if !ok {
			continue
		}
		value := strings.TrimSpace(values.Get(key))
		switch name {
		case "name":
			q.Filter.Name = value
		case "brand":
			q.Filter.Brand = value
		case "category":
			q.Filter.Category = value
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		verr.Add("filter", fmt.Sprintf("Requested filter(s) `%s` are not allowed. Allowed filter(s) are `%s`.",
			strings.Join(unknown, ", "), strings.Join(allowedFilters, ", ")))
	}

	if raw := strings.TrimSpace(values.Get("sort")); raw != "" {
		s, err := parseSort(raw)
		if err != "" {
			verr.Add("sort", err)
		}
		q.Sort = s
	}

	if page, msg := positiveInt(values.Get("page"), "page"); msg != "" {
		verr.Add("page", msg)
	} else if page > 0 {
		q.Page = page
	}

	if perPage, msg := positiveInt(values.Get("per_page"), "per page"); msg != "" {
		verr.Add("per_page", msg)
	} else if perPage > 0 {
		q.PerPage = perPage
	}
	if q.PerPage > defaults.MaxPerPage {
		q.PerPage = defaults.MaxPerPage
	}

	if err := verr.OrNil(); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

// filterName extracts "x" from "filter[x]". A bare "filter" key is reported
// as an unknown filter named "filter".
func filterName(key string) (string, bool) {
	if key == "filter" {
		return "filter", true
	}
	if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
		return key[len("filter[") : len(key)-1], true
	}
	return "", false
}

func parseSort(raw string) (models.ProductSort, string) {
	if strings.Contains(raw, ",") {
		return models.ProductSort{}, "Only one sort field may be requested."
	}
	s := models.ProductSort{}
	if strings.HasPrefix(raw, "-") {
		s.Desc = true
		raw = raw[1:]
	}
	for _, f := range models.SortFields {
		if string(f) == raw {
			s.Field = f
			return s, ""
		}
	}
	allowed := make([]string, len(models.SortFields))
	for i, f := range models.SortFields {
		allowed[i] = string(f)
	}
	return models.ProductSort{}, fmt.Sprintf("Requested sort(s) `%s` is not allowed. Allowed sort(s) are `%s`.",
		raw, strings.Join(allowed, ", "))
}

// positiveInt parses an optional positive integer parameter. It returns 0
// when raw is empty and a message when raw is invalid.
func positiveInt(raw, label string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Sprintf("The %s field must be an integer.", label)
	}
	if n < 1 {
		return 0, fmt.Sprintf("The %s field must be at least 1.", label)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Sprintf("The %s field must not be greater than %d.", label, math.MaxInt32)
	}
	return n, ""
}
