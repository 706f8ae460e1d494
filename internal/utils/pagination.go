package utils

import (
	"net/url"
	"strconv"
)

// Labels of the previous/next entries in PageEnvelope.Links.
const (
	PrevLabel = "&laquo; Previous"
	NextLabel = "Next &raquo;"
	Ellipsis  = "..."
)

// linkWindowSides is how many page links surround the current page once the
// link list has to be elided.
const linkWindowSides = 3

// PageLink is one entry of the navigation link list.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// PageEnvelope is the length-aware paginator document returned by list
// endpoints. From and To are null when the page holds no items.
type PageEnvelope struct {
	CurrentPage  int         `json:"current_page"`
	Data         interface{} `json:"data"`
	FirstPageURL string      `json:"first_page_url"`
	From         *int        `json:"from"`
	LastPage     int         `json:"last_page"`
	LastPageURL  string      `json:"last_page_url"`
	Links        []PageLink  `json:"links"`
	NextPageURL  *string     `json:"next_page_url"`
	Path         string      `json:"path"`
	PerPage      int         `json:"per_page"`
	PrevPageURL  *string     `json:"prev_page_url"`
	To           *int        `json:"to"`
	Total        int         `json:"total"`
}

// PageParams describes the page being rendered.
type PageParams struct {
	Page     int
	PerPage  int
	Total    int
	LastPage int
	// Count is the number of items on this page.
	Count int
	// Path is the absolute endpoint URL without a query string.
	Path string
	// Query holds the request's other parameters; they are carried into
	// every page URL. Any "page" value is replaced.
	Query url.Values
}

// NewPageEnvelope builds the paginator document for data.
func NewPageEnvelope(data interface{}, p PageParams) *PageEnvelope {
	if p.LastPage < 1 {
		p.LastPage = 1
	}
	urls := pageURLBuilder{path: p.Path, query: p.Query}

	env := &PageEnvelope{
		CurrentPage:  p.Page,
		Data:         data,
		FirstPageURL: urls.url(1),
		LastPage:     p.LastPage,
		LastPageURL:  urls.url(p.LastPage),
		Path:         p.Path,
		PerPage:      p.PerPage,
		Total:        p.Total,
	}

	if p.Count > 0 {
		from := (p.Page-1)*p.PerPage + 1
		to := from + p.Count - 1
		env.From, env.To = &from, &to
	}
	if p.Page > 1 {
		prev := urls.url(p.Page - 1)
		env.PrevPageURL = &prev
	}
	if p.Page < p.LastPage {
		next := urls.url(p.Page + 1)
		env.NextPageURL = &next
	}

	env.Links = append(env.Links, PageLink{URL: env.PrevPageURL, Label: PrevLabel})
	for _, n := range LinkWindow(p.Page, p.LastPage) {
		if n == 0 {
			env.Links = append(env.Links, PageLink{Label: Ellipsis})
			continue
		}
		u := urls.url(n)
		env.Links = append(env.Links, PageLink{URL: &u, Label: strconv.Itoa(n), Active: n == p.Page})
	}
	env.Links = append(env.Links, PageLink{URL: env.NextPageURL, Label: NextLabel})
	return env
}

// LinkWindow returns the page numbers to link, with 0 marking an elided gap.
// Short lists show every page; long ones keep both ends plus a window of
// linkWindowSides pages around the current page.
func LinkWindow(current, last int) []int {
	const window = linkWindowSides + 4
	if last < linkWindowSides*2+8 {
		return pageRange(1, last)
	}

	var out []int
	switch {
	case current <= window:
		out = append(out, pageRange(1, window+linkWindowSides)...)
		out = append(out, 0)
		out = append(out, pageRange(last-1, last)...)
	case current > last-window:
		out = append(out, pageRange(1, 2)...)
		out = append(out, 0)
		out = append(out, pageRange(last-(window+linkWindowSides-1), last)...)
	default:
		out = append(out, pageRange(1, 2)...)
		out = append(out, 0)
		out = append(out, pageRange(current-linkWindowSides, current+linkWindowSides)...)
		out = append(out, 0)
		out = append(out, pageRange(last-1, last)...)
	}
	return out
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

type pageURLBuilder struct {
	path  string
	query url.Values
}

func (b pageURLBuilder) url(page int) string {
	q := url.Values{}
	for k, v := range b.query {
		if k != "page" {
			q[k] = v
		}
	}
	s := b.path + "?"
	if enc := q.Encode(); enc != "" {
		s += enc + "&"
	}
	return s + "page=" + strconv.Itoa(page)
}
