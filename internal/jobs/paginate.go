package jobs

import (
	"net/url"
	"strconv"
)

// Clamp keeps page between 1 and last. A last page below 1 is treated as 1.
func Clamp(page, last int) int {
	if last < 1 {
		last = 1
	}
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// LastPage is the number of pages needed for total items.
func LastPage(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ParsePage reads the page query parameter, defaulting to 1.
func ParsePage(q url.Values) int {
	n, err := strconv.Atoi(q.Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Pager drives previous/next links.
type Pager struct {
	Page     int
	LastPage int
	params   url.Values
}

// NewPager builds a pager whose links keep params.
func NewPager(page, last int, params url.Values) Pager {
	if last < 1 {
		last = 1
	}
	return Pager{Page: Clamp(page, last), LastPage: last, params: params}
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.LastPage }
func (p Pager) PrevPage() int { return Clamp(p.Page-1, p.LastPage) }
func (p Pager) NextPage() int { return Clamp(p.Page+1, p.LastPage) }

// Query is the encoded query string for page.
func (p Pager) Query(page int) string {
	q := url.Values{}
	for k, v := range p.params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(Clamp(page, p.LastPage)))
	return q.Encode()
}

// Paginate returns the requested page of items, clamping page into range.
func Paginate[T any](items []T, page, size int, params url.Values) ([]T, Pager) {
	if size <= 0 {
		size = len(items)
	}
	pager := NewPager(page, LastPage(len(items), size), params)
	start := (pager.Page - 1) * size
	if start >= len(items) {
		return []T{}, pager
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pager
}
