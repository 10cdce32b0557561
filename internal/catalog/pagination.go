package catalog

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit query values. Each value falls back to its
// default on its own when missing, non-numeric or below 1; limit is capped.
func ParsePage(pageRaw, limitRaw string) Page {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if v, err := strconv.Atoi(pageRaw); err == nil && v >= 1 {
		p.Page = v
	}
	if v, err := strconv.Atoi(limitRaw); err == nil && v >= 1 {
		p.Limit = min(v, MaxLimit)
	}
	return p
}
