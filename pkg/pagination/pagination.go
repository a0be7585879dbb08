package pagination

import (
	"strconv"
	"strings"
)

// DefaultPageSize is the storefront listing page size.
const DefaultPageSize = 8

// Page describes one slice of a numbered listing.
type Page struct {
	Number     int
	Size       int
	TotalItems int64
	TotalPages int
	Offset     int
	HasPrev    bool
	HasNext    bool
	PrevNumber int
	NextNumber int
}

// Paginate clamps requested into [1, last page] for total items split into
// pages of size. An empty listing is page 1 of 1.
func Paginate(total int64, requested, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	p := Page{
		Number:     number,
		Size:       size,
		TotalItems: total,
		TotalPages: pages,
		Offset:     (number - 1) * size,
		HasPrev:    number > 1,
		HasNext:    number < pages,
	}
	if p.HasPrev {
		p.PrevNumber = number - 1
	}
	if p.HasNext {
		p.NextNumber = number + 1
	}
	return p
}

// ParsePageParam reads a ?page= value. Anything that is not a positive
// integer becomes 1; the upper bound is applied by Paginate.
func ParsePageParam(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
