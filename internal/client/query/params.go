// Package query holds the record listing state: the filter/sort/page
// parameters, their canonical request and location encodings, and the
// Controller that issues queries and drops responses that arrive late.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type Status string

const (
	StatusAny Status = ""
	StatusIn  Status = "IN"
	StatusOut Status = "OUT"
)

type SortField string

const (
	SortDate   SortField = "date"
	SortRegNo  SortField = "regNo"
	SortPerson SortField = "person"
)

// wire names used by the record service
var sortWire = map[SortField]string{
	SortDate:   "inOutDateTime",
	SortRegNo:  "regNo",
	SortPerson: "personName",
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// PageSizes are the selectable page sizes.
var PageSizes = []int{10, 25, 50}

const LocationPath = "/records"

// Location query keys, shared with the record service request.
const (
	keySearch  = "search"
	keyStatus  = "status"
	keyPage    = "page"
	keyLimit   = "limit"
	keySortBy  = "sortBy"
	keySortDir = "sortDir"
)

var ErrInvalidParams = errors.New("invalid query parameters")

// Params is the complete listing state. The zero value is not valid; start
// from Default.
type Params struct {
	Search   string
	Status   Status
	Sort     SortField
	Dir      Direction
	Page     int
	PageSize int
}

func Default() Params {
	return Params{
		Status:   StatusAny,
		Sort:     SortDate,
		Dir:      Desc,
		Page:     1,
		PageSize: PageSizes[0],
	}
}

func (p Params) Validate() error {
	switch p.Status {
	case StatusAny, StatusIn, StatusOut:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidParams, p.Status)
	}
	if _, ok := sortWire[p.Sort]; !ok {
		return fmt.Errorf("%w: sort field %q", ErrInvalidParams, p.Sort)
	}
	if p.Dir != Asc && p.Dir != Desc {
		return fmt.Errorf("%w: sort direction %q", ErrInvalidParams, p.Dir)
	}
	if p.Page < 1 {
		return fmt.Errorf("%w: page %d", ErrInvalidParams, p.Page)
	}
	if !slices.Contains(PageSizes, p.PageSize) {
		return fmt.Errorf("%w: page size %d", ErrInvalidParams, p.PageSize)
	}
	return nil
}

// Values is the canonical request query. Every key is always present, so
// equal Params encode to identical strings.
func (p Params) Values() url.Values {
	return url.Values{
		keySearch:  {p.Search},
		keyStatus:  {string(p.Status)},
		keyPage:    {strconv.Itoa(p.Page)},
		keyLimit:   {strconv.Itoa(p.PageSize)},
		keySortBy:  {sortWire[p.Sort]},
		keySortDir: {string(p.Dir)},
	}
}

// Location is the shareable form of p, e.g.
// /records?limit=10&page=1&search=&sortBy=inOutDateTime&sortDir=desc&status=
func (p Params) Location() string {
	return LocationPath + "?" + p.Values().Encode()
}

// ParseLocation reads Params from a location produced by Location. A bare
// query string is accepted too. Missing keys take their defaults.
func ParseLocation(loc string) (Params, error) {
	raw := strings.TrimSpace(loc)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	} else if strings.HasPrefix(raw, "/") {
		raw = ""
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return ParseValues(v)
}

// ParseValues is the inverse of Values. Sort fields are accepted in either
// their short or wire form.
func ParseValues(v url.Values) (Params, error) {
	p := Default()
	p.Search = v.Get(keySearch)

	if s := v.Get(keyStatus); s != "" {
		st, ok := ParseStatus(s)
		if !ok {
			return Params{}, fmt.Errorf("%w: status %q", ErrInvalidParams, s)
		}
		p.Status = st
	}
	if s := v.Get(keySortBy); s != "" {
		f, ok := ParseSortField(s)
		if !ok {
			return Params{}, fmt.Errorf("%w: sort field %q", ErrInvalidParams, s)
		}
		p.Sort = f
	}
	if s := v.Get(keySortDir); s != "" {
		p.Dir = Direction(strings.ToLower(s))
	}

	var err error
	if s := v.Get(keyPage); s != "" {
		if p.Page, err = strconv.Atoi(s); err != nil {
			return Params{}, fmt.Errorf("%w: page %q", ErrInvalidParams, s)
		}
	}
	if s := v.Get(keyLimit); s != "" {
		if p.PageSize, err = strconv.Atoi(s); err != nil {
			return Params{}, fmt.Errorf("%w: limit %q", ErrInvalidParams, s)
		}
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// ParseSortField accepts "date", "regNo", "person" or their wire names.
func ParseSortField(s string) (SortField, bool) {
	for f, wire := range sortWire {
		if strings.EqualFold(s, string(f)) || strings.EqualFold(s, wire) {
			return f, true
		}
	}
	return "", false
}

// ParseStatus accepts "IN", "OUT" and "ANY" (or empty), case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ANY", "ALL":
		return StatusAny, true
	case string(StatusIn):
		return StatusIn, true
	case string(StatusOut):
		return StatusOut, true
	}
	return "", false
}

func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, true
	}
	return "", false
}

func (s Status) String() string {
	if s == StatusAny {
		return "ANY"
	}
	return string(s)
}
