package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t,
		"/records?limit=10&page=1&search=&sortBy=inOutDateTime&sortDir=desc&status=",
		Default().Location())
}

func TestLocationRoundTrip(t *testing.T) {
	cases := []Params{
		Default(),
		{Search: "KA 01 & co", Status: StatusIn, Sort: SortRegNo, Dir: Asc, Page: 4, PageSize: 25},
		{Search: "  spaced  ", Status: StatusOut, Sort: SortPerson, Dir: Desc, Page: 1, PageSize: 50},
		{Search: "a=b?c#d/é", Status: StatusAny, Sort: SortDate, Dir: Asc, Page: 17, PageSize: 10},
	}
	for _, p := range cases {
		loc := p.Location()
		got, err := ParseLocation(loc)
		require.NoError(t, err, loc)
		if diff := cmp.Diff(p, got); diff != "" {
			t.Errorf("round trip of %s (-want +got):\n%s", loc, diff)
		}
		assert.Equal(t, loc, got.Location(), "re-serialization is stable")
	}
}

func TestValuesAreDeterministic(t *testing.T) {
	p := Params{Search: "x", Status: StatusIn, Sort: SortPerson, Dir: Asc, Page: 2, PageSize: 25}
	q := p
	assert.Equal(t, p.Values().Encode(), q.Values().Encode())
	assert.Equal(t, "limit=25&page=2&search=x&sortBy=personName&sortDir=asc&status=IN", p.Values().Encode())
}

func TestParseLocation_DefaultsAndAliases(t *testing.T) {
	p, err := ParseLocation("/records")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	p, err = ParseLocation("sortBy=regNo&status=out&sortDir=ASC")
	require.NoError(t, err)
	assert.Equal(t, SortRegNo, p.Sort)
	assert.Equal(t, StatusOut, p.Status)
	assert.Equal(t, Asc, p.Dir)

	p, err = ParseLocation("/records?sortBy=person")
	require.NoError(t, err)
	assert.Equal(t, SortPerson, p.Sort)

	for _, alias := range []string{"any", "ANY", "all", "All"} {
		p, err = ParseLocation("/records?status=" + alias)
		require.NoError(t, err, alias)
		assert.Equal(t, StatusAny, p.Status, alias)
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	for _, loc := range []string{
		"/records?page=0",
		"/records?page=two",
		"/records?limit=20",
		"/records?sortBy=price",
		"/records?sortDir=up",
		"/records?status=PARKED",
		"/records?search=%zz",
	} {
		_, err := ParseLocation(loc)
		assert.ErrorIs(t, err, ErrInvalidParams, loc)
	}
}

func TestParseHelpers(t *testing.T) {
	s, ok := ParseStatus("any")
	assert.True(t, ok)
	assert.Equal(t, StatusAny, s)
	assert.Equal(t, "ANY", s.String())

	_, ok = ParseStatus("maybe")
	assert.False(t, ok)

	f, ok := ParseSortField("inOutDateTime")
	assert.True(t, ok)
	assert.Equal(t, SortDate, f)

	d, ok := ParseDirection(" Desc ")
	assert.True(t, ok)
	assert.Equal(t, Desc, d)
}
