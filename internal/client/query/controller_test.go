package query

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

type fakeSessions struct {
	mu   sync.Mutex
	sess *models.Session
	gen  uint64
}

func (f *fakeSessions) Snapshot() (*models.Session, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess, f.gen
}

func (f *fakeSessions) logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = nil
	f.gen++
}

func signedIn() *fakeSessions {
	return &fakeSessions{
		sess: &models.Session{Token: "t", User: models.User{ID: "u1", Role: models.RoleUser}},
		gen:  1,
	}
}

// fakeFetcher answers with total records, paginated by the requested page.
type fakeFetcher struct {
	mu    sync.Mutex
	total int
	err   error
	calls []Params
	// gate, when set, is consulted per call and may block it.
	gate func(p Params)
}

func (f *fakeFetcher) Fetch(_ context.Context, p Params) (models.PagedResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	total, err, gate := f.total, f.err, f.gate
	f.mu.Unlock()

	if gate != nil {
		gate(p)
	}
	if err != nil {
		return models.PagedResult{}, err
	}

	var items []models.VehicleRecord
	for i := (p.Page - 1) * p.PageSize; i < total && len(items) < p.PageSize; i++ {
		items = append(items, models.VehicleRecord{ID: p.Search + "#" + string(rune('a'+i%26))})
	}
	return models.PagedResult{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeFetcher) Calls() []Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Params(nil), f.calls...)
}

func (f *fakeFetcher) setTotal(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = n
}

func newController(f *fakeFetcher, s *fakeSessions) *Controller {
	return NewController(f, s, logging.Nop())
}

func TestChangesOtherThanPageResetPage(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 200}

	changes := map[string]func(c *Controller) error{
		"status":    func(c *Controller) error { return c.SetStatus(ctx, StatusIn) },
		"sort":      func(c *Controller) error { return c.SetSort(ctx, SortRegNo) },
		"direction": func(c *Controller) error { return c.SetDirection(ctx, Asc) },
		"page size": func(c *Controller) error { return c.SetPageSize(ctx, 25) },
		"search": func(c *Controller) error {
			c.StageSearch("KA01")
			return c.SubmitSearch(ctx)
		},
	}

	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			c := newController(f, signedIn())
			require.NoError(t, c.SetPage(ctx, 5))
			require.NoError(t, c.SetPage(ctx, 5))
			require.Equal(t, 5, c.Params().Page)

			require.NoError(t, change(c))
			assert.Equal(t, 1, c.Params().Page)
		})
	}
}

func TestUnchangedFieldDoesNotReissue(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 30}
	c := newController(f, signedIn())

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetSort(ctx, SortDate))
	require.NoError(t, c.SetDirection(ctx, Desc))
	assert.Len(t, f.Calls(), 1)

	require.NoError(t, c.SubmitSearch(ctx))
	assert.Len(t, f.Calls(), 2, "explicit submit always issues")
}

func TestSearchIsStagedUntilSubmit(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 3}
	c := newController(f, signedIn())

	c.StageSearch("K")
	c.StageSearch("KA")
	c.StageSearch("KA0")
	assert.Empty(t, f.Calls())
	assert.Equal(t, "", c.Params().Search)

	require.NoError(t, c.SubmitSearch(ctx))
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "KA0", calls[0].Search)
	assert.Equal(t, "KA0", c.View().Staged)
}

func TestStaleResponseIsDropped(t *testing.T) {
	ctx := context.Background()
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})

	f := &fakeFetcher{total: 40}
	f.gate = func(p Params) {
		if p.Status == StatusIn {
			close(slowStarted)
			<-releaseSlow
		}
	}
	c := newController(f, signedIn())

	slowErr := make(chan error, 1)
	go func() { slowErr <- c.SetStatus(ctx, StatusIn) }()
	<-slowStarted

	require.NoError(t, c.SetStatus(ctx, StatusOut))
	close(releaseSlow)
	assert.ErrorIs(t, <-slowErr, ErrStale)

	v := c.View()
	assert.Equal(t, StatusOut, v.Params.Status)
	assert.True(t, v.Loaded)
	assert.Equal(t, 40, v.Result.Total)
}

func TestResponseAfterLogoutIsDropped(t *testing.T) {
	ctx := context.Background()
	sessions := signedIn()
	started := make(chan struct{})
	release := make(chan struct{})

	f := &fakeFetcher{total: 5}
	f.gate = func(Params) {
		close(started)
		<-release
	}
	c := newController(f, sessions)

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-started

	sessions.logout()
	c.Reset()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	v := c.View()
	assert.False(t, v.Loaded)
	assert.Empty(t, v.Result.Items)
}

func TestUnauthorizedIsReportedAfterSignOut(t *testing.T) {
	sessions := signedIn()
	f := &fakeFetcher{total: 5}
	c := newController(f, sessions)
	// the transport signs the session out before returning the 401
	f.gate = func(Params) {
		sessions.logout()
		c.Reset()
	}
	f.err = client.ErrUnauthorized

	err := c.Refresh(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrStale)
	assert.False(t, c.View().Loaded)
}

func TestGatedWhileAnonymous(t *testing.T) {
	f := &fakeFetcher{total: 5}
	c := newController(f, &fakeSessions{})

	err := c.SetStatus(context.Background(), StatusIn)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Empty(t, f.Calls())
	assert.Equal(t, Default(), c.Params())
}

func TestPageClampsAfterTotalShrinks(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 30}
	c := newController(f, signedIn())

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SetPage(ctx, 3))
	require.Equal(t, 3, c.Params().Page)

	f.setTotal(15)
	require.NoError(t, c.Refresh(ctx))

	v := c.View()
	assert.Equal(t, 2, v.Params.Page)
	assert.Equal(t, 2, v.LastPage)
	assert.Len(t, v.Result.Items, 5)

	calls := f.Calls()
	assert.Equal(t, 2, calls[len(calls)-1].Page)
	assert.Equal(t, 3, calls[len(calls)-2].Page)
}

func TestSetPageClampsToKnownRange(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 25}
	c := newController(f, signedIn())
	require.NoError(t, c.Refresh(ctx))

	require.NoError(t, c.SetPage(ctx, 99))
	assert.Equal(t, 3, c.Params().Page)

	require.NoError(t, c.NextPage(ctx))
	assert.Equal(t, 3, c.Params().Page)

	require.NoError(t, c.SetPage(ctx, -4))
	assert.Equal(t, 1, c.Params().Page)

	require.NoError(t, c.PrevPage(ctx))
	assert.Equal(t, 1, c.Params().Page)
}

func TestEmptyResultClampsToFirstPage(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 0}
	c := newController(f, signedIn())

	p := Default()
	p.Page = 4
	require.NoError(t, c.Navigate(ctx, p))

	v := c.View()
	assert.Equal(t, 1, v.Params.Page)
	assert.Empty(t, v.Result.Items)
}

func TestNavigateOverwritesEverything(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 100}
	c := newController(f, signedIn())

	require.NoError(t, c.SetStatus(ctx, StatusOut))
	require.NoError(t, c.SetPageSize(ctx, 50))
	c.StageSearch("draft")

	target := Default()
	target.Search = "KA01AB1234"
	require.NoError(t, c.Navigate(ctx, target))

	v := c.View()
	assert.Equal(t, target, v.Params)
	assert.Equal(t, "KA01AB1234", v.Staged)
	assert.Equal(t, target.Location(), v.Location)
}

func TestOpenLocation(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 100}
	c := newController(f, signedIn())

	loc := "/records?limit=25&page=2&search=KA&sortBy=regNo&sortDir=asc&status=IN"
	require.NoError(t, c.Open(ctx, loc))
	assert.Equal(t, loc, c.Location())

	err := c.Open(ctx, "/records?limit=7")
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, loc, c.Location(), "invalid location leaves state alone")
}

func TestFetchErrorKeepsDisplayedResult(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 12}
	c := newController(f, signedIn())
	require.NoError(t, c.Refresh(ctx))

	boom := errors.Join(client.ErrUnavailable, errors.New("connection refused"))
	f.mu.Lock()
	f.err = boom
	f.mu.Unlock()

	err := c.SetStatus(ctx, StatusIn)
	assert.ErrorIs(t, err, client.ErrUnavailable)

	v := c.View()
	assert.True(t, v.Loaded)
	assert.Equal(t, 12, v.Result.Total)
	assert.ErrorIs(t, v.Err, client.ErrUnavailable)
}

func TestIdenticalParamsIssueIdenticalRequests(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{total: 12}
	c := newController(f, signedIn())

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Refresh(ctx))

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].Values().Encode(), calls[1].Values().Encode())
}
