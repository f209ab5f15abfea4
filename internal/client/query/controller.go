package query

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrijs2005/gatelog/internal/client/access"
	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

// ErrStale is returned when a response was superseded by a newer query or
// by a session change while it was in flight. The displayed result is left
// untouched.
var ErrStale = errors.New("response superseded")

var (
	queriesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatelog",
		Subsystem: "query",
		Name:      "issued_total",
		Help:      "Record queries issued by the listing controller.",
	})
	queriesStale = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatelog",
		Subsystem: "query",
		Name:      "stale_dropped_total",
		Help:      "Record query responses dropped because a newer query or session superseded them.",
	})
)

// Fetcher runs one query against the record service.
type Fetcher interface {
	Fetch(ctx context.Context, p Params) (models.PagedResult, error)
}

// Sessions exposes the current session and its generation.
type Sessions interface {
	Snapshot() (*models.Session, uint64)
}

// View is a consistent copy of the controller state.
type View struct {
	Params   Params
	Staged   string
	Location string
	Result   models.PagedResult
	Loaded   bool
	LastPage int
	Err      error
}

// Controller owns the listing Params. Every change goes through it: it
// updates Params, issues the canonical query and accepts only the response
// to the latest issue.
type Controller struct {
	fetcher  Fetcher
	sessions Sessions
	logger   logging.Logger

	mu     sync.Mutex
	params Params
	staged string
	seq    uint64
	result models.PagedResult
	loaded bool
	err    error
}

func NewController(f Fetcher, s Sessions, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Controller{
		fetcher:  f,
		sessions: s,
		logger:   logger.With("component", "query"),
		params:   Default(),
	}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]models.VehicleRecord, len(c.result.Items))
	copy(items, c.result.Items)
	res := c.result
	res.Items = items

	return View{
		Params:   c.params,
		Staged:   c.staged,
		Location: c.params.Location(),
		Result:   res,
		Loaded:   c.loaded,
		LastPage: models.LastPage(c.result.Total, c.params.PageSize),
		Err:      c.err,
	}
}

func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

func (c *Controller) Location() string {
	return c.Params().Location()
}

func (c *Controller) SetStatus(ctx context.Context, s Status) error {
	return c.update(ctx, false, func(p *Params) { p.Status = s })
}

func (c *Controller) SetSort(ctx context.Context, f SortField) error {
	return c.update(ctx, false, func(p *Params) { p.Sort = f })
}

func (c *Controller) SetDirection(ctx context.Context, d Direction) error {
	return c.update(ctx, false, func(p *Params) { p.Dir = d })
}

func (c *Controller) SetPageSize(ctx context.Context, n int) error {
	return c.update(ctx, false, func(p *Params) { p.PageSize = n })
}

// StageSearch records text typed into the search box. Nothing is issued
// until SubmitSearch.
func (c *Controller) StageSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged = text
}

// SubmitSearch moves the staged text into Params and always issues, so a
// repeated submit refreshes the listing.
func (c *Controller) SubmitSearch(ctx context.Context) error {
	c.mu.Lock()
	staged := c.staged
	c.mu.Unlock()
	return c.update(ctx, true, func(p *Params) { p.Search = staged })
}

// SetPage moves to page n, clamped to [1, last known page].
func (c *Controller) SetPage(ctx context.Context, n int) error {
	if err := c.gate(); err != nil {
		return err
	}

	c.mu.Lock()
	if n < 1 {
		n = 1
	}
	if c.loaded {
		n = min(n, models.LastPage(c.result.Total, c.params.PageSize))
	}
	if n == c.params.Page && c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.params.Page = n
	c.mu.Unlock()

	return c.issue(ctx, true)
}

func (c *Controller) NextPage(ctx context.Context) error {
	return c.SetPage(ctx, c.Params().Page+1)
}

func (c *Controller) PrevPage(ctx context.Context) error {
	return c.SetPage(ctx, c.Params().Page-1)
}

// Navigate replaces Params wholesale, as when arriving from a link or from
// another screen. Nothing of the previous state is kept.
func (c *Controller) Navigate(ctx context.Context, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := c.gate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.params = p
	c.staged = p.Search
	c.mu.Unlock()

	return c.issue(ctx, true)
}

// Open navigates to a shareable location string.
func (c *Controller) Open(ctx context.Context, loc string) error {
	p, err := ParseLocation(loc)
	if err != nil {
		return err
	}
	return c.Navigate(ctx, p)
}

// Refresh re-issues the current Params, e.g. after a record was created,
// edited or deleted.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.gate(); err != nil {
		return err
	}
	return c.issue(ctx, true)
}

// Reset drops the displayed result and every in-flight response, and
// returns Params to their defaults. It is called on logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.params = Default()
	c.staged = ""
	c.result = models.PagedResult{}
	c.loaded = false
	c.err = nil
}

// update applies mutate to a copy of Params, resets the page and issues,
// unless nothing changed and force is false.
func (c *Controller) update(ctx context.Context, force bool, mutate func(*Params)) error {
	if err := c.gate(); err != nil {
		return err
	}

	c.mu.Lock()
	next := c.params
	mutate(&next)
	next.Page = 1
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	if next == c.params && c.loaded && !force {
		c.mu.Unlock()
		return nil
	}
	c.params = next
	c.mu.Unlock()

	return c.issue(ctx, true)
}

func (c *Controller) gate() error {
	sess, _ := c.sessions.Snapshot()
	return access.Gate(sess, access.Any)
}

// issue fetches the current Params. A response is accepted only if no other
// query was issued and the session did not change meanwhile. An unauthorized
// error is always returned, even when its session is already gone. When the
// result shows the page is past the end, the page is clamped and the query
// re-issued once.
func (c *Controller) issue(ctx context.Context, clamp bool) error {
	sess, gen := c.sessions.Snapshot()
	if err := access.Gate(sess, access.Any); err != nil {
		return err
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	p := c.params
	c.mu.Unlock()

	queriesIssued.Inc()
	res, err := c.fetcher.Fetch(ctx, p)

	_, nowGen := c.sessions.Snapshot()

	c.mu.Lock()
	// a 401 has already signed the session out; the caller must still hear it
	if errors.Is(err, client.ErrUnauthorized) {
		c.mu.Unlock()
		return err
	}
	if seq != c.seq || gen != nowGen {
		c.mu.Unlock()
		queriesStale.Inc()
		c.logger.Debug(ctx, "dropping stale query response", "seq", seq, "generation", gen)
		return ErrStale
	}
	if err != nil {
		c.err = err
		c.mu.Unlock()
		return err
	}

	last := models.LastPage(res.Total, p.PageSize)
	if clamp && p.Page > last {
		c.logger.Debug(ctx, "page past end, clamping", "page", p.Page, "last", last)
		c.params.Page = last
		c.mu.Unlock()
		return c.issue(ctx, false)
	}

	c.result = res
	c.loaded = true
	c.err = nil
	c.mu.Unlock()
	return nil
}
