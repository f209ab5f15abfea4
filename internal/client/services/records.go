package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatelog/internal/client/access"
	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/export"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/query"
	"github.com/dmitrijs2005/gatelog/internal/client/upload"
	"github.com/dmitrijs2005/gatelog/internal/logging"
	"github.com/dmitrijs2005/gatelog/internal/timex"
)

// Sessions exposes the current session with its generation.
type Sessions interface {
	Snapshot() (*models.Session, uint64)
}

// Refresher re-issues the listing query after a mutation.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RecordService covers the vehicle records: listing (as the query
// controller's fetcher), detail, create/update through the upload
// pipeline, delete, export and the dashboard summary.
type RecordService interface {
	query.Fetcher

	Get(ctx context.Context, id string) (*models.VehicleRecord, error)
	Create(ctx context.Context, job upload.Job, progress upload.Progress) (*models.VehicleRecord, error)
	Update(ctx context.Context, id string, job upload.Job, progress upload.Progress) (*models.VehicleRecord, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, sink export.Sink) (string, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	// EditFields pre-fills the record form from a stored record.
	EditFields(rec models.VehicleRecord) models.RecordFields
	MediaURL(ref string) string
	// Purge drops cached records, e.g. on logout.
	Purge()
	SetRefresher(r Refresher)
}

type RecordOptions struct {
	CacheSize int
	CacheTTL  time.Duration
	// Location is the operator's timezone for date-times and the dashboard.
	Location *time.Location
	Now      func() time.Time
}

type recordService struct {
	client   client.Client
	sessions Sessions
	pipeline *upload.Pipeline
	cache    *recordCache
	loc      *time.Location
	now      func() time.Time
	logger   logging.Logger

	mu        sync.RWMutex
	refresher Refresher
}

func NewRecordService(c client.Client, sessions Sessions, pipeline *upload.Pipeline, opts RecordOptions, logger logging.Logger) RecordService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &recordService{
		client:   c,
		sessions: sessions,
		pipeline: pipeline,
		cache:    newRecordCache(opts.CacheSize, opts.CacheTTL),
		loc:      opts.Location,
		now:      opts.Now,
		logger:   logger.With("component", "records"),
	}
}

func (s *recordService) SetRefresher(r Refresher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresher = r
}

// gate checks the current session against role and returns its generation.
func (s *recordService) gate(role models.Role) (uint64, error) {
	sess, gen := s.sessions.Snapshot()
	return gen, access.Gate(sess, role)
}

func (s *recordService) Fetch(ctx context.Context, p query.Params) (models.PagedResult, error) {
	if _, err := s.gate(access.Any); err != nil {
		return models.PagedResult{}, err
	}
	return s.client.ListRecords(ctx, p.Values())
}

func (s *recordService) Get(ctx context.Context, id string) (*models.VehicleRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &client.ValidationError{Message: "record id is required"}
	}
	gen, err := s.gate(access.Any)
	if err != nil {
		return nil, err
	}
	if rec, ok := s.cache.get(id, gen); ok {
		return rec, nil
	}

	rec, err := s.client.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, now := s.sessions.Snapshot(); now == gen {
		s.cache.put(*rec, gen)
	}
	return rec, nil
}

func (s *recordService) Create(ctx context.Context, job upload.Job, progress upload.Progress) (*models.VehicleRecord, error) {
	if _, err := s.gate(access.Any); err != nil {
		return nil, err
	}
	rec, err := s.pipeline.Run(ctx, job, s.client.CreateRecord, progress)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "record created", "id", rec.ID, "reg_no", rec.RegNo)
	s.afterMutation(ctx, rec.ID)
	return rec, nil
}

func (s *recordService) Update(ctx context.Context, id string, job upload.Job, progress upload.Progress) (*models.VehicleRecord, error) {
	if _, err := s.gate(models.RoleAdmin); err != nil {
		return nil, err
	}
	submit := func(ctx context.Context, body client.Payload) (*models.VehicleRecord, error) {
		return s.client.UpdateRecord(ctx, id, body)
	}
	rec, err := s.pipeline.Run(ctx, job, submit, progress)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "record updated", "id", id)
	s.afterMutation(ctx, id)
	return rec, nil
}

func (s *recordService) Delete(ctx context.Context, id string) error {
	if _, err := s.gate(models.RoleAdmin); err != nil {
		return err
	}
	if err := s.client.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "record deleted", "id", id)
	s.afterMutation(ctx, id)
	return nil
}

// afterMutation drops the cached copy and re-issues the listing so counts
// and pages come from the server.
func (s *recordService) afterMutation(ctx context.Context, id string) {
	s.cache.remove(id)

	s.mu.RLock()
	r := s.refresher
	s.mu.RUnlock()
	if r == nil {
		return
	}
	if err := r.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "refresh after mutation failed", "error", err)
	}
}

func (s *recordService) Export(ctx context.Context, sink export.Sink) (string, error) {
	if _, err := s.gate(models.RoleAdmin); err != nil {
		return "", err
	}
	body, err := s.client.ExportRecords(ctx)
	if err != nil {
		return "", err
	}
	defer body.Close()

	loc, err := sink.Save(ctx, export.FileName(s.now()), body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrExport, err)
	}
	s.logger.Info(ctx, "records exported", "location", loc)
	return loc, nil
}

func (s *recordService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	if _, err := s.gate(access.Any); err != nil {
		return nil, err
	}
	now := s.now()
	return s.client.Dashboard(ctx, timex.OffsetString(now, s.loc), now.In(s.loc).Format(time.DateOnly))
}

func (s *recordService) EditFields(rec models.VehicleRecord) models.RecordFields {
	return models.FieldsFromRecord(rec, func(t time.Time) string {
		return timex.InstantToLocal(t, s.loc)
	})
}

func (s *recordService) MediaURL(ref string) string {
	return s.client.MediaURL(ref)
}

func (s *recordService) Purge() {
	s.cache.purge()
}
