package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/export"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/query"
	"github.com/dmitrijs2005/gatelog/internal/client/services"
	"github.com/dmitrijs2005/gatelog/internal/client/session"
	"github.com/dmitrijs2005/gatelog/internal/client/upload"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

// ---- fake session ----

type fakeSessions struct {
	mu    sync.Mutex
	state session.State
	sess  *models.Session
	gen   uint64
}

func (f *fakeSessions) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSessions) Snapshot() (*models.Session, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sess == nil {
		return nil, f.gen
	}
	cp := *f.sess
	return &cp, f.gen
}

func (f *fakeSessions) set(s *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = s
	f.gen++
	if s == nil {
		f.state = session.StateAnonymous
	} else {
		f.state = session.StateAuthenticated
	}
}

// ---- fake auth ----

type fakeAuth struct {
	services.AuthService

	sessions *fakeSessions

	LastEmail    string
	LastPassword string
	LastType     string
	LoginErr     error
	LoggedOut    bool
}

func (f *fakeAuth) Login(_ context.Context, email string, pw []byte, loginType string) (*models.Session, error) {
	f.LastEmail, f.LastPassword, f.LastType = email, string(pw), loginType
	for i := range pw {
		pw[i] = 0
	}
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	role := models.RoleUser
	if loginType == services.LoginAdmin {
		role = models.RoleAdmin
	}
	s := &models.Session{Token: "tok", User: models.User{ID: "me", Email: email, Role: role}}
	f.sessions.set(s)
	return s, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.LoggedOut = true
	f.sessions.set(nil)
	return nil
}

// ---- fake records ----

type fakeRecords struct {
	services.RecordService

	mu         sync.Mutex
	Items      []models.VehicleRecord
	LastParams query.Params
	Fetches    int
	// OnFetch runs inside Fetch; a non-nil error is returned instead of Items.
	OnFetch func() error

	CreateErrs []error
	Jobs       []upload.Job
	Deleted    []string
	Purged     int
	Exported   int
}

func (f *fakeRecords) Fetch(_ context.Context, p query.Params) (models.PagedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches++
	f.LastParams = p
	if f.OnFetch != nil {
		if err := f.OnFetch(); err != nil {
			return models.PagedResult{}, err
		}
	}
	return models.PagedResult{Items: f.Items, Total: len(f.Items), Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeRecords) Get(_ context.Context, id string) (*models.VehicleRecord, error) {
	for _, r := range f.Items {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeRecords) Create(_ context.Context, job upload.Job, progress upload.Progress) (*models.VehicleRecord, error) {
	f.Jobs = append(f.Jobs, job)
	if progress != nil {
		progress(0.5)
	}
	if len(f.CreateErrs) > 0 {
		err := f.CreateErrs[0]
		f.CreateErrs = f.CreateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.VehicleRecord{ID: "new", RegNo: job.Fields.RegNo}, nil
}

func (f *fakeRecords) Delete(_ context.Context, id string) error {
	f.Deleted = append(f.Deleted, id)
	return nil
}

func (f *fakeRecords) Export(ctx context.Context, sink export.Sink) (string, error) {
	f.Exported++
	return sink.Save(ctx, "car_inventory_2024-03-10.xlsx", strings.NewReader("sheet"))
}

func (f *fakeRecords) MediaURL(ref string) string { return "http://media" + ref }

func (f *fakeRecords) Purge() { f.Purged++ }

// ---- helpers ----

func newTestApp(t *testing.T, input string, sess *models.Session) (*App, *bytes.Buffer, *fakeRecords, *fakeAuth) {
	t.Helper()

	old := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = old })

	sessions := &fakeSessions{state: session.StateAnonymous}
	if sess != nil {
		sessions.set(sess)
	}
	records := &fakeRecords{}
	auth := &fakeAuth{sessions: sessions}
	out := &bytes.Buffer{}

	a := &App{
		logger:   logging.Nop(),
		auth:     auth,
		records:  records,
		ctrl:     query.NewController(records, sessions, logging.Nop()),
		sessions: sessions,
		sink:     export.NewFileSink(t.TempDir(), "exports"),
		reader:   bufio.NewReader(strings.NewReader(input)),
		out:      &syncWriter{w: out},
		loc:      time.UTC,
		now:      func() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC) },
	}
	return a, out, records, auth
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func userSession(role models.Role) *models.Session {
	return &models.Session{Token: "tok", User: models.User{ID: "me", Email: "me@example.com", Role: role}}
}

var _ io.Writer = (*syncWriter)(nil)
