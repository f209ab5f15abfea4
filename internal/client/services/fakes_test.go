package services

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// ---- fake client ----

// fakeClient implements client.Client; calls not listed here panic through
// the nil embedded interface.
type fakeClient struct {
	client.Client

	mu sync.Mutex

	LoginRet  *models.Session
	LoginErr  error
	LastLogin client.LoginRequest

	RegisterRet  *models.Session
	RegisterErr  error
	LastRegister client.RegisterRequest

	ForgotRet  string
	LastForgot string
	ResetRet   string
	LastReset  client.ResetPasswordRequest
	ResetCalls int

	ListRet   models.PagedResult
	LastQuery url.Values

	GetRet   map[string]models.VehicleRecord
	GetErr   error
	GetCalls int

	CreateRet  *models.VehicleRecord
	CreateErr  error
	UpdateRet  *models.VehicleRecord
	LastUpdate string
	DeleteErr  error
	Deleted    []string

	ExportBody string
	ExportErr  error

	DashboardRet *models.DashboardStats
	LastTZ       string
	LastToday    string

	Users        []models.User
	UserUpdates  map[string]models.UserUpdate
	DeletedUsers []string
}

func (f *fakeClient) Login(_ context.Context, req client.LoginRequest) (*models.Session, error) {
	f.LastLogin = req
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Register(_ context.Context, req client.RegisterRequest) (*models.Session, error) {
	f.LastRegister = req
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeClient) ForgotPassword(_ context.Context, email string) (string, error) {
	f.LastForgot = email
	return f.ForgotRet, nil
}

func (f *fakeClient) ResetPassword(_ context.Context, req client.ResetPasswordRequest) (string, error) {
	f.ResetCalls++
	f.LastReset = req
	return f.ResetRet, nil
}

func (f *fakeClient) ListRecords(_ context.Context, q url.Values) (models.PagedResult, error) {
	f.LastQuery = q
	return f.ListRet, nil
}

func (f *fakeClient) GetRecord(_ context.Context, id string) (*models.VehicleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	rec, ok := f.GetRet[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeClient) CreateRecord(_ context.Context, body client.Payload) (*models.VehicleRecord, error) {
	_, _ = io.Copy(io.Discard, body.Body)
	return f.CreateRet, f.CreateErr
}

func (f *fakeClient) UpdateRecord(_ context.Context, id string, body client.Payload) (*models.VehicleRecord, error) {
	_, _ = io.Copy(io.Discard, body.Body)
	f.LastUpdate = id
	return f.UpdateRet, nil
}

func (f *fakeClient) DeleteRecord(_ context.Context, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

func (f *fakeClient) ExportRecords(_ context.Context) (io.ReadCloser, error) {
	if f.ExportErr != nil {
		return nil, f.ExportErr
	}
	return io.NopCloser(strings.NewReader(f.ExportBody)), nil
}

func (f *fakeClient) Dashboard(_ context.Context, tzOffset, today string) (*models.DashboardStats, error) {
	f.LastTZ, f.LastToday = tzOffset, today
	return f.DashboardRet, nil
}

func (f *fakeClient) ListUsers(_ context.Context) ([]models.User, error) {
	return f.Users, nil
}

func (f *fakeClient) GetUser(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.Users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeClient) UpdateUser(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if f.UserUpdates == nil {
		f.UserUpdates = map[string]models.UserUpdate{}
	}
	f.UserUpdates[id] = upd
	return &models.User{ID: id, Email: upd.Email, FirstName: upd.FirstName}, nil
}

func (f *fakeClient) DeleteUser(_ context.Context, id string) error {
	f.DeletedUsers = append(f.DeletedUsers, id)
	return nil
}

func (f *fakeClient) MediaURL(ref string) string {
	return "http://localhost:5000/" + strings.TrimLeft(ref, "/")
}

// ---- fake session ----

type fakeStore struct {
	mu         sync.Mutex
	current    *models.Session
	generation uint64
	SetErr     error
	restored   int
}

func (s *fakeStore) Set(_ context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.current = &sess
	s.generation++
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.generation++
	return nil
}

func (s *fakeStore) Bootstrap(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored++
	return nil
}

func (s *fakeStore) Current() *models.Session {
	sess, _ := s.Snapshot()
	return sess
}

func (s *fakeStore) Snapshot() (*models.Session, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, s.generation
	}
	cp := *s.current
	return &cp, s.generation
}

func storeAs(role models.Role) *fakeStore {
	return &fakeStore{
		current:    &models.Session{Token: "tok", User: models.User{ID: "me", Email: "me@example.com", Role: role}},
		generation: 1,
	}
}
