package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gatelog/internal/cryptox"
	"github.com/dmitrijs2005/gatelog/internal/dbx"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

const (
	keyToken    = "session.token"
	keyUser     = "session.user"
	keyRevision = "session.revision"
)

var (
	ErrInvalidSession = errors.New("session needs a token and a user")
	ErrCorruptState   = errors.New("persisted session is incomplete")
)

// Verifier checks a token with the server and returns the current profile.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Store is the single writer of the persisted session. Token and profile
// are always written and removed together in one transaction, and every
// write bumps a revision counter that other processes poll.
type Store struct {
	db       *sql.DB
	sealer   *cryptox.Sealer
	verifier Verifier
	bus      *Bus
	logger   logging.Logger
	now      func() time.Time

	// writeMu serializes mutations together with their event delivery, so
	// subscribers observe events in commit order.
	writeMu sync.Mutex

	mu         sync.RWMutex
	state      State
	current    *models.Session
	generation uint64
	revision   uint64
}

func NewStore(db *sql.DB, sealer *cryptox.Sealer, verifier Verifier, bus *Bus, logger logging.Logger) *Store {
	if bus == nil {
		bus = NewBus()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		db:       db,
		sealer:   sealer,
		verifier: verifier,
		bus:      bus,
		logger:   logger.With("component", "session"),
		now:      time.Now,
		state:    StateAnonymous,
	}
}

func (s *Store) Bus() *Bus { return s.bus }

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns a copy of the verified session, or nil while anonymous
// or loading.
func (s *Store) Current() *models.Session {
	sess, _ := s.Snapshot()
	return sess
}

// Generation increases on every login, logout and refresh. Work started
// under one generation must be discarded if it completes under another.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Snapshot returns Current and Generation read atomically.
func (s *Store) Snapshot() (*models.Session, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated || s.current == nil {
		return nil, s.generation
	}
	cp := *s.current
	return &cp, s.generation
}

// Token is the bearer token for outgoing requests; empty unless authenticated.
func (s *Store) Token() string {
	if sess := s.Current(); sess != nil {
		return sess.Token
	}
	return ""
}

// Bootstrap restores a persisted session at startup. While the token is
// being verified the store is Loading. A rejected or unverifiable token is
// wiped. If the session changes while verification is in flight (logout,
// another login) the verification result is dropped.
func (s *Store) Bootstrap(ctx context.Context) error {
	persisted, rev, err := s.load(ctx)
	if err != nil {
		s.logger.Error(ctx, "persisted session unreadable, clearing", "error", err)
		if clearErr := s.Clear(ctx); clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	s.revision = rev
	s.mu.Unlock()

	if persisted == nil {
		return nil
	}
	if tokenExpired(persisted.Token, s.now()) {
		s.logger.Info(ctx, "persisted token expired, clearing")
		return s.Clear(ctx)
	}

	s.writeMu.Lock()
	s.mu.Lock()
	if err := checkTransition(s.state, StateLoading); err != nil {
		// a session was established before bootstrap ran
		s.mu.Unlock()
		s.writeMu.Unlock()
		return nil
	}
	s.state = StateLoading
	gen := s.generation
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.logger.Debug(ctx, "verifying persisted session", "generation", gen)
	user, verifyErr := s.verifier.Verify(ctx, persisted.Token)
	if verifyErr == nil && (user == nil || (user.ID == "" && user.Email == "")) {
		verifyErr = ErrInvalidSession
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	superseded := s.generation != gen || s.state != StateLoading
	if !superseded && verifyErr != nil && ctx.Err() != nil {
		// shutting down: leave the persisted token for the next start
		s.state = StateAnonymous
		s.generation++
		s.mu.Unlock()
		return ctx.Err()
	}
	s.mu.Unlock()

	if superseded {
		s.logger.Debug(ctx, "verification superseded", "generation", gen)
		return nil
	}

	if verifyErr != nil {
		s.logger.Warn(ctx, "session verification failed, signing out", "error", verifyErr)
		if err := s.commitLocked(context.WithoutCancel(ctx), nil, EventLogout, OriginLocal); err != nil {
			return errors.Join(verifyErr, err)
		}
		return fmt.Errorf("verify session: %w", verifyErr)
	}

	fresh := &models.Session{Token: persisted.Token, User: *user}
	if err := s.commitLocked(ctx, fresh, EventLogin, OriginLocal); err != nil {
		return err
	}
	s.logger.Info(ctx, "session restored", "user", user.Email, "role", user.Role)
	return nil
}

// Set stores a session obtained from login or registration and announces
// it before returning.
func (s *Store) Set(ctx context.Context, sess models.Session) error {
	if sess.Token == "" || (sess.User.ID == "" && sess.User.Email == "") {
		return ErrInvalidSession
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	kind := EventLogin
	if cur := s.Current(); cur != nil && cur.Token == sess.Token {
		kind = EventRefresh
	}
	return s.commitLocked(ctx, &sess, kind, OriginLocal)
}

// Clear removes the session (logout) and announces it before returning.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commitLocked(ctx, nil, EventLogout, OriginLocal)
}

// Invalidate clears the session after the server rejected token, unless the
// session has already moved on to a different token.
func (s *Store) Invalidate(ctx context.Context, token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	match := s.current != nil && s.current.Token == token
	s.mu.RUnlock()
	if !match {
		return
	}

	s.logger.Warn(ctx, "server rejected session token, signing out")
	if err := s.commitLocked(context.WithoutCancel(ctx), nil, EventLogout, OriginLocal); err != nil {
		s.logger.Error(ctx, "clear rejected session", "error", err)
	}
}

// commitLocked persists next (nil removes the session), applies it in
// memory and publishes the event. Callers hold writeMu.
func (s *Store) commitLocked(ctx context.Context, next *models.Session, kind EventKind, origin Origin) error {
	rev, err := s.persist(ctx, next)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.revision = rev
	ev, changed, err := s.applyLocked(next, kind, origin)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		s.bus.Publish(ev)
	}
	return nil
}

// applyLocked moves the in-memory state to next. It reports whether anything
// observable changed. Callers hold mu.
func (s *Store) applyLocked(next *models.Session, kind EventKind, origin Origin) (Event, bool, error) {
	target := StateAnonymous
	if next != nil {
		target = StateAuthenticated
	}
	if err := checkTransition(s.state, target); err != nil {
		return Event{}, false, err
	}

	wasAnonymous := s.state == StateAnonymous
	s.state = target
	s.generation++

	if next == nil {
		s.current = nil
		if wasAnonymous {
			return Event{}, false, nil
		}
		return Event{Kind: EventLogout, Generation: s.generation, Origin: origin}, true, nil
	}

	cp := *next
	s.current = &cp
	pub := cp
	return Event{Kind: kind, Session: &pub, Generation: s.generation, Origin: origin}, true, nil
}

func (s *Store) persist(ctx context.Context, next *models.Session) (uint64, error) {
	var rev uint64
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		if next == nil {
			if err := repo.Delete(ctx, keyToken); err != nil {
				return err
			}
			if err := repo.Delete(ctx, keyUser); err != nil {
				return err
			}
		} else {
			sealed, err := s.sealer.Seal([]byte(next.Token), []byte(keyToken))
			if err != nil {
				return fmt.Errorf("seal token: %w", err)
			}
			profile, err := json.Marshal(next.User)
			if err != nil {
				return fmt.Errorf("encode profile: %w", err)
			}
			if err := repo.Set(ctx, keyToken, sealed); err != nil {
				return err
			}
			if err := repo.Set(ctx, keyUser, profile); err != nil {
				return err
			}
		}

		var err error
		rev, err = repo.Increment(ctx, keyRevision)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("persist session: %w", err)
	}
	return rev, nil
}

// load reads the persisted session and the revision it belongs to.
func (s *Store) load(ctx context.Context) (*models.Session, uint64, error) {
	var (
		rev     uint64
		sealed  []byte
		profile []byte
	)
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		var err error
		if rev, err = repo.Counter(ctx, keyRevision); err != nil {
			return err
		}
		if sealed, err = repo.Get(ctx, keyToken); err != nil {
			return err
		}
		profile, err = repo.Get(ctx, keyUser)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("read session: %w", err)
	}

	if sealed == nil && profile == nil {
		return nil, rev, nil
	}
	if sealed == nil || profile == nil {
		return nil, rev, ErrCorruptState
	}

	token, err := s.sealer.Open(sealed, []byte(keyToken))
	if err != nil {
		return nil, rev, fmt.Errorf("open token: %w", err)
	}
	var user models.User
	if err := json.Unmarshal(profile, &user); err != nil {
		return nil, rev, fmt.Errorf("decode profile: %w", err)
	}
	return &models.Session{Token: string(token), User: user}, rev, nil
}
