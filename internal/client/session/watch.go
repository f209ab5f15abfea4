package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/repositories/metadata"
)

// Watch polls the shared state database every interval and adopts session
// changes written by other processes. It returns when ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "session sync failed", "error", err)
			}
		}
	}
}

// Sync adopts the persisted session if another process changed it since
// this store last read or wrote it. Adopted changes are published with
// OriginRemote.
func (s *Store) Sync(ctx context.Context) error {
	rev, err := metadata.NewSQLiteRepository(s.db).Counter(ctx, keyRevision)
	if err != nil {
		return fmt.Errorf("read session revision: %w", err)
	}

	s.mu.RLock()
	seen := s.revision
	s.mu.RUnlock()
	if rev == seen {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	persisted, rev, err := s.load(ctx)
	if err != nil {
		// a half-written or foreign-keyed session: treat as signed out here
		// without touching the shared copy
		s.logger.Warn(ctx, "remote session unreadable", "error", err)
		persisted = nil
	}

	s.mu.Lock()
	if rev == s.revision {
		s.mu.Unlock()
		return nil
	}
	s.revision = rev
	ev, changed := s.adoptLocked(persisted)
	s.mu.Unlock()

	if changed {
		s.logger.Info(ctx, "adopted session change from another process", "kind", ev.Kind, "generation", ev.Generation)
		s.bus.Publish(ev)
	}
	return nil
}

// adoptLocked applies a remotely written session. Callers hold mu.
func (s *Store) adoptLocked(persisted *models.Session) (Event, bool) {
	if persisted == nil {
		ev, changed, err := s.applyLocked(nil, EventLogout, OriginRemote)
		if err != nil {
			return Event{}, false
		}
		return ev, changed
	}

	kind := EventLogin
	if s.current != nil && s.current.Token == persisted.Token {
		if sameProfile(s.current.User, persisted.User) {
			return Event{}, false
		}
		kind = EventRefresh
	}
	ev, changed, err := s.applyLocked(persisted, kind, OriginRemote)
	if err != nil {
		return Event{}, false
	}
	return ev, changed
}

func sameProfile(a, b models.User) bool {
	return a.ID == b.ID && a.Name == b.Name && a.FirstName == b.FirstName &&
		a.LastName == b.LastName && a.Email == b.Email && a.Phone == b.Phone &&
		a.EmployeeID == b.EmployeeID && a.Role == b.Role && a.CreatedAt.Equal(b.CreatedAt)
}
