package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/config"
	"github.com/dmitrijs2005/gatelog/internal/client/export"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/query"
	"github.com/dmitrijs2005/gatelog/internal/client/repositories"
	"github.com/dmitrijs2005/gatelog/internal/client/services"
	"github.com/dmitrijs2005/gatelog/internal/client/session"
	"github.com/dmitrijs2005/gatelog/internal/client/telemetry"
	"github.com/dmitrijs2005/gatelog/internal/client/upload"
	"github.com/dmitrijs2005/gatelog/internal/common"
	"github.com/dmitrijs2005/gatelog/internal/cryptox"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

// sessionView is what the REPL needs to know about the session.
type sessionView interface {
	State() session.State
	Snapshot() (*models.Session, uint64)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	auth     services.AuthService
	records  services.RecordService
	users    services.UserService
	ctrl     *query.Controller
	sessions sessionView
	sink     export.Sink

	// store and db are only used by Run.
	store *session.Store
	db    *sql.DB

	reader *bufio.Reader
	out    *syncWriter
	loc    *time.Location
	now    func() time.Time
}

// NewApp opens the local state, builds the services and subscribes the
// listing and caches to session changes.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := repositories.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	key, err := cryptox.LoadOrCreateKey(cfg.KeyFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load key: %w", err)
	}
	sealer, err := cryptox.NewSealer(key)
	common.WipeByteArray(key)
	if err != nil {
		db.Close()
		return nil, err
	}

	api, err := client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := session.NewStore(db, sealer, api, session.NewBus(), logger)
	api.SetCredentials(store)

	sink, err := newSink(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	pipeline := upload.NewPipeline(cfg.DownloadDir, loc, logger)
	records := services.NewRecordService(api, store, pipeline, services.RecordOptions{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Location:  loc,
	}, logger)
	ctrl := query.NewController(records, store, logger)
	records.SetRefresher(ctrl)

	a := &App{
		config:   cfg,
		logger:   logger.With("component", "cli"),
		auth:     services.NewAuthService(api, store),
		records:  records,
		users:    services.NewUserService(api, store),
		ctrl:     ctrl,
		sessions: store,
		sink:     sink,
		store:    store,
		db:       db,
		reader:   bufio.NewReader(in),
		out:      &syncWriter{w: out},
		loc:      loc,
		now:      time.Now,
	}
	store.Bus().Subscribe(a.onSessionEvent)
	return a, nil
}

func newSink(ctx context.Context, cfg *config.Config) (export.Sink, error) {
	if cfg.ExportS3Bucket == "" {
		return export.NewFileSink(cfg.DownloadDir, cfg.ExportDir), nil
	}
	return export.NewS3Sink(ctx, export.S3Config{
		Bucket:   cfg.ExportS3Bucket,
		Region:   cfg.ExportS3Region,
		Endpoint: cfg.ExportS3Endpoint,
		User:     cfg.ExportS3User,
		Password: cfg.ExportS3Password,
		Prefix:   cfg.ExportS3Prefix,
	})
}

// onSessionEvent runs on the session bus. It must stay local: no requests,
// no session mutations.
func (a *App) onSessionEvent(e session.Event) {
	switch e.Kind {
	case session.EventLogout:
		a.ctrl.Reset()
		a.records.Purge()
		if e.Origin == session.OriginRemote {
			a.println("Signed out in another window.")
		}
	case session.EventLogin:
		a.records.Purge()
		if e.Origin == session.OriginRemote && e.Session != nil {
			a.printf("Signed in as %s in another window.\n", e.Session.User.DisplayName())
		}
	}
}

// Run restores the persisted session in the background, keeps it in sync
// with other processes, serves telemetry when configured and blocks in the
// REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer a.db.Close()
	defer wg.Wait()
	defer cancel()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.auth.Restore(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn(ctx, "session restore failed", "error", err)
			a.println("Your session could not be restored, please log in.")
		}
	}()
	go func() {
		defer wg.Done()
		a.store.Watch(ctx, a.config.SyncInterval)
	}()

	if a.config.MetricsAddr != "" {
		srv := telemetry.NewServer(a.config.MetricsAddr, telemetry.NewRouter(a.readinessChecks()), a.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				a.logger.Error(ctx, "telemetry server stopped", "error", err)
			}
		}()
	}

	a.println("Welcome to the gate log (type 'help' for commands)")
	runREPL(ctx, a)
	return nil
}

func (a *App) readinessChecks() map[string]telemetry.Checker {
	return map[string]telemetry.Checker{
		"database": telemetry.CheckFunc(func(ctx context.Context) (string, string) {
			if err := a.db.PingContext(ctx); err != nil {
				return telemetry.StatusFail, err.Error()
			}
			return telemetry.StatusOK, ""
		}),
		"session": telemetry.CheckFunc(func(context.Context) (string, string) {
			return telemetry.StatusOK, string(a.sessions.State())
		}),
	}
}

// syncWriter serializes output from the REPL and from session events.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// report prints err the way the user should see it.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	a.println("Error:", client.UserMessage(err))
}
