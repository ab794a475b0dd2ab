// Package core wires the plantkeeper subsystems into one App: identity
// resolution, the synchronized record store, the AI gateway and the
// normalization engine. App is the only object callers need.
package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"plantkeeper/internal/config"
	"plantkeeper/internal/logging"
	"plantkeeper/internal/perception"
	"plantkeeper/internal/records"
	"plantkeeper/internal/remote"
	"plantkeeper/internal/scope"
	"plantkeeper/internal/store"
	"plantkeeper/internal/types"
)

var (
	// ErrNoImage is returned when identify/analyze is called without image data.
	ErrNoImage = errors.New("no image provided")
	// ErrAnalyzerUnavailable is returned when no AI gateway is configured.
	ErrAnalyzerUnavailable = errors.New("AI analyzer not configured (set GEMINI_API_KEY)")
	// ErrNotFound is returned for unknown garden plants or identifications.
	ErrNotFound = errors.New("record not found")
)

// Deps are the collaborators App is built from. New fills them from config;
// tests pass fakes to NewWithDeps.
type Deps struct {
	Cache    store.KV
	Secure   store.KV
	Gateways records.Gateways
	Analyzer perception.Analyzer // may be nil; identify/analyze then fail
	Session  scope.SessionFile
	Now      func() time.Time
}

// App is the explicit context object for one process.
type App struct {
	Resolver *scope.Resolver
	Store    *records.Store

	analyzer perception.Analyzer
	session  scope.SessionFile
	now      func() time.Time

	identifying atomic.Bool
	analyzing   atomic.Bool

	idMu   sync.Mutex
	lastID int64

	closers []func() error
}

// New builds an App from configuration: SQLite-backed cache and secure
// buckets, the HTTP backend gateway and, when an API key is configured, the
// Gemini analyzer. A persisted session, if any, is applied.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "core.New")
	defer timer.Stop()

	db, err := store.OpenSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	cache, err := db.Bucket(store.BucketCache)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open cache bucket: %w", err)
	}
	secure, err := db.Bucket(store.BucketSecure)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open secure bucket: %w", err)
	}

	client := remote.NewClient(remote.Config{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.GetTimeout(),
		GuestHeader: cfg.Backend.GuestTokenHeader,
	})
	garden := remote.NewGateway[types.UserPlant](client, remote.CollectionGarden)

	var analyzer perception.Analyzer
	if cfg.AI.APIKey != "" {
		gemini, err := perception.NewGeminiAnalyzer(ctx, perception.GeminiConfig{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Timeout:     cfg.AI.GetTimeout(),
			MinInterval: perception.DefaultGeminiConfig("").MinInterval,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
		analyzer = gemini
	} else {
		logging.Boot("no AI API key configured; identify and diagnose are disabled")
	}

	app := NewWithDeps(Deps{
		Cache:  cache,
		Secure: secure,
		Gateways: records.Gateways{
			Identifications: remote.NewGateway[types.PlantIdentification](client, remote.CollectionIdentifications),
			HealthRecords:   remote.NewGateway[types.PlantHealth](client, remote.CollectionHealthRecords),
			Garden:          garden,
			GardenDeleter:   garden,
		},
		Analyzer: analyzer,
		Session:  scope.SessionFile{Path: cfg.Session.File},
	})
	app.closers = append(app.closers, db.Close)

	if err := app.restoreSession(); err != nil {
		logging.CoreError("ignoring unreadable session file: %v", err)
	}
	if cfg.Session.Watch && cfg.Session.File != "" {
		w, err := scope.WatchSessionFile(cfg.Session.File, app.Resolver)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, w.Close)
	}

	logging.Boot("plantkeeper core ready (db=%s backend=%s)", db.Path(), cfg.Backend.BaseURL)
	return app, nil
}

// NewWithDeps builds an App from explicit collaborators.
func NewWithDeps(d Deps) *App {
	if d.Cache == nil {
		d.Cache = store.NewMemory()
	}
	if d.Secure == nil {
		d.Secure = store.NewMemory()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	resolver := scope.NewResolver(d.Secure)
	app := &App{
		Resolver: resolver,
		Store:    records.NewStore(resolver, d.Cache, d.Gateways),
		analyzer: d.Analyzer,
		session:  d.Session,
		now:      d.Now,
	}
	return app
}

func (a *App) restoreSession() error {
	if a.session.Path == "" {
		return nil
	}
	s, err := a.session.Load()
	if err != nil {
		return err
	}
	if s != nil {
		a.Resolver.SetSession(s)
		logging.Core("restored session from %s", a.session.Path)
	}
	return nil
}

// nextID returns a unix-millis record id, bumped when two records are created
// within the same millisecond.
func (a *App) nextID() string {
	a.idMu.Lock()
	defer a.idMu.Unlock()
	id := a.now().UnixMilli()
	if id <= a.lastID {
		id = a.lastID + 1
	}
	a.lastID = id
	return strconv.FormatInt(id, 10)
}

// IsIdentifying reports whether an identification is in progress.
func (a *App) IsIdentifying() bool { return a.identifying.Load() }

// IsAnalyzing reports whether a health analysis is in progress.
func (a *App) IsAnalyzing() bool { return a.analyzing.Load() }

// Close releases storage and watchers. Safe to call more than once.
func (a *App) Close() error {
	a.Store.Close()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
