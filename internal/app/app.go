// Package app wires configuration, storage, partition enumeration and the
// engine session into a single lifecycle used by the partload CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/arkilian/partload/internal/config"
	"github.com/arkilian/partload/internal/engine"
	lerrors "github.com/arkilian/partload/internal/errors"
	"github.com/arkilian/partload/internal/loader"
	"github.com/arkilian/partload/internal/manifest"
	"github.com/arkilian/partload/internal/observability"
	"github.com/arkilian/partload/internal/partition"
	"github.com/arkilian/partload/internal/storage"
)

// App owns the shared resources of a partload run.
type App struct {
	cfg *config.Config

	storage storage.ObjectStorage
	catalog *manifest.SQLiteCatalog
	session *engine.Session
	loader  *loader.Loader
	stats   *observability.LoadStats

	mu      sync.Mutex
	running bool
}

// New resolves and validates cfg and creates the local directories it needs.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{cfg: cfg, stats: observability.NewLoadStats()}, nil
}

// Start initializes storage, the partition enumerator, the session and the loader.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("app is already running")
	}

	if err := a.initStorage(ctx); err != nil {
		return err
	}

	var enum partition.Enumerator
	switch a.cfg.Partitions {
	case config.PartitionsManifest:
		catalog, err := a.openCatalog()
		if err != nil {
			return err
		}
		enum = catalog
	default:
		enum = partition.NewListingEnumerator(a.storage)
	}

	lcfg := loader.DefaultConfig()
	lcfg.Concurrency = a.cfg.Concurrency
	lcfg.StrictConformance = a.cfg.StrictConformance

	a.session = engine.NewSession()
	a.loader = loader.New(a.storage, enum, lcfg)
	a.running = true

	log.Printf("app: started (storage=%s, partitions=%s, concurrency=%d, strict=%v)",
		a.cfg.Storage.Type, a.cfg.Partitions, a.cfg.Concurrency, a.cfg.StrictConformance)
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	var err error
	switch a.cfg.Storage.Type {
	case "local":
		a.storage, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		a.storage, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("app: storage initialized: type=%s", a.cfg.Storage.Type)
	return nil
}

func (a *App) openCatalog() (*manifest.SQLiteCatalog, error) {
	if a.catalog != nil {
		return a.catalog, nil
	}
	catalog, err := manifest.NewCatalog(a.cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize manifest catalog: %w", err)
	}
	a.catalog = catalog
	log.Printf("app: manifest catalog initialized: %s", a.cfg.ManifestPath)
	return catalog, nil
}

// Catalog returns the manifest catalog, opening it if needed.
// It is available whether or not the app has been started.
func (a *App) Catalog() (*manifest.SQLiteCatalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openCatalog()
}

// Session returns the engine session tables are registered in.
func (a *App) Session() *engine.Session {
	return a.session
}

// LoadTable loads the configured table name and registers it in the session,
// replacing any table previously registered under that name.
func (a *App) LoadTable(ctx context.Context, name string) (*engine.MemTable, error) {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	if !running {
		return nil, fmt.Errorf("app is not running")
	}

	src, ok := a.cfg.Table(name)
	if !ok {
		return nil, fmt.Errorf("table %q is not configured", name)
	}

	start := time.Now()
	tbl, err := a.loader.Load(ctx, a.session, src)
	if err != nil {
		a.stats.RecordFailure(name, lerrors.GetCode(err), time.Since(start))
		return nil, err
	}
	st := tbl.Statistics()
	a.stats.RecordSuccess(name, st.NumRows, st.NumPartitions, time.Since(start))
	a.session.RegisterTable(name, tbl)
	return tbl, nil
}

// Stats returns the load statistics recorded by this app.
func (a *App) Stats() *observability.LoadStats {
	return a.stats
}

// LoadAll loads every configured table in configuration order.
// Each table loads independently; a failure does not stop the others.
// The returned error joins every per-table failure.
func (a *App) LoadAll(ctx context.Context) ([]string, error) {
	var loaded []string
	var errs []error
	for _, t := range a.cfg.Tables {
		if _, err := a.LoadTable(ctx, t.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, t.Name)
	}
	return loaded, errors.Join(errs...)
}

// Stop releases every registered table and closes the manifest catalog.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		a.session.Close()
	}
	a.running = false

	if a.catalog != nil {
		err := a.catalog.Close()
		a.catalog = nil
		if err != nil {
			return fmt.Errorf("failed to close manifest catalog: %w", err)
		}
	}
	return nil
}
