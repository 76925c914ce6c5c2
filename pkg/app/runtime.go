package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/config"
	"tableflip.dev/taskmate/pkg/controls"
	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/reconcile"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

// Options configure Open.
type Options struct {
	Config config.Config
	Logger *log.Logger
	// Now is the clock for the store and schedules; defaults to time.Now.
	Now func() time.Time
}

// Runtime is the composition root: it owns the store and wires the
// simulator, the selected source and the service on top of it.
type Runtime struct {
	Config    config.Config
	Logger    *log.Logger
	Mode      query.Mode
	Store     *store.Store
	Simulator *api.Simulator
	Source    query.Source
	Service   *Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Open seeds the store from the fixture directory (or the built-in set when
// none is configured or it is empty) and selects the source once.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := query.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	seed, err := loadSeed(ctx, cfg.Fixtures, now, logger)
	if err != nil {
		return nil, err
	}
	st, err := store.New(seed, store.WithClock(now), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("app: seeding store: %w", err)
	}
	sim := api.New(st,
		api.WithLatency(api.Latency{Min: cfg.LatencyMin, Max: cfg.LatencyMax}),
		api.WithLogger(logger.WithPrefix("api")),
	)
	src, err := query.NewSource(mode, st, sim)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Runtime{
		Config:    cfg,
		Logger:    logger,
		Mode:      mode,
		Store:     st,
		Simulator: sim,
		Source:    src,
		Service:   &Service{Source: src, Now: now},
		cancel:    cancel,
	}
	if cfg.Watch && cfg.Fixtures != "" {
		if err := r.watchFixtures(ctx); err != nil {
			cancel()
			return nil, err
		}
	}
	logger.Debug("runtime ready", "mode", mode, "tasks", st.Len(), "fixtures", cfg.Fixtures)
	return r, nil
}

func loadSeed(ctx context.Context, dir string, now func() time.Time, logger *log.Logger) ([]task.Task, error) {
	if dir == "" {
		return store.DefaultFixtures(now()), nil
	}
	tasks, err := store.LoadFixtures(ctx, dir, logger)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		logger.Info("fixture directory empty, using built-in tasks", "dir", dir)
		return store.DefaultFixtures(now()), nil
	}
	return tasks, nil
}

// watchFixtures reseeds the store whenever the fixture directory changes.
func (r *Runtime) watchFixtures(ctx context.Context) error {
	signals, err := store.WatchFixtures(ctx, r.Config.Fixtures)
	if err != nil {
		return fmt.Errorf("app: watching fixtures: %w", err)
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for range signals {
			tasks, err := store.LoadFixtures(ctx, r.Config.Fixtures, r.Logger)
			if err != nil {
				r.Logger.Warn("fixture reload failed", "err", err)
				continue
			}
			if err := r.Store.Reseed(tasks); err != nil {
				r.Logger.Warn("fixture reseed failed", "err", err)
				continue
			}
			r.Logger.Info("fixtures reloaded", "tasks", len(tasks))
		}
	}()
	return nil
}

// ControlDeps returns the collaborators interactive controls need, with
// the configured pending timeout and rollback policy.
func (r *Runtime) ControlDeps() controls.Deps {
	return controls.Deps{
		Writer:  r.Source,
		Changes: r.Source,
		Logger:  r.Logger.WithPrefix("controls"),
		Options: []reconcile.Option{
			reconcile.WithTimeout(r.Config.PendingTimeout),
			reconcile.WithRollback(r.Config.PendingRollback),
		},
	}
}

// Tasks returns a fresh query facade over the selected source.
func (r *Runtime) Tasks() *query.Tasks {
	return query.NewTasks(r.Source, query.WithNow(r.Service.now), query.WithLogger(r.Logger.WithPrefix("query")))
}

// Close stops background work and, with writeback enabled, saves the store
// back to the fixture directory.
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		r.cancel()
		r.wg.Wait()
		if r.Config.Writeback && r.Config.Fixtures != "" {
			if saveErr := store.SaveFixtures(ctx, r.Config.Fixtures, r.Store.List()); saveErr != nil {
				err = fmt.Errorf("app: writeback: %w", saveErr)
				return
			}
			r.Logger.Debug("fixtures written", "dir", r.Config.Fixtures, "tasks", r.Store.Len())
		}
	})
	return err
}
