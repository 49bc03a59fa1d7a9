package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relist-cli/internal/classify"
	"github.com/sells-group/relist-cli/internal/core"
	"github.com/sells-group/relist-cli/internal/fault"
	"github.com/sells-group/relist-cli/internal/metrics"
	"github.com/sells-group/relist-cli/internal/safety"
	"github.com/sells-group/relist-cli/internal/scorer"
	"github.com/sells-group/relist-cli/internal/store"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// initThresholds opens and loads the threshold store. Recovered load faults
// are logged and the store keeps serving defaults.
func initThresholds() (*thresholds.Store, error) {
	if err := cfg.Validate("thresholds"); err != nil {
		return nil, err
	}
	th := thresholds.NewFileStore(cfg.Paths.ThresholdsFile, cfg.Paths.HistoryFile,
		thresholds.WithValidator(scorer.ValidateSnapshot),
	)
	if err := th.Load(); err != nil {
		if !fault.Recovered(fault.KindOf(err)) {
			return nil, err
		}
		zap.L().Warn("thresholds: using defaults", zap.String("fault", fault.Classify(err)), zap.Error(err))
	}
	return th, nil
}

// initSafety opens the dictionary. A missing or corrupt file degrades to an
// empty dictionary.
func initSafety() (*safety.Store, error) {
	if err := cfg.Validate("safety"); err != nil {
		return nil, err
	}
	sf := safety.NewStore(cfg.Paths.DictionaryFile)
	_ = sf.Load() // logged by the store
	return sf, nil
}

// initStore opens and migrates the SQLite database.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	if err := ensureDir(cfg.Store.DatabasePath); err != nil {
		return nil, err
	}
	st, err := store.NewSQLite(cfg.Store.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// app bundles the wired core and the resources it owns.
type app struct {
	core    *core.Core
	store   *store.SQLiteStore
	metrics *metrics.Metrics
}

func (a *app) Close() error {
	return a.store.Close()
}

// initApp wires every component for commands that classify records.
func initApp(ctx context.Context) (*app, error) {
	th, err := initThresholds()
	if err != nil {
		return nil, err
	}
	sf, err := initSafety()
	if err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	book := classify.NewBook(st)
	if err := book.Load(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	m := metrics.New()
	c, err := core.New(core.Deps{
		Thresholds: th,
		Safety:     sf,
		Overrides:  book,
		Runs:       st,
		Metrics:    m,
	})
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "init core")
	}
	return &app{core: c, store: st, metrics: m}, nil
}
