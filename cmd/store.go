package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/format-analysis/internal/store"
)

// initStore opens and migrates the run ledger. It returns nil when no
// ledger is configured.
func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Ledger.Path == "" {
		return nil, nil
	}
	st, err := store.NewSQLite(cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// requireStore is initStore for commands that only read the ledger.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("no run ledger configured (set ledger.path or FORMAT_ANALYSIS_LEDGER_PATH)")
	}
	return st, nil
}
