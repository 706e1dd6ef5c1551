package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/zclconf/go-cty/cty"
)

// txUnit is one activation of the sqlite_tx aspect. Every database it
// governs gets a transaction that is committed on enforce and rolled back
// on disregard.
type txUnit struct {
	mu  sync.Mutex
	dbs []*Database
}

func newTxUnit(_ context.Context, _ cty.Value) (supervision.Unit, error) {
	return &txUnit{}, nil
}

func (u *txUnit) Activate(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Transaction scope opened.")
	return nil
}

func (u *txUnit) Govern(ctx context.Context, resource string, obj any) error {
	db, ok := obj.(*Database)
	if !ok {
		return fmt.Errorf("sqlite_tx cannot govern resource '%s' of type %T", resource, obj)
	}
	if err := db.Begin(ctx); err != nil {
		return fmt.Errorf("resource '%s': %w", resource, err)
	}
	u.mu.Lock()
	u.dbs = append(u.dbs, db)
	u.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Transaction started.", "resource", resource)
	return nil
}

func (u *txUnit) Enforce(ctx context.Context) error {
	return u.end(ctx, "commit", (*Database).Commit)
}

func (u *txUnit) Disregard(ctx context.Context) error {
	return u.end(ctx, "rollback", (*Database).Rollback)
}

func (u *txUnit) end(ctx context.Context, action string, fn func(*Database) error) error {
	u.mu.Lock()
	dbs := u.dbs
	u.dbs = nil
	u.mu.Unlock()

	var errs []error
	for _, db := range dbs {
		if err := fn(db); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", action, err))
		}
	}
	ctxlog.FromContext(ctx).Debug("Transaction scope closed.", "action", action, "databases", len(dbs))
	return errors.Join(errs...)
}
