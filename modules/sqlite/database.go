package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/task"
)

// ErrTxOpen is returned when a transaction is started on a database that
// already has one.
var ErrTxOpen = errors.New("transaction already open")

// Database is the object behind a sqlite resource. Statements run inside
// the open transaction when a sqlite_tx aspect governs the database.
type Database struct {
	DB *sql.DB

	mu sync.Mutex
	tx *sql.Tx
}

// DatabaseInput defines the arguments of a sqlite resource.
type DatabaseInput struct {
	DSN string `cty:"dsn"`
	// Setup statements run once after opening, e.g. schema creation.
	Setup []string `cty:"setup"`
}

type databaseFactory struct{}

// Source opens the database and runs its setup statements.
func (f *databaseFactory) Source(ctx context.Context, sc *resource.SourceContext) (any, error) {
	input := DatabaseInput{DSN: ":memory:"}
	if err := task.DecodeArguments(sc.Arguments(), &input); err != nil {
		return nil, err
	}
	db, err := Open(ctx, input.DSN)
	if err != nil {
		return nil, err
	}
	for _, stmt := range input.Setup {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			db.DB.Close()
			return nil, fmt.Errorf("setup statement failed: %w", err)
		}
	}
	ctxlog.FromContext(ctx).Debug("SQLite database opened.", "resource", sc.Name(), "dsn", input.DSN)
	return db, nil
}

// Recycle closes the database, rolling back a transaction left open.
func (f *databaseFactory) Recycle(ctx context.Context, obj any) error {
	db, ok := obj.(*Database)
	if !ok {
		return fmt.Errorf("sqlite: unexpected object %T", obj)
	}
	rbErr := db.Rollback()
	return errors.Join(rbErr, db.DB.Close())
}

// Open opens a SQLite database. In-memory databases are limited to one
// connection, since every connection would see its own empty database.
func Open(ctx context.Context, dsn string) (*Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Begin opens a transaction. The transaction outlives ctx's cancellation;
// it ends with Commit or Rollback.
func (d *Database) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return ErrTxOpen
	}
	tx, err := d.DB.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	d.tx = tx
	return nil
}

// Commit commits the open transaction, if any.
func (d *Database) Commit() error {
	d.mu.Lock()
	tx := d.tx
	d.tx = nil
	d.mu.Unlock()
	if tx == nil {
		return nil
	}
	return tx.Commit()
}

// Rollback rolls the open transaction back, if any.
func (d *Database) Rollback() error {
	d.mu.Lock()
	tx := d.tx
	d.tx = nil
	d.mu.Unlock()
	if tx == nil {
		return nil
	}
	return tx.Rollback()
}

// InTx reports whether a transaction is open.
func (d *Database) InTx() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx != nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (d *Database) conn() execer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return d.tx
	}
	return d.DB
}

// ExecContext runs a statement in the open transaction or directly.
func (d *Database) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.conn().ExecContext(ctx, query, args...)
}

// QueryContext runs a query in the open transaction or directly.
func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.conn().QueryContext(ctx, query, args...)
}
