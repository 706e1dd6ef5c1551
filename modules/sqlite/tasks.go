package sqlite

import (
	"context"
	"fmt"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/task"
)

// StatementInput defines the arguments of the sql_exec and sql_query tasks.
// A []any parameter supplies the statement arguments.
type StatementInput struct {
	Statement string `cty:"statement"`
	// Database names the sqlite resource to run against.
	Database string `cty:"database"`
}

func prepare(tc task.Context) (*Database, *StatementInput, []any, error) {
	input := &StatementInput{Database: "sqlite"}
	if err := tc.DecodeArguments(input); err != nil {
		return nil, nil, nil, err
	}
	if input.Statement == "" {
		return nil, nil, nil, fmt.Errorf("%s: statement is required", tc.Name())
	}
	obj, err := tc.Resource(input.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	db, ok := obj.(*Database)
	if !ok {
		return nil, nil, nil, fmt.Errorf("resource '%s' is a %T, not a sqlite database", input.Database, obj)
	}
	args, _ := tc.Parameter().([]any)
	return db, input, args, nil
}

// onRunExec runs a statement and returns the number of affected rows.
func onRunExec(ctx context.Context, tc task.Context) (any, error) {
	db, input, args, err := prepare(tc)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, input.Statement, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Statement executed.", "rows", n, "in_tx", db.InTx())
	return n, nil
}

// onRunQuery runs a query and returns its rows as column maps.
func onRunQuery(ctx context.Context, tc task.Context) (any, error) {
	db, input, args, err := prepare(tc)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, input.Statement, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
