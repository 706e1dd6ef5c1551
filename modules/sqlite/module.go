// Package sqlite provides an embedded SQLite database resource, the
// sqlite_tx supervision that wraps the tasks under it in a transaction, and
// the sql_exec and sql_query tasks.
package sqlite

import (
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"

	_ "modernc.org/sqlite"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var _ resource.Recycler = (*databaseFactory)(nil)

// Register registers the resource, supervision and task handlers.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterResource("sqlite", &databaseFactory{})
	r.RegisterSupervision("sqlite_tx", newTxUnit)
	r.RegisterTask("sql_exec", onRunExec)
	r.RegisterTask("sql_query", onRunQuery)
}
