package app

import (
	"io"

	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/modules/env_vars"
	"github.com/specialistvlad/burstflow/modules/http_client"
	"github.com/specialistvlad/burstflow/modules/print"
	"github.com/specialistvlad/burstflow/modules/s3"
	"github.com/specialistvlad/burstflow/modules/socketio"
	"github.com/specialistvlad/burstflow/modules/sqlite"
)

// CoreModules returns the modules compiled into the burstflow binary.
// print writes to out.
func CoreModules(out io.Writer) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&print.Module{Out: out},
		&http_client.Module{},
		&s3.Module{},
		&socketio.Module{},
		&sqlite.Module{},
	}
}
