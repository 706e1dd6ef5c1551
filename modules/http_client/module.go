// Package http_client provides a shareable HTTP client resource and the
// http_request task that uses it.
package http_client

import (
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"
)

// Module implements the registry.Module interface. It registers the
// http_client resource and the http_request task.
type Module struct{}

// Register registers all of the module's handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterResource("http_client", &clientFactory{})
	r.RegisterTask("http_request", onRunHttpRequest)
}

var _ resource.Recycler = (*clientFactory)(nil)
