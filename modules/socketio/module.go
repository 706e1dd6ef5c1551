// Package socketio provides a socket.io client resource that becomes ready
// once the socket connects, and the socketio_request task that emits an
// event and waits for a reply event on it.
package socketio

import (
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var _ resource.Recycler = (*clientFactory)(nil)

// Register registers the resource and task handlers.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterResource("socketio_client", &clientFactory{})
	r.RegisterTask("socketio_request", onRunRequest)
}
