package http_client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/task"
)

// ClientInput defines the arguments of an http_client resource.
type ClientInput struct {
	Timeout         string `cty:"timeout"`
	MaxIdleConns    int    `cty:"max_idle_conns"`
	MaxConnsPerHost int    `cty:"max_conns_per_host"`
}

// clientFactory sources *http.Client objects.
type clientFactory struct{}

// Source builds a client with its own transport so that recycling one
// resource does not affect others.
func (f *clientFactory) Source(ctx context.Context, sc *resource.SourceContext) (any, error) {
	input := ClientInput{Timeout: "30s", MaxIdleConns: 100, MaxConnsPerHost: 10}
	if err := task.DecodeArguments(sc.Arguments(), &input); err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout '%s': %w", input.Timeout, err)
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        input.MaxIdleConns,
			MaxIdleConnsPerHost: input.MaxConnsPerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctxlog.FromContext(ctx).Debug("HTTP client created.", "resource", sc.Name(), "timeout", timeout)
	return client, nil
}

// Recycle closes the idle connections of the client.
func (f *clientFactory) Recycle(ctx context.Context, obj any) error {
	client, ok := obj.(*http.Client)
	if !ok {
		return fmt.Errorf("http_client: unexpected object %T", obj)
	}
	client.CloseIdleConnections()
	return nil
}
