package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ClientInput defines the arguments of a socketio_client resource.
type ClientInput struct {
	URL                string `cty:"url"`
	Namespace          string `cty:"namespace"`
	ConnectTimeout     string `cty:"connect_timeout"`
	InsecureSkipVerify bool   `cty:"insecure_skip_verify"`
}

type clientFactory struct{}

// Source starts connecting and returns the socket right away. The resource
// becomes ready when the connect event fires; a connect error or timeout
// fails it.
func (f *clientFactory) Source(ctx context.Context, sc *resource.SourceContext) (any, error) {
	input := ClientInput{Namespace: "/", ConnectTimeout: "15s"}
	if err := task.DecodeArguments(sc.Arguments(), &input); err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(input.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid connect_timeout '%s': %w", input.ConnectTimeout, err)
	}
	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("url '%s' must be absolute", input.URL)
	}

	logger := ctxlog.FromContext(ctx).With("resource", sc.Name(), "url", input.URL)
	logger.Info("Creating new client instance...")

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(input.Namespace, opts)

	op := sc.Async()
	var once sync.Once
	settle := func(err error) {
		once.Do(func() {
			if err != nil {
				io.Disconnect()
			}
			op.Complete(err)
		})
	}
	timer := time.AfterFunc(timeout, func() {
		settle(fmt.Errorf("timed out after %v waiting for socket.io connection", timeout))
	})

	io.Once(types.EventName("connect"), func(...any) {
		timer.Stop()
		logger.Info("Successfully connected", "sid", io.Id())
		settle(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		timer.Stop()
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Connection attempt failed.", "error", err)
		settle(fmt.Errorf("socket.io connection failed: %w", err))
	})

	logger.Debug("Initiating connection...")
	io.Connect()
	return io, nil
}

// Recycle disconnects the socket.
func (f *clientFactory) Recycle(ctx context.Context, obj any) error {
	io, ok := obj.(*socket.Socket)
	if !ok {
		return fmt.Errorf("socketio_client: unexpected object %T", obj)
	}
	ctxlog.FromContext(ctx).Info("Destroying socket.io client instance", "sid", io.Id())
	io.Disconnect()
	return nil
}
