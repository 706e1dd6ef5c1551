package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// RequestInput defines the arguments of the socketio_request task. The
// task parameter is emitted as the event data.
type RequestInput struct {
	EmitEvent string `cty:"emit_event"`
	OnEvent   string `cty:"on_event"`
	Timeout   string `cty:"timeout"`
	// Client names the socketio_client resource to use.
	Client string `cty:"client"`
}

type opResult struct {
	value any
	err   error
}

// onRunRequest emits an event and returns the data of the first reply
// event.
func onRunRequest(ctx context.Context, tc task.Context) (any, error) {
	input := RequestInput{Timeout: "10s", Client: "socketio_client"}
	if err := tc.DecodeArguments(&input); err != nil {
		return nil, err
	}
	if input.EmitEvent == "" || input.OnEvent == "" {
		return nil, fmt.Errorf("socketio_request: emit_event and on_event are required")
	}
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timeout: %w", err)
	}

	obj, err := tc.Resource(input.Client)
	if err != nil {
		return nil, err
	}
	client, ok := obj.(*socket.Socket)
	if !ok {
		return nil, fmt.Errorf("resource '%s' is a %T, not a socket.io client", input.Client, obj)
	}
	if !client.Connected() {
		return nil, fmt.Errorf("socket.io client '%s' is not connected", input.Client)
	}

	logger := ctxlog.FromContext(ctx).With("task", tc.Name(), "sid", client.Id())
	logger.Info("Executing request", "emitEvent", input.EmitEvent, "onEvent", input.OnEvent)

	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client.Once(types.EventName(input.OnEvent), func(data ...any) {
		var response any
		if len(data) > 0 {
			response = data[0]
		}
		select {
		case done <- opResult{value: response}:
		default:
		}
	})

	data := tc.Parameter()
	jsonData, _ := json.Marshal(data)
	logger.Debug("Emitting event", "event", input.EmitEvent, "data", string(jsonData))
	client.Emit(input.EmitEvent, data)

	select {
	case <-opCtx.Done():
		return nil, fmt.Errorf("timed out after %v waiting for event '%s'", timeout, input.OnEvent)
	case res := <-done:
		logger.Info("Successfully received response event", "event", input.OnEvent)
		return res.value, res.err
	}
}
