package socketio

import (
	"context"
	"testing"

	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

func TestClientResource_InvalidArguments(t *testing.T) {
	testCases := []struct {
		name    string
		args    cty.Value
		wantErr string
	}{
		{
			name:    "relative url",
			args:    cty.ObjectVal(map[string]cty.Value{"url": cty.StringVal("/socket.io/")}),
			wantErr: "must be absolute",
		},
		{
			name: "bad timeout",
			args: cty.ObjectVal(map[string]cty.Value{
				"url":             cty.StringVal("http://localhost:1"),
				"connect_timeout": cty.StringVal("later"),
			}),
			wantErr: "invalid connect_timeout 'later'",
		},
		{
			name:    "unknown argument",
			args:    cty.ObjectVal(map[string]cty.Value{"uri": cty.StringVal("http://localhost:1")}),
			wantErr: "unsupported argument 'uri'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := resource.NewContainer(resource.Spec{Name: "sock", Factory: &clientFactory{}, Arguments: tc.args})
			_, err := c.Check(context.Background())
			assert.ErrorContains(t, err, tc.wantErr)
			assert.Equal(t, resource.Failed, c.State())
		})
	}
}

func TestRequest_Validation(t *testing.T) {
	_, err := onRunRequest(context.Background(), &testutil.TaskContext{
		TaskName: "ask",
		Args:     cty.ObjectVal(map[string]cty.Value{"emit_event": cty.StringVal("ping")}),
	})
	assert.ErrorContains(t, err, "emit_event and on_event are required")

	_, err = onRunRequest(context.Background(), &testutil.TaskContext{
		TaskName: "ask",
		Args: cty.ObjectVal(map[string]cty.Value{
			"emit_event": cty.StringVal("ping"),
			"on_event":   cty.StringVal("pong"),
		}),
		Resources: map[string]any{"socketio_client": "not a socket"},
	})
	assert.ErrorContains(t, err, "not a socket.io client")
}

func TestRecycle_RejectsForeignObjects(t *testing.T) {
	assert.Error(t, (&clientFactory{}).Recycle(context.Background(), 42))
}
