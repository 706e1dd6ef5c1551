package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func sourceClient(t *testing.T, args cty.Value) *http.Client {
	t.Helper()
	reg := registry.New().Load(&Module{})
	f, ok := reg.Resource("http_client")
	require.True(t, ok)
	c := resource.NewContainer(resource.Spec{Name: "http_client", Factory: f, Arguments: args})
	_, err := c.Check(context.Background())
	require.NoError(t, err)
	obj, ok := c.Object()
	require.True(t, ok)
	return obj.(*http.Client)
}

func TestHttpClientResource(t *testing.T) {
	client := sourceClient(t, cty.ObjectVal(map[string]cty.Value{"timeout": cty.StringVal("2s")}))
	assert.Equal(t, "2s", client.Timeout.String())

	f := &clientFactory{}
	assert.NoError(t, f.Recycle(context.Background(), client))
	assert.Error(t, f.Recycle(context.Background(), "not a client"))
}

func TestHttpClientResource_InvalidTimeout(t *testing.T) {
	reg := registry.New().Load(&Module{})
	f, _ := reg.Resource("http_client")
	c := resource.NewContainer(resource.Spec{
		Name:      "http_client",
		Factory:   f,
		Arguments: cty.ObjectVal(map[string]cty.Value{"timeout": cty.StringVal("soon")}),
	})
	_, err := c.Check(context.Background())
	assert.ErrorContains(t, err, "invalid timeout 'soon'")
}

func TestHttpRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, "%s %s", r.Method, body)
	}))
	defer server.Close()

	client := sourceClient(t, cty.NilVal)
	reg := registry.New().Load(&Module{})
	fn, ok := reg.Task("http_request")
	require.True(t, ok)

	t.Run("configured url", func(t *testing.T) {
		tc := &testutil.TaskContext{
			TaskName: "post",
			Args: cty.ObjectVal(map[string]cty.Value{
				"url":    cty.StringVal(server.URL + "/echo"),
				"method": cty.StringVal("post"),
				"body":   cty.StringVal("hello"),
				"client": cty.StringVal("api"),
			}),
			Resources: map[string]any{"api": client},
		}
		v, err := fn(context.Background(), tc)
		require.NoError(t, err)
		assert.Equal(t, &Response{StatusCode: http.StatusOK, Body: "POST hello"}, v)
	})

	t.Run("parameter overrides url", func(t *testing.T) {
		tc := &testutil.TaskContext{
			TaskName:  "get",
			Param:     server.URL + "/missing",
			Args:      cty.ObjectVal(map[string]cty.Value{"fail_on_status": cty.True}),
			Resources: map[string]any{"http_client": client},
		}
		_, err := fn(context.Background(), tc)
		var esc *escalation.Escalation
		require.ErrorAs(t, err, &esc)
		assert.Equal(t, KindHTTPStatus, esc.Kind)
		assert.Equal(t, http.StatusNotFound, esc.Payload.(*Response).StatusCode)
	})

	t.Run("missing resource", func(t *testing.T) {
		tc := &testutil.TaskContext{
			TaskName: "get",
			Args:     cty.ObjectVal(map[string]cty.Value{"url": cty.StringVal(server.URL)}),
		}
		_, err := fn(context.Background(), tc)
		assert.ErrorContains(t, err, "does not use resource 'http_client'")
	})
}
