package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/task"
)

// KindHTTPStatus is escalated when a response status is not accepted.
const KindHTTPStatus escalation.Kind = "http.status"

// RequestInput defines the arguments of the http_request task.
type RequestInput struct {
	URL    string `cty:"url"`
	Method string `cty:"method"`
	Body   string `cty:"body"`
	// Client names the http_client resource the task uses.
	Client string `cty:"client"`
	// FailOnStatus escalates responses with a status of 400 or above.
	FailOnStatus bool `cty:"fail_on_status"`
}

// Response is the result of the http_request task.
type Response struct {
	StatusCode int
	Body       string
}

// Client returns the *http.Client resource named name.
func Client(tc task.Context, name string) (*http.Client, error) {
	obj, err := tc.Resource(name)
	if err != nil {
		return nil, err
	}
	client, ok := obj.(*http.Client)
	if !ok {
		return nil, fmt.Errorf("resource '%s' is a %T, not an http client", name, obj)
	}
	return client, nil
}

// onRunHttpRequest is the handler for the 'http_request' task. A string
// parameter overrides the configured URL.
func onRunHttpRequest(ctx context.Context, tc task.Context) (any, error) {
	input := RequestInput{Method: http.MethodGet, Client: "http_client"}
	if err := tc.DecodeArguments(&input); err != nil {
		return nil, err
	}
	if u, ok := tc.Parameter().(string); ok && u != "" {
		input.URL = u
	}
	if input.URL == "" {
		return nil, fmt.Errorf("http_request: url is required")
	}

	client, err := Client(tc, input.Client)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", input.Method, "url", input.URL)

	var body io.Reader
	if input.Body != "" {
		body = strings.NewReader(input.Body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(input.Method), input.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	out := &Response{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	if input.FailOnStatus && resp.StatusCode >= http.StatusBadRequest {
		return nil, escalation.New(KindHTTPStatus, out)
	}
	return out, nil
}
