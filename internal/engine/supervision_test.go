package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/burstflow/internal/escalation"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/specialistvlad/burstflow/internal/supervision"
	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/specialistvlad/burstflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// traceUnit records every aspect action in a trace. The err fields make
// the matching action fail after it is recorded.
type traceUnit struct {
	trace       *testutil.Trace
	activateErr error
	enforceErr  error
}

func (u *traceUnit) Activate(context.Context) error {
	u.trace.Add("activate")
	return u.activateErr
}

func (u *traceUnit) Govern(_ context.Context, resource string, _ any) error {
	u.trace.Add("govern:" + resource)
	return nil
}

func (u *traceUnit) Enforce(context.Context) error {
	u.trace.Add("enforce")
	return u.enforceErr
}

func (u *traceUnit) Disregard(context.Context) error {
	u.trace.Add("disregard")
	return nil
}

func (h *harness) supervision(name string, strategy supervision.Strategy) {
	h.failingSupervision(name, strategy, nil, nil)
}

func (h *harness) failingSupervision(name string, strategy supervision.Strategy, activateErr, enforceErr error) {
	h.reg.RegisterSupervision(name, func(context.Context, cty.Value) (supervision.Unit, error) {
		return &traceUnit{trace: h.trace, activateErr: activateErr, enforceErr: enforceErr}, nil
	})
	h.b.Supervision(name, name, strategy)
}

func TestSupervisionFollowsTaskRequirements(t *testing.T) {
	h := newHarness(t)
	h.supervision("tx", supervision.Enforce)
	h.reg.RegisterResource("db", resource.FactoryFunc(func(context.Context, *resource.SourceContext) (any, error) {
		return "conn", nil
	}))
	h.b.Resource("db", "db", resource.ScopeProcess).SupervisedBy("tx")
	h.task("t1", nil).Supervised("tx").Uses("db").Next("t2")
	h.task("t2", nil).Next("t3")
	h.task("t3", nil).Supervised("tx")
	e := h.engine()

	_, err := h.run(e, "t1", nil)
	require.NoError(t, err)
	want := []string{"activate", "govern:db", "t1", "enforce", "t2", "activate", "t3", "enforce"}
	if diff := cmp.Diff(want, h.trace.Events()); diff != "" {
		t.Errorf("unexpected supervision order (-want +got):\n%s", diff)
	}
}

func TestSupervisionIsDisregardedOnFailure(t *testing.T) {
	h := newHarness(t)
	h.supervision("tx", supervision.Enforce)
	h.task("t1", fails(errors.New("constraint violated"))).Supervised("tx")
	e := h.engine()

	_, err := h.run(e, "t1", nil)
	require.Error(t, err)
	if diff := cmp.Diff([]string{"activate", "t1", "disregard"}, h.trace.Events()); diff != "" {
		t.Errorf("unexpected supervision order (-want +got):\n%s", diff)
	}
}

func TestUnknownStrategyIsAnInvariantViolation(t *testing.T) {
	h := newHarness(t)
	h.supervision("odd", supervision.Strategy("bogus"))
	h.task("t1", nil).Supervised("odd").Next("t2")
	h.task("t2", nil)
	h.task("ph", nil)
	h.b.OnEscalation(escalation.Any, "ph")
	e := h.engine()

	_, err := h.run(e, "t1", nil)
	require.Error(t, err)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.ErrorIs(t, err, supervision.ErrUnknownStrategy)
	assert.Equal(t, 0, h.trace.Count("t2"))
	assert.Equal(t, 0, h.trace.Count("ph"))
	assert.Contains(t, h.logs.String(), "CRITICAL")
}

func TestFailedActivationEscalatesAsSupervision(t *testing.T) {
	h := newHarness(t)
	var rcv receiver
	cause := errors.New("database is locked")
	h.failingSupervision("tx", supervision.Enforce, cause, nil)
	h.task("t1", nil).Supervised("tx").Next("t2")
	h.task("t2", nil)
	h.task("ph", rcv.handler(nil, nil))
	h.b.OnEscalation(escalation.KindSupervision, "ph")
	e := h.engine()

	_, err := h.run(e, "t1", nil)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"activate", "ph"}, h.trace.Events()); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
	esc := rcv.last()
	require.NotNil(t, esc)
	assert.Equal(t, escalation.KindSupervision, esc.Kind)
	assert.Equal(t, "t1", esc.Task)
	assert.ErrorIs(t, esc, cause)
}

func TestFailedEnforceAtEndOfContextReachesFallback(t *testing.T) {
	h := newHarness(t)
	var rcv receiver
	cause := errors.New("commit rejected")
	h.failingSupervision("tx", supervision.Enforce, nil, cause)
	h.task("t1", nil).Supervised("tx")
	h.task("ph", rcv.handler(nil, nil))
	h.b.OnEscalation(escalation.KindSupervision, "ph")
	e := h.engine()

	_, err := h.run(e, "t1", nil)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"activate", "t1", "enforce", "ph"}, h.trace.Events()); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
	esc := rcv.last()
	require.NotNil(t, esc)
	assert.Equal(t, escalation.KindSupervision, esc.Kind)
	assert.ErrorIs(t, esc, cause)
	assert.Contains(t, h.logs.String(), "Supervision deactivation failed at end of context.")
}

func TestFailedEnforceWithoutHandlerIsFatal(t *testing.T) {
	h := newHarness(t)
	cause := errors.New("commit rejected")
	h.failingSupervision("tx", supervision.Enforce, nil, cause)
	h.task("t1", returns("written")).Supervised("tx")
	e := h.engine()

	_, err := h.run(e, "t1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	var esc *escalation.Escalation
	require.ErrorAs(t, err, &esc)
	assert.Equal(t, escalation.KindSupervision, esc.Kind)
}

func TestOwnerChainHandlerSeesSharedAspectDisregarded(t *testing.T) {
	h := newHarness(t)
	h.supervision("tx", supervision.Enforce)
	h.task("owner", func(_ context.Context, tc task.Context) (any, error) {
		return nil, tc.Parallel("bad", nil)
	}).Supervised("tx").OnEscalation(escalation.Any, "h")
	h.task("bad", fails(errors.New("constraint violated"))).Supervised("tx")
	h.task("h", nil)
	e := h.engine()

	_, err := h.run(e, "owner", nil)
	require.NoError(t, err)
	want := []string{"activate", "owner", "bad", "disregard", "h"}
	if diff := cmp.Diff(want, h.trace.Events()); diff != "" {
		t.Errorf("unexpected supervision order (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, h.trace.Count("enforce"))
}
