package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.TaskExecuted("load", OutcomeSuccess)
	c.TaskExecuted("load", OutcomeSuccess)
	c.TaskExecuted("load", OutcomeFailure)
	c.Escalated("process")
	c.ResourceSourced("db")
	c.SupervisionTransition("tx", "activate")
	c.ThreadStarted()
	c.ThreadStarted()
	c.ThreadFinished()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.tasksExecuted.WithLabelValues("load", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksExecuted.WithLabelValues("load", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.escalations.WithLabelValues("process")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resourcesSourced.WithLabelValues("db")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.supervisionTransitions.WithLabelValues("tx", "activate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.threadsActive))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestCollector_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.TaskExecuted("x", OutcomeSuccess)
		c.Escalated("system")
		c.ResourceSourced("r")
		c.SupervisionTransition("a", "enforce")
		c.ThreadStarted()
		c.ThreadFinished()
	})
}
