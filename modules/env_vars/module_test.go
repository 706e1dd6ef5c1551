package env_vars

import (
	"context"
	"testing"

	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEnvVars(t *testing.T) {
	t.Setenv("BURSTFLOW_TEST_A", "alpha")
	t.Setenv("BURSTFLOW_TEST_B", "beta")

	reg := registry.New().Load(&Module{})
	f, ok := reg.Resource("env_vars")
	require.True(t, ok)

	c := resource.NewContainer(resource.Spec{
		Name:      "env",
		Scope:     resource.ScopeProcess,
		Factory:   f,
		Arguments: cty.ObjectVal(map[string]cty.Value{"prefix": cty.StringVal("BURSTFLOW_TEST_")}),
	})
	blocker, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Nil(t, blocker)

	obj, ok := c.Object()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"BURSTFLOW_TEST_A": "alpha", "BURSTFLOW_TEST_B": "beta"}, obj)
}
