package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type printArgs struct {
	Message string            `cty:"message"`
	Count   int               `cty:"count"`
	Labels  map[string]string `cty:"labels"`
	hidden  string
}

func TestDecodeArguments(t *testing.T) {
	args := printArgs{Count: 3}
	val := cty.ObjectVal(map[string]cty.Value{
		"message": cty.StringVal("hi"),
		"labels":  cty.MapVal(map[string]cty.Value{"env": cty.StringVal("dev")}),
	})
	require.NoError(t, DecodeArguments(val, &args))
	assert.Equal(t, "hi", args.Message)
	assert.Equal(t, 3, args.Count, "missing attributes keep their default")
	assert.Equal(t, map[string]string{"env": "dev"}, args.Labels)
	assert.Empty(t, args.hidden)
}

func TestDecodeArguments_Errors(t *testing.T) {
	var args printArgs
	err := DecodeArguments(cty.ObjectVal(map[string]cty.Value{"nope": cty.True}), &args)
	assert.ErrorContains(t, err, "unsupported argument 'nope'")

	err = DecodeArguments(cty.ObjectVal(map[string]cty.Value{"count": cty.StringVal("x")}), &args)
	assert.ErrorContains(t, err, "argument 'count'")

	err = DecodeArguments(cty.StringVal("x"), &args)
	assert.ErrorContains(t, err, "must be an object")

	err = DecodeArguments(cty.EmptyObjectVal, args)
	assert.ErrorContains(t, err, "pointer to a struct")
}

func TestDecodeArguments_Nil(t *testing.T) {
	var args printArgs
	require.NoError(t, DecodeArguments(cty.NilVal, &args))
	require.NoError(t, DecodeArguments(cty.NullVal(cty.DynamicPseudoType), &args))
}

func TestDecodeArguments_ConvertsConfigShapes(t *testing.T) {
	var args struct {
		Tags   []string          `cty:"tags"`
		Labels map[string]string `cty:"labels"`
		Count  int               `cty:"count"`
	}
	val := cty.ObjectVal(map[string]cty.Value{
		"tags":   cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		"labels": cty.ObjectVal(map[string]cty.Value{"env": cty.StringVal("dev")}),
		"count":  cty.StringVal("4"),
	})
	require.NoError(t, DecodeArguments(val, &args))
	assert.Equal(t, []string{"a", "b"}, args.Tags)
	assert.Equal(t, map[string]string{"env": "dev"}, args.Labels)
	assert.Equal(t, 4, args.Count)
}
