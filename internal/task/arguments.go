package task

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeArguments decodes a cty object into the struct pointed to by target.
// Fields are matched by their `cty:"name"` tag. Attributes missing from the
// object leave the field untouched, so defaults can be set beforehand;
// attributes without a matching field are an error. A null or NilVal object
// decodes to nothing.
func DecodeArguments(val cty.Value, target any) error {
	if val.IsNull() {
		return nil
	}
	if !val.IsWhollyKnown() {
		return fmt.Errorf("arguments contain unknown values")
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return fmt.Errorf("arguments must be an object, got %s", val.Type().FriendlyName())
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to a struct, got %T", target)
	}
	structVal := rv.Elem()
	structType := structVal.Type()

	fields := make(map[string]int, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("cty"), ",")[0]
		if name != "" && name != "-" {
			fields[name] = i
		}
	}

	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		idx, ok := fields[name]
		if !ok {
			return fmt.Errorf("unsupported argument '%s'", name)
		}
		if v.IsNull() {
			continue
		}
		field := structVal.Field(idx)
		// Tuples and objects from configuration become lists and maps.
		if ty, err := gocty.ImpliedType(field.Interface()); err == nil {
			if cv, err := convert.Convert(v, ty); err == nil {
				v = cv
			}
		}
		if err := gocty.FromCtyValue(v, field.Addr().Interface()); err != nil {
			return fmt.Errorf("argument '%s': %w", name, err)
		}
	}
	return nil
}
