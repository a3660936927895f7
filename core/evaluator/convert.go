// Package evaluator - cty value conversion
// cty values are never blindly passed through: unknown and sensitive
// values must be handled before an instance is materialized.
package evaluator

import (
	"math/big"

	"github.com/zclconf/go-cty/cty"

	"aws-estimation/internal/errors"
)

// ctyToGo converts a wholly-known cty value to plain Go values for the
// instance attribute map. Numbers become int64 when integral, float64
// otherwise. Encountering an unknown value is an internal error; the
// caller checks IsWhollyKnown first and reports a dynamic-value error
// with proper context.
func ctyToGo(val cty.Value, context string) (interface{}, error) {
	if !val.IsKnown() {
		return nil, errors.DynamicValue(context)
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil

	case ty == cty.Bool:
		return val.True(), nil

	case ty == cty.Number:
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil

	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]interface{}, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev, context)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil

	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]interface{})
		for it := val.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			gv, err := ctyToGo(ev, context)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = gv
		}
		return out, nil

	default:
		return nil, errors.InvalidExpression(context, "unsupported value type "+ty.FriendlyName())
	}
}

// ValueFromGo converts a plain Go value, as decoded from JSON, into a
// cty value. Used by callers supplying variable overrides.
func ValueFromGo(v interface{}) cty.Value {
	return goValueToCty(v)
}

// goToCty converts an evaluated attribute map back into a cty object so
// later resources can reference this instance's attributes
func goToCty(attrs map[string]interface{}) cty.Value {
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	vals := make(map[string]cty.Value, len(attrs))
	for k, v := range attrs {
		vals[k] = goValueToCty(v)
	}
	return cty.ObjectVal(vals)
}

func goValueToCty(v interface{}) cty.Value {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case string:
		return cty.StringVal(tv)
	case bool:
		return cty.BoolVal(tv)
	case int64:
		return cty.NumberIntVal(tv)
	case int:
		return cty.NumberIntVal(int64(tv))
	case float64:
		return cty.NumberFloatVal(tv)
	case []interface{}:
		if len(tv) == 0 {
			return cty.EmptyTupleVal
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			elems[i] = goValueToCty(e)
		}
		return cty.TupleVal(elems)
	case map[string]interface{}:
		if len(tv) == 0 {
			return cty.EmptyObjectVal
		}
		vals := make(map[string]cty.Value, len(tv))
		for k, e := range tv {
			vals[k] = goValueToCty(e)
		}
		return cty.ObjectVal(vals)
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}
