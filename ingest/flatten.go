package ingest

import (
	"strconv"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/value"
)

// flatten walks t, recording every leaf (a non-map value, including
// arrays) as a dot path in out.
func flatten(t tree, path string, out map[string]interface{}) {
	for k, v := range t {
		childPath := joinPath(path, k)
		if child, ok := v.(tree); ok {
			flatten(child, childPath, out)
			continue
		}
		out[childPath] = v
	}
}

// rawToValue converts a raw decoded value (as produced by the YAML/TOML
// decoders or the environment-value parser) into a value.Value,
// recursing element-wise for arrays and maps.
func rawToValue(path string, raw interface{}) (value.Value, error) {
	const op = "ingest.rawToValue"
	switch t := raw.(type) {
	case nil:
		return value.Null, nil
	case bool:
		return value.FromBool(t), nil
	case string:
		return value.FromText(t), nil
	case int:
		return value.FromInt64(int64(t)), nil
	case int64:
		return value.FromInt64(t), nil
	case uint64:
		return value.FromUint64(t), nil
	case float32:
		return value.FromFloat64(float64(t)), nil
	case float64:
		return value.FromFloat64(t), nil
	case []byte:
		return value.FromBytes(t), nil
	case []interface{}:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			ev, err := rawToValue(joinPath(path, strconv.Itoa(i)), e)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = ev
		}
		return value.FromArray(elems), nil
	case tree:
		m := make(map[string]value.Value, len(t))
		for k, e := range t {
			ev, err := rawToValue(joinPath(path, k), e)
			if err != nil {
				return value.Value{}, err
			}
			m[k] = ev
		}
		return value.FromMap(m), nil
	}
	return value.Value{}, errors.E(errors.Op(op), errors.Path(path), errors.DeserializationError,
		errors.Errorf("unsupported decoded value type %T", raw))
}
