package c5store

import (
	"reflect"
	"strings"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/value"
)

// GetInto reads keypath from s and projects it into T. T must be one
// of string, bool, int64, uint64, float64, or []byte; any other type
// fails with errors.TypeMismatch. GetInto is a free function, not a
// Store method, because Go methods cannot carry their own type
// parameters.
func GetInto[T any](s Store, keypath string) (T, error) {
	const op = "c5store.GetInto"
	var zero T
	v, ok := s.Get(keypath)
	if !ok {
		return zero, errors.E(errors.Op(op), errors.Path(keypath), errors.KeyNotFound,
			errors.Errorf("no value at %q", keypath))
	}
	out, err := projectScalar(op, keypath, v, any(zero))
	if err != nil {
		return zero, err
	}
	t, ok := out.(T)
	if !ok {
		return zero, errors.E(errors.Op(op), errors.Path(keypath), errors.TypeMismatch,
			errors.Errorf("cannot project %T into requested type", out))
	}
	return t, nil
}

// projectScalar projects v into the Go type of zero, dispatching on
// zero's dynamic type since generic type parameters cannot be
// switched on directly.
func projectScalar(op, keypath string, v value.Value, zero any) (any, error) {
	switch zero.(type) {
	case string:
		return v.AsString()
	case bool:
		return v.AsBool()
	case int64:
		return v.AsInt64()
	case int:
		n, err := v.AsInt64()
		return int(n), err
	case uint64:
		return v.AsUint64()
	case uint:
		n, err := v.AsUint64()
		return uint(n), err
	case float64:
		return v.AsFloat64()
	case []byte:
		return v.AsBytes()
	}
	return nil, errors.E(errors.Op(op), errors.Path(keypath), errors.TypeMismatch,
		errors.Errorf("unsupported GetInto target type %T", zero))
}

// GetIntoStruct reconstructs a T from whichever representation of
// keypath is present in s: a single nested Map value, or a set of
// flattened keys beginning with keypath+".". Each exported field of T
// is populated from the field named by its c5 struct tag, or its Go
// name lower-cased if no tag is present. GetIntoStruct fails with
// errors.KeyNotFound if neither representation is present.
func GetIntoStruct[T any](s Store, keypath string) (T, error) {
	const op = "c5store.GetIntoStruct"
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return zero, errors.E(errors.Op(op), errors.Path(keypath), errors.Invalid,
			errors.Str("GetIntoStruct requires a struct type parameter"))
	}

	node, ok := projectionNode(s, keypath)
	if !ok {
		return zero, errors.E(errors.Op(op), errors.Path(keypath), errors.KeyNotFound,
			errors.Errorf("no value or descendant keys at %q", keypath))
	}

	out := reflect.New(rt).Elem()
	if err := decodeStruct(op, keypath, node, out); err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

// projectionNode is either a value.Value (a leaf) or a map[string]any
// whose values are themselves projectionNodes (a synthesized or
// native nested map).
func projectionNode(s Store, keypath string) (any, bool) {
	if v, ok := s.Get(keypath); ok {
		if m, err := v.AsMap(); err == nil {
			return mapToNode(m), true
		}
		return v, true
	}

	keys := s.KeyPathsWithPrefix(keypath)
	if len(keys) == 0 {
		return nil, false
	}
	root := map[string]any{}
	for _, k := range keys {
		rel := strings.TrimPrefix(k, keypath+".")
		v, ok := s.Get(k)
		if !ok {
			continue
		}
		setNodePath(root, strings.Split(rel, "."), v)
	}
	return root, true
}

func mapToNode(m map[string]value.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, err := v.AsMap(); err == nil {
			out[k] = mapToNode(sub)
			continue
		}
		out[k] = v
	}
	return out
}

func setNodePath(root map[string]any, segments []string, leaf value.Value) {
	node := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			node[seg] = leaf
			return
		}
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
}

// decodeStruct populates out (a settable reflect.Value of struct
// kind) from node, a projectionNode rooted at keypath.
func decodeStruct(op, keypath string, node any, out reflect.Value) error {
	m, ok := node.(map[string]any)
	if !ok {
		return errors.E(errors.Op(op), errors.Path(keypath), errors.DeserializationError,
			errors.Errorf("expected a map at %q, got a scalar value", keypath))
	}

	rt := out.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" { // unexported
			continue
		}
		name := field.Tag.Get("c5")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		child, present := m[name]
		if !present {
			continue
		}
		fieldPath := keypath + "." + name
		if err := decodeField(op, fieldPath, child, out.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func decodeField(op, fieldPath string, node any, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Struct:
		return decodeStruct(op, fieldPath, node, dst)
	case reflect.Slice:
		return decodeSlice(op, fieldPath, node, dst)
	default:
		v, ok := node.(value.Value)
		if !ok {
			return errors.E(errors.Op(op), errors.Path(fieldPath), errors.DeserializationError,
				errors.Errorf("expected a scalar at %q, got a nested map", fieldPath))
		}
		return decodeScalar(op, fieldPath, v, dst)
	}
}

func decodeSlice(op, fieldPath string, node any, dst reflect.Value) error {
	if dst.Type().Elem().Kind() == reflect.Uint8 {
		v, ok := node.(value.Value)
		if !ok {
			return errors.E(errors.Op(op), errors.Path(fieldPath), errors.DeserializationError,
				errors.Errorf("expected bytes at %q, got a nested map", fieldPath))
		}
		b, err := v.AsBytes()
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(fieldPath), err)
		}
		dst.SetBytes(b)
		return nil
	}

	v, ok := node.(value.Value)
	if !ok {
		return errors.E(errors.Op(op), errors.Path(fieldPath), errors.DeserializationError,
			errors.Errorf("expected an array at %q, got a nested map", fieldPath))
	}
	arr, err := v.AsArray()
	if err != nil {
		return errors.E(errors.Op(op), errors.Path(fieldPath), err)
	}
	out := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
	for i, elem := range arr {
		if err := decodeField(op, fieldPath, elem, out.Index(i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

// decodeScalar projects v into dst, a settable reflect.Value of
// non-composite kind, per the format-permissive rule: string fields
// accept Bytes as UTF-8, fixed-width integer fields accept Bytes as a
// big-endian encoding of the exact width (delegated to Value's own
// byte-projection methods, which already implement this).
func decodeScalar(op, fieldPath string, v value.Value, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.String:
		s, err := v.AsString()
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(fieldPath), err)
		}
		dst.SetString(s)
	case reflect.Bool:
		b, err := v.AsBool()
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(fieldPath), err)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := v.AsInt64()
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(fieldPath), err)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := v.AsUint64()
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(fieldPath), err)
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := v.AsFloat64()
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(fieldPath), err)
		}
		dst.SetFloat(f)
	default:
		return errors.E(errors.Op(op), errors.Path(fieldPath), errors.DeserializationError,
			errors.Errorf("unsupported struct field kind %s", dst.Kind()))
	}
	return nil
}
