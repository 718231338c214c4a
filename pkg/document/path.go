package document

import (
	"reflect"
	"strings"
)

// splitPath breaks a dotted path into its segments. Empty segments are
// dropped so a stray trailing dot does not address an empty key.
func splitPath(path string) []string {
	parts := strings.Split(path, ".")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// lookup walks the tree along the path segments and returns the value found
// there, or nil if any segment is missing or a non-object is traversed.
func lookup(tree map[string]any, segments []string) any {
	var current any = tree
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// put writes the value at the path, creating intermediate objects and
// overwriting non-object values that stand in the way.
func put(tree map[string]any, segments []string, value any) {
	if len(segments) == 0 {
		return
	}
	node := tree
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}
	node[segment(segments)] = value
}

// remove deletes the value at the path. Missing intermediate segments are a
// no-op.
func remove(tree map[string]any, segments []string) {
	if len(segments) == 0 {
		return
	}
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, segment(segments))
}

// segment returns the final segment of the path.
func segment(segments []string) string {
	return segments[len(segments)-1]
}

// asArray returns the value as an array, or an empty array when the value is
// missing or of another type.
func asArray(value any) []any {
	arr, ok := value.([]any)
	if !ok {
		return []any{}
	}
	return arr
}

// asNumber returns the value as a float64, or 0 when the value is missing or
// non-numeric.
func asNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// arrayIndex resolves an index against the array length, counting negative
// indexes from the end. The second result reports whether the index is in
// bounds.
func arrayIndex(length int, index int) (int, bool) {
	if index < 0 {
		index += length
	}
	if index < 0 || index >= length {
		return 0, false
	}
	return index, true
}

// removeFromArray removes the first element equal to value, or the element
// at index when value is nil, and returns the resulting array.
func removeFromArray(arr []any, index int, value any) []any {
	if value != nil {
		for i, elem := range arr {
			if reflect.DeepEqual(elem, value) {
				return append(arr[:i:i], arr[i+1:]...)
			}
		}
		return arr
	}
	i, ok := arrayIndex(len(arr), index)
	if !ok {
		return arr
	}
	return append(arr[:i:i], arr[i+1:]...)
}

// deepCopy returns a copy of a canonical JSON value so callers cannot alias
// the store's internal tree.
func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = deepCopy(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = deepCopy(elem)
		}
		return out
	default:
		return v
	}
}
