package store

import (
	"encoding/json"
)

// Trees are decoded JSON: map[string]any, []any, string, float64, bool.
// A nil tree means "nothing stored". Empty objects are never kept, the same
// way the hosted database drops them.

// normalize round-trips v through JSON so that structs and typed maps become
// plain trees.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return prune(out), nil
}

func decode(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encode(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}

// prune drops nulls and empty objects, bottom-up.
func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		child = prune(child)
		if child == nil {
			delete(m, k)
			continue
		}
		m[k] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func getAt(node any, segs []string) (any, bool) {
	for _, s := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return node, node != nil
}

// setAt returns node with v placed at segs. Intermediate objects are created
// as needed; a scalar in the way is replaced by an object.
func setAt(node any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	m, ok := node.(map[string]any)
	if !ok {
		if v == nil {
			return node
		}
		m = map[string]any{}
	}
	child := setAt(m[segs[0]], segs[1:], v)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// mergeAt sets each top-level key of partial under segs. Values are
// normalized up front so a bad value leaves node untouched.
func mergeAt(node any, segs []string, partial map[string]any) (any, error) {
	vals := make(map[string]any, len(partial))
	for k, v := range partial {
		if err := ValidKey(k); err != nil {
			return nil, err
		}
		nv, err := normalize(v)
		if err != nil {
			return nil, err
		}
		vals[k] = nv
	}
	for k, v := range vals {
		node = setAt(node, append(append([]string{}, segs...), k), v)
	}
	return node, nil
}
