// Package mapping implements the field mapping engine: a path language for
// addressing nested fields on semi-structured records, a small transformation
// rule interpreter, the projector that turns one source record into a
// target-shaped record, and the persisted mapping configuration.
package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// A path addresses a value on a record using dot notation. A segment is a
// plain key, a key with a numeric index (prices[0]) or a key with the
// map-over-array marker (variants[]).
type segment struct {
	key      string
	index    int
	wildcard bool
}

const noIndex = -1

// Path is a parsed sequence of segments, ready for repeated Get/Set.
type Path struct {
	raw      string
	segments []segment
}

func ParsePath(path string) (*Path, error) {
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}

	parts := strings.Split(path, ".")
	segments := make([]segment, 0, len(parts))

	for _, part := range parts {
		seg := segment{key: part, index: noIndex}

		if open := strings.Index(part, "["); open >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("malformed segment %q in path %q", part, path)
			}

			seg.key = part[:open]
			inner := part[open+1 : len(part)-1]

			if inner == "" {
				seg.wildcard = true
			} else {
				index, err := strconv.Atoi(inner)
				if err != nil || index < 0 {
					return nil, fmt.Errorf("invalid array index %q in path %q", inner, path)
				}
				seg.index = index
			}
		}

		if seg.key == "" {
			return nil, fmt.Errorf("empty key in path %q", path)
		}

		segments = append(segments, seg)
	}

	return &Path{raw: path, segments: segments}, nil
}

func (p *Path) String() string {
	return p.raw
}

// HasWildcard reports whether the path maps over any array.
func (p *Path) HasWildcard() bool {
	return hasWildcard(p.segments)
}

func hasWildcard(segments []segment) bool {
	for _, seg := range segments {
		if seg.wildcard {
			return true
		}
	}
	return false
}

// Get resolves the path against a record. A missing key at any depth yields
// ok=false, never an error. A path with wildcard segments resolves to a
// []interface{} of the values found under every array element, flattened one
// level per wildcard; an empty array resolves to an empty list.
func (p *Path) Get(record map[string]interface{}) (interface{}, bool) {
	return getSegments(record, p.segments)
}

// Get is the parse-and-resolve convenience. A malformed path reads as absent.
func Get(record map[string]interface{}, path string) (interface{}, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return p.Get(record)
}

func getSegments(v interface{}, segments []segment) (interface{}, bool) {
	for i, seg := range segments {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}

		v, ok = m[seg.key]
		if !ok {
			return nil, false
		}

		if seg.index != noIndex {
			arr, ok := v.([]interface{})
			if !ok || seg.index >= len(arr) {
				return nil, false
			}
			v = arr[seg.index]
			continue
		}

		if seg.wildcard {
			arr, ok := v.([]interface{})
			if !ok {
				return nil, false
			}
			return getEach(arr, segments[i+1:]), true
		}
	}

	return v, true
}

func getEach(arr []interface{}, rest []segment) []interface{} {
	values := []interface{}{}

	for _, elem := range arr {
		if len(rest) == 0 {
			values = append(values, elem)
			continue
		}

		v, ok := getSegments(elem, rest)
		if !ok {
			continue
		}

		// An inner wildcard already produced a list; flatten one level.
		if hasWildcard(rest) {
			if inner, ok := v.([]interface{}); ok {
				values = append(values, inner...)
				continue
			}
		}

		values = append(values, v)
	}

	return values
}

// Set writes a value at the path, creating intermediate objects and
// index-sized arrays as needed. Writing through a wildcard segment applies
// the value (or the i-th element of a same-length list) to every existing
// element and never grows the array; an empty array makes the write a no-op.
func (p *Path) Set(record map[string]interface{}, value interface{}) error {
	return setSegments(record, p.segments, value)
}

func Set(record map[string]interface{}, path string, value interface{}) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	return p.Set(record, value)
}

func setSegments(m map[string]interface{}, segments []segment, value interface{}) error {
	seg := segments[0]
	rest := segments[1:]

	if seg.wildcard {
		arr, ok := m[seg.key].([]interface{})
		if !ok {
			return nil
		}

		values, fanOut := value.([]interface{})
		for i, elem := range arr {
			v := value
			if fanOut && len(values) == len(arr) {
				v = values[i]
			}

			if len(rest) == 0 {
				arr[i] = v
				continue
			}

			child, ok := elem.(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				arr[i] = child
			}
			if err := setSegments(child, rest, v); err != nil {
				return err
			}
		}

		return nil
	}

	if seg.index != noIndex {
		arr, _ := m[seg.key].([]interface{})
		for len(arr) <= seg.index {
			arr = append(arr, nil)
		}
		m[seg.key] = arr

		if len(rest) == 0 {
			arr[seg.index] = value
			return nil
		}

		child, ok := arr[seg.index].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			arr[seg.index] = child
		}
		return setSegments(child, rest, value)
	}

	if len(rest) == 0 {
		m[seg.key] = value
		return nil
	}

	child, ok := m[seg.key].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		m[seg.key] = child
	}
	return setSegments(child, rest, value)
}
