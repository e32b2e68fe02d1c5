package provider

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// maxFieldDepth bounds introspection recursion; sample records nest deeply
// and everything below a few levels stops being useful as a mapping path.
const maxFieldDepth = 3

const sampleValueLimit = 100

// ExtractFields enumerates the addressable field paths of one sample record.
// Arrays of objects contribute their first element's fields under a `key[]`
// path; sample values are truncated for display.
func ExtractFields(record Record) []FieldDescriptor {
	return extractObject(record, "", 0)
}

// MergeFields folds several records' field lists into one, keeping the first
// descriptor seen for each path, in stable path order.
func MergeFields(records []Record) []FieldDescriptor {
	byPath := map[string]FieldDescriptor{}
	var order []string

	for _, record := range records {
		for _, field := range ExtractFields(record) {
			if _, ok := byPath[field.Path]; ok {
				continue
			}
			byPath[field.Path] = field
			order = append(order, field.Path)
		}
	}

	sort.Strings(order)

	fields := make([]FieldDescriptor, 0, len(order))
	for _, path := range order {
		fields = append(fields, byPath[path])
	}
	return fields
}

func extractObject(obj map[string]interface{}, prefix string, depth int) []FieldDescriptor {
	var fields []FieldDescriptor

	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		fields = append(fields, FieldDescriptor{
			Path:        path,
			Type:        typeName(value),
			SampleValue: sampleValue(value),
		})

		if depth >= maxFieldDepth {
			continue
		}

		switch v := value.(type) {
		case map[string]interface{}:
			fields = append(fields, extractObject(v, path, depth+1)...)

		case []interface{}:
			if len(v) == 0 {
				continue
			}
			if elem, ok := v[0].(map[string]interface{}); ok {
				fields = append(fields, extractObject(elem, path+"[]", depth+1)...)
			}
		}
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })

	return fields
}

func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, float32, int, int64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func sampleValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return ""
	}

	s := cast.ToString(value)
	if len(s) > sampleValueLimit {
		s = s[:sampleValueLimit]
	}
	return s
}
