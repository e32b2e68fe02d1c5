package mapping

import (
	"encoding/json"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

const (
	variantPrefix   = "variants[]."
	metafieldPrefix = "metafields[]."

	defaultMetafieldType = "single_line_text_field"
)

// Projector turns one source record into a target-shaped record by applying
// a mapping list in order. Later mappings may overwrite earlier ones; last
// write wins. The projector never mutates the source record or the mapping
// list it borrows.
type Projector struct {
	Mappings []FieldMapping

	// MetafieldTypes maps "namespace.key" to the Shopify metafield type, as
	// reported by the store's metafield definitions. Unknown metafields fall
	// back to single_line_text_field.
	MetafieldTypes map[string]string

	// ExistingVariantID, when non-zero, is carried into the projected first
	// variant so an update addresses the variant that already exists.
	ExistingVariantID int64

	Log *log.Logger
}

// Project builds a fresh target record. Mappings whose source value is
// absent, or whose transformation yields nil, leave the target path unset so
// required-field validation can detect missing coverage.
func (p *Projector) Project(source map[string]interface{}) (map[string]interface{}, error) {
	target := map[string]interface{}{}
	variant := map[string]interface{}{}

	if p.ExistingVariantID != 0 {
		variant["id"] = p.ExistingVariantID
	}

	for _, m := range p.Mappings {
		value, ok := Get(source, m.SourceField)
		if !ok {
			p.debugf("no value at %s, leaving %s unset", m.SourceField, m.TargetField)
			continue
		}

		transformed, err := ApplyTransformation(m.rule(), m.TargetField, value)
		if err != nil {
			return nil, err
		}

		if transformed == nil {
			continue
		}

		switch {
		case strings.HasPrefix(m.TargetField, variantPrefix):
			variant[strings.TrimPrefix(m.TargetField, variantPrefix)] = transformed

		case strings.HasPrefix(m.TargetField, metafieldPrefix):
			p.appendMetafield(target, m, transformed)

		default:
			if err := Set(target, m.TargetField, transformed); err != nil {
				return nil, err
			}
		}
	}

	if len(variant) > 0 {
		target["variants"] = []interface{}{variant}
	}

	return target, nil
}

// appendMetafield turns a metafields[].<namespace>.<key> write into a typed
// Shopify metafield entry. List-typed metafields take their value as a JSON
// string array.
func (p *Projector) appendMetafield(target map[string]interface{}, m FieldMapping, value interface{}) {
	rest := strings.TrimPrefix(m.TargetField, metafieldPrefix)

	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		p.debugf("malformed metafield path %s, leaving unset", m.TargetField)
		return
	}

	namespace, key := parts[0], parts[1]

	metafieldType := defaultMetafieldType
	if t, ok := p.MetafieldTypes[namespace+"."+key]; ok && t != "" {
		metafieldType = t
	}

	encoded := encodeMetafieldValue(value, metafieldType, m.rule())

	metafields, _ := target["metafields"].([]interface{})
	target["metafields"] = append(metafields, map[string]interface{}{
		"namespace": namespace,
		"key":       key,
		"value":     encoded,
		"type":      metafieldType,
	})
}

func encodeMetafieldValue(value interface{}, metafieldType string, rule TransformationRule) string {
	if !strings.HasPrefix(metafieldType, "list.") {
		return cast.ToString(value)
	}

	var parts []string

	switch v := value.(type) {
	case []interface{}:
		for _, elem := range v {
			parts = append(parts, cast.ToString(elem))
		}
	default:
		parts = splitListValue(cast.ToString(value), rule)
	}

	encoded, err := json.Marshal(parts)
	if err != nil {
		return cast.ToString(value)
	}
	return string(encoded)
}

// splitListValue recovers the elements of a list metafield from a scalar
// string: the rule's join delimiter when one is set, otherwise the first
// common delimiter present in the value.
func splitListValue(value string, rule TransformationRule) []string {
	delim := rule.JoinDelimiter
	if delim == "" {
		for _, candidate := range []string{"|", ",", ";"} {
			if strings.Contains(value, candidate) {
				delim = candidate
				break
			}
		}
	}

	if delim == "" {
		return []string{value}
	}

	var parts []string
	for _, part := range strings.Split(value, delim) {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func (p *Projector) debugf(format string, args ...interface{}) {
	if p.Log != nil {
		p.Log.Debugf(format, args...)
	}
}
