package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/spf13/cast"
)

// TransformationError reports a transformation rule that could not be applied
// to a field: a bad regex, a failing custom expression or a type the rule
// cannot digest. Item-level: the sync records it and moves on.
type TransformationError struct {
	Rule  string
	Field string
	Err   error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transformation %s failed for field %s: %s", e.Rule, e.Field, e.Err)
}

func (e *TransformationError) Unwrap() error {
	return e.Err
}

// ApplyTransformation applies one rule to one resolved value. A list value
// (from a wildcard path) is transformed element by element, preserving length
// and order. The field name is only used in error messages.
func ApplyTransformation(rule TransformationRule, field string, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	if list, ok := value.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, elem := range list {
			v, err := applyScalar(rule, field, elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	return applyScalar(rule, field, value)
}

func applyScalar(rule TransformationRule, field string, value interface{}) (interface{}, error) {
	switch rule.Type {
	case "", TransformDirect:
		return value, nil

	case TransformReplace:
		if rule.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(cast.ToString(value), rule.Find, rule.Replace), nil

	case TransformRegex:
		if rule.Find == "" {
			return value, nil
		}

		re, err := regexp.Compile(rule.Find)
		if err != nil {
			return nil, &TransformationError{Rule: rule.Type, Field: field, Err: err}
		}

		return re.ReplaceAllString(cast.ToString(value), rule.Replace), nil

	case TransformSplitJoin:
		if rule.SplitDelimiter == "" {
			return value, nil
		}
		return splitJoin(cast.ToString(value), rule.SplitDelimiter, rule.JoinDelimiter), nil

	case TransformCustom:
		if rule.CustomCode == "" {
			return value, nil
		}
		return evalCustom(rule, field, value)

	default:
		return nil, &TransformationError{
			Rule:  rule.Type,
			Field: field,
			Err:   fmt.Errorf("unknown transformation type"),
		}
	}
}

// splitJoin splits on one literal delimiter, cleans each piece and rejoins
// with another. Cleaning trims whitespace, strips a leading colon-terminated
// label token ("Category: Bikes" -> "Bikes") and drops empty pieces.
func splitJoin(value, splitDelim, joinDelim string) string {
	parts := strings.Split(value, splitDelim)
	cleaned := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)

		if i := strings.Index(part, ":"); i >= 0 {
			part = strings.TrimSpace(part[i+1:])
		}

		if part != "" {
			cleaned = append(cleaned, part)
		}
	}

	return strings.Join(cleaned, joinDelim)
}

// evalCustom evaluates the rule's user-supplied expression with a single
// binding, `value`. The expression scope is the trust boundary: expr only
// offers expressions over the given environment, no statements and no I/O,
// so a mapping author can reshape the value but not reach the process.
func evalCustom(rule TransformationRule, field string, value interface{}) (interface{}, error) {
	env := map[string]interface{}{
		"value": cast.ToString(value),
	}

	program, err := expr.Compile(rule.CustomCode, expr.Env(env))
	if err != nil {
		return nil, &TransformationError{Rule: rule.Type, Field: field, Err: err}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, &TransformationError{Rule: rule.Type, Field: field, Err: err}
	}

	return out, nil
}
