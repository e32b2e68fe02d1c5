package mapping

import (
	"fmt"
	"strings"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
)

// ValidationIssue is one finding from mapping validation. Warnings do not
// make the mapping invalid; errors do.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

// ValidateForSync checks a mapping set against the requirements of one
// entity type and sync mode: mode legality, duplicate pairs, and the target
// fields the mode cannot work without.
func ValidateForSync(typ entity.Type, mappings []FieldMapping, mode entity.Mode) []ValidationIssue {
	var issues []ValidationIssue

	if !typ.SupportsMode(mode) {
		issues = append(issues, ValidationIssue{
			Message: fmt.Sprintf("entity type %s does not support %s mode (%s)", typ, mode, typ.Describe().TargetLabel),
		})
	}

	issues = append(issues, checkDuplicates(mappings)...)

	targets := mappedTargets(mappings)

	switch typ {
	case entity.Articles:
		issues = append(issues, checkArticleFields(targets, mode)...)
	case entity.Customers:
		issues = append(issues, checkCustomerFields(targets, mode)...)
	}

	return issues
}

// Valid reports whether the issue list contains no hard errors.
func Valid(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if !issue.Warning {
			return false
		}
	}
	return true
}

// ValidateAgainstSchema warns about mapped paths that do not appear in the
// introspected field lists of either platform. Sample-based introspection is
// incomplete by nature, so these are warnings, not errors.
func ValidateAgainstSchema(mappings []FieldMapping, sourcePaths, targetPaths []string) []ValidationIssue {
	var issues []ValidationIssue

	sourceSet := toSet(sourcePaths)
	targetSet := toSet(targetPaths)

	for _, m := range mappings {
		if len(sourceSet) > 0 && !sourceSet[m.SourceField] {
			issues = append(issues, ValidationIssue{
				Field:   m.SourceField,
				Message: fmt.Sprintf("source field '%s' not found in sample data", m.SourceField),
				Warning: true,
			})
		}

		if len(targetSet) > 0 && !targetSet[m.TargetField] {
			issues = append(issues, ValidationIssue{
				Field:   m.TargetField,
				Message: fmt.Sprintf("target field '%s' not found in schema", m.TargetField),
				Warning: true,
			})
		}
	}

	return issues
}

func checkDuplicates(mappings []FieldMapping) []ValidationIssue {
	var issues []ValidationIssue

	seen := map[string]bool{}
	for _, m := range mappings {
		pair := m.SourceField + " -> " + m.TargetField
		if seen[pair] {
			issues = append(issues, ValidationIssue{
				Field:   m.TargetField,
				Message: fmt.Sprintf("duplicate mapping %s", pair),
			})
		}
		seen[pair] = true
	}

	return issues
}

func checkArticleFields(targets map[string]bool, mode entity.Mode) []ValidationIssue {
	var issues []ValidationIssue

	if (mode == entity.ModeCreate || mode == entity.ModeUpsert) && !targets["title"] {
		issues = append(issues, ValidationIssue{
			Field:   "title",
			Message: "required field 'title' is not mapped",
		})
	}

	if !hasVariantField(targets, "price") {
		issues = append(issues, ValidationIssue{
			Field:   "variants[].price",
			Message: "required field 'variants[].price' is not mapped",
		})
	}

	if !hasVariantField(targets, "sku") {
		if mode == entity.ModeUpdate || mode == entity.ModeUpsert {
			issues = append(issues, ValidationIssue{
				Field:   "variants[].sku",
				Message: "'variants[].sku' is required for update/upsert - without a SKU, existing products cannot be found",
			})
		} else {
			issues = append(issues, ValidationIssue{
				Field:   "variants[].sku",
				Message: "'variants[].sku' is not mapped - strongly recommended for product identification",
				Warning: true,
			})
		}
	}

	return issues
}

func checkCustomerFields(targets map[string]bool, mode entity.Mode) []ValidationIssue {
	var issues []ValidationIssue

	if !targets["email"] {
		if mode == entity.ModeUpdate || mode == entity.ModeUpsert {
			issues = append(issues, ValidationIssue{
				Field:   "email",
				Message: "'email' is required for update/upsert - without it, existing customers cannot be found",
			})
		} else {
			issues = append(issues, ValidationIssue{
				Field:   "email",
				Message: "'email' is not mapped - strongly recommended for customer identification",
				Warning: true,
			})
		}
	}

	return issues
}

func hasVariantField(targets map[string]bool, field string) bool {
	for t := range targets {
		if strings.HasPrefix(t, variantPrefix) && strings.Contains(t, field) {
			return true
		}
	}
	return false
}

func mappedTargets(mappings []FieldMapping) map[string]bool {
	targets := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		targets[m.TargetField] = true
	}
	return targets
}

func toSet(paths []string) map[string]bool {
	if len(paths) == 0 {
		return nil
	}

	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}
