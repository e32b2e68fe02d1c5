package mapping

const (
	TransformDirect    = "direct"
	TransformReplace   = "replace"
	TransformRegex     = "regex"
	TransformSplitJoin = "split_join"
	TransformCustom    = "custom"
)

// TransformationRule is a tagged variant over the transformation types.
// Fields that do not belong to the selected type are carried but ignored.
type TransformationRule struct {
	Type           string `json:"type"`
	Find           string `json:"find,omitempty"`
	Replace        string `json:"replace,omitempty"`
	SplitDelimiter string `json:"split_delimiter,omitempty"`
	JoinDelimiter  string `json:"join_delimiter,omitempty"`
	CustomCode     string `json:"custom_code,omitempty"`
}

// FieldMapping maps one source field path onto one target field path. A nil
// Transformation is equivalent to direct.
type FieldMapping struct {
	SourceField    string              `json:"source_field"`
	TargetField    string              `json:"target_field"`
	Transformation *TransformationRule `json:"transformation,omitempty"`
}

func (m FieldMapping) rule() TransformationRule {
	if m.Transformation == nil {
		return TransformationRule{Type: TransformDirect}
	}

	rule := *m.Transformation
	if rule.Type == "" {
		rule.Type = TransformDirect
	}
	return rule
}
