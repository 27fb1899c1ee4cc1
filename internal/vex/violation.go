package vex

import (
	"fmt"
	"strings"
)

// Serialized field names. Violations are tagged with these.
const (
	FieldID              = "id"
	FieldDescription     = "description"
	FieldSeverity        = "severity"
	FieldAffectedPackage = "affected_package"
	FieldJustification   = "justification"
	FieldStatus          = "status"
	FieldImpactStatement = "impact_statement"
	FieldActionStatement = "action_statement"
)

// ErrorKind classifies a single violation.
type ErrorKind int

const (
	RequiredFieldMissing ErrorKind = iota + 1
	UnknownVocabularyValue
	ConflictingField
)

func (k ErrorKind) String() string {
	switch k {
	case RequiredFieldMissing:
		return "required_field_missing"
	case UnknownVocabularyValue:
		return "unknown_vocabulary_value"
	case ConflictingField:
		return "conflicting_field"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// Violation is one field's failure to satisfy a rule.
type Violation struct {
	Field  string    `json:"field" yaml:"field"`
	Kind   ErrorKind `json:"kind" yaml:"kind"`
	Reason string    `json:"reason" yaml:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Field, v.Reason, v.Kind)
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ViolationList is the complete, ordered set of problems found in one
// candidate. It is never empty when returned as an error.
type ViolationList []Violation

func (vl ViolationList) Error() string {
	parts := make([]string, len(vl))
	for i, v := range vl {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%d validation violation(s): %s", len(vl), strings.Join(parts, "; "))
}

// Fields returns the offending field names in report order.
func (vl ViolationList) Fields() []string {
	fields := make([]string, len(vl))
	for i, v := range vl {
		fields[i] = v.Field
	}
	return fields
}

// Has reports whether the list carries a violation of kind on field.
func (vl ViolationList) Has(field string, kind ErrorKind) bool {
	for _, v := range vl {
		if v.Field == field && v.Kind == kind {
			return true
		}
	}
	return false
}

// ByField returns the violations recorded against field.
func (vl ViolationList) ByField(field string) []Violation {
	var out []Violation
	for _, v := range vl {
		if v.Field == field {
			out = append(out, v)
		}
	}
	return out
}

func (vl *ViolationList) add(field string, kind ErrorKind, format string, args ...interface{}) {
	*vl = append(*vl, Violation{Field: field, Kind: kind, Reason: fmt.Sprintf(format, args...)})
}

func unknownToken(field, token string) ViolationList {
	var vl ViolationList
	vl.add(field, UnknownVocabularyValue, "%q is not an allowed %s value", token, field)
	return vl
}
