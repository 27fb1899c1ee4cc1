package vex

import (
	"fmt"
	"strings"
)

// Validate checks raw against the entry rules and, when every rule holds,
// builds an Entry whose id is drawn from ids.
//
// A rule failure returns a ViolationList holding every problem found, in
// field order. ids is consulted only after validation succeeds; an id
// source failure is returned wrapped and is not a ViolationList.
func Validate(raw RawFields, ids IDSource) (Entry, error) {
	entry, violations := check(raw)
	if len(violations) > 0 {
		return Entry{}, violations
	}

	id, err := ids.NextID()
	if err != nil {
		return Entry{}, fmt.Errorf("allocate entry id: %w", err)
	}
	entry.id = id
	return entry, nil
}

// check applies the rules without allocating an id.
func check(raw RawFields) (Entry, ViolationList) {
	var vl ViolationList
	entry := Entry{
		description:     strings.TrimSpace(raw.Description),
		affectedPackage: strings.TrimSpace(raw.AffectedPackage),
		impactStatement: strings.TrimSpace(raw.ImpactStatement),
		actionStatement: strings.TrimSpace(raw.ActionStatement),
	}
	justificationToken := raw.Justification
	hasJustification := strings.TrimSpace(justificationToken) != ""

	if entry.description == "" {
		vl.add(FieldDescription, RequiredFieldMissing, "description is required")
	}
	if entry.affectedPackage == "" {
		vl.add(FieldAffectedPackage, RequiredFieldMissing, "affected package is required")
	}

	entry.severity = parseRequired(&vl, FieldSeverity, raw.Severity, ParseSeverity)
	entry.status = parseRequired(&vl, FieldStatus, raw.Status, ParseStatus)

	switch entry.status {
	case StatusAffected:
		if entry.impactStatement == "" {
			vl.add(FieldImpactStatement, RequiredFieldMissing, "an affected entry needs an impact statement")
		}
		if entry.actionStatement == "" {
			vl.add(FieldActionStatement, RequiredFieldMissing, "an affected entry needs an action statement")
		}
		if hasJustification {
			vl.add(FieldJustification, ConflictingField, "an affected entry cannot carry a justification (got %q)", justificationToken)
		}
	case StatusNotAffected:
		if !hasJustification {
			vl.add(FieldJustification, RequiredFieldMissing, "a not affected entry needs a justification")
		} else {
			entry.justification = parseOptional(&vl, justificationToken)
		}
	case StatusFixed:
		if entry.actionStatement == "" {
			vl.add(FieldActionStatement, RequiredFieldMissing, "a fixed entry needs an action statement describing the fix")
		}
		entry.justification = parseOptional(&vl, justificationToken)
	default:
		// status did not parse; still report a bad justification token
		parseOptional(&vl, justificationToken)
	}

	return entry, vl
}

func parseRequired[T any](vl *ViolationList, field, token string, parse func(string) (T, error)) T {
	var zero T
	if strings.TrimSpace(token) == "" {
		vl.add(field, RequiredFieldMissing, "%s is required", field)
		return zero
	}
	v, err := parse(token)
	if err != nil {
		vl.add(field, UnknownVocabularyValue, "%q is not an allowed %s value", token, field)
		return zero
	}
	return v
}

func parseOptional(vl *ViolationList, token string) Justification {
	if strings.TrimSpace(token) == "" {
		return 0
	}
	j, err := ParseJustification(token)
	if err != nil {
		vl.add(FieldJustification, UnknownVocabularyValue, "%q is not an allowed justification value", token)
		return 0
	}
	return j
}
