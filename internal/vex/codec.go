package vex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Record is the canonical external shape of an entry. Conditional fields an
// entry does not use are empty strings.
type Record struct {
	ID              uint32 `json:"id" yaml:"id"`
	Description     string `json:"description" yaml:"description"`
	Severity        string `json:"severity" yaml:"severity"`
	AffectedPackage string `json:"affected_package" yaml:"affected_package"`
	Justification   string `json:"justification" yaml:"justification"`
	Status          string `json:"status" yaml:"status"`
	ImpactStatement string `json:"impact_statement" yaml:"impact_statement"`
	ActionStatement string `json:"action_statement" yaml:"action_statement"`
}

// wireValue is one record field as found in encoded data, before its type
// has been checked.
type wireValue interface {
	null() bool
	text() (string, bool)
	id() (uint32, bool)
}

type jsonValue json.RawMessage

func (v jsonValue) null() bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (v jsonValue) text() (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// id accepts only a bare non-negative integer literal that fits in 32 bits.
func (v jsonValue) id() (uint32, bool) {
	n, err := strconv.ParseUint(string(bytes.TrimSpace(v)), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

type yamlValue struct{ node *yaml.Node }

func (v yamlValue) resolved() *yaml.Node {
	n := v.node
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func (v yamlValue) null() bool {
	n := v.resolved()
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// text accepts any scalar; unquoted YAML scalars are text.
func (v yamlValue) text() (string, bool) {
	n := v.resolved()
	if n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

func (v yamlValue) id() (uint32, bool) {
	n := v.resolved()
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, false
	}
	var id uint32
	if err := n.Decode(&id); err != nil {
		return 0, false
	}
	return id, true
}

// Record returns the external representation of e.
func (e Entry) Record() Record {
	raw := e.Raw()
	return Record{
		ID:              e.id,
		Description:     raw.Description,
		Severity:        raw.Severity,
		AffectedPackage: raw.AffectedPackage,
		Justification:   raw.Justification,
		Status:          raw.Status,
		ImpactStatement: raw.ImpactStatement,
		ActionStatement: raw.ActionStatement,
	}
}

// Raw returns the candidate fields of rec without its id.
func (rec Record) Raw() RawFields {
	return RawFields{
		Description:     rec.Description,
		Severity:        rec.Severity,
		AffectedPackage: rec.AffectedPackage,
		Justification:   rec.Justification,
		Status:          rec.Status,
		ImpactStatement: rec.ImpactStatement,
		ActionStatement: rec.ActionStatement,
	}
}

// FromRecord re-validates rec and rebuilds the entry under rec.ID. Stored
// data is never trusted to have been checked.
func FromRecord(rec Record) (Entry, error) {
	return Validate(rec.Raw(), FixedID(rec.ID))
}

// Encode serializes e as a JSON record.
func Encode(e Entry) ([]byte, error) {
	return json.Marshal(e.Record())
}

// Decode parses a JSON record and re-validates it.
func Decode(data []byte) (Entry, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Entry{}, fmt.Errorf("decode vex record: %w", err)
	}
	fields := make(map[string]wireValue, len(doc))
	for k, v := range doc {
		fields[k] = jsonValue(v)
	}
	return fromWire(fields)
}

// EncodeYAML serializes e as a YAML record.
func EncodeYAML(e Entry) ([]byte, error) {
	return yaml.Marshal(e.Record())
}

// DecodeYAML parses a YAML record and re-validates it.
func DecodeYAML(data []byte) (Entry, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Entry{}, fmt.Errorf("decode vex record: %w", err)
	}
	fields := make(map[string]wireValue, len(doc))
	for k := range doc {
		n := doc[k]
		fields[k] = yamlValue{node: &n}
	}
	return fromWire(fields)
}

// fromWire checks the type of every known field, then applies the entry
// rules. A field of the wrong type is reported once, on that field.
func fromWire(fields map[string]wireValue) (Entry, error) {
	var vl ViolationList

	var id uint32
	switch v := fields[FieldID]; {
	case v == nil || v.null():
		vl.add(FieldID, RequiredFieldMissing, "id is required")
	default:
		var ok bool
		if id, ok = v.id(); !ok {
			vl.add(FieldID, RequiredFieldMissing, "id must be a non-negative integer below 2^32")
		}
	}

	mistyped := make(map[string]bool)
	text := func(field string, kind ErrorKind) string {
		v := fields[field]
		if v == nil || v.null() {
			return ""
		}
		s, ok := v.text()
		if !ok {
			mistyped[field] = true
			vl.add(field, kind, "%s must be a string", field)
		}
		return s
	}

	entry, fieldViolations := check(RawFields{
		Description:     text(FieldDescription, RequiredFieldMissing),
		Severity:        text(FieldSeverity, UnknownVocabularyValue),
		AffectedPackage: text(FieldAffectedPackage, RequiredFieldMissing),
		Justification:   text(FieldJustification, UnknownVocabularyValue),
		Status:          text(FieldStatus, UnknownVocabularyValue),
		ImpactStatement: text(FieldImpactStatement, RequiredFieldMissing),
		ActionStatement: text(FieldActionStatement, RequiredFieldMissing),
	})
	for _, v := range fieldViolations {
		if !mistyped[v.Field] {
			vl = append(vl, v)
		}
	}
	if len(vl) > 0 {
		return Entry{}, vl
	}

	entry.id = id
	return entry, nil
}
