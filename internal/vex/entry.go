// Package vex models a single VEX (Vulnerability Exploitability eXchange)
// entry and the rules that make one well formed.
//
// An Entry can only be obtained through Validate, FromRecord or Decode, so
// every Entry value in a program has passed the consistency rules.
package vex

// RawFields is one complete candidate snapshot as a form collects it.
// Nothing in it is assumed to be checked.
type RawFields struct {
	Description     string `json:"description" yaml:"description"`
	Severity        string `json:"severity" yaml:"severity"`
	AffectedPackage string `json:"affected_package" yaml:"affected_package"`
	Justification   string `json:"justification" yaml:"justification"`
	Status          string `json:"status" yaml:"status"`
	ImpactStatement string `json:"impact_statement" yaml:"impact_statement"`
	ActionStatement string `json:"action_statement" yaml:"action_statement"`
}

// Entry is a validated VEX statement about one package.
type Entry struct {
	id              uint32
	description     string
	severity        Severity
	affectedPackage string
	justification   Justification
	status          Status
	impactStatement string
	actionStatement string
}

func (e Entry) ID() uint32              { return e.id }
func (e Entry) Description() string     { return e.description }
func (e Entry) Severity() Severity      { return e.severity }
func (e Entry) AffectedPackage() string { return e.affectedPackage }
func (e Entry) Status() Status          { return e.status }
func (e Entry) ImpactStatement() string { return e.impactStatement }
func (e Entry) ActionStatement() string { return e.actionStatement }

// Justification returns the entry's justification and whether it has one.
func (e Entry) Justification() (Justification, bool) {
	return e.justification, e.justification.Valid()
}

// Raw returns the candidate snapshot that reproduces e. Editing an entry
// means changing this snapshot and validating it again.
func (e Entry) Raw() RawFields {
	raw := RawFields{
		Description:     e.description,
		Severity:        e.severity.String(),
		AffectedPackage: e.affectedPackage,
		Status:          e.status.String(),
		ImpactStatement: e.impactStatement,
		ActionStatement: e.actionStatement,
	}
	if j, ok := e.Justification(); ok {
		raw.Justification = j.String()
	}
	return raw
}
