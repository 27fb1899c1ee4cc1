package vex

// Severity is the CVSS-style qualitative severity of the vulnerability,
// independent of whether the product is affected.
type Severity int

const (
	SeverityNone Severity = iota + 1
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityTokens = map[Severity]string{
	SeverityNone:     "None",
	SeverityLow:      "Low",
	SeverityMedium:   "Medium",
	SeverityHigh:     "High",
	SeverityCritical: "Critical",
}

// AllSeverities returns every severity in display order.
func AllSeverities() []Severity {
	return []Severity{SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// SeverityTokens returns the allowed severity tokens in display order.
func SeverityTokens() []string {
	tokens := make([]string, 0, len(severityTokens))
	for _, s := range AllSeverities() {
		tokens = append(tokens, s.String())
	}
	return tokens
}

// ParseSeverity matches token exactly against the severity vocabulary.
func ParseSeverity(token string) (Severity, error) {
	for _, s := range AllSeverities() {
		if severityTokens[s] == token {
			return s, nil
		}
	}
	return 0, unknownToken(FieldSeverity, token)
}

func (s Severity) String() string {
	return severityTokens[s]
}

// Valid reports whether s is a declared severity.
func (s Severity) Valid() bool {
	_, ok := severityTokens[s]
	return ok
}

// Compare orders severities None < Low < Medium < High < Critical.
func (s Severity) Compare(other Severity) int {
	switch {
	case s < other:
		return -1
	case s > other:
		return 1
	default:
		return 0
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, unknownToken(FieldSeverity, "")
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Justification is the reason a product is deemed not affected.
type Justification int

const (
	JustificationComponentNotPresent Justification = iota + 1
	JustificationVulnerabilityNotApplicable
	JustificationMitigated
	JustificationNoFixAvailable
)

var justificationTokens = map[Justification]string{
	JustificationComponentNotPresent:        "Component not present",
	JustificationVulnerabilityNotApplicable: "Vulnerability not applicable",
	JustificationMitigated:                  "Mitigated",
	JustificationNoFixAvailable:             "No fix available",
}

// AllJustifications returns every justification in declaration order.
func AllJustifications() []Justification {
	return []Justification{
		JustificationComponentNotPresent,
		JustificationVulnerabilityNotApplicable,
		JustificationMitigated,
		JustificationNoFixAvailable,
	}
}

// JustificationTokens returns the allowed justification tokens.
func JustificationTokens() []string {
	tokens := make([]string, 0, len(justificationTokens))
	for _, j := range AllJustifications() {
		tokens = append(tokens, j.String())
	}
	return tokens
}

// ParseJustification matches token exactly against the justification vocabulary.
func ParseJustification(token string) (Justification, error) {
	for _, j := range AllJustifications() {
		if justificationTokens[j] == token {
			return j, nil
		}
	}
	return 0, unknownToken(FieldJustification, token)
}

func (j Justification) String() string {
	return justificationTokens[j]
}

// Valid reports whether j is a declared justification.
func (j Justification) Valid() bool {
	_, ok := justificationTokens[j]
	return ok
}

func (j Justification) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, unknownToken(FieldJustification, "")
	}
	return []byte(j.String()), nil
}

func (j *Justification) UnmarshalText(text []byte) error {
	parsed, err := ParseJustification(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// Status drives which companion fields an entry must carry.
type Status int

const (
	StatusAffected Status = iota + 1
	StatusNotAffected
	StatusFixed
)

var statusTokens = map[Status]string{
	StatusAffected:    "Affected",
	StatusNotAffected: "Not Affected",
	StatusFixed:       "Fixed",
}

// AllStatuses returns every status in declaration order.
func AllStatuses() []Status {
	return []Status{StatusAffected, StatusNotAffected, StatusFixed}
}

// StatusTokens returns the allowed status tokens.
func StatusTokens() []string {
	tokens := make([]string, 0, len(statusTokens))
	for _, s := range AllStatuses() {
		tokens = append(tokens, s.String())
	}
	return tokens
}

// ParseStatus matches token exactly against the status vocabulary.
func ParseStatus(token string) (Status, error) {
	for _, s := range AllStatuses() {
		if statusTokens[s] == token {
			return s, nil
		}
	}
	return 0, unknownToken(FieldStatus, token)
}

func (s Status) String() string {
	return statusTokens[s]
}

// Valid reports whether s is a declared status.
func (s Status) Valid() bool {
	_, ok := statusTokens[s]
	return ok
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, unknownToken(FieldStatus, "")
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
