// Package export turns validated entries into third-party VEX formats.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	govex "github.com/openvex/go-vex/pkg/vex"
	"github.com/package-url/packageurl-go"

	"VulnixVex/internal/utils"
	"VulnixVex/internal/vex"
)

// ErrMissingVulnerability is returned when no vulnerability name was given
// for an OpenVEX statement.
var ErrMissingVulnerability = errors.New("openvex statement needs a vulnerability name")

// Options carries what an OpenVEX statement needs beyond the entry itself.
type Options struct {
	// Vulnerability is the identifier the statement is about, e.g. a CVE id.
	Vulnerability string
	// Timestamp defaults to the current time.
	Timestamp time.Time
	// PackageType is the purl type for the product, "generic" when empty.
	PackageType string
}

var justificationMap = map[vex.Justification]govex.Justification{
	vex.JustificationComponentNotPresent:        govex.ComponentNotPresent,
	vex.JustificationVulnerabilityNotApplicable: govex.VulnerableCodeNotPresent,
	vex.JustificationMitigated:                  govex.InlineMitigationsAlreadyExist,
}

var statusMap = map[vex.Status]govex.Status{
	vex.StatusAffected:    govex.StatusAffected,
	vex.StatusNotAffected: govex.StatusNotAffected,
	vex.StatusFixed:       govex.StatusFixed,
}

// ToOpenVEX maps one entry to one OpenVEX statement.
//
// OpenVEX only allows impact statements on not_affected and action
// statements on affected; text the entry carries outside those slots goes to
// status_notes. "No fix available" has no OpenVEX justification and is
// carried in status_notes as well.
func ToOpenVEX(e vex.Entry, opts Options) (govex.Statement, error) {
	if strings.TrimSpace(opts.Vulnerability) == "" {
		return govex.Statement{}, ErrMissingVulnerability
	}

	status, ok := statusMap[e.Status()]
	if !ok {
		return govex.Statement{}, fmt.Errorf("entry %d has no openvex status for %q", e.ID(), e.Status())
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	purl := PackageURL(e.AffectedPackage(), opts.PackageType)
	stmt := govex.Statement{
		ID: fmt.Sprintf("vulnix-vex-%d", e.ID()),
		Vulnerability: govex.Vulnerability{
			Name:        govex.VulnerabilityID(opts.Vulnerability),
			Description: e.Description(),
		},
		Timestamp: &ts,
		Products: []govex.Product{
			{
				Component: govex.Component{
					ID: purl,
					Identifiers: map[govex.IdentifierType]string{
						govex.PURL: purl,
					},
				},
			},
		},
		Status: status,
	}

	var notes []string
	switch e.Status() {
	case vex.StatusAffected:
		stmt.ActionStatement = e.ActionStatement()
		if e.ImpactStatement() != "" {
			notes = append(notes, "Impact: "+e.ImpactStatement())
		}
	case vex.StatusNotAffected:
		j, _ := e.Justification()
		if mapped, ok := justificationMap[j]; ok {
			stmt.Justification = mapped
		} else {
			notes = append(notes, "Justification: "+j.String())
		}
		stmt.ImpactStatement = e.ImpactStatement()
		if stmt.Justification == "" && stmt.ImpactStatement == "" {
			stmt.ImpactStatement = j.String()
		}
		if e.ActionStatement() != "" {
			notes = append(notes, "Action: "+e.ActionStatement())
		}
	case vex.StatusFixed:
		notes = append(notes, "Fix: "+e.ActionStatement())
		if j, ok := e.Justification(); ok {
			notes = append(notes, "Justification: "+j.String())
		}
		if e.ImpactStatement() != "" {
			notes = append(notes, "Impact: "+e.ImpactStatement())
		}
	}
	stmt.StatusNotes = strings.Join(notes, "; ")

	if err := stmt.Validate(); err != nil {
		return govex.Statement{}, fmt.Errorf("entry %d does not form a valid openvex statement: %w", e.ID(), err)
	}
	return stmt, nil
}

// PackageURL builds a package URL from the "name version" convention.
func PackageURL(affected, pkgType string) string {
	if pkgType == "" {
		pkgType = packageurl.TypeGeneric
	}
	name, version := utils.NewPackageParser().Split(affected)
	return packageurl.NewPackageURL(pkgType, "", name, version, nil, "").ToString()
}

// MarshalStatement renders stmt as indented JSON with a trailing newline.
func MarshalStatement(stmt govex.Statement) ([]byte, error) {
	data, err := json.MarshalIndent(stmt, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal openvex statement: %w", err)
	}
	return append(data, '\n'), nil
}
