package vexdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"VulnixVex/internal/vex"
)

// CandidateError ties a candidate's violations to its position in a batch.
type CandidateError struct {
	Index int
	Err   error
}

func (ce *CandidateError) Error() string {
	return fmt.Sprintf("candidate %d: %v", ce.Index, ce.Err)
}

func (ce *CandidateError) Unwrap() error { return ce.Err }

// LoadCandidates reads a list of raw candidates from a .json, .yaml or .yml
// file.
func LoadCandidates(path string) ([]vex.RawFields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return ParseCandidates(data, filepath.Ext(path))
}

// ParseCandidates decodes a candidate list; ext selects the format.
func ParseCandidates(data []byte, ext string) ([]vex.RawFields, error) {
	var candidates []vex.RawFields
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &candidates); err != nil {
			return nil, fmt.Errorf("parse json candidates: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &candidates); err != nil {
			return nil, fmt.Errorf("parse yaml candidates: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported candidate file type %q", ext)
	}
	return candidates, nil
}

// ValidateBatch validates every candidate independently. Valid entries are
// returned in input order; every failure is collected, tagged with its
// index, into one multierror.
func ValidateBatch(candidates []vex.RawFields, ids vex.IDSource) ([]vex.Entry, error) {
	var entries []vex.Entry
	var errs *multierror.Error
	for i, raw := range candidates {
		e, err := vex.Validate(raw, ids)
		if err != nil {
			errs = multierror.Append(errs, &CandidateError{Index: i, Err: err})
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs.ErrorOrNil()
}
