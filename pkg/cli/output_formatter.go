package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"VulnixVex/internal/utils"
	"VulnixVex/internal/vex"
	"VulnixVex/internal/vexdb"
)

type OutputFormatter struct {
	format string
	out    io.Writer
}

func NewOutputFormatter(format string, out io.Writer) *OutputFormatter {
	return &OutputFormatter{format: strings.ToLower(format), out: out}
}

// PrintEntries renders entries, most severe first, then by package.
func (of *OutputFormatter) PrintEntries(entries []vex.Entry) error {
	sorted := make([]vex.Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)

	switch of.format {
	case "json":
		return of.writeJSON(records(sorted))
	case "yaml":
		return of.writeYAML(records(sorted))
	case "csv":
		return of.writeCSV(sorted)
	default:
		return of.writeTable(sorted)
	}
}

// PrintEntry renders a single entry with every field.
func (of *OutputFormatter) PrintEntry(e vex.Entry) error {
	switch of.format {
	case "json":
		return of.writeJSON(e.Record())
	case "yaml":
		return of.writeYAML(e.Record())
	case "csv":
		return of.writeCSV([]vex.Entry{e})
	default:
		return of.writeDetail(e)
	}
}

// PrintViolations renders a full violation report for one candidate.
func (of *OutputFormatter) PrintViolations(vl vex.ViolationList) error {
	switch of.format {
	case "json":
		return of.writeJSON(map[string]interface{}{"violations": vl})
	case "yaml":
		return of.writeYAML(map[string]interface{}{"violations": vl})
	}

	fmt.Fprintf(of.out, "Found %d problem(s):\n", len(vl))
	table := of.newTable([]string{"Field", "Kind", "Reason"})
	for _, v := range vl {
		table.Append([]string{v.Field, v.Kind.String(), v.Reason})
	}
	table.Render()
	return nil
}

// PrintVocabulary lists the allowed tokens for every controlled field.
func (of *OutputFormatter) PrintVocabulary() error {
	vocab := map[string][]string{
		vex.FieldSeverity:      vex.SeverityTokens(),
		vex.FieldJustification: vex.JustificationTokens(),
		vex.FieldStatus:        vex.StatusTokens(),
	}
	switch of.format {
	case "json":
		return of.writeJSON(vocab)
	case "yaml":
		return of.writeYAML(vocab)
	}

	table := of.newTable([]string{"Field", "Allowed values"})
	for _, field := range []string{vex.FieldSeverity, vex.FieldStatus, vex.FieldJustification} {
		table.Append([]string{field, strings.Join(vocab[field], " | ")})
	}
	table.Render()
	return nil
}

// PrintExportHistory renders the export log.
func (of *OutputFormatter) PrintExportHistory(history []vexdb.ExportRecord) error {
	switch of.format {
	case "json":
		return of.writeJSON(history)
	case "yaml":
		return of.writeYAML(history)
	}

	if len(history) == 0 {
		fmt.Fprintln(of.out, "No exports recorded.")
		return nil
	}
	table := of.newTable([]string{"Entry", "Format", "Exported at"})
	for _, h := range history {
		table.Append([]string{strconv.FormatUint(uint64(h.EntryID), 10), h.Format, h.ExportedAt})
	}
	table.Render()
	return nil
}

func (of *OutputFormatter) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(of.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func (of *OutputFormatter) writeTable(entries []vex.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(of.out, "No VEX entries.")
		return nil
	}

	table := of.newTable([]string{"ID", "Severity", "Status", "Package", "Justification", "Description"})
	for _, e := range entries {
		j, _ := e.Justification()
		justification := j.String()
		if justification == "" {
			justification = "-"
		}
		table.Append([]string{
			strconv.FormatUint(uint64(e.ID()), 10),
			e.Severity().String(),
			e.Status().String(),
			e.AffectedPackage(),
			justification,
			truncate(e.Description(), 60),
		})
	}
	table.Render()
	return nil
}

func (of *OutputFormatter) writeDetail(e vex.Entry) error {
	rec := e.Record()
	rows := [][2]string{
		{"ID", strconv.FormatUint(uint64(rec.ID), 10)},
		{"Description", rec.Description},
		{"Severity", rec.Severity},
		{"Affected package", rec.AffectedPackage},
		{"Status", rec.Status},
		{"Justification", rec.Justification},
		{"Impact statement", rec.ImpactStatement},
		{"Action statement", rec.ActionStatement},
	}

	var builder strings.Builder
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "-"
		}
		builder.WriteString(fmt.Sprintf("%-18s %s\n", row[0]+":", value))
	}
	builder.WriteString(strings.Repeat("═", 60) + "\n")

	_, err := io.WriteString(of.out, builder.String())
	return err
}

func (of *OutputFormatter) writeJSON(v interface{}) error {
	enc := json.NewEncoder(of.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (of *OutputFormatter) writeYAML(v interface{}) error {
	enc := yaml.NewEncoder(of.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (of *OutputFormatter) writeCSV(entries []vex.Entry) error {
	writer := csv.NewWriter(of.out)

	writer.Write([]string{
		vex.FieldID, vex.FieldDescription, vex.FieldSeverity, vex.FieldAffectedPackage,
		vex.FieldJustification, vex.FieldStatus, vex.FieldImpactStatement, vex.FieldActionStatement,
	})

	for _, e := range entries {
		rec := e.Record()
		writer.Write([]string{
			strconv.FormatUint(uint64(rec.ID), 10),
			rec.Description,
			rec.Severity,
			rec.AffectedPackage,
			rec.Justification,
			rec.Status,
			rec.ImpactStatement,
			rec.ActionStatement,
		})
	}

	writer.Flush()
	return writer.Error()
}

func records(entries []vex.Entry) []vex.Record {
	out := make([]vex.Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record()
	}
	return out
}

func sortEntries(entries []vex.Entry) {
	parser := utils.NewPackageParser()
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := a.Severity().Compare(b.Severity()); c != 0 {
			return c > 0
		}
		nameA, versionA := parser.Split(a.AffectedPackage())
		nameB, versionB := parser.Split(b.AffectedPackage())
		if nameA != nameB {
			return nameA < nameB
		}
		if c := parser.CompareVersions(versionA, versionB); c != 0 {
			return c < 0
		}
		return a.ID() < b.ID()
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
