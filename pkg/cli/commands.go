package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"VulnixVex/internal/config"
	"VulnixVex/internal/export"
	"VulnixVex/internal/utils"
	"VulnixVex/internal/vex"
	"VulnixVex/internal/vexdb"
)

// ErrValidationFailed is returned after a violation report has been printed.
var ErrValidationFailed = errors.New("validation failed")

type app struct {
	cfgFile string
	cfg     *config.Config
	out     io.Writer
	errOut  io.Writer
	logger  *utils.Logger
}

// NewRootCommand builds the vulnix-vex command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, logger: utils.NewLogger("cli")}

	root := &cobra.Command{
		Use:           "vulnix-vex",
		Short:         "Build and check VEX entries",
		Long:          "vulnix-vex validates VEX (Vulnerability Exploitability eXchange) entries,\nstores them and exports them as records or OpenVEX statements.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			level := cfg.LogLevel
			if cfg.Verbose {
				level = "debug"
			}
			return utils.ConfigureLogging(level, errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./config.yaml)")
	pf.String("db-path", "", "sqlite database path")
	pf.StringP("format", "f", "", "output format (text, json, yaml, csv, openvex)")
	pf.String("id-source", "", "entry id source (counter, database); database allocates from the store's sequence")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.BoolP("verbose", "v", false, "show debug logging")

	root.AddCommand(
		a.validateCommand(),
		a.vocabCommand(),
		a.listCommand(),
		a.showCommand(),
		a.deleteCommand(),
		a.exportCommand(),
		a.historyCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, ErrValidationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) formatter() *OutputFormatter {
	return NewOutputFormatter(a.cfg.Format, a.out)
}

func (a *app) openDB() (*vexdb.VEXDatabase, error) {
	db, err := vexdb.NewVEXDatabase(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open vex database: %w", err)
	}
	return db, nil
}

func (a *app) validateCommand() *cobra.Command {
	var raw vex.RawFields
	var file string
	var store bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a candidate entry (or a file of candidates) against the VEX rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var db *vexdb.VEXDatabase
			var ids vex.IDSource
			if store || a.cfg.IDSource == "database" {
				var err error
				if db, err = a.openDB(); err != nil {
					return err
				}
				defer db.Close()
				ids = db
			} else {
				ids = vex.NewCounter(a.cfg.CounterStart)
			}

			var candidates []vex.RawFields
			if file != "" {
				loaded, err := vexdb.LoadCandidates(file)
				if err != nil {
					return err
				}
				candidates = loaded
			} else {
				candidates = []vex.RawFields{raw}
			}

			entries, batchErr := vexdb.ValidateBatch(candidates, ids)
			if store {
				for _, e := range entries {
					if err := db.InsertEntry(e); err != nil {
						return err
					}
				}
				a.logger.Info("stored %d entr(ies) in %s", len(entries), a.cfg.DBPath)
			}

			if err := a.report(entries, batchErr, file == ""); err != nil {
				return err
			}
			if batchErr != nil {
				return ErrValidationFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&raw.Description, "description", "", "free text description of the vulnerability")
	f.StringVar(&raw.Severity, "severity", "", "severity (None, Low, Medium, High, Critical)")
	f.StringVar(&raw.AffectedPackage, "package", "", `affected package, "name version"`)
	f.StringVar(&raw.Status, "status", "", "status (Affected, Not Affected, Fixed)")
	f.StringVar(&raw.Justification, "justification", "", "justification for Not Affected entries")
	f.StringVar(&raw.ImpactStatement, "impact", "", "impact statement")
	f.StringVar(&raw.ActionStatement, "action", "", "action statement")
	f.StringVar(&file, "file", "", "JSON or YAML file holding a list of candidates")
	f.BoolVar(&store, "store", false, "store valid entries in the database")
	return cmd
}

// report prints the valid entries and every candidate's violations.
func (a *app) report(entries []vex.Entry, batchErr error, single bool) error {
	of := a.formatter()

	if single && len(entries) == 1 {
		return of.PrintEntry(entries[0])
	}
	if len(entries) > 0 {
		if err := of.PrintEntries(entries); err != nil {
			return err
		}
	}

	var merr *multierror.Error
	if !errors.As(batchErr, &merr) {
		return batchErr
	}
	for _, err := range merr.Errors {
		var ce *vexdb.CandidateError
		var vl vex.ViolationList
		if !errors.As(err, &vl) {
			return err
		}
		if errors.As(err, &ce) && !single {
			fmt.Fprintf(a.out, "\nCandidate %d:\n", ce.Index)
		}
		if err := of.PrintViolations(vl); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) vocabCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "List the allowed values for severity, status and justification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.formatter().PrintVocabulary()
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.ListEntries()
			if err != nil {
				return err
			}
			return a.formatter().PrintEntries(entries)
		},
	}
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			e, err := db.GetEntry(id)
			if err != nil {
				return err
			}
			return a.formatter().PrintEntry(e)
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one stored entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteEntry(id); err != nil {
				return err
			}
			a.logger.Info("deleted entry %d", id)
			return nil
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var opts export.Options
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored entry as a record or an OpenVEX statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			e, err := db.GetEntry(id)
			if err != nil {
				return err
			}

			data, written, err := a.encode(e, opts)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				a.logger.Info("exported entry %d to %s", id, output)
			} else if _, err := a.out.Write(data); err != nil {
				return err
			}

			if err := db.RecordExport(id, written); err != nil {
				a.logger.Warn("%v", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Vulnerability, "vuln", "", "vulnerability id for OpenVEX statements (e.g. CVE-2024-1234)")
	f.StringVar(&opts.PackageType, "purl-type", "", "package URL type for the OpenVEX product (default generic)")
	f.StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// encode renders e in the configured format and reports the format actually
// written; text exports are JSON records.
func (a *app) encode(e vex.Entry, opts export.Options) ([]byte, string, error) {
	switch a.cfg.Format {
	case "openvex":
		if opts.Timestamp.IsZero() {
			opts.Timestamp = time.Now().UTC()
		}
		stmt, err := export.ToOpenVEX(e, opts)
		if err != nil {
			return nil, "", err
		}
		data, err := export.MarshalStatement(stmt)
		return data, "openvex", err
	case "yaml":
		data, err := vex.EncodeYAML(e)
		return data, "yaml", err
	case "json", "text":
		data, err := vex.Encode(e)
		if err != nil {
			return nil, "", err
		}
		return append(data, '\n'), "json", nil
	default:
		return nil, "", fmt.Errorf("format %q cannot be exported; use json, yaml or openvex", a.cfg.Format)
	}
}

func (a *app) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			history, err := db.GetExportHistory(limit)
			if err != nil {
				return err
			}
			return a.formatter().PrintExportHistory(history)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of exports to show")
	return cmd
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return uint32(id), nil
}
