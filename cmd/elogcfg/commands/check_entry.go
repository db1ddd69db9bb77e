package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

type checkEntryResult struct {
	Section    string              `json:"section"`
	Conditions []string            `json:"conditions"`
	Valid      bool                `json:"valid"`
	Errors     []config.FieldError `json:"errors,omitempty"`
}

func newCheckEntryCommand() *cobra.Command {
	var values []string

	cmd := &cobra.Command{
		Use:   "check-entry FILE SECTION",
		Short: "Check entry values against a logbook schema",
		Long: `Check the attribute values of an entry against the schema of a logbook.

The conditions attached to the selected options are derived first, so
conditional options and required attributes apply.`,
		Example: `  elogcfg check-entry elogd.cfg Travel --values Where=Canada --values Where2=QC`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := args[1]
			vals, err := parseValues(values)
			if err != nil {
				return err
			}

			return withConfig(cmd, args[0], false, func(tel *telemetry.Telemetry, cfg *config.Config) error {
				scope := newScope(cfg, section, nil, vals)
				schema, err := scope.AttributesFor(section)
				if err != nil {
					return err
				}

				result := checkEntryResult{
					Section:    section,
					Conditions: scope.Conditions().Tokens(),
					Valid:      true,
				}

				err = config.NewEntryValidator().Validate(cmd.Context(), schema, vals)
				var entryErr *config.EntryError
				switch {
				case errors.As(err, &entryErr):
					result.Valid = false
					result.Errors = entryErr.Fields
				case err != nil:
					return err
				}
				tel.Metrics.RecordEntryValidation(section, result.Valid)

				if err := printCheckEntryResult(cmd, result); err != nil {
					return err
				}
				if !result.Valid {
					return entryErr
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&values, "values", nil, "entry value Attribute=Value (repeatable)")

	return cmd
}

func printCheckEntryResult(cmd *cobra.Command, result checkEntryResult) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, result)
	}

	for _, fe := range result.Errors {
		fmt.Fprintf(out, "%s: %s\n", fe.Attribute, fe.Message)
	}
	if result.Valid {
		fmt.Fprintln(out, "OK")
	}
	return nil
}
