package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

type schemaView struct {
	Section    string             `json:"section" yaml:"section"`
	Conditions []string           `json:"conditions" yaml:"conditions"`
	Attributes []config.Attribute `json:"attributes" yaml:"attributes"`
	Warnings   []config.Warning   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newSchemaCommand() *cobra.Command {
	var (
		conds  []string
		values []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "schema FILE SECTION",
		Short: "Show the attribute schema of a logbook",
		Long: `Show the attributes of a logbook under the given active conditions.

Entry values given with --values activate the conditions attached to the
options they select, the same way an entry form does.`,
		Example: `  # Schema as YAML
  elogcfg schema elogd.cfg Travel

  # Schema once Where is set to Canada
  elogcfg schema elogd.cfg Travel --values Where=Canada -o json

  # CUE definition used for entry validation
  elogcfg schema elogd.cfg Travel -o cue`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := args[1]
			vals, err := parseValues(values)
			if err != nil {
				return err
			}
			format := output
			if jsonOutput {
				format = "json"
			}

			return withConfig(cmd, args[0], false, func(_ *telemetry.Telemetry, cfg *config.Config) error {
				scope := newScope(cfg, section, conds, vals)
				schema, err := scope.AttributesFor(section)
				if err != nil {
					return err
				}

				view := schemaView{
					Section:    schema.Section(),
					Conditions: schema.Conditions().Tokens(),
					Attributes: schema.Attributes(),
					Warnings:   schema.Warnings(),
				}
				if view.Conditions == nil {
					view.Conditions = []string{}
				}

				out := cmd.OutOrStdout()
				switch strings.ToLower(format) {
				case "yaml", "":
					enc := yaml.NewEncoder(out)
					enc.SetIndent(2)
					if err := enc.Encode(view); err != nil {
						return err
					}
					return enc.Close()
				case "json":
					return writeJSON(out, view)
				case "cue":
					_, err := fmt.Fprint(out, config.EntryDefinition(schema))
					return err
				default:
					return fmt.Errorf("unknown output format %q", format)
				}
			})
		},
	}

	cmd.Flags().StringArrayVarP(&conds, "cond", "C", nil, "active condition (repeatable, in order)")
	cmd.Flags().StringArrayVar(&values, "values", nil, "entry value Attribute=Value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml, json, cue")

	return cmd
}
