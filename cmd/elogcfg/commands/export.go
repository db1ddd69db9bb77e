package commands

import (
	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Re-serialize the unconditional settings",
		Long: `Write the unconditional key = value pairs of every section in INI form.

Conditional values are not exported. Parsing the output again yields the
same unconditional lookups.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, args[0], false, func(_ *telemetry.Telemetry, cfg *config.Config) error {
				data, err := cfg.Export()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}

	return cmd
}
