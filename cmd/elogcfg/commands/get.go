package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

func newGetCommand() *cobra.Command {
	var (
		conds     []string
		asList    bool
		valueType string
		def       string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "get FILE SECTION KEY",
		Short: "Resolve one setting",
		Long: `Resolve one setting of a section under the given active conditions.

The value is looked up in the section, then in [global], then in the
built-in defaults. Conditions are applied in the order given.`,
		Example: `  # Plain lookup
  elogcfg get elogd.cfg Travel "Entries per page" --type int

  # Options offered once the "ca" condition is active
  elogcfg get elogd.cfg Travel "MOptions Where2" --cond ca --list`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, key := args[1], args[2]

			opts := []config.GetOption{}
			if asList {
				opts = append(opts, config.AsList())
			}
			if valueType != "" {
				t, ok := config.ParseValueType(valueType)
				if !ok {
					return fmt.Errorf("unknown value type %q", valueType)
				}
				opts = append(opts, config.As(t))
			}
			if cmd.Flags().Changed("default") {
				opts = append(opts, config.Default(def))
			}

			return withConfig(cmd, args[0], strict, func(_ *telemetry.Telemetry, cfg *config.Config) error {
				value, err := newScope(cfg, section, conds, nil).Get(section, key, opts...)
				if err != nil {
					return err
				}
				return printValue(cmd, value)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&conds, "cond", "C", nil, "active condition (repeatable, in order)")
	cmd.Flags().BoolVar(&asList, "list", false, "split the value into a list")
	cmd.Flags().StringVar(&valueType, "type", "", "convert to type: string, bool, int, float")
	cmd.Flags().StringVar(&def, "default", "", "value to use when the key is not set")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on values that do not convert")

	return cmd
}

func printValue(cmd *cobra.Command, value any) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, value)
	}

	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range v {
			fmt.Fprintln(out, item)
		}
	default:
		fmt.Fprintln(out, v)
	}
	return nil
}
