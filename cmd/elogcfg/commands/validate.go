package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/policy"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

type validateResult struct {
	File     string           `json:"file"`
	Valid    bool             `json:"valid"`
	Sections []string         `json:"sections"`
	Logbooks []string         `json:"logbooks"`
	Warnings []config.Warning `json:"warnings"`
	Policy   *policy.Result   `json:"policy,omitempty"`
}

func newValidateCommand() *cobra.Command {
	var (
		strict   bool
		lint     bool
		policies []string
		conds    []string
	)

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a logbook configuration file",
		Long: `Validate a logbook configuration file.

This command checks:
  - Section and key = value syntax
  - Duplicate keys and sections
  - Attribute declarations of every logbook (unconditioned schema)

With --lint, every logbook is also checked against the built-in Rego
policies and any policy files given with --policy. Policy violations of
error severity fail validation.

Warnings are reported but do not fail validation unless --strict is set.`,
		Example: `  # Validate a configuration
  elogcfg validate elogd.cfg

  # Fail on unparseable keys and invalid values
  elogcfg validate --strict elogd.cfg

  # Check logbooks against site policies
  elogcfg validate --policy /etc/elogd/policies elogd.cfg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, args[0], strict, func(tel *telemetry.Telemetry, cfg *config.Config) error {
				result := validateResult{
					File:     args[0],
					Valid:    true,
					Sections: cfg.Sections(),
					Logbooks: cfg.Logbooks(),
					Warnings: cfg.Warnings(),
				}
				for _, name := range result.Logbooks {
					schema, err := cfg.ResolveSchema(name, config.NewConditions())
					if err != nil {
						return err
					}
					result.Warnings = append(result.Warnings, schema.Warnings()...)
				}
				if strict && len(result.Warnings) > 0 {
					result.Valid = false
				}

				if lint || len(policies) > 0 {
					res, err := evaluatePolicies(cmd, tel, cfg, policies, conds)
					if err != nil {
						return err
					}
					result.Policy = res
					if !res.Allowed {
						result.Valid = false
					}
				}

				if err := printValidateResult(cmd, result); err != nil {
					return err
				}
				switch {
				case result.Policy != nil && !result.Policy.Allowed:
					return fmt.Errorf("%s: %d policy errors", args[0], len(result.Policy.Filter(policy.SeverityError)))
				case !result.Valid:
					return fmt.Errorf("%s: %d warnings in strict mode", args[0], len(result.Warnings))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings and invalid values as errors")
	cmd.Flags().BoolVar(&lint, "lint", false, "check logbooks against the built-in policies")
	cmd.Flags().StringArrayVar(&policies, "policy", nil, "Rego policy file or directory (implies --lint)")
	cmd.Flags().StringArrayVarP(&conds, "cond", "C", nil, "active condition for policy checks")

	return cmd
}

func printValidateResult(cmd *cobra.Command, result validateResult) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "%s: %d sections, %d logbooks\n", result.File, len(result.Sections), len(result.Logbooks))
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if result.Policy != nil {
		for _, v := range result.Policy.Violations {
			subject := v.Logbook
			if v.Attribute != "" {
				subject += "/" + v.Attribute
			}
			fmt.Fprintf(out, "%s: %s: %s [%s]\n", v.Severity, subject, v.Message, v.Policy)
		}
		for _, w := range result.Policy.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}
	if result.Valid {
		fmt.Fprintln(out, "OK")
	}
	return nil
}

// evaluatePolicies runs the built-in policies and those found under paths.
func evaluatePolicies(cmd *cobra.Command, tel *telemetry.Telemetry, cfg *config.Config, paths, conds []string) (*policy.Result, error) {
	eng, err := policy.NewEngine(tel.Logger.Zerolog())
	if err != nil {
		return nil, err
	}
	if len(paths) > 0 {
		if err := eng.LoadPolicies(cmd.Context(), paths); err != nil {
			return nil, err
		}
	}
	return eng.Evaluate(cmd.Context(), cfg, config.NewConditions(conds...))
}
