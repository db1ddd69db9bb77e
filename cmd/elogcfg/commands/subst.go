package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/subst"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

var presetActions = map[string]subst.Action{
	"new":         subst.NewEntry,
	"reply":       subst.Reply,
	"first-reply": subst.Reply | subst.FirstReply,
}

func newSubstCommand() *cobra.Command {
	var (
		values []string
		user   subst.User
		preset string
	)

	cmd := &cobra.Command{
		Use:   "subst FILE LOGBOOK [TEXT]",
		Short: "Expand $variables or apply entry presets",
		Long: `Expand the $variables of TEXT as the logbook would, or apply the presets
for a new entry, a reply or a first reply.

With --preset, TEXT is the entry text before the presets are applied.`,
		Example: `  elogcfg subst elogd.cfg Travel 'Trip of $author on $date' --values Author=jdoe

  elogcfg subst elogd.cfg Travel --preset first-reply --values Subject=Flight`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logbook := args[1]
			var text string
			if len(args) == 3 {
				text = args[2]
			}

			vals, err := parseValues(values)
			if err != nil {
				return err
			}

			var action subst.Action
			if preset != "" {
				var ok bool
				if action, ok = presetActions[preset]; !ok {
					return fmt.Errorf("unknown preset %q, expected new, reply or first-reply", preset)
				}
			} else if len(args) < 3 {
				return fmt.Errorf("TEXT is required without --preset")
			}

			return withConfig(cmd, args[0], false, func(tel *telemetry.Telemetry, cfg *config.Config) error {
				if !cfg.HasSection(logbook) {
					return fmt.Errorf("%w: %s", config.ErrUnknownSection, logbook)
				}

				s := subst.New(newScope(cfg, logbook, nil, vals), logbook, user,
					subst.WithVersion(appVersion),
					subst.WithLogger(tel.Logger.Zerolog()),
				)
				entry := &subst.Entry{Attrs: vals, Text: text}

				if action == 0 {
					entry.Text = s.Substitute(text, entry)
				} else if err := s.ApplyPresets(entry, action); err != nil {
					return err
				}

				return printEntry(cmd, entry, action != 0)
			})
		},
	}

	cmd.Flags().StringArrayVar(&values, "values", nil, "entry value Attribute=Value (repeatable)")
	cmd.Flags().StringVar(&user.Login, "user", "", "login name of the author (empty is anonymous)")
	cmd.Flags().StringVar(&user.FullName, "full-name", "", "full name of the author")
	cmd.Flags().StringVar(&user.Email, "email", "", "email address of the author")
	cmd.Flags().StringVar(&preset, "preset", "", "apply presets: new, reply, first-reply")

	return cmd
}

func printEntry(cmd *cobra.Command, entry *subst.Entry, withAttrs bool) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, map[string]any{
			"attributes": entry.Attrs,
			"text":       entry.Text,
		})
	}

	if withAttrs {
		names := make([]string, 0, len(entry.Attrs))
		for name := range entry.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "%s: %v\n", name, entry.Attrs[name])
		}
	}
	fmt.Fprintln(out, entry.Text)
	return nil
}
