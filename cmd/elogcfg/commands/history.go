package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/journal"
)

func newHistoryCommand() *cobra.Command {
	var (
		journalPath string
		eventType   string
		source      string
		since       time.Duration
		prune       time.Duration
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded reload events",
		Long: `Show the reload events recorded by "watch --journal", newest first.

With --prune, events older than the given age are deleted instead.`,
		Example: `  # Last 20 reloads
  elogcfg history --journal reloads.db --limit 20

  # Failed reloads of the last day
  elogcfg history --journal reloads.db --type config.reload_failed --since 24h

  # Forget everything older than a week
  elogcfg history --journal reloads.db --prune 168h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if journalPath == "" {
				return fmt.Errorf("--journal is required")
			}

			j, err := journal.Open(cmd.Context(), journal.Config{Path: journalPath})
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()

			if prune > 0 {
				n, err := j.Prune(cmd.Context(), time.Now().Add(-prune))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(out, map[string]int64{"pruned": n})
				}
				fmt.Fprintf(out, "Pruned %d events\n", n)
				return nil
			}

			filter := journal.Filter{Limit: limit}
			if eventType != "" {
				filter.Type = &eventType
			}
			if source != "" {
				filter.Source = &source
			}
			if since > 0 {
				t := time.Now().Add(-since)
				filter.Since = &t
			}

			entries, err := j.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No events recorded")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tLEVEL\tSOURCE\tMESSAGE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Format(time.RFC3339), e.Type, e.Level, e.Source, e.Message)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "SQLite journal written by watch")
	cmd.Flags().StringVar(&eventType, "type", "", "only show events of this type")
	cmd.Flags().StringVar(&source, "source", "", "only show events of this source")
	cmd.Flags().DurationVar(&since, "since", 0, "only show events newer than this age")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete events older than this age")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events (0 for all)")

	return cmd
}
