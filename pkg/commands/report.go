package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/timeutil"
)

func addReport(topLevel *cobra.Command, s *session) {
	var last string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Display recently completed tasks grouped by project",
		Long: `Report lists tasks completed within the specified window, grouped by project.

Examples:
  taskmate report
  taskmate report --last 3d
  taskmate report --last 1w2d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, err := timeutil.ParseWindow(last)
			if err != nil {
				return oo.HandleError(err)
			}
			until := time.Now()
			since := timeutil.Midnight(until).AddDate(0, 0, -window.Days)

			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				result, err := rt.Service.Report(ctx, since, until)
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), result)
				}
				renderReport(cmd.OutOrStdout(), result, window.String())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&last, "last", timeutil.DefaultWindow, "time window to include (for example 3d, 1w)")
	topLevel.AddCommand(cmd)
}

func renderReport(w io.Writer, result app.ReportResult, label string) {
	since := result.Since.Local().Format("2006-01-02 15:04")
	until := result.Until.Local().Format("2006-01-02 15:04")
	_, _ = fmt.Fprintf(w, "Report · last %s (%s → %s)\n", label, since, until)

	if result.Total == 0 {
		_, _ = fmt.Fprintln(w, "  No completed tasks found in this window.")
		_, _ = fmt.Fprintln(w)
		return
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	for _, section := range result.Sections {
		_, _ = bold.Fprintf(w, "\n%s\n", section.Project)
		for _, item := range section.Tasks {
			_, _ = fmt.Fprintf(w, "  ✓ %s", item.Task.Title)
			_, _ = faint.Fprintf(w, "  (completed %s)\n", item.CompletedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	_, _ = fmt.Fprintln(w)
}
