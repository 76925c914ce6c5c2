package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/timeutil"
)

func addReview(topLevel *cobra.Command, s *session) {
	var idle string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List open tasks nobody has touched for a while",
		Long: `Review lists active tasks whose last update or activity is older than
--idle, oldest first. Use it to decide what to reschedule or drop.`,
		Example: `
taskmate review
taskmate review --idle 2w
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, err := timeutil.ParseWindow(idle)
			if err != nil {
				return oo.HandleError(err)
			}
			cutoff := time.Now().AddDate(0, 0, -window.Days)

			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				candidates, err := rt.Service.ReviewCandidates(ctx, cutoff)
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), candidates)
				}
				renderReview(cmd.OutOrStdout(), candidates, window.String())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&idle, "idle", timeutil.DefaultWindow, "how long a task must have been untouched (for example 3d, 2w)")
	topLevel.AddCommand(cmd)
}

func renderReview(w io.Writer, candidates []app.ReviewCandidate, label string) {
	_, _ = fmt.Fprintf(w, "Review · untouched for %s or more\n", label)
	if len(candidates) == 0 {
		_, _ = fmt.Fprintln(w, "  Nothing stale. Nice.")
		_, _ = fmt.Fprintln(w)
		return
	}

	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, c := range candidates {
		project := c.Task.Project
		if project == "" {
			project = app.NoProject
		}
		tbl.AddRow(faint.Sprint(c.Task.ID), c.Task.Title, project, faint.Sprint(c.LastTouched.Local().Format("2006-01-02")))
	}
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)
}
