package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/commands/options"
	"tableflip.dev/taskmate/pkg/task"
)

// taskFlags are the editable fields shared by add and set.
type taskFlags struct {
	due         options.DueOptions
	description string
	status      string
	project     string
	assignee    string
	tags        []string
	progress    int
	rating      int
}

func addTaskFlags(cmd *cobra.Command, tf *taskFlags) {
	options.AddDueArgs(cmd, &tf.due)
	cmd.Flags().StringVarP(&tf.description, "description", "d", "", "Longer description.")
	cmd.Flags().StringVarP(&tf.status, "status", "s", "", "Status: todo, in_progress, done, blocked or cancelled.")
	cmd.Flags().StringVarP(&tf.project, "project", "p", "", "Project name.")
	cmd.Flags().StringVar(&tf.assignee, "assignee", "", "Person responsible.")
	cmd.Flags().StringSliceVarP(&tf.tags, "tag", "t", nil, "Tag to attach; repeat for several.")
	cmd.Flags().IntVar(&tf.progress, "progress", 0, "Progress percentage, 0-100.")
	cmd.Flags().IntVar(&tf.rating, "rating", 0, "Rating, 1-5.")
}

// patch builds a task.Patch from the flags the user actually set.
func (tf *taskFlags) patch(cmd *cobra.Command, now time.Time) (task.Patch, error) {
	var p task.Patch
	changed := cmd.Flags().Changed
	if changed("due") {
		due, err := tf.due.GetDue(now)
		if err != nil {
			return p, err
		}
		p.DueDate = due
	}
	if changed("description") {
		p.Description = task.Ptr(tf.description)
	}
	if changed("status") {
		status, err := task.ParseStatus(tf.status)
		if err != nil {
			return p, err
		}
		p.Status = &status
	}
	if changed("project") {
		p.Project = task.Ptr(tf.project)
	}
	if changed("assignee") {
		p.Assignee = task.Ptr(tf.assignee)
	}
	if changed("tag") {
		p.Tags = tf.tags
	}
	if changed("progress") {
		p.Progress = task.Ptr(tf.progress)
	}
	if changed("rating") {
		p.Rating = task.Ptr(tf.rating)
	}
	return p, nil
}

func addAdd(topLevel *cobra.Command, s *session) {
	tf := &taskFlags{}

	cmd := &cobra.Command{
		Use:     "add <title>",
		Aliases: []string{"new"},
		Short:   "Add a task",
		Example: `
taskmate add buy milk --due tomorrow
taskmate add "Renew passport" --due 2026-1-15 --project Admin --tag travel
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a title")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tf.patch(cmd, time.Now())
			if err != nil {
				return oo.HandleError(err)
			}
			p.Title = task.Ptr(strings.Join(args, " "))

			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				t, err := rt.Service.Add(ctx, p)
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), t)
				}
				s.printer(cmd, rt, true).Tasks(t)
				return nil
			})
		},
	}

	addTaskFlags(cmd, tf)
	topLevel.AddCommand(cmd)
}
