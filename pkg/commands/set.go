package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/task"
)

func addSet(topLevel *cobra.Command, s *session) {
	tf := &taskFlags{}
	var title string

	cmd := &cobra.Command{
		Use:     "set <task id>",
		Aliases: []string{"edit", "update"},
		Short:   "Change fields of a task",
		Example: `
taskmate set 3f2a9c1e --status in_progress --progress 40
taskmate set 3f2a9c1e --due +1w
`,
		ValidArgsFunction: taskIDCompletions(s),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a task id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tf.patch(cmd, time.Now())
			if err != nil {
				return oo.HandleError(err)
			}
			if cmd.Flags().Changed("title") {
				p.Title = task.Ptr(title)
			}

			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				t, err := rt.Service.Set(ctx, args[0], p)
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), t)
				}
				s.printer(cmd, rt, true).Task(t)
				return nil
			})
		},
	}

	addTaskFlags(cmd, tf)
	cmd.Flags().StringVar(&title, "title", "", "New title.")
	topLevel.AddCommand(cmd)
}
