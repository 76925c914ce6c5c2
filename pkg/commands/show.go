package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/task"
)

func addShow(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "show <task id>",
		Short: "Show one task and its activity",
		Example: `
taskmate show 3f2a9c1e
`,
		ValidArgsFunction: taskIDCompletions(s),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a task id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				t, err := rt.Service.Get(ctx, args[0])
				if err != nil {
					return err
				}
				acts, err := rt.Service.Activities(ctx, t.ID)
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), struct {
						task.Task
						Activities []task.Activity `json:"activities"`
					}{t, acts})
				}
				pp := s.printer(cmd, rt, true)
				pp.Task(t)
				pp.TitleWithCount("Activity", len(acts))
				pp.Activities(acts...)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
