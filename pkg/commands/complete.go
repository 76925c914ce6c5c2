package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
)

func addComplete(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:     "complete <task id>...",
		Aliases: []string{"completed", "done"},
		Short:   "Mark tasks done",
		Example: `
taskmate complete <task id>
`,
		ValidArgsFunction: taskIDCompletions(s),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				pp := s.printer(cmd, rt, true)
				for _, id := range args {
					t, err := rt.Service.Complete(ctx, id)
					if err != nil {
						return err
					}
					if oo.JSON {
						if err := oo.PrintJSON(cmd.OutOrStdout(), t); err != nil {
							return err
						}
						continue
					}
					pp.Tasks(t)
				}
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
