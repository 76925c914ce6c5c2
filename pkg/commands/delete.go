package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
)

func addDelete(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:               "delete <task id>...",
		Aliases:           []string{"rm"},
		Short:             "Delete tasks permanently",
		ValidArgsFunction: taskIDCompletions(s),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				for _, id := range args {
					if err := rt.Service.Delete(ctx, id); err != nil {
						return err
					}
					if oo.JSON {
						if err := oo.PrintJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true}); err != nil {
							return err
						}
						continue
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				}
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
