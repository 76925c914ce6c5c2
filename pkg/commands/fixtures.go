package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/store"
)

func addFixtures(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage task fixture directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addFixturesExport(cmd, s)
	topLevel.AddCommand(cmd)
}

func addFixturesExport(parent *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every task in the store to a fixtures directory",
		Long: `Export writes one JSON file per task. Without --fixtures this writes the
built-in sample set, which is a quick way to start a fixtures directory.`,
		Example: `
taskmate fixtures export ~/.taskmate/tasks
taskmate --fixtures ./old fixtures export ./new
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a directory")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := homedir.Expand(args[0])
			if err != nil {
				return oo.HandleError(err)
			}
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				tasks := rt.Store.List()
				if err := store.SaveFixtures(ctx, dir, tasks); err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), map[string]any{"dir": dir, "tasks": len(tasks)})
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d tasks to %s\n", len(tasks), dir)
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}
