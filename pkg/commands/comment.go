package commands

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
)

func addComment(topLevel *cobra.Command, s *session) {
	var author string

	cmd := &cobra.Command{
		Use:     "comment <task id> <message>",
		Aliases: []string{"note"},
		Short:   "Add a comment to a task's activity feed",
		Example: `
taskmate comment 3f2a9c1e called the plumber, coming Thursday
`,
		ValidArgsFunction: taskIDCompletions(s),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("requires a task id and a message")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				t, err := rt.Service.Comment(ctx, args[0], author, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), t)
				}
				if a, ok := t.LatestActivity(); ok {
					s.printer(cmd, rt, false).Activities(a)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", os.Getenv("USER"), "Who wrote the comment.")
	topLevel.AddCommand(cmd)
}
