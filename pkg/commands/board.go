package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/commands/options"
	teaui "tableflip.dev/taskmate/pkg/runner/tea"
)

func addBoard(topLevel *cobra.Command, s *session) {
	fo := &options.FilterOptions{}

	cmd := &cobra.Command{
		Use:     "board",
		Aliases: []string{"ui"},
		Short:   "Interactive task board",
		Long: `Board lists tasks by schedule bucket and shows the interactive
controls of the selected task. Edits appear immediately and settle once the
backend confirms them; in remote mode they take the simulated latency.`,
		Example: `
taskmate board
taskmate board --mode remote --fixtures ./fixtures --writeback
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := fo.Filter()
			if err != nil {
				return oo.HandleError(err)
			}
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				return teaui.Run(ctx, teaui.Options{
					Tasks:  rt.Tasks(),
					Deps:   rt.ControlDeps(),
					Filter: filter,
				})
			})
		},
	}

	options.AddFilterArgs(cmd, fo, "all")
	topLevel.AddCommand(cmd)
}
