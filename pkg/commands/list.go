package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/commands/options"
)

func addList(topLevel *cobra.Command, s *session) {
	fo := &options.FilterOptions{}
	po := &options.PageOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "get"},
		Short:   "List tasks",
		Example: `
taskmate list
taskmate list --status active --project Home
taskmate list --within 1w --page 2 --page-size 10
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := fo.Filter()
			if err != nil {
				return oo.HandleError(err)
			}
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				pp := s.printer(cmd, rt, io.ShowID)
				if po.Page > 0 {
					page, err := rt.Service.Page(ctx, po.Page, po.PageSize, filter)
					if err != nil {
						return err
					}
					if oo.JSON {
						return oo.PrintJSON(cmd.OutOrStdout(), page)
					}
					pp.TitleWithCount("Tasks", page.Total)
					pp.Tasks(page.Items...)
					pp.PageFooter(page.Page, page.LastPage(), page.Total)
					return nil
				}

				tasks, err := rt.Service.List(ctx, filter)
				if err != nil {
					return err
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), tasks)
				}
				pp.TitleWithCount("Tasks", len(tasks))
				pp.Tasks(tasks...)
				return nil
			})
		},
	}

	options.AddFilterArgs(cmd, fo, "all")
	options.AddPageArgs(cmd, po)
	options.AddShowIDArgs(cmd, io)

	topLevel.AddCommand(cmd)
}
