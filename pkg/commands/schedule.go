package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/commands/options"
	"tableflip.dev/taskmate/pkg/printers"
	"tableflip.dev/taskmate/pkg/schedule"
)

func addSchedule(topLevel *cobra.Command, s *session) {
	fo := &options.FilterOptions{}
	io := &options.IDOptions{}
	var (
		bucket   string
		calendar bool
	)

	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"agenda"},
		Short:   "Show tasks grouped by due date",
		Long: `Schedule groups tasks into Overdue, Today, This week, Next week, Later
and No date, relative to today. Done tasks are never overdue.`,
		Example: `
taskmate schedule
taskmate schedule --bucket overdue
taskmate schedule --calendar
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := fo.Filter()
			if err != nil {
				return oo.HandleError(err)
			}
			var only schedule.Bucket
			if bucket != "" {
				if only, err = schedule.ParseBucket(bucket); err != nil {
					return oo.HandleError(err)
				}
			}
			return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
				sections, err := rt.Service.Schedule(ctx, filter)
				if err != nil {
					return err
				}
				if only != "" {
					for _, sec := range sections {
						if sec.Bucket == only {
							sections = []schedule.Section{sec}
							break
						}
					}
				}
				if oo.JSON {
					return oo.PrintJSON(cmd.OutOrStdout(), sections)
				}

				pp := s.printer(cmd, rt, io.ShowID)
				if calendar {
					now := time.Now()
					tasks, err := rt.Service.List(ctx, filter)
					if err != nil {
						return err
					}
					pp.Month(now, tasks...)
					pp.Month(printers.NextMonth(now), tasks...)
				}
				pp.Sections(sections)
				return nil
			})
		},
	}

	options.AddFilterArgs(cmd, fo, "active")
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Only show one bucket: overdue, today, thisWeek, nextWeek, later or noDate.")
	cmd.Flags().BoolVar(&calendar, "calendar", false, "Also print this month and next with due days highlighted.")

	topLevel.AddCommand(cmd)
}
