package commands

import (
	"time"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/taskmate/pkg/commands/options"
	"tableflip.dev/taskmate/pkg/config"
)

var (
	oo = &options.OutputOptions{}
)

func New() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "taskmate",
		Short: base.Wrap80("Tasks, schedules and optimistic edits on the command line."),
		Long: base.Wrap80("taskmate keeps a set of tasks in memory, seeded from a fixtures directory " +
			"or a built-in sample set. In direct mode commands talk to the store; in remote mode " +
			"every call goes through a simulated API with latency and HTTP-like status codes."),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("mode", "direct", "Data source: direct (in-memory store) or remote (simulated API).")
	flags.String("fixtures", "", "Directory of task fixtures to seed from (and write back to with --writeback).")
	flags.Bool("writeback", false, "Save the store back to the fixtures directory on exit.")
	flags.String("log-level", "info", "Log level: debug, info, warn or error.")
	flags.String("log-format", "text", "Log format: text, json or logfmt.")
	flags.Duration("latency-min", 100*time.Millisecond, "Minimum simulated latency in remote mode.")
	flags.Duration("latency-max", 300*time.Millisecond, "Maximum simulated latency in remote mode.")
	flags.BoolVar(&oo.JSON, "json", false, "Output as JSON.")

	_ = v.BindPFlag(config.KeyMode, flags.Lookup("mode"))
	_ = v.BindPFlag(config.KeyFixtures, flags.Lookup("fixtures"))
	_ = v.BindPFlag(config.KeyWriteback, flags.Lookup("writeback"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = v.BindPFlag(config.KeyLatencyMin, flags.Lookup("latency-min"))
	_ = v.BindPFlag(config.KeyLatencyMax, flags.Lookup("latency-max"))

	AddCommands(cmd, &session{v: v})
	return cmd
}

func AddCommands(topLevel *cobra.Command, s *session) {
	addList(topLevel, s)
	addSchedule(topLevel, s)
	addShow(topLevel, s)
	addAdd(topLevel, s)
	addSet(topLevel, s)
	addComplete(topLevel, s)
	addDelete(topLevel, s)
	addComment(topLevel, s)
	addControl(topLevel, s)
	addBoard(topLevel, s)
	addReport(topLevel, s)
	addReview(topLevel, s)
	addFixtures(topLevel, s)
	addServe(topLevel, s)
	addMCP(topLevel, s)
	addConfig(topLevel, s)
	addCompletions(topLevel)
	addUpgrade(topLevel)
	addVersion(topLevel)
}
