package commands

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/config"
)

func addConfig(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Config shows the settings after defaults, the .taskmate config file,
TASKMATE_* environment variables and flags have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := s.config()
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.PrintJSON(cmd.OutOrStdout(), cfg)
			}
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(config.KeyMode, cfg.Mode)
			tbl.AddRow(config.KeyFixtures, cfg.Fixtures)
			tbl.AddRow(config.KeyWatch, cfg.Watch)
			tbl.AddRow(config.KeyWriteback, cfg.Writeback)
			tbl.AddRow(config.KeyLatencyMin, cfg.LatencyMin)
			tbl.AddRow(config.KeyLatencyMax, cfg.LatencyMax)
			tbl.AddRow(config.KeyHTTPAddr, cfg.HTTPAddr)
			tbl.AddRow(config.KeyLogLevel, cfg.LogLevel)
			tbl.AddRow(config.KeyLogFormat, cfg.LogFormat)
			tbl.AddRow(config.KeyPendingTimeout, cfg.PendingTimeout)
			tbl.AddRow(config.KeyPendingRollback, cfg.PendingRollback)
			if used := s.v.ConfigFileUsed(); used != "" {
				tbl.AddRow("config file", used)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
