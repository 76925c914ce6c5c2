package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/config"
	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/printers"
)

// session resolves configuration and opens a runtime for one command.
type session struct {
	v *viper.Viper
}

func (s *session) config() (config.Config, error) {
	return config.Load(s.v)
}

// run opens the runtime, hands it to fn and closes it again, writing
// fixtures back when configured to.
func (s *session) run(cmd *cobra.Command, fn func(ctx context.Context, rt *app.Runtime) error) (err error) {
	cfg, err := s.config()
	if err != nil {
		return oo.HandleError(err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Prefix: "taskmate",
	})
	if err != nil {
		return oo.HandleError(err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := app.Open(ctx, app.Options{Config: cfg, Logger: logger})
	if err != nil {
		return oo.HandleError(err)
	}
	defer func() {
		if cerr := rt.Close(context.Background()); cerr != nil && err == nil {
			err = oo.HandleError(cerr)
		}
	}()

	return oo.HandleError(fn(ctx, rt))
}

func (s *session) printer(cmd *cobra.Command, rt *app.Runtime, showID bool) *printers.PrettyPrint {
	return &printers.PrettyPrint{
		ShowID: showID,
		Today:  rt.Service.Today(),
		Out:    cmd.OutOrStdout(),
	}
}
