package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:       "completion [bash|zsh|fish]",
		Short:     "Generates shell completion scripts",
		ValidArgs: []string{"bash", "zsh", "fish"},
		Args:      cobra.MaximumNArgs(1),
		Long: `To load completion run

. <(taskmate completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(taskmate completion)
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "bash"
			if len(args) == 1 {
				shell = args[0]
			}
			switch shell {
			case "bash":
				return topLevel.GenBashCompletion(os.Stdout)
			case "zsh":
				return topLevel.GenZshCompletion(os.Stdout)
			case "fish":
				return topLevel.GenFishCompletion(os.Stdout, true)
			}
			return fmt.Errorf("unsupported shell %q", shell)
		},
	}

	topLevel.AddCommand(cmd)
}

// taskIDCompletions offers "id\ttitle" pairs for the first positional
// argument. Completion runs without writeback so it never touches fixtures.
func taskIDCompletions(s *session) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg, err := s.config()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		cfg.Writeback = false
		cfg.Watch = false
		cfg.Mode = "direct"
		rt, err := app.Open(context.Background(), app.Options{Config: cfg})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer rt.Close(context.Background())

		var out []string
		for _, t := range rt.Store.List() {
			if strings.HasPrefix(t.ID, toComplete) {
				out = append(out, t.ID+"\t"+t.Title)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
