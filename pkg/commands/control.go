package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/commands/options"
	"tableflip.dev/taskmate/pkg/controls"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/reconcile"
	"tableflip.dev/taskmate/pkg/task"
)

// control is the part of every bound widget the CLI needs after acting.
type control interface {
	State() reconcile.State
	Err() error
	Close()
}

// controlResult is what `taskmate control` reports.
type controlResult struct {
	TaskID  string                `json:"taskId"`
	Actions []events.ActionResult `json:"actions"`
	State   string                `json:"state"`
	Error   string                `json:"error,omitempty"`
	Task    *task.Task            `json:"task,omitempty"`
}

func addControl(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Drive an interactive control against a task",
		Long: `Control binds one of the interactive task controls, performs a single
user action and waits for the write to be confirmed or rolled back. Run with
--mode remote to watch optimistic updates ride out simulated latency.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addControlCheckbox(cmd, s)
	addControlRate(cmd, s)
	addControlProgress(cmd, s)
	addControlDue(cmd, s)
	addControlSelect(cmd, s)
	addControlDecision(cmd, s, "approve", "Approve a task (marks it done)", (*controls.Approval).Approve)
	addControlDecision(cmd, s, "reject", "Reject a task (cancels it)", (*controls.Approval).Reject)

	topLevel.AddCommand(cmd)
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("requires " + usage)
		}
		return nil
	}
}

// drive loads the task, binds a control with bindFn, runs act and reports
// the settled outcome.
func (s *session) drive(cmd *cobra.Command, id string, payload map[string]any,
	bindFn func(ctx context.Context, props controls.Props, deps controls.Deps) (control, error),
	act func(c control) error) error {
	return s.run(cmd, func(ctx context.Context, rt *app.Runtime) error {
		t, err := rt.Service.Get(ctx, id)
		if err != nil {
			return err
		}
		res := controlResult{TaskID: t.ID}
		props := controls.Props{
			Task:    t,
			Payload: payload,
			OnActionComplete: func(r events.ActionResult) {
				res.Actions = append(res.Actions, r)
			},
		}
		c, err := bindFn(ctx, props, rt.ControlDeps())
		if err != nil {
			return err
		}
		defer c.Close()

		if err := act(c); err != nil {
			return err
		}
		wait := rt.Config.PendingTimeout + time.Second
		if err := awaitSettled(ctx, c, wait); err != nil {
			return err
		}

		res.State = c.State().String()
		if cerr := c.Err(); cerr != nil {
			res.Error = cerr.Error()
		}
		if latest, err := rt.Service.Get(ctx, t.ID); err == nil {
			res.Task = &latest
		}

		if oo.JSON {
			return oo.PrintJSON(cmd.OutOrStdout(), res)
		}
		out := cmd.OutOrStdout()
		for _, a := range res.Actions {
			_, _ = fmt.Fprintf(out, "%s %v\n", a.ActionType, a.Details)
		}
		if res.Error != "" {
			_, _ = fmt.Fprintf(out, "%s: %s\n", res.State, res.Error)
		}
		if res.Task != nil {
			s.printer(cmd, rt, true).Task(*res.Task)
		}
		return nil
	})
}

// awaitSettled polls until the control is Idle or Failed.
func awaitSettled(ctx context.Context, c control, limit time.Duration) error {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		switch c.State() {
		case reconcile.Idle, reconcile.Failed:
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("control did not settle within %s", limit)
		case <-tick.C:
		}
	}
}

func addControlCheckbox(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:               "checkbox <task id>",
		Short:             "Toggle the task's checkbox",
		ValidArgsFunction: taskIDCompletions(s),
		Args:              exactArgs(1, "a task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.drive(cmd, args[0], nil,
				func(ctx context.Context, p controls.Props, d controls.Deps) (control, error) {
					return controls.NewCheckbox(ctx, p, d)
				},
				func(c control) error {
					c.(*controls.Checkbox).Toggle()
					return nil
				})
		},
	}
	topLevel.AddCommand(cmd)
}

func addControlRate(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:               "rate <task id> <1-5>",
		Short:             "Set the task's star rating",
		ValidArgsFunction: taskIDCompletions(s),
		Args:              exactArgs(2, "a task id and a rating"),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return oo.HandleError(fmt.Errorf("invalid rating %q", args[1]))
			}
			return s.drive(cmd, args[0], nil,
				func(ctx context.Context, p controls.Props, d controls.Deps) (control, error) {
					return controls.NewRating(ctx, p, d)
				},
				func(c control) error {
					return c.(*controls.Rating).Rate(n)
				})
		},
	}
	topLevel.AddCommand(cmd)
}

func addControlProgress(topLevel *cobra.Command, s *session) {
	var steps int

	cmd := &cobra.Command{
		Use:   "progress <task id> <0-100>",
		Short: "Drag the task's progress slider to a value",
		Long: `Progress simulates dragging the slider from its current value to the
target in --steps moves and releasing it. Only the release is written.`,
		ValidArgsFunction: taskIDCompletions(s),
		Args:              exactArgs(2, "a task id and a percentage"),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[1])
			if err != nil {
				return oo.HandleError(fmt.Errorf("invalid progress %q", args[1]))
			}
			return s.drive(cmd, args[0], nil,
				func(ctx context.Context, p controls.Props, d controls.Deps) (control, error) {
					return controls.NewProgress(ctx, p, d)
				},
				func(c control) error {
					slider := c.(*controls.Progress)
					from := slider.Value()
					slider.BeginDrag()
					for i := 1; i < steps; i++ {
						slider.Drag(from + (target-from)*i/steps)
					}
					slider.Release(target)
					return nil
				})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 5, "Number of drag moves before release.")
	topLevel.AddCommand(cmd)
}

func addControlDue(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:               "due <task id> <date>",
		Short:             "Pick a due date from the calendar",
		ValidArgsFunction: taskIDCompletions(s),
		Args:              exactArgs(2, "a task id and a date"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := options.ParseDue(args[1], time.Now())
			if err != nil {
				return oo.HandleError(err)
			}
			return s.drive(cmd, args[0], nil,
				func(ctx context.Context, p controls.Props, dp controls.Deps) (control, error) {
					return controls.NewCalendar(ctx, p, dp)
				},
				func(c control) error {
					return c.(*controls.Calendar).Pick(d)
				})
		},
	}
	topLevel.AddCommand(cmd)
}

func addControlSelect(topLevel *cobra.Command, s *session) {
	var choices []string

	cmd := &cobra.Command{
		Use:               "select <task id> <option>",
		Short:             "Choose a value from a single-select list",
		ValidArgsFunction: taskIDCompletions(s),
		Args:              exactArgs(2, "a task id and an option"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload map[string]any
			if len(choices) > 0 {
				payload = map[string]any{"options": choices}
			}
			return s.drive(cmd, args[0], payload,
				func(ctx context.Context, p controls.Props, d controls.Deps) (control, error) {
					return controls.NewSingleSelect(ctx, p, d)
				},
				func(c control) error {
					return c.(*controls.SingleSelect).Select(strings.TrimSpace(args[1]))
				})
		},
	}

	cmd.Flags().StringSliceVar(&choices, "options", nil, "Allowed options; any value is accepted when empty.")
	topLevel.AddCommand(cmd)
}

func addControlDecision(topLevel *cobra.Command, s *session, use, short string, decide func(*controls.Approval)) {
	cmd := &cobra.Command{
		Use:               use + " <task id>",
		Short:             short,
		ValidArgsFunction: taskIDCompletions(s),
		Args:              exactArgs(1, "a task id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.drive(cmd, args[0], nil,
				func(ctx context.Context, p controls.Props, d controls.Deps) (control, error) {
					return controls.NewApproval(ctx, p, d)
				},
				func(c control) error {
					decide(c.(*controls.Approval))
					return nil
				})
		},
	}
	topLevel.AddCommand(cmd)
}
