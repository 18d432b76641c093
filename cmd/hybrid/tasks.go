package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cogniolab/hybrid/internals/cliutil"
	"github.com/cogniolab/hybrid/internals/schemas"
	"github.com/cogniolab/hybrid/internals/task"
	"github.com/cogniolab/hybrid/internals/timeouts"
	"github.com/cogniolab/hybrid/sdk"
)

func newSubmitCommand() *cobra.Command {
	var (
		taskID         string
		taskType       string
		systemAccess   bool
		multiStep      bool
		priority       int
		estimatedCost  float64
		timeoutSeconds int
		contextPairs   []string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "submit <description>",
		Short: "Submit a task and wait for the outcome",
		Long:  "Submit runs the task synchronously: the daemon routes it, executes it on\nthe chosen platform (or the hybrid pipeline), and the command prints the\nresult. A guardrail block is an outcome, not an error.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			if err := cliutil.EnsureDaemonRunning(client); err != nil {
				return err
			}

			request := schemas.TaskSubmitRequest{
				ID:                   taskID,
				Description:          strings.Join(args, " "),
				Type:                 task.Type(taskType),
				RequiresSystemAccess: systemAccess,
				RequiresMultiStep:    multiStep,
				Priority:             priority,
				EstimatedCost:        estimatedCost,
				TimeoutSeconds:       timeoutSeconds,
			}
			if len(contextPairs) > 0 {
				request.Context = map[string]any{}
				for _, pair := range contextPairs {
					key, value, ok := strings.Cut(pair, "=")
					if !ok || key == "" {
						return fmt.Errorf("invalid --context %q, want key=value", pair)
					}
					request.Context[key] = value
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), submitDeadline(timeoutSeconds))
			defer cancel()
			result, err := client.SubmitTask(ctx, request)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(result)
			}
			cliutil.PrintRunResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "id", "", "task id (generated when empty)")
	cmd.Flags().StringVarP(&taskType, "type", "t", string(task.TypeConversation), "task type")
	cmd.Flags().BoolVar(&systemAccess, "system-access", false, "task needs system access (routes to claude)")
	cmd.Flags().BoolVar(&multiStep, "multi-step", false, "task needs the hybrid plan/execute/verify pipeline")
	cmd.Flags().IntVarP(&priority, "priority", "p", task.DefaultPriority, fmt.Sprintf("priority %d-%d", task.MinPriority, task.MaxPriority))
	cmd.Flags().Float64Var(&estimatedCost, "cost", 0, "estimated cost in dollars")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "per-backend-call timeout in seconds (daemon default when 0)")
	cmd.Flags().StringArrayVarP(&contextPairs, "context", "c", nil, "context entry key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result JSON")

	return cmd
}

// submitDeadline bounds the whole submission. Hybrid runs chain three backend
// calls, so the client allows three task budgets plus slack.
func submitDeadline(timeoutSeconds int) time.Duration {
	budget := timeouts.DefaultTask
	if timeoutSeconds > 0 {
		budget = time.Duration(timeoutSeconds) * time.Second
	}
	return 3*budget + timeouts.SecondDefault
}

func newTaskCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "task <id>",
		Short: "Show the recorded state of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			if err := cliutil.EnsureDaemonRunning(client); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
			defer cancel()
			snap, err := client.Task(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(snap)
			}
			cliutil.PrintSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot JSON")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List every submitted task, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			if err := cliutil.EnsureDaemonRunning(client); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
			defer cancel()
			tasks, err := client.History(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(tasks)
			}
			cliutil.PrintHistory(tasks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw history JSON")
	return cmd
}

func printJSON(payload any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
