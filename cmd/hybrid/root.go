package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogniolab/hybrid/internals/cliutil"
	"github.com/cogniolab/hybrid/internals/conf"
	"github.com/cogniolab/hybrid/internals/env"
	"github.com/cogniolab/hybrid/internals/timeouts"
	"github.com/cogniolab/hybrid/internals/version"
	"github.com/cogniolab/hybrid/sdk"
	"github.com/cogniolab/hybrid/tui"
)

// NewRootCommand builds the hybrid CLI. Every command except serve talks to
// hybridd over its HTTP API and starts the daemon on demand.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hybrid",
		Short:         "Route tasks across OpenAI and Claude agent platforms",
		Long:          "hybrid submits tasks to the orchestration daemon, which routes each one\nto the OpenAI platform, the Claude platform, or a hybrid workflow that\nchains planning, execution, and verification across both.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSubmitCommand())
	rootCmd.AddCommand(newTaskCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newGuardrailsCommand())
	rootCmd.AddCommand(newBackendsCommand())
	rootCmd.AddCommand(newTUICommand())
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newShutdownCommand())

	return rootCmd
}

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the execution platforms the daemon knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			if err := cliutil.EnsureDaemonRunning(client); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
			defer cancel()
			ids, err := client.Backends(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show CLI and daemon versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("hybrid %s\n", conf.GetConfig().Version)
			if version.BuiltAt != "" {
				fmt.Printf("built %s\n", version.BuiltAt)
			}

			client := sdk.NewClient()
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Probe)
			defer cancel()
			remote, err := client.Version(ctx)
			if err != nil {
				fmt.Println("hybridd not running")
				return nil
			}
			fmt.Printf("hybridd %s at %s\n", remote, cliutil.DaemonAddress())
			return nil
		},
	}
}

func newShutdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			if !sdk.IsRunning(env.Get().BASE_URL) {
				fmt.Println("hybridd not running")
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
			defer cancel()
			if err := client.Shutdown(ctx); err != nil {
				return err
			}
			fmt.Println("hybridd shutting down")
			return nil
		},
	}
}

func newTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Submit a task through an interactive form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(sdk.NewClient())
		},
	}
}
