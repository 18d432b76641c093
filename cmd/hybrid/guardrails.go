package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogniolab/hybrid/internals/cliutil"
	"github.com/cogniolab/hybrid/internals/schemas"
	"github.com/cogniolab/hybrid/internals/timeouts"
	"github.com/cogniolab/hybrid/sdk"
)

func newGuardrailsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guardrails",
		Short: "Inspect and register safety guardrails",
	}

	cmd.AddCommand(newGuardrailsListCommand())
	cmd.AddCommand(newGuardrailsAddCommand())
	return cmd
}

func newGuardrailsListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered guardrails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := sdk.NewClient()
			if err := cliutil.EnsureDaemonRunning(client); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
			defer cancel()
			rails, err := client.Guardrails(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(rails)
			}
			cliutil.PrintGuardrails(rails)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw guardrail JSON")
	return cmd
}

// newGuardrailsAddCommand registers a guardrail from a JSON definition.
// Conditions are recursive trees, so they come from a file (or stdin with -)
// rather than flags:
//
//	{
//	  "name": "no_destructive_sql",
//	  "kind": "block",
//	  "message": "Destructive SQL operations are not allowed",
//	  "condition": {"kind": "description_contains", "value": "DROP TABLE", "case_insensitive": true}
//	}
func newGuardrailsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Register a guardrail from a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readDefinition(args[0])
			if err != nil {
				return err
			}

			var request schemas.GuardrailRequest
			if err := json.Unmarshal(data, &request); err != nil {
				return fmt.Errorf("invalid guardrail definition: %w", err)
			}

			client := sdk.NewClient()
			if err := cliutil.EnsureDaemonRunning(client); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
			defer cancel()
			info, err := client.RegisterGuardrail(ctx, request)
			if err != nil {
				return err
			}

			fmt.Printf("registered %s (%s): %s\n", info.Name, info.Kind, info.Condition)
			return nil
		},
	}
}

func readDefinition(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
