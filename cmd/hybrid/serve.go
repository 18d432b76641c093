package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogniolab/hybrid/hybridd/server"
	"github.com/cogniolab/hybrid/internals/env"
	"github.com/cogniolab/hybrid/sdk"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestration daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL := env.Get().BASE_URL
			if sdk.IsRunning(baseURL) {
				return fmt.Errorf("hybridd already running at %s", baseURL)
			}
			return server.New().Start()
		},
	}
}
