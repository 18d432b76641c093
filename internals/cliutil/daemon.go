package cliutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cogniolab/hybrid/internals/conf"
	"github.com/cogniolab/hybrid/internals/timeouts"
	"github.com/cogniolab/hybrid/sdk"
)

// EnsureDaemonRunning probes hybridd and starts it when it is not reachable.
// A reachable daemon whose version differs from the CLI's is shut down and
// replaced, so upgrades never leave a stale server handling submissions.
func EnsureDaemonRunning(client *sdk.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Probe)
	defer cancel()

	if version, err := client.Version(ctx); err == nil {
		localVersion := conf.GetConfig().Version
		if strings.TrimSpace(version) == strings.TrimSpace(localVersion) {
			return nil
		}
		return replaceDaemon(client, version)
	}

	if err := StartDaemon(); err != nil {
		return err
	}

	return waitForDaemon(client)
}

// StartDaemon launches the serve command of this binary in the background.
func StartDaemon() error {
	path, err := findServeBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(path, "serve")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func waitForDaemon(client *sdk.Client) error {
	if !sdk.WaitForStart(client.BaseURL(), nil) {
		return errors.New("failed to reach hybridd after starting it")
	}
	return nil
}

func replaceDaemon(client *sdk.Client, remoteVersion string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
	defer cancel()

	if err := client.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown hybridd %s: %w", strings.TrimSpace(remoteVersion), err)
	}

	if err := waitForDaemonStop(client); err != nil {
		return fmt.Errorf("hybridd %s did not stop: %w", strings.TrimSpace(remoteVersion), err)
	}

	if err := StartDaemon(); err != nil {
		return err
	}

	return waitForDaemon(client)
}

func waitForDaemonStop(client *sdk.Client) error {
	for i := 0; i < 8; i++ {
		if !sdk.IsRunningWithTimeout(client.BaseURL(), timeouts.Probe) {
			return nil
		}
		time.Sleep(time.Duration(i+1) * 150 * time.Millisecond)
	}

	return errors.New("failed to stop hybridd")
}

func findServeBinary() (string, error) {
	executable, err := os.Executable()
	if err == nil && executable != "" {
		return executable, nil
	}

	path, err := exec.LookPath("hybrid")
	if err != nil {
		return "", fmt.Errorf("hybrid not found in PATH")
	}
	return path, nil
}
