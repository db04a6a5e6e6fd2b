// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command srtcheck records or uploads a Sitting-Rising-Test clip, submits it
// for analysis and prints the scored report.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	srtlog "github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/ManuGH/srtcheck/internal/version"
)

// errUsage reports bad command line input. The flag package has already
// printed the details.
var errUsage = errors.New("usage error")

// cli carries the process streams so commands can be driven from tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"record":  {"record a clip from the camera and analyse it", runRecord},
	"upload":  {"analyse a video file", runUpload},
	"report":  {"show the report for a report id", runReport},
	"history": {"list archived reports", runHistory},
	"check":   {"verify ffmpeg, ffprobe and the configuration", runCheck},
	"config":  {"print the effective configuration", runConfig},
	"version": {"print version information", runVersion},
}

var commandOrder = []string{"record", "upload", "report", "history", "check", "config", "version"}

func main() {
	// Safe defaults until the config is loaded.
	srtlog.Configure(srtlog.Config{Level: "info", Service: "srtcheck", Version: version.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, c *cli) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(c.stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(c.stderr, "Unknown command: %s\n\n", args[0])
		printUsage(c.stderr)
		return 2
	}

	err := cmd.run(ctx, c, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		logger := srtlog.WithComponent("cli")
		logger.Debug().Err(err).Str(srtlog.FieldEvent, "command.failed").Str("command", args[0]).Msg("command failed")
		fmt.Fprintf(c.stderr, "Error: %s\n", srterr.UserMessage(err))
		fmt.Fprintf(c.stderr, "Next: %s\n", srterr.RecoveryFor(err).Hint())
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: srtcheck <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every command accepts --config (default $SRT_CONFIG).")
}

func runVersion(_ context.Context, c *cli, _ []string) error {
	fmt.Fprintf(c.stdout, "srtcheck %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
	return nil
}
