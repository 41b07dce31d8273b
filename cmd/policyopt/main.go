// Command policyopt runs, inspects, and replays LLM-driven policy
// optimization experiments over the RTGS liquidity-queue simulator
// (spec.md §6). Subcommand dispatch and graceful shutdown follow
// cmd/test-analyzer/main.go's signal-driven cancellation pattern.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	_ "github.com/lookatitude/policyopt/llmclient/providers/anthropic"
	_ "github.com/lookatitude/policyopt/llmclient/providers/google"
	_ "github.com/lookatitude/policyopt/llmclient/providers/openai"
	"github.com/lookatitude/policyopt/o11y"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	interrupted := make(chan struct{})
	go func() {
		<-sigChan
		close(interrupted)
		cancel()
	}()

	logger := o11y.NewLogger()

	if len(os.Args) < 2 {
		cli.PrintHelp()
		os.Exit(cli.ExitConfigOrFileError)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		cli.PrintHelp()
		os.Exit(cli.ExitOK)
	}

	var code int
	switch cmd {
	case "run":
		code = runCmd(ctx, logger, args)
	case "validate":
		code = validateCmd(args)
	case "info":
		code = infoCmd(args)
	case "list":
		code = listCmd(args)
	case "replay":
		code = replayCmd(args)
	case "results":
		code = resultsCmd(args)
	default:
		fmt.Fprintf(os.Stderr, "policyopt: unknown command %q\n", cmd)
		cli.PrintHelp()
		code = cli.ExitConfigOrFileError
	}

	select {
	case <-interrupted:
		os.Exit(cli.ExitInterrupted)
	default:
		os.Exit(code)
	}
}
