package main

import (
	"fmt"
	"os"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	"github.com/lookatitude/policyopt/state/sqlite"
)

func replayCmd(args []string) int {
	rc, err := cli.ParseReplay(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt replay: %v\n", err)
		cli.PrintReplayHelp()
		return cli.ExitConfigOrFileError
	}

	db, err := sqlite.Open(rc.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt replay: %v\n", err)
		return cli.ExitConfigOrFileError
	}
	defer db.Close()

	reader := sqlite.NewDatabase(db, rc.RunID)

	meta, err := reader.GetRunMetadata()
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt replay: %v\n", err)
		return cli.ExitConfigOrFileError
	}
	total, err := reader.GetTotalIterations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt replay: %v\n", err)
		return cli.ExitConfigOrFileError
	}

	start, end := rc.Start, rc.End
	if start < 0 {
		start = 0
	}
	if end < 0 || end >= total {
		end = total - 1
	}

	fmt.Printf("Run %s (%s): state=%s converged=%v reason=%q, %d iteration(s) recorded\n",
		meta.RunID, meta.Name, meta.State, meta.Converged, meta.ConvergenceReason, total)

	for i := start; i <= end; i++ {
		costs, err := reader.GetIterationCosts(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "policyopt replay: iteration %d: %v\n", i, err)
			return 1
		}
		accepted, err := reader.GetIterationAcceptedChanges(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "policyopt replay: iteration %d: %v\n", i, err)
			return 1
		}

		fmt.Printf("\n--- iteration %d ---\n", i)
		for _, a := range accepted {
			status := "rejected"
			if a.Accepted {
				status = "accepted"
			}
			fmt.Printf("  %s: %s", a.AgentID, status)
			if a.Reason != "" {
				fmt.Printf(" (%s)", a.Reason)
			}
			fmt.Printf(" cost=%d\n", costs[a.AgentID])
		}

		if rc.Audit {
			events, err := reader.GetIterationEvents(i)
			if err != nil {
				fmt.Fprintf(os.Stderr, "policyopt replay: iteration %d: %v\n", i, err)
				return 1
			}
			for _, ev := range events {
				fmt.Printf("  [%d] %s %s\n", ev.Sequence, ev.EventType, ev.EventData)
			}
		}
	}
	return cli.ExitOK
}
