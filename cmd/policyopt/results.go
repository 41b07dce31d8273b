package main

import (
	"fmt"
	"os"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	"github.com/lookatitude/policyopt/state/sqlite"
)

func resultsCmd(args []string) int {
	rc, err := cli.ParseResults(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt results: %v\n", err)
		cli.PrintResultsHelp()
		return cli.ExitConfigOrFileError
	}

	db, err := sqlite.Open(rc.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt results: %v\n", err)
		return cli.ExitConfigOrFileError
	}
	defer db.Close()

	runs, err := sqlite.ListRuns(db, rc.Experiment, rc.Limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt results: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return cli.ExitOK
	}

	fmt.Printf("%-36s  %-20s  %-14s  %-9s  %s\n", "RUN_ID", "NAME", "STATE", "CONVERGED", "REASON")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-14s  %-9v  %s\n", r.RunID, r.Name, r.State, r.Converged, r.ConvergenceReason)
	}
	return cli.ExitOK
}
