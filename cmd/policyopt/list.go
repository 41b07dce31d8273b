package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lookatitude/policyopt/cmd/policyopt/internal/cli"
	"github.com/lookatitude/policyopt/config"
)

func listCmd(args []string) int {
	dir := "."
	if len(args) >= 1 {
		dir = args[0]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policyopt list: %v\n", err)
		return cli.ExitConfigOrFileError
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(e.Name())); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		fmt.Printf("no experiment YAML files found in %s\n", dir)
		return cli.ExitOK
	}

	for _, p := range paths {
		cfg, err := config.LoadExperiment(p)
		if err != nil {
			fmt.Printf("%s\tINVALID (%v)\n", p, err)
			continue
		}
		fmt.Printf("%s\t%s\t%d agent(s)\t%s\n", p, cfg.Name, len(cfg.OptimizedAgents), cfg.Evaluation.Mode)
	}
	return cli.ExitOK
}
