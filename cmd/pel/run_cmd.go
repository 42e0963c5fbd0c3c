package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/Coding-Krakken/pel/pkg/ir"
	"github.com/Coding-Krakken/pel/pkg/runtime"
)

var (
	runMode        string
	runSeed        int64
	runNumRuns     int
	runMaxRuns     int
	runTimeHorizon int
	runOut         string
)

var runCmd = &cobra.Command{
	Use:   "run <ir.json>",
	Short: "Execute a compiled IR document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", runtime.ModeDeterministic, "deterministic or monte_carlo")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "base seed")
	runCmd.Flags().IntVar(&runNumRuns, "runs", 1, "number of Monte Carlo runs")
	runCmd.Flags().IntVar(&runMaxRuns, "max-runs", 0, "cap on Monte Carlo runs (0 = unbounded)")
	runCmd.Flags().IntVar(&runTimeHorizon, "time-horizon", 0, "override the model's time horizon (0 = use the model's)")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "write the result JSON to this path instead of stdout")
}

func runRun(cmd *cobra.Command, args []string) error {
	log, _ := invocationLogger("run")
	log.Info("running", "ir_path", args[0], "mode", runMode, "seed", runSeed)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return internalError(err)
	}

	var doc ir.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return internalError(err)
	}

	cfg := runtime.Config{
		Mode:    runMode,
		Seed:    runSeed,
		NumRuns: runNumRuns,
		MaxRuns: runMaxRuns,
	}
	if runTimeHorizon > 0 {
		cfg.TimeHorizon = &runTimeHorizon
	}

	engine := runtime.NewEngine(&doc)
	result, err := engine.Run(cfg)
	if err != nil {
		log.Error("run failed", "error", err)
		return compilerError(err.Error())
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return internalError(err)
	}

	log.Info("run complete", "mode", cfg.Mode)

	if runOut == "" {
		cmd.OutOrStdout().Write(out)
		cmd.OutOrStdout().Write([]byte("\n"))
		return nil
	}
	if err := os.WriteFile(runOut, append(out, '\n'), 0o644); err != nil {
		return internalError(err)
	}
	return nil
}
