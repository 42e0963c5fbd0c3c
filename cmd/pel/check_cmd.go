package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Coding-Krakken/pel/pkg/compiler"
)

// checkCmd validates a model without emitting IR, grounded on the
// original reference CLI's `check` subcommand: run the full checker
// pipeline and report type/provenance completeness, but never write an
// IR document even on success.
var checkCmd = &cobra.Command{
	Use:   "check <src.pel>",
	Short: "Validate a .pel source file without compiling it to IR",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	srcPath := args[0]
	log, _ := invocationLogger("check")
	log.Info("checking", "source", srcPath)

	src, err := os.ReadFile(srcPath)
	if err != nil {
		return internalError(err)
	}

	res, err := compiler.Compile(string(src), srcPath, compiler.Options{Force: true})
	if err != nil {
		return internalError(err)
	}

	errCount, warnCount := len(res.Diagnostics.Errors), len(res.Diagnostics.Warnings)
	if res.Doc != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "model %q is valid\n", res.Doc.Model.Name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  errors: %d\n  warnings: %d\n  provenance completeness: %.1f%%\n",
		errCount, warnCount, res.ProvenanceScore*100)

	if errCount > 0 {
		cmd.PrintErrln(res.Diagnostics.RenderAll())
		log.Warn("check failed", "error_count", errCount)
		return compilerError("")
	}
	log.Info("check passed", "provenance_score", res.ProvenanceScore)
	return nil
}
