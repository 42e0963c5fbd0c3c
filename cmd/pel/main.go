// Command pel is the PEL compiler and runtime CLI (spec.md §6's
// "documented for completeness" CLI surface): `pel compile` drives
// pkg/compiler.Compile, `pel run` drives pkg/runtime.Engine. Grounded
// on the pack's cobra root-command wiring (codeNERD's cmd/nerd/main.go:
// a package-level rootCmd, subcommands registered in init(), persistent
// flags on the root).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Coding-Krakken/pel/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "pel",
	Short: "Programmable Economic Language compiler and runtime",
	Long: `pel compiles .pel source into a canonical JSON intermediate
representation and executes that IR over a time horizon, either
deterministically or via Monte Carlo sampling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(compileCmd, runCmd, checkCmd)
}

func main() {
	cfg := config.Load()
	slog.SetLogLoggerLevel(cfg.SlogLevel())
	os.Exit(run())
}

// run executes the root command and maps a returned error to spec.md
// §6's exit codes: 0 success, 1 compiler error, 2 internal error.
func run() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if ce, ok := err.(*cliError); ok {
		if ce.msg != "" {
			fmt.Fprintln(os.Stderr, ce.msg)
		}
		return ce.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 2
}

// cliError carries an explicit exit code alongside an already-rendered
// message, so subcommands can distinguish a compiler-reported error
// (exit 1) from an internal one (exit 2) per spec.md §6.
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

func compilerError(msg string) error { return &cliError{code: 1, msg: msg} }
func internalError(err error) error  { return &cliError{code: 2, msg: err.Error()} }
