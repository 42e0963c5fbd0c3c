package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Coding-Krakken/pel/pkg/canonicalize"
	"github.com/Coding-Krakken/pel/pkg/compiler"
)

var (
	compileOut   string
	compileForce bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <src.pel>",
	Short: "Compile a .pel source file to IR JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "", "write IR JSON to this path instead of stdout")
	compileCmd.Flags().BoolVar(&compileForce, "force", false, "emit IR even if the checker stages report errors")
}

func runCompile(cmd *cobra.Command, args []string) error {
	srcPath := args[0]
	log, _ := invocationLogger("compile")
	log.Info("compiling", "source", srcPath)

	src, err := os.ReadFile(srcPath)
	if err != nil {
		return internalError(err)
	}

	res, err := compiler.Compile(string(src), srcPath, compiler.Options{
		Force:      compileForce,
		CompiledAt: time.Now(),
	})
	if err != nil {
		return internalError(err)
	}

	if res.Diagnostics.HasErrors() {
		if res.Doc == nil {
			log.Error("compile failed", "error_count", len(res.Diagnostics.Errors))
			return compilerError(res.Diagnostics.RenderAll())
		}
		// Force was set: still emit IR, but surface the errors so the
		// caller knows the model didn't fully check out.
		log.Warn("compiling with pending errors (--force)", "error_count", len(res.Diagnostics.Errors))
		cmd.PrintErrln(res.Diagnostics.RenderAll())
	}

	out, err := canonicalize.JCS(res.Doc)
	if err != nil {
		return internalError(err)
	}

	log.Info("compiled", "model_hash", res.Doc.Metadata.ModelHash)

	if compileOut == "" {
		cmd.OutOrStdout().Write(out)
		cmd.OutOrStdout().Write([]byte("\n"))
		return nil
	}
	if err := os.WriteFile(compileOut, append(out, '\n'), 0o644); err != nil {
		return internalError(err)
	}
	return nil
}
