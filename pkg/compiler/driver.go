// Package compiler drives the five compilation stages in order (spec
// §2: "a driver invokes the five compilation stages in order, aborting
// on the first stage to report errors"). Grounded on the teacher's
// pkg/prg.Compiler (NewCompiler()/Compile(...)) staged-construction
// discipline, generalized from one stage to five.
package compiler

import (
	"log/slog"
	"time"

	"github.com/Coding-Krakken/pel/pkg/errcode"
	"github.com/Coding-Krakken/pel/pkg/ir"
	"github.com/Coding-Krakken/pel/pkg/lexer"
	"github.com/Coding-Krakken/pel/pkg/parser"
	"github.com/Coding-Krakken/pel/pkg/provenance"
	"github.com/Coding-Krakken/pel/pkg/types"
)

// Options configures a Compile call.
type Options struct {
	// Force, when set, emits IR even if the type checker or provenance
	// checker recorded errors (spec §2's "unless force is set, in which
	// case IR is still emitted").
	Force bool

	// CompilerVersion stamps ir.Document.Metadata.CompilerVersion; must
	// be a valid semver string.
	CompilerVersion string

	// CompiledAt stamps ir.Document.Metadata.CompiledAt. The zero Time
	// is replaced with time.Now() by Compile.
	CompiledAt time.Time
}

// Result is the outcome of a Compile call: the emitted IR document (nil
// unless emission happened), the accumulated diagnostics from every
// stage that ran, and the provenance completeness score (spec §4.4;
// zero if the provenance stage never ran).
type Result struct {
	Doc             *ir.Document
	Diagnostics     *errcode.Diagnostics
	ProvenanceScore float64
}

// Compile runs lexer -> parser -> type checker -> provenance checker ->
// IR generator over source, in order. The lexer and parser each raise a
// single diagnostic and abort immediately on the first malformed token
// or construct (spec §4.1/§4.2 give no "keep scanning past a lex error"
// recovery); the type and provenance checkers each accumulate every
// diagnostic found in their stage before the driver inspects the
// result. Compile aborts after the first stage with errors unless
// opts.Force is set, in which case it continues through IR generation
// regardless (spec §2).
func Compile(source, filename string, opts Options) (*Result, error) {
	log := slog.With("source_file", filename)
	diags := &errcode.Diagnostics{}
	result := &Result{Diagnostics: diags}

	log.Debug("stage start", "stage", "lex")
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		diags.AddError(toDiagnostic(err))
		log.Warn("stage aborted", "stage", "lex", "error", err)
		return result, nil
	}

	log.Debug("stage start", "stage", "parse", "token_count", len(tokens))
	model, err := parser.Parse(tokens)
	if err != nil {
		diags.AddError(toDiagnostic(err))
		log.Warn("stage aborted", "stage", "parse", "error", err)
		return result, nil
	}

	log.Debug("stage start", "stage", "typecheck", "model", model.Name)
	typeDiags := types.NewChecker().CheckModel(model)
	diags.Merge(typeDiags)
	if diags.HasErrors() && !opts.Force {
		log.Warn("stage aborted", "stage", "typecheck", "error_count", len(diags.Errors))
		return result, nil
	}

	log.Debug("stage start", "stage", "provenance")
	provDiags, score := provenance.NewChecker().CheckModel(model)
	diags.Merge(provDiags)
	result.ProvenanceScore = score
	if diags.HasErrors() && !opts.Force {
		log.Warn("stage aborted", "stage", "provenance", "error_count", len(diags.Errors))
		return result, nil
	}

	compiledAt := opts.CompiledAt
	if compiledAt.IsZero() {
		compiledAt = time.Now()
	}
	version := opts.CompilerVersion
	if version == "" {
		version = ir.DocumentVersion
	}

	log.Debug("stage start", "stage", "ir_generate", "compiler_version", version)
	doc, err := ir.Generate(model, filename, version, compiledAt)
	if err != nil {
		log.Error("stage failed", "stage", "ir_generate", "error", err)
		return result, err
	}
	result.Doc = doc
	log.Info("compiled", "model", doc.Model.Name, "model_hash", doc.Metadata.ModelHash,
		"error_count", len(diags.Errors), "warning_count", len(diags.Warnings))
	return result, nil
}

// toDiagnostic extracts the errcode.Diagnostic a lexer/parser error
// wraps, falling back to a generic internal-error diagnostic for
// anything that doesn't (which should not occur given lexer.Tokenize
// and parser.Parse's documented error shapes, but the driver must never
// panic on a stage's error value).
func toDiagnostic(err error) errcode.Diagnostic {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if d, ok := u.Unwrap().(errcode.Diagnostic); ok {
			return d
		}
	}
	if d, ok := err.(errcode.Diagnostic); ok {
		return d
	}
	return errcode.New(errcode.EInternal, err.Error()).Build()
}
