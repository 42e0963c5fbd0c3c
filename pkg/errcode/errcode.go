// Package errcode implements PEL's coded diagnostic model (spec §4.7).
//
// Every compiler-stage failure is a Diagnostic carrying a stable Exxxx
// code, a human message, an optional source location, and an optional
// hint. Diagnostics accumulate per stage instead of aborting eagerly, so
// a driver can report every error from a stage at once.
package errcode

import (
	"fmt"
	"strings"
)

// Code is a stable diagnostic identifier, e.g. "E0200".
type Code string

// Lexical errors.
const (
	ELexUnexpectedChar  Code = "E0001"
	ELexMalformedNumber Code = "E0002"
	ELexUnterminatedStr Code = "E0003"
)

// Type / undefined-variable errors.
const (
	ETypeUndefinedVariable Code = "E0101"
	ETypeMismatch          Code = "E0102"
)

// Dimensional / currency / rate-unit errors.
const (
	EDimMismatch      Code = "E0200"
	ECurrencyMismatch Code = "E0201"
	ERateUnitMismatch Code = "E0202"
)

// Causality errors.
const (
	ECausalityFutureRef Code = "E0300"
	ECausalityCycle     Code = "E0301"
)

// Provenance errors.
const (
	EProvenanceMissingBlock   Code = "E0400"
	EProvenanceMissingField   Code = "E0401"
	EProvenanceInvalidConfid  Code = "E0402"
)

// Constraint errors.
const (
	EConstraintInvalidCondition Code = "E0500"
	EConstraintContradiction    Code = "E0501"
)

// Distribution errors.
const (
	EDistInvalidParameter  Code = "E0600"
	EDistInvalidCorrelation Code = "E0601"
	EDistNonPSDMatrix      Code = "E0602"
)

// Parser errors.
const (
	EParseUnexpectedToken Code = "E0700"
	EParseGeneric         Code = "E0701"
)

// Internal compiler error.
const EInternal Code = "E9999"

// Location is a 1-based source position, attached to every token and
// every diagnostic raised against it.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

// Diagnostic is one coded compiler message.
type Diagnostic struct {
	Code     Code
	Message  string
	Location Location
	Hint     string
}

func (d Diagnostic) Error() string {
	return d.Render()
}

// Render produces the rendered form from spec §4.7:
//
//	--> FILE:LINE:COL
//	error[EXXXX]: <message>
//	  = hint: <hint>
func (d Diagnostic) Render() string {
	var b strings.Builder
	if !d.Location.IsZero() {
		fmt.Fprintf(&b, "--> %s\n", d.Location)
	}
	fmt.Fprintf(&b, "error[%s]: %s", d.Code, d.Message)
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  = hint: %s", d.Hint)
	}
	return b.String()
}

// DiagnosticBuilder provides a fluent interface for building a Diagnostic,
// mirroring the teacher's ErrorIRBuilder (pkg/kernel.ErrorIRBuilder)
// adapted from HELM's URN error codes to PEL's Exxxx numeric codes.
type DiagnosticBuilder struct {
	d Diagnostic
}

// New starts building a diagnostic for the given code.
func New(code Code, message string) *DiagnosticBuilder {
	return &DiagnosticBuilder{d: Diagnostic{Code: code, Message: message}}
}

// At attaches a source location.
func (b *DiagnosticBuilder) At(loc Location) *DiagnosticBuilder {
	b.d.Location = loc
	return b
}

// WithHint attaches a remediation hint.
func (b *DiagnosticBuilder) WithHint(hint string) *DiagnosticBuilder {
	b.d.Hint = hint
	return b
}

// Build returns the constructed Diagnostic.
func (b *DiagnosticBuilder) Build() Diagnostic {
	return b.d
}

// Err is a convenience: Build() as an error.
func (b *DiagnosticBuilder) Err() error {
	return b.d
}

// Diagnostics accumulates errors and warnings across a compiler stage,
// the way the teacher's CompilerMetrics / conform.Report accumulate
// structured findings without aborting mid-stage.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// AddError records a fatal diagnostic.
func (d *Diagnostics) AddError(diag Diagnostic) {
	d.Errors = append(d.Errors, diag)
}

// AddWarning records a non-fatal diagnostic.
func (d *Diagnostics) AddWarning(diag Diagnostic) {
	d.Warnings = append(d.Warnings, diag)
}

// HasErrors reports whether any fatal diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// First returns the first accumulated error, so a driver can abort a
// stage by raising it, per spec §4.3's "check(model) raises the first
// accumulated error".
func (d *Diagnostics) First() error {
	if len(d.Errors) == 0 {
		return nil
	}
	return d.Errors[0]
}

// Merge appends another Diagnostics' errors and warnings into d.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// RenderAll renders every error, one per line group, as spec §6 requires
// for standard-error output.
func (d *Diagnostics) RenderAll() string {
	var b strings.Builder
	for i, e := range d.Errors {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(e.Render())
	}
	return b.String()
}
