// Package provenance implements PEL's provenance checker (spec.md §4.4):
// every param must carry non-empty metadata recording where its value
// came from, and the checker scores how completely a model documents
// its inputs. The required/recommended-field validation here follows
// the same shape as the teacher's manifest.ValidateAndCanonicalizeToolArgs
// — required fields checked first, unknown/invalid values reported as
// typed, coded errors, the whole pass accumulating instead of aborting
// on the first miss — adapted from a tool-call argument schema to a
// parameter's provenance block.
package provenance

import (
	"fmt"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/errcode"
)

// validMethods is the closed enum spec.md §4.4 gives for the `method`
// field.
var validMethods = map[string]bool{
	"observed":          true,
	"fitted":            true,
	"derived":           true,
	"expert_estimate":   true,
	"external_research": true,
	"assumption":        true,
}

// requiredFields and recommendedFields drive both validation and the
// completeness score's denominator (spec.md §4.4: "params × (required +
// recommended count)").
var requiredFields = []string{"source", "method", "confidence"}
var recommendedFields = []string{"freshness", "owner"}

// Checker validates provenance blocks across a model and accumulates a
// completeness score alongside coded diagnostics.
type Checker struct {
	diagnostics errcode.Diagnostics

	presentFields int
	totalSlots    int
}

// NewChecker creates a provenance Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// CheckModel validates every param's provenance block and returns the
// accumulated diagnostics plus the model's completeness score in
// [0, 1]. A model with no params scores 0, since the denominator would
// otherwise be zero.
func (c *Checker) CheckModel(m *ast.Model) (*errcode.Diagnostics, float64) {
	for _, p := range m.Params {
		c.checkParam(p)
	}
	if c.totalSlots == 0 {
		return &c.diagnostics, 0
	}
	return &c.diagnostics, float64(c.presentFields) / float64(c.totalSlots)
}

func (c *Checker) checkParam(p *ast.ParamDecl) {
	c.totalSlots += len(requiredFields) + len(recommendedFields)

	if p.Provenance == nil {
		c.diagnostics.AddError(errcode.New(errcode.EProvenanceMissingBlock,
			fmt.Sprintf("param %q has no provenance block", p.Name)).
			At(p.Loc).
			WithHint("every param must carry source, method, and confidence").
			Build())
		return
	}
	prov := p.Provenance

	for _, field := range requiredFields {
		if !prov.FieldsPresent[field] {
			c.diagnostics.AddError(errcode.New(errcode.EProvenanceMissingField,
				fmt.Sprintf("param %q provenance is missing required field %q", p.Name, field)).
				At(prov.Loc).Build())
			continue
		}
		c.presentFields++
	}
	for _, field := range recommendedFields {
		if prov.FieldsPresent[field] {
			c.presentFields++
		}
	}

	if prov.FieldsPresent["source"] && prov.Source == "" {
		c.diagnostics.AddError(errcode.New(errcode.EProvenanceMissingField,
			fmt.Sprintf("param %q provenance field \"source\" must be non-empty", p.Name)).
			At(prov.Loc).Build())
	}
	if prov.FieldsPresent["method"] && !validMethods[prov.Method] {
		c.diagnostics.AddError(errcode.New(errcode.EProvenanceMissingField,
			fmt.Sprintf("param %q provenance field \"method\" %q is not a recognized method", p.Name, prov.Method)).
			At(prov.Loc).
			WithHint("method must be one of: observed, fitted, derived, expert_estimate, external_research, assumption").
			Build())
	}
	if prov.FieldsPresent["confidence"] {
		if !prov.HasConfidence || prov.Confidence < 0 || prov.Confidence > 1 {
			c.diagnostics.AddError(errcode.New(errcode.EProvenanceInvalidConfid,
				fmt.Sprintf("param %q provenance field \"confidence\" must be a number in [0, 1]", p.Name)).
				At(prov.Loc).Build())
		}
	}
}
