package provenance_test

import (
	"testing"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/errcode"
	"github.com/Coding-Krakken/pel/pkg/provenance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramWithProvenance(prov *ast.Provenance) *ast.ParamDecl {
	return &ast.ParamDecl{Name: "cac", Provenance: prov}
}

func TestCheckModel_MissingBlock(t *testing.T) {
	m := &ast.Model{Params: []*ast.ParamDecl{paramWithProvenance(nil)}}
	c := provenance.NewChecker()
	diags, score := c.CheckModel(m)
	require.True(t, diags.HasErrors())
	assert.Equal(t, errcode.EProvenanceMissingBlock, diags.Errors[0].Code)
	assert.Equal(t, 0.0, score)
}

func TestCheckModel_AllRequiredPresentNoRecommended(t *testing.T) {
	m := &ast.Model{Params: []*ast.ParamDecl{paramWithProvenance(&ast.Provenance{
		Source:        "finance",
		Method:        "observed",
		Confidence:    0.9,
		HasConfidence: true,
		FieldsPresent: map[string]bool{"source": true, "method": true, "confidence": true},
	})}}
	c := provenance.NewChecker()
	diags, score := c.CheckModel(m)
	assert.False(t, diags.HasErrors())
	assert.InDelta(t, 3.0/5.0, score, 1e-9)
}

func TestCheckModel_FullCompleteness(t *testing.T) {
	freshness := "2026-01-01"
	owner := "growth-team"
	m := &ast.Model{Params: []*ast.ParamDecl{paramWithProvenance(&ast.Provenance{
		Source:        "finance",
		Method:        "fitted",
		Confidence:    0.75,
		HasConfidence: true,
		Freshness:     &freshness,
		Owner:         &owner,
		FieldsPresent: map[string]bool{
			"source": true, "method": true, "confidence": true,
			"freshness": true, "owner": true,
		},
	})}}
	c := provenance.NewChecker()
	diags, score := c.CheckModel(m)
	assert.False(t, diags.HasErrors())
	assert.Equal(t, 1.0, score)
}

func TestCheckModel_MissingRequiredField(t *testing.T) {
	m := &ast.Model{Params: []*ast.ParamDecl{paramWithProvenance(&ast.Provenance{
		Method:        "observed",
		Confidence:    0.9,
		HasConfidence: true,
		FieldsPresent: map[string]bool{"method": true, "confidence": true},
	})}}
	c := provenance.NewChecker()
	diags, _ := c.CheckModel(m)
	require.True(t, diags.HasErrors())
	assert.Equal(t, errcode.EProvenanceMissingField, diags.Errors[0].Code)
}

func TestCheckModel_InvalidConfidence(t *testing.T) {
	m := &ast.Model{Params: []*ast.ParamDecl{paramWithProvenance(&ast.Provenance{
		Source:        "finance",
		Method:        "observed",
		Confidence:    1.5,
		HasConfidence: true,
		FieldsPresent: map[string]bool{"source": true, "method": true, "confidence": true},
	})}}
	c := provenance.NewChecker()
	diags, _ := c.CheckModel(m)
	require.True(t, diags.HasErrors())
	found := false
	for _, e := range diags.Errors {
		if e.Code == errcode.EProvenanceInvalidConfid {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckModel_InvalidMethodValue(t *testing.T) {
	m := &ast.Model{Params: []*ast.ParamDecl{paramWithProvenance(&ast.Provenance{
		Source:        "finance",
		Method:        "vibes",
		Confidence:    0.5,
		HasConfidence: true,
		FieldsPresent: map[string]bool{"source": true, "method": true, "confidence": true},
	})}}
	c := provenance.NewChecker()
	diags, _ := c.CheckModel(m)
	require.True(t, diags.HasErrors())
}

func TestCheckModel_NoParamsScoresZero(t *testing.T) {
	m := &ast.Model{}
	c := provenance.NewChecker()
	diags, score := c.CheckModel(m)
	assert.False(t, diags.HasErrors())
	assert.Equal(t, 0.0, score)
}
