// Package ir lowers a typed PEL AST into the JSON intermediate
// representation and computes its deterministic content hash
// (spec.md §4.5). Canonicalization reuses the teacher's
// pkg/canonicalize.JCS (RFC 8785 JSON Canonicalization Scheme) exactly
// as spec.md §4.5's "serialize with keys sorted... compute SHA-256"
// rule describes, and node numbering follows rir.Node.ID's
// monotonic-counter convention.
package ir

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/canonicalize"
)

// DocumentVersion is the IR schema version emitted in every document's
// top-level "version" field (spec.md §4.5's worked example).
const DocumentVersion = "0.1.0"

// Document is the top-level JSON IR document (spec.md §4, worked
// example).
type Document struct {
	Version  string   `json:"version"`
	Model    ModelDoc `json:"model"`
	Metadata Metadata `json:"metadata"`
}

// ModelDoc is the IR's "model" sub-document — the part that is
// canonicalized and hashed into Metadata.ModelHash.
type ModelDoc struct {
	Name        string          `json:"name"`
	TimeHorizon *int            `json:"time_horizon,omitempty"`
	TimeUnit    string          `json:"time_unit"`
	Nodes       []Node          `json:"nodes"`
	Constraints []ConstraintDoc `json:"constraints"`
	Policies    []PolicyDoc     `json:"policies"`
}

// Node is one param or var, lowered to its IR record (spec.md §4.5).
type Node struct {
	NodeID         string                 `json:"node_id"`
	NodeType       string                 `json:"node_type"`
	Name           string                 `json:"name"`
	TypeAnnotation map[string]interface{} `json:"type_annotation"`
	Value          map[string]interface{} `json:"value,omitempty"`
	Equations      []Equation             `json:"equations,omitempty"`
	Provenance     map[string]interface{} `json:"provenance,omitempty"`
	Dependencies   []string               `json:"dependencies"`
}

// Equation is one free top-level assignment statement lowered and
// attached to the var node it targets, grouped by the equation-type
// classification spec.md §4.6 describes: a var's time-series equations
// (`name[0] = ...`, `name[t] = ...`, `name[t+1] = ...`) are kept
// separate so the runtime can tell which timestep each applies to
// instead of re-evaluating one blended expression every step.
type Equation struct {
	Kind string                 `json:"kind"`
	Expr map[string]interface{} `json:"expr"`
}

// Equation kinds (spec.md §4.6): the index shape of the assignment's
// target determines which one a free statement lowers to.
const (
	EquationInitial           = "initial"
	EquationRecurrenceCurrent = "recurrence_current"
	EquationRecurrenceNext    = "recurrence_next"
)

// ConstraintDoc is one constraint, lowered with a stable `const_<NAME>`
// identifier (spec.md §4.5).
type ConstraintDoc struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Condition map[string]interface{} `json:"condition"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Scope     map[string]interface{} `json:"scope,omitempty"`
}

// PolicyDoc is one policy, lowered with a stable `policy_<NAME>`
// identifier (spec.md §4.5).
type PolicyDoc struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Trigger map[string]interface{} `json:"trigger"`
	Action  map[string]interface{} `json:"action"`
}

// Metadata is the IR's non-canonicalized envelope: the hash of the
// model sub-document plus compilation provenance (spec.md §4.5).
type Metadata struct {
	ModelHash       string `json:"model_hash"`
	CompiledAt      string `json:"compiled_at"`
	CompilerVersion string `json:"compiler_version"`
	SourceFile      string `json:"source_file"`
}

// Generate lowers a checked AST Model into a Document. compilerVersion
// must be a valid semver string (spec.md names "compiler_version" as a
// version field; this validates it the way the teacher's
// pkg/trust/pack_loader.go / pkg/pack/matrix.go gate on
// semver.Constraints, rather than accepting any string).
func Generate(m *ast.Model, sourceFile, compilerVersion string, compiledAt time.Time) (*Document, error) {
	if _, err := semver.NewVersion(compilerVersion); err != nil {
		return nil, fmt.Errorf("ir: invalid compiler_version %q: %w", compilerVersion, err)
	}

	g := &nodeGen{}
	model := ModelDoc{
		Name:        m.Name,
		TimeHorizon: m.TimeHorizon,
		TimeUnit:    m.TimeUnit,
		Nodes:       []Node{},
		Constraints: []ConstraintDoc{},
		Policies:    []PolicyDoc{},
	}

	for _, p := range m.Params {
		model.Nodes = append(model.Nodes, g.lowerParam(p))
	}
	varIndex := make(map[string]int, len(m.Vars))
	for _, v := range m.Vars {
		varIndex[v.Name] = len(model.Nodes)
		model.Nodes = append(model.Nodes, g.lowerVar(v))
	}
	attachFreeEquations(model.Nodes, varIndex, m.Statements)
	for _, c := range m.Constraints {
		model.Constraints = append(model.Constraints, lowerConstraint(c))
	}
	for _, pol := range m.Policies {
		model.Policies = append(model.Policies, lowerPolicy(pol))
	}

	modelHashBytes, err := canonicalize.JCS(model)
	if err != nil {
		return nil, fmt.Errorf("ir: canonicalizing model: %w", err)
	}

	doc := &Document{
		Version: DocumentVersion,
		Model:   model,
		Metadata: Metadata{
			ModelHash:       "sha256:" + canonicalize.HashBytes(modelHashBytes),
			CompiledAt:      compiledAt.UTC().Format("2006-01-02T15:04:05Z"),
			CompilerVersion: compilerVersion,
			SourceFile:      sourceFile,
		},
	}
	return doc, nil
}

// nodeGen assigns node_ids from a single monotonically increasing
// counter shared across params and vars, in emission order (params
// first, then vars), per spec.md §4.5's "monotonically increasing
// counter" — the spec names no separate counter per node type.
type nodeGen struct {
	counter int
}

func (g *nodeGen) next() int {
	g.counter++
	return g.counter
}

func (g *nodeGen) lowerParam(p *ast.ParamDecl) Node {
	n := Node{
		NodeID:         fmt.Sprintf("param_%d", g.next()),
		NodeType:       "param",
		Name:           p.Name,
		TypeAnnotation: lowerTypeAnnotation(p.Type),
		Dependencies:   []string{},
	}
	if p.Value != nil {
		n.Value = lowerExpr(p.Value)
		n.Dependencies = collectDependencies(p.Value)
	}
	if p.Provenance != nil {
		n.Provenance = lowerProvenance(p.Provenance)
	}
	return n
}

func (g *nodeGen) lowerVar(v *ast.VarDecl) Node {
	n := Node{
		NodeID:       fmt.Sprintf("var_%d", g.next()),
		NodeType:     "var",
		Name:         v.Name,
		Dependencies: []string{},
	}
	if v.Type != nil {
		n.TypeAnnotation = lowerTypeAnnotation(*v.Type)
	} else {
		n.TypeAnnotation = map[string]interface{}{"kind": "inferred"}
	}
	if v.Value != nil {
		n.Value = lowerExpr(v.Value)
		n.Dependencies = collectDependencies(v.Value)
	}
	return n
}

func lowerConstraint(c *ast.ConstraintDecl) ConstraintDoc {
	doc := ConstraintDoc{
		ID:        "const_" + c.Name,
		Name:      c.Name,
		Condition: lowerExpr(c.Condition),
		Severity:  string(c.Severity),
	}
	if c.Message != nil {
		doc.Message = *c.Message
	}
	if c.Scope != nil {
		doc.Scope = lowerScope(c.Scope)
	}
	return doc
}

func lowerPolicy(p *ast.PolicyDecl) PolicyDoc {
	return PolicyDoc{
		ID:      "policy_" + p.Name,
		Name:    p.Name,
		Trigger: lowerExpr(p.Trigger),
		Action:  lowerPolicyAction(p.Action),
	}
}

func lowerScope(s ast.Scope) map[string]interface{} {
	switch sc := s.(type) {
	case ast.ScopeLiteral:
		return map[string]interface{}{"scope_type": "literal", "value": sc.Value}
	case ast.ScopeExpr:
		return map[string]interface{}{"scope_type": "expr", "expr": lowerExpr(sc.Expr)}
	default:
		return map[string]interface{}{"scope_type": "unknown"}
	}
}

func lowerPolicyAction(a ast.PolicyAction) map[string]interface{} {
	switch action := a.(type) {
	case ast.AssignAction:
		return map[string]interface{}{
			"action_type": "assign",
			"target":      lowerExpr(action.Target),
			"value":       lowerExpr(action.Value),
		}
	case ast.EmitEventAction:
		args := make([]map[string]interface{}, 0, len(action.Args))
		for _, a := range action.Args {
			args = append(args, map[string]interface{}{"name": a.Name, "value": lowerExpr(a.Value)})
		}
		return map[string]interface{}{
			"action_type": "emit_event",
			"name":        action.Name,
			"args":        args,
		}
	case ast.BlockAction:
		stmts := make([]map[string]interface{}, 0, len(action.Statements))
		for _, s := range action.Statements {
			stmts = append(stmts, lowerStmt(s))
		}
		return map[string]interface{}{"action_type": "block", "statements": stmts}
	case ast.ExprAction:
		return map[string]interface{}{"action_type": "expr", "value": lowerExpr(action.Value)}
	default:
		return map[string]interface{}{"action_type": "unknown"}
	}
}

func lowerTypeAnnotation(t ast.TypeAnnotation) map[string]interface{} {
	out := map[string]interface{}{"kind": string(t.Kind)}
	if t.CurrencyCode != "" {
		out["currency_code"] = t.CurrencyCode
	}
	if t.PerTimeUnit != "" {
		out["per_time_unit"] = t.PerTimeUnit
	}
	if t.Entity != "" {
		out["entity"] = t.Entity
	}
	if t.Name != "" {
		out["name"] = t.Name
	}
	if t.Inner != nil {
		out["inner"] = lowerTypeAnnotation(*t.Inner)
	}
	return out
}

func lowerProvenance(p *ast.Provenance) map[string]interface{} {
	out := map[string]interface{}{
		"source": p.Source,
		"method": p.Method,
	}
	if p.HasConfidence {
		out["confidence"] = p.Confidence
	}
	if p.Freshness != nil {
		out["freshness"] = *p.Freshness
	}
	if p.Owner != nil {
		out["owner"] = *p.Owner
	}
	if p.Notes != nil {
		out["notes"] = *p.Notes
	}
	if len(p.CorrelatedWith) > 0 {
		corrs := make([]map[string]interface{}, 0, len(p.CorrelatedWith))
		for _, c := range p.CorrelatedWith {
			corrs = append(corrs, map[string]interface{}{"name": c.Name, "coefficient": c.Coefficient})
		}
		out["correlated_with"] = corrs
	}
	return out
}
