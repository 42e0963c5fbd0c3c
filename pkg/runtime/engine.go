package runtime

import (
	"log/slog"

	"github.com/Coding-Krakken/pel/pkg/ir"
	"github.com/Coding-Krakken/pel/pkg/kernel"
)

const maxFixedPointPasses = 8

const severityFatal = "fatal"

// Config is the runtime's configuration record (spec.md §4.6).
type Config struct {
	Mode        string
	Seed        int64
	NumRuns     int
	MaxRuns     int
	TimeHorizon *int
}

const (
	ModeDeterministic = "deterministic"
	ModeMonteCarlo    = "monte_carlo"
)

// Violation records a failed constraint evaluation.
type Violation struct {
	Timestep     int    `json:"timestep"`
	Constraint   string `json:"constraint"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
}

// PolicyExecution records one firing of a policy.
type PolicyExecution struct {
	Timestep int    `json:"timestep"`
	Policy   string `json:"policy"`
}

// Assumption records a param's provenance and (Monte Carlo only) its
// drawn value for one run (spec.md §6's "assumptions" result field).
type Assumption struct {
	Name       string   `json:"name"`
	Source     string   `json:"source"`
	Method     string   `json:"method"`
	Confidence float64  `json:"confidence"`
	Value      *float64 `json:"value,omitempty"`
}

// Result is one deterministic run's outcome (spec.md §6's result
// shape, minus the Monte-Carlo-only fields).
type Result struct {
	Status               string            `json:"status"`
	Mode                 string            `json:"mode"`
	Seed                  int64             `json:"seed"`
	Timesteps            int               `json:"timesteps"`
	Variables             map[string]interface{} `json:"variables"`
	ConstraintViolations []Violation       `json:"constraint_violations"`
	PolicyExecutions     []PolicyExecution `json:"policy_executions"`
	Assumptions          []Assumption      `json:"assumptions"`
	FailureReason        string            `json:"failure_reason,omitempty"`

	state *State
}

// Engine executes a compiled IR document (spec.md §4.6's "IR + config
// -> execution result" responsibility).
type Engine struct {
	doc *ir.Document
}

// NewEngine builds an Engine over a compiled document.
func NewEngine(doc *ir.Document) *Engine {
	return &Engine{doc: doc}
}

// Run dispatches to the deterministic or Monte-Carlo executor per
// cfg.Mode (spec.md §4.6), returning either a *Result or a
// *MonteCarloResult.
func (e *Engine) Run(cfg Config) (interface{}, error) {
	switch cfg.Mode {
	case ModeMonteCarlo:
		return e.RunMonteCarlo(cfg)
	default:
		return e.RunDeterministic(cfg, nil, false, nil), nil
	}
}

// RunDeterministic executes the deterministic inner loop once and
// records cfg.Seed in the result; it seeds no PRNG itself. When
// stochastic is true (Monte-Carlo's per-run call), distribution
// expressions draw from rng; otherwise they evaluate to their central
// tendencies (spec.md §4.6) and rng is never consulted.
// overrides lets a Monte-Carlo run supply pre-drawn param values
// (e.g. jointly sampled correlated normals) in place of re-evaluating
// a param's distribution expression.
func (e *Engine) RunDeterministic(cfg Config, overrides map[string]float64, stochastic bool, rng *kernel.DeterministicPRNG) *Result {
	state := NewState()
	timesteps := e.timesteps(cfg)

	result := &Result{
		Mode:      ModeDeterministic,
		Seed:      cfg.Seed,
		Timesteps: timesteps,
		state:     state,
	}

	log := slog.With("model", e.doc.Model.Name, "mode", cfg.Mode, "seed", cfg.Seed)
	log.Debug("run start", "timesteps", timesteps)

	e.initParams(state, result, overrides, stochastic, rng)

	varNodes := e.nodesByType("var")
	for t := 0; t < timesteps; t++ {
		state.SetScalar("t", float64(t))
		e.resolveTimestep(t, varNodes, state, stochastic, rng)

		if halted := e.evaluateConstraints(t, state, result); halted {
			result.Status = "failed"
			e.collectVariables(result, varNodes, timesteps)
			log.Warn("run failed", "timestep", t, "reason", result.FailureReason)
			return result
		}
		e.evaluatePolicies(t, state, result, stochastic, rng)
	}

	result.Status = "success"
	e.collectVariables(result, varNodes, timesteps)
	for _, w := range state.Warnings() {
		log.Warn("runtime warning", "detail", w)
	}
	log.Debug("run complete", "status", result.Status)
	return result
}

func (e *Engine) timesteps(cfg Config) int {
	if cfg.TimeHorizon != nil {
		return *cfg.TimeHorizon
	}
	if e.doc.Model.TimeHorizon != nil {
		return *e.doc.Model.TimeHorizon
	}
	return 1
}

func (e *Engine) nodesByType(nodeType string) []ir.Node {
	var out []ir.Node
	for _, n := range e.doc.Model.Nodes {
		if n.NodeType == nodeType {
			out = append(out, n)
		}
	}
	return out
}

// initParams evaluates every param's value expression once,
// deterministic-sampling mode, and records its provenance as an
// assumption (spec.md §4.6 step 1, §6's "assumptions" field).
func (e *Engine) initParams(state *State, result *Result, overrides map[string]float64, stochastic bool, rng *kernel.DeterministicPRNG) {
	ctx := &evalCtx{t: 0, state: state, stochastic: stochastic, rng: rng}
	for _, n := range e.nodesByType("param") {
		var value interface{} = 0.0
		if ov, ok := overrides[n.Name]; ok {
			value = ov
		} else if n.Value != nil {
			value = evalExpr(n.Value, ctx)
		}
		state.SetScalar(n.Name, value)

		a := Assumption{Name: n.Name}
		if n.Provenance != nil {
			if s, ok := n.Provenance["source"].(string); ok {
				a.Source = s
			}
			if m, ok := n.Provenance["method"].(string); ok {
				a.Method = m
			}
			if c, ok := n.Provenance["confidence"].(float64); ok {
				a.Confidence = c
			}
		}
		if stochastic {
			fv := asFloat(value)
			a.Value = &fv
		}
		result.Assumptions = append(result.Assumptions, a)
	}
}

// resolveTimestep evaluates every var's equation for the given
// timestep, iterating a bounded fixed-point to settle mutual
// dependencies within the timestep (spec.md §4.6 step 2b), then binds
// any `recurrence_next` equations into the following timestep.
func (e *Engine) resolveTimestep(t int, varNodes []ir.Node, state *State, stochastic bool, rng *kernel.DeterministicPRNG) {
	ctx := &evalCtx{t: t, state: state, stochastic: stochastic, rng: rng}
	for pass := 0; pass < maxFixedPointPasses; pass++ {
		changed := false
		for _, n := range varNodes {
			expr, ok := currentStepExpr(n, t)
			if !ok {
				if !state.HasSeriesAt(n.Name, t) {
					state.SetSeries(n.Name, t, 0)
				}
				continue
			}
			prev, had := state.series[n.Name][t]
			next := asFloat(evalExpr(expr, ctx))
			if !had || next != prev {
				changed = true
			}
			state.SetSeries(n.Name, t, next)
		}
		if !changed {
			e.applyRecurrenceNext(t, varNodes, state, ctx)
			return
		}
		if pass == maxFixedPointPasses-1 {
			state.warn("timestep %d: fixed-point iteration did not converge within %d passes", t, maxFixedPointPasses)
		}
	}
	e.applyRecurrenceNext(t, varNodes, state, ctx)
}

// applyRecurrenceNext evaluates every var's `recurrence_next` equation
// against the now-converged state for t and binds the result at t+1
// (spec.md §4.6: "recurrence_next binds the value for t+1"), once t's
// own values have settled rather than on every fixed-point pass.
func (e *Engine) applyRecurrenceNext(t int, varNodes []ir.Node, state *State, ctx *evalCtx) {
	for _, n := range varNodes {
		expr, ok := findEquation(n, ir.EquationRecurrenceNext)
		if !ok {
			continue
		}
		state.SetSeries(n.Name, t+1, asFloat(evalExpr(expr, ctx)))
	}
}

// currentStepExpr selects the expression that governs var n at
// timestep t: an `initial` equation only at t == 0, otherwise a
// `recurrence_current` equation, falling back to the var's single
// inline-declared value for vars with no grouped equations at all
// (spec.md §4.6).
func currentStepExpr(n ir.Node, t int) (map[string]interface{}, bool) {
	if len(n.Equations) == 0 {
		return n.Value, n.Value != nil
	}
	if t == 0 {
		if expr, ok := findEquation(n, ir.EquationInitial); ok {
			return expr, true
		}
	}
	return findEquation(n, ir.EquationRecurrenceCurrent)
}

// findEquation returns the first equation of the given kind attached
// to n, if any.
func findEquation(n ir.Node, kind string) (map[string]interface{}, bool) {
	for _, eq := range n.Equations {
		if eq.Kind == kind {
			return eq.Expr, true
		}
	}
	return nil, false
}

// evaluateConstraints evaluates every constraint in declaration order;
// a fatal violation halts execution (spec.md §4.6 step 2c). Returns
// true if execution must halt.
func (e *Engine) evaluateConstraints(t int, state *State, result *Result) bool {
	ctx := &evalCtx{t: t, state: state}
	for _, c := range e.doc.Model.Constraints {
		ok := e.evalConstraintCondition(c, ctx)
		if ok {
			continue
		}
		v := Violation{Timestep: t, Constraint: c.Name, Severity: c.Severity, Message: c.Message}
		result.ConstraintViolations = append(result.ConstraintViolations, v)
		if c.Severity == severityFatal {
			result.FailureReason = c.Name
			return true
		}
	}
	return false
}

// evalConstraintCondition evaluates a constraint's condition,
// swallowing any internal evaluation trouble so a malformed
// constraint cannot halt the whole run (spec.md §4.6: "Constraint
// evaluation catches unresolved-variable and type-mismatch errors
// internally... the constraint is treated as satisfied").
func (e *Engine) evalConstraintCondition(c ir.ConstraintDoc, ctx *evalCtx) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ctx.state.warn("constraint %q panicked during evaluation, treated as satisfied: %v", c.Name, r)
			ok = true
		}
	}()
	return asBool(evalExpr(c.Condition, ctx))
}

func (e *Engine) evaluatePolicies(t int, state *State, result *Result, stochastic bool, rng *kernel.DeterministicPRNG) {
	ctx := &evalCtx{t: t, state: state, stochastic: stochastic, rng: rng}
	for _, p := range e.doc.Model.Policies {
		if !asBool(evalExpr(p.Trigger, ctx)) {
			continue
		}
		execAction(p.Action, ctx)
		result.PolicyExecutions = append(result.PolicyExecutions, PolicyExecution{Timestep: t, Policy: p.Name})
	}
}

// execAction runs a lowered policy action (spec.md §4.6 step 2d):
// assign writes target in state, emit_event is recorded as a
// no-op side effect (events are not modeled as separate runtime
// state), block runs nested actions/statements sequentially.
func execAction(action map[string]interface{}, ctx *evalCtx) {
	switch action["action_type"] {
	case "assign":
		target := asExprMap(action["target"])
		value := evalExpr(asExprMap(action["value"]), ctx)
		assign(target, value, ctx)
	case "emit_event":
		// Recorded via PolicyExecution; event payload evaluation has no
		// further state effect in this runtime.
		args := asExprList(action["args"])
		for _, a := range args {
			evalExpr(asExprMap(a["value"]), ctx)
		}
	case "block":
		stmts := asExprList(action["statements"])
		for _, s := range stmts {
			execStmt(s, ctx)
		}
	case "expr":
		evalExpr(asExprMap(action["value"]), ctx)
	}
}

func (e *Engine) collectVariables(result *Result, varNodes []ir.Node, timesteps int) {
	result.Variables = make(map[string]interface{})
	for _, n := range varNodes {
		if result.state.HasSeries(n.Name) {
			result.Variables[n.Name] = result.state.AsTimeSeries(n.Name, timesteps)
		}
	}
	for _, n := range e.nodesByType("param") {
		if v, ok := result.state.GetScalar(n.Name); ok {
			result.Variables[n.Name] = v
		}
	}
}
