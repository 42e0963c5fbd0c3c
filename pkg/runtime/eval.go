package runtime

import (
	"math"

	"github.com/Coding-Krakken/pel/pkg/kernel"
)

// evalCtx carries the pieces an expression evaluation needs: current
// timestep, mutable state, and (Monte Carlo only) a deterministic PRNG
// for distribution sampling (spec.md §4.6).
type evalCtx struct {
	t          int
	state      *State
	stochastic bool
	rng        *kernel.DeterministicPRNG
}

// evalExpr evaluates one lowered IR expression (a map tagged with
// "expr_type", per pkg/ir's lower.go) against the current run state.
// Runtime internal errors (unexpected/unknown expr_type) are not
// fatal: they record a warning and fall back to 0, per spec.md §7's
// "defensive behavior" directive.
func evalExpr(e map[string]interface{}, ctx *evalCtx) interface{} {
	if e == nil {
		return 0.0
	}
	switch e["expr_type"] {
	case "NumberLit", "PercentageLit", "CurrencyLit", "DurationLit":
		return asFloat(e["value"])
	case "StringLit":
		return e["value"]
	case "BoolLit":
		return e["value"]
	case "Identifier":
		name, _ := e["name"].(string)
		return ctx.state.SeriesOrScalar(name, ctx.t)
	case "UnaryExpr":
		return evalUnary(e, ctx)
	case "BinaryExpr":
		return evalBinary(e, ctx)
	case "IndexExpr":
		return evalIndex(e, ctx)
	case "CallExpr":
		return evalCall(e, ctx)
	case "IfExpr":
		cond := asBool(evalExpr(asExprMap(e["cond"]), ctx))
		if cond {
			return evalExpr(asExprMap(e["then"]), ctx)
		}
		return evalExpr(asExprMap(e["else"]), ctx)
	case "DistributionExpr":
		return evalDistribution(e, ctx)
	case "ArrayLit":
		elems := asExprList(e["elements"])
		out := make([]interface{}, 0, len(elems))
		for _, el := range elems {
			out = append(out, evalExpr(el, ctx))
		}
		return out
	case "BlockExpr":
		return evalBlock(e, ctx)
	case "LambdaExpr", "MemberExpr":
		ctx.state.warn("runtime: %v not directly evaluable, defaulting to 0", e["expr_type"])
		return 0.0
	default:
		ctx.state.warn("runtime: unrecognized expr_type %v, defaulting to 0", e["expr_type"])
		return 0.0
	}
}

func asExprMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// asExprList normalizes an IR array field to []map[string]interface{}.
// IR documents loaded from JSON decode arrays as []interface{}; IR
// built directly in Go (pkg/ir's lower.go) already uses
// []map[string]interface{}. Both shapes are accepted so the evaluator
// works identically whether the runtime operates on a freshly compiled
// in-memory document or one reloaded from `ir.json` on disk.
func asExprList(v interface{}) []map[string]interface{} {
	switch list := v.(type) {
	case []map[string]interface{}:
		return list
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(list))
		for _, el := range list {
			if m, ok := el.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return false
	}
}

func evalUnary(e map[string]interface{}, ctx *evalCtx) interface{} {
	op, _ := e["op"].(string)
	operand := evalExpr(asExprMap(e["operand"]), ctx)
	switch op {
	case "-":
		return -asFloat(operand)
	case "!":
		return !asBool(operand)
	default:
		return 0.0
	}
}

// evalBinary implements spec.md §4.6's runtime arithmetic rules:
// numeric operators on numbers (division by zero -> +Inf, unknown
// operator -> 0), comparisons -> bool, logical operators
// short-circuit.
func evalBinary(e map[string]interface{}, ctx *evalCtx) interface{} {
	op, _ := e["op"].(string)
	left := asExprMap(e["left"])
	right := asExprMap(e["right"])

	switch op {
	case "&&":
		if !asBool(evalExpr(left, ctx)) {
			return false
		}
		return asBool(evalExpr(right, ctx))
	case "||":
		if asBool(evalExpr(left, ctx)) {
			return true
		}
		return asBool(evalExpr(right, ctx))
	}

	lv := asFloat(evalExpr(left, ctx))
	rv := asFloat(evalExpr(right, ctx))

	switch op {
	case "+":
		return lv + rv
	case "-":
		return lv - rv
	case "*":
		return lv * rv
	case "/":
		if rv == 0 {
			return math.Inf(1)
		}
		return lv / rv
	case "^":
		return math.Pow(lv, rv)
	case "==":
		return lv == rv
	case "!=":
		return lv != rv
	case "<":
		return lv < rv
	case "<=":
		return lv <= rv
	case ">":
		return lv > rv
	case ">=":
		return lv >= rv
	default:
		return 0.0
	}
}

func evalIndex(e map[string]interface{}, ctx *evalCtx) interface{} {
	target := asExprMap(e["target"])
	idx := int(asFloat(evalExpr(asExprMap(e["index"]), ctx)))
	if target["expr_type"] == "Identifier" {
		name, _ := target["name"].(string)
		return ctx.state.GetSeries(name, idx)
	}
	ctx.state.warn("runtime: indexing a non-identifier target, defaulting to 0")
	return 0.0
}

// evalCall implements the two named builtins the checker special-cases
// (sqrt, sum); anything else defaults to 0, matching §4.6's error
// model for unexpected expression shapes.
func evalCall(e map[string]interface{}, ctx *evalCtx) interface{} {
	callee := asExprMap(e["callee"])
	name, _ := callee["name"].(string)
	args := asExprList(e["args"])

	switch name {
	case "sqrt":
		if len(args) != 1 {
			return 0.0
		}
		return math.Sqrt(asFloat(evalExpr(args[0], ctx)))
	case "sum":
		total := 0.0
		for _, a := range args {
			v := evalExpr(a, ctx)
			if arr, ok := v.([]interface{}); ok {
				for _, el := range arr {
					total += asFloat(el)
				}
				continue
			}
			total += asFloat(v)
		}
		return total
	default:
		return 0.0
	}
}

func evalBlock(e map[string]interface{}, ctx *evalCtx) interface{} {
	stmts := asExprList(e["statements"])
	var result interface{} = 0.0
	for _, st := range stmts {
		if v, ok := execStmt(st, ctx); ok {
			result = v
		}
	}
	return result
}

// execStmt runs one lowered statement, returning its value (for
// ExprStmt/ReturnStmt) and whether it produced a result value.
func execStmt(s map[string]interface{}, ctx *evalCtx) (interface{}, bool) {
	switch s["stmt_type"] {
	case "AssignStmt":
		target := asExprMap(s["target"])
		value := evalExpr(asExprMap(s["value"]), ctx)
		assign(target, value, ctx)
		return nil, false
	case "ReturnStmt", "ExprStmt":
		if v, ok := s["value"]; ok {
			return evalExpr(asExprMap(v), ctx), true
		}
		return nil, false
	case "IfStmt":
		cond := asBool(evalExpr(asExprMap(s["cond"]), ctx))
		var branch []map[string]interface{}
		if cond {
			branch = asExprList(s["then"])
		} else {
			branch = asExprList(s["else"])
		}
		var result interface{}
		found := false
		for _, inner := range branch {
			if v, ok := execStmt(inner, ctx); ok {
				result, found = v, true
			}
		}
		return result, found
	case "ForStmt":
		// For-statements are not executed by this runtime: the
		// deterministic timestep driver iterates t itself, and a
		// ForStmt reached inside a policy or var body is a no-op.
		return nil, false
	default:
		return nil, false
	}
}

// assign writes value into state, either as a scalar (plain
// identifier target) or into a time series at a computed index
// (index-expression target, e.g. `customers[t+1] = ...`).
func assign(target map[string]interface{}, value interface{}, ctx *evalCtx) {
	switch target["expr_type"] {
	case "Identifier":
		name, _ := target["name"].(string)
		ctx.state.SetScalar(name, value)
	case "IndexExpr":
		inner := asExprMap(target["target"])
		if inner["expr_type"] != "Identifier" {
			ctx.state.warn("runtime: assignment to non-identifier indexed target ignored")
			return
		}
		name, _ := inner["name"].(string)
		idx := int(asFloat(evalExpr(asExprMap(target["index"]), ctx)))
		ctx.state.SetSeries(name, idx, asFloat(value))
	default:
		ctx.state.warn("runtime: assignment to unsupported target ignored")
	}
}

// evalDistribution resolves a distribution literal to a concrete
// number: the central tendency in deterministic mode, a seeded draw
// in stochastic/Monte-Carlo mode (spec.md §4.6).
func evalDistribution(e map[string]interface{}, ctx *evalCtx) interface{} {
	name, _ := e["name"].(string)
	rawArgs := asExprList(e["args"])
	args := map[string]float64{}
	for _, a := range rawArgs {
		argName, _ := a["name"].(string)
		args[argName] = asFloat(evalExpr(asExprMap(a["value"]), ctx))
	}

	if !ctx.stochastic || ctx.rng == nil {
		return centralTendency(name, args)
	}
	return sample(name, args, ctx.rng)
}

func centralTendency(name string, args map[string]float64) float64 {
	switch name {
	case "Normal":
		return args["mu"]
	case "LogNormal":
		return args["mu"]
	case "Uniform":
		return (args["low"] + args["high"]) / 2
	case "Beta":
		a, b := args["alpha"], args["beta"]
		if a+b == 0 {
			return 0
		}
		return a / (a + b)
	default:
		return 0
	}
}

// sample draws one value from the named distribution using the
// evaluator's deterministic PRNG (spec.md §4.6, §5).
func sample(name string, args map[string]float64, rng *kernel.DeterministicPRNG) float64 {
	switch name {
	case "Normal":
		return args["mu"] + args["sigma"]*standardNormal(rng)
	case "LogNormal":
		return math.Exp(args["mu"] + args["sigma"]*standardNormal(rng))
	case "Uniform":
		low, high := args["low"], args["high"]
		return low + rng.Float64()*(high-low)
	case "Beta":
		// Draw from Beta(alpha, beta) via two Gamma draws: the reference
		// avoids a full rejection sampler since distribution sampling is
		// only required to be seed-reproducible, not
		// library-for-library identical to any external Beta sampler.
		a, b := args["alpha"], args["beta"]
		ga := sampleGamma(a, rng)
		gb := sampleGamma(b, rng)
		if ga+gb == 0 {
			return 0
		}
		return ga / (ga + gb)
	default:
		return 0
	}
}

// standardNormal draws N(0,1) via the Box-Muller transform, consuming
// two uniform samples from the deterministic PRNG.
func standardNormal(rng *kernel.DeterministicPRNG) float64 {
	u1 := rng.Float64()
	if u1 <= 0 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// sampleGamma draws from Gamma(shape, 1) via Marsaglia-Tsang, the
// standard rejection method for shape >= 1 (shape < 1 is boosted per
// the usual shape+1 trick).
func sampleGamma(shape float64, rng *kernel.DeterministicPRNG) float64 {
	if shape <= 0 {
		return 0
	}
	boost := 1.0
	if shape < 1 {
		boost = math.Pow(rng.Float64(), 1/shape)
		shape += 1
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := standardNormal(rng)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v * boost
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * boost
		}
	}
}
