package runtime

import (
	"fmt"
	"math"

	"github.com/Coding-Krakken/pel/pkg/errcode"
	"github.com/Coding-Krakken/pel/pkg/ir"
	"github.com/Coding-Krakken/pel/pkg/kernel"
)

// CorrelationError wraps a distribution-stage diagnostic (E06xx), the
// same pattern lexer.LexicalError/parser.ParseError/types.CheckError
// use to carry one errcode.Diagnostic per stage.
type CorrelationError struct {
	errcode.Diagnostic
}

func (e *CorrelationError) Error() string { return e.Diagnostic.Message }

func corrFail(code errcode.Code, format string, args ...interface{}) *CorrelationError {
	return &CorrelationError{
		Diagnostic: errcode.New(code, fmt.Sprintf(format, args...)).Build(),
	}
}

// correlationGraph holds the distribution-valued param names and their
// symmetric correlation matrix (diagonal 1, per spec.md §4.6 step 2b).
type correlationGraph struct {
	names  []string
	index  map[string]int
	matrix [][]float64
}

// buildCorrelationGraph reads provenance.correlated_with entries off
// every distribution-valued param node and assembles a symmetric
// correlation matrix. Coefficients outside [-1, 1] or conflicting
// entries (A-B at ρ1 vs B-A at ρ2 ≠ ρ1) abort with E0601 (spec.md
// §4.6 step 2b).
func buildCorrelationGraph(nodes []ir.Node) (*correlationGraph, error) {
	var distNodes []ir.Node
	for _, n := range nodes {
		if n.Value != nil && n.Value["expr_type"] == "DistributionExpr" {
			distNodes = append(distNodes, n)
		}
	}

	g := &correlationGraph{index: map[string]int{}}
	for _, n := range distNodes {
		g.index[n.Name] = len(g.names)
		g.names = append(g.names, n.Name)
	}

	size := len(g.names)
	g.matrix = make([][]float64, size)
	for i := range g.matrix {
		g.matrix[i] = make([]float64, size)
		g.matrix[i][i] = 1
	}

	set := make(map[[2]int]float64)
	for _, n := range distNodes {
		if n.Provenance == nil {
			continue
		}
		corrs := asExprList(n.Provenance["correlated_with"])
		i, ok := g.index[n.Name]
		if !ok {
			continue
		}
		for _, entry := range corrs {
			other, _ := entry["name"].(string)
			coeff := asFloat(entry["coefficient"])
			j, known := g.index[other]
			if !known {
				continue
			}
			if coeff < -1 || coeff > 1 {
				return nil, corrFail(errcode.EDistInvalidCorrelation,
					"correlation coefficient %v between %q and %q out of range [-1, 1]", coeff, n.Name, other)
			}
			key := [2]int{i, j}
			if i > j {
				key = [2]int{j, i}
			}
			if existing, seen := set[key]; seen && existing != coeff {
				return nil, corrFail(errcode.EDistInvalidCorrelation,
					"conflicting correlation between %q and %q: %v vs %v", n.Name, other, existing, coeff)
			}
			set[key] = coeff
			g.matrix[i][j] = coeff
			g.matrix[j][i] = coeff
		}
	}
	return g, nil
}

// cholesky computes the lower-triangular Cholesky factor L such that
// L*Lᵀ = m. A non-positive-semidefinite matrix fails with E0602.
func cholesky(m [][]float64) ([][]float64, error) {
	n := len(m)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for k := 0; k < j; k++ {
				sum += l[i][k] * l[j][k]
			}
			if i == j {
				diag := m[i][i] - sum
				if diag < 0 {
					return nil, corrFail(errcode.EDistNonPSDMatrix,
						"correlation matrix is not positive semi-definite at row %d", i)
				}
				l[i][j] = math.Sqrt(diag)
			} else {
				if l[j][j] == 0 {
					return nil, corrFail(errcode.EDistNonPSDMatrix,
						"correlation matrix is not positive semi-definite (zero pivot at row %d)", j)
				}
				l[i][j] = (m[i][j] - sum) / l[j][j]
			}
		}
	}
	return l, nil
}

// jointNormals draws len(l) correlated standard normals z = L·u from
// independent standard normals u (spec.md §4.6's "Cholesky-style joint
// sampling for normals").
func jointNormals(l [][]float64, rng *kernel.DeterministicPRNG) []float64 {
	n := len(l)
	u := make([]float64, n)
	for i := range u {
		u[i] = standardNormal(rng)
	}
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for k := 0; k <= i; k++ {
			sum += l[i][k] * u[k]
		}
		z[i] = sum
	}
	return z
}
