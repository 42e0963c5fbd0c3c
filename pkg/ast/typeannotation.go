package ast

import "github.com/Coding-Krakken/pel/pkg/errcode"

// TypeKind tags a surface type annotation as written in source, before
// the checker resolves it to a PEL dimensional type (spec §3, §4.3).
type TypeKind string

const (
	TypeCurrency     TypeKind = "Currency"
	TypeRate         TypeKind = "Rate"
	TypeDuration     TypeKind = "Duration"
	TypeCapacity     TypeKind = "Capacity"
	TypeCount        TypeKind = "Count"
	TypeFraction     TypeKind = "Fraction"
	TypeBoolean      TypeKind = "Boolean"
	TypeString       TypeKind = "String"
	TypeArray        TypeKind = "Array"
	TypeTimeSeries   TypeKind = "TimeSeries"
	TypeDistribution TypeKind = "Distribution"
	TypeUserDefined  TypeKind = "UserDefined"
)

// TypeAnnotation is a surface-syntax type, tagged by Kind with
// kind-specific parameters (spec §3: "tagged by kind with kind-specific
// parameters").
type TypeAnnotation struct {
	Kind TypeKind
	Loc  errcode.Location

	// CurrencyCode is set for Kind == TypeCurrency (e.g. "USD").
	CurrencyCode string
	// PerTimeUnit is set for Kind == TypeRate (e.g. "Month").
	PerTimeUnit string
	// Entity is set for Kind ∈ {TypeCount, TypeCapacity}.
	Entity string
	// Inner is set for Kind ∈ {TypeArray, TypeTimeSeries, TypeDistribution}.
	Inner *TypeAnnotation
	// Name is set for Kind == TypeUserDefined.
	Name string
}
