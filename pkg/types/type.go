package types

// Kind tags a PEL type's variant (spec §3).
type Kind string

const (
	KindCurrency     Kind = "Currency"
	KindRate         Kind = "Rate"
	KindDuration     Kind = "Duration"
	KindFraction     Kind = "Fraction"
	KindCount        Kind = "Count"
	KindCapacity     Kind = "Capacity"
	KindBoolean      Kind = "Boolean"
	KindTimeSeries   Kind = "TimeSeries"
	KindDistribution Kind = "Distribution"
	KindArray        Kind = "Array"
	KindString       Kind = "String"
	KindQuotient     Kind = "Quotient"
	KindProduct      Kind = "Product"
	KindUser         Kind = "UserDefined"
)

// Type is a PEL type: (type_kind, params, dimension) per spec §3.
// Params are kind-specific; Dimension is either derived from the
// kind-specific params (for named types) or carried directly (for the
// generic Quotient/Product fallback types Binary * and / can produce).
type Type struct {
	Kind Kind

	CurrencyCode string // Currency
	PerTimeUnit  string // Rate
	DurationUnit string // Duration ("generic" if ambiguous)
	Entity       string // Count, Capacity
	Inner        *Type  // Array, TimeSeries, Distribution
	Name         string // UserDefined

	// ScopedEntity marks a Currency produced by Currency/Count division
	// (spec §4.3: "Currency / Count is Currency with scoped entity
	// tag"); cancels on multiplication by the matching Count<E>.
	ScopedEntity string

	// Dimension is authoritative only for Quotient/Product; for all
	// other kinds it is derived on demand by Dim().
	Dimension Dimension
}

// Fraction, Boolean, and String are common enough to warrant
// constructors; the reference's currency/rate/duration/count/capacity
// types are built with explicit params by the constructors below.
func Fraction() Type { return Type{Kind: KindFraction} }
func Boolean() Type  { return Type{Kind: KindBoolean} }
func StringT() Type  { return Type{Kind: KindString} }

func Currency(code string) Type { return Type{Kind: KindCurrency, CurrencyCode: code} }
func ScopedCurrency(code, entity string) Type {
	return Type{Kind: KindCurrency, CurrencyCode: code, ScopedEntity: entity}
}
func Rate(unit string) Type        { return Type{Kind: KindRate, PerTimeUnit: unit} }
func Duration(unit string) Type    { return Type{Kind: KindDuration, DurationUnit: unit} }
func Count(entity string) Type     { return Type{Kind: KindCount, Entity: entity} }
func Capacity(resource string) Type { return Type{Kind: KindCapacity, Entity: resource} }
func Array(inner Type) Type        { return Type{Kind: KindArray, Inner: &inner} }
func TimeSeries(inner Type) Type   { return Type{Kind: KindTimeSeries, Inner: &inner} }
func Distribution(inner Type) Type { return Type{Kind: KindDistribution, Inner: &inner} }
func UserDefined(name string) Type { return Type{Kind: KindUser, Name: name} }

// Dim computes this type's canonical dimension bag (spec §3's
// Dimensions vocabulary), deriving it from kind-specific params for
// named types and returning the stored Dimension for Quotient/Product.
func (t Type) Dim() Dimension {
	switch t.Kind {
	case KindCurrency:
		d := Dimension{"currency": t.CurrencyCode}
		if t.ScopedEntity != "" {
			d["scoped"] = t.ScopedEntity
		}
		return d
	case KindRate:
		return Dimension{"rate": t.PerTimeUnit}
	case KindDuration:
		unit := t.DurationUnit
		if unit == "" {
			unit = "generic"
		}
		return Dimension{"time": unit}
	case KindCount:
		return Dimension{"count": t.Entity}
	case KindCapacity:
		return Dimension{"capacity": t.Entity}
	case KindQuotient, KindProduct:
		return t.Dimension
	default:
		return Dimension{}
	}
}

// Equal is the declared-vs-inferred type comparator used at param/var
// declaration sites (spec §4.3): same Kind and, for dimensioned kinds,
// the same params.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindCurrency:
		return t.CurrencyCode == other.CurrencyCode && t.ScopedEntity == other.ScopedEntity
	case KindRate:
		return t.PerTimeUnit == other.PerTimeUnit
	case KindDuration:
		return t.DurationUnit == other.DurationUnit || t.DurationUnit == "generic" || other.DurationUnit == "generic"
	case KindCount, KindCapacity:
		return t.Entity == other.Entity
	case KindArray, KindTimeSeries, KindDistribution:
		if t.Inner == nil || other.Inner == nil {
			return t.Inner == other.Inner
		}
		return t.Inner.Equal(*other.Inner)
	case KindUser:
		return t.Name == other.Name
	case KindQuotient, KindProduct:
		return t.Dim().Equal(other.Dim())
	default:
		return true
	}
}

// String renders a human-readable type name for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KindCurrency:
		if t.ScopedEntity != "" {
			return "Currency<" + t.CurrencyCode + ">/per " + t.ScopedEntity
		}
		return "Currency<" + t.CurrencyCode + ">"
	case KindRate:
		return "Rate per " + t.PerTimeUnit
	case KindDuration:
		return "Duration(" + t.DurationUnit + ")"
	case KindCount:
		return "Count<" + t.Entity + ">"
	case KindCapacity:
		return "Capacity<" + t.Entity + ">"
	case KindArray:
		return "Array<" + t.Inner.String() + ">"
	case KindTimeSeries:
		return "TimeSeries<" + t.Inner.String() + ">"
	case KindDistribution:
		return "Distribution<" + t.Inner.String() + ">"
	case KindUser:
		return t.Name
	case KindQuotient:
		return "Quotient(" + t.Dim().String() + ")"
	case KindProduct:
		return "Product(" + t.Dim().String() + ")"
	default:
		return string(t.Kind)
	}
}

// isDimensionlessForMultiplication classifies Fraction and Count as
// "dimensionless" for the purposes of Binary *'s rule 1 shortcut only
// (spec §4.3); Count otherwise carries its own count:<entity> tag.
func isDimensionlessForMultiplication(t Type) bool {
	return t.Kind == KindFraction || t.Kind == KindCount
}

// isPreservedByScalarMultiplication is the set of dimensioned kinds
// that pass through unchanged when multiplied by a dimensionless
// scalar (spec §4.3 rule 1).
func isPreservedByScalarMultiplication(t Type) bool {
	return t.Kind == KindCurrency || t.Kind == KindRate || t.Kind == KindDuration
}

// dimensionsCompatible is the +/-/comparison compatibility check: equal
// dimension bags, with the generic-Duration unification rule applied
// (spec §4.3, §9).
func dimensionsCompatible(a, b Type) bool {
	return a.Dim().Equal(b.Dim())
}
