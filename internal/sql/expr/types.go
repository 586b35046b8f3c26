package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/granite-db/analyzer/internal/catalog"
)

// Type enumerates the primitive scalar types known to the analyzer. The
// numeric kinds are declared in widening order, which lets the lattice
// compare them directly.
type Type int

const (
	TypeInvalid Type = iota
	TypeNull
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeString
	TypeTimestamp
)

var typeNames = map[Type]string{
	TypeInvalid:   "INVALID_TYPE",
	TypeNull:      "NULL_TYPE",
	TypeBoolean:   "BOOLEAN",
	TypeTinyInt:   "TINYINT",
	TypeSmallInt:  "SMALLINT",
	TypeInt:       "INT",
	TypeBigInt:    "BIGINT",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
	TypeString:    "STRING",
	TypeTimestamp: "TIMESTAMP",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsNumeric reports whether the type is an integer or floating-point kind.
func (t Type) IsNumeric() bool {
	return t >= TypeTinyInt && t <= TypeDouble
}

// IsInteger reports whether the type is one of the integer kinds.
func (t Type) IsInteger() bool {
	return t >= TypeTinyInt && t <= TypeBigInt
}

// IsFloat reports whether the type is FLOAT or DOUBLE.
func (t Type) IsFloat() bool {
	return t == TypeFloat || t == TypeDouble
}

// numericLike covers the part of the lattice where boolean sits below the
// integers.
func (t Type) numericLike() bool {
	return t == TypeBoolean || t.IsNumeric()
}

// FromColumn maps a catalog column type into an expression type.
func FromColumn(t catalog.ColumnType) Type {
	switch t {
	case catalog.ColumnTypeBoolean:
		return TypeBoolean
	case catalog.ColumnTypeTinyInt:
		return TypeTinyInt
	case catalog.ColumnTypeSmallInt:
		return TypeSmallInt
	case catalog.ColumnTypeInt:
		return TypeInt
	case catalog.ColumnTypeBigInt:
		return TypeBigInt
	case catalog.ColumnTypeFloat:
		return TypeFloat
	case catalog.ColumnTypeDouble:
		return TypeDouble
	case catalog.ColumnTypeString:
		return TypeString
	case catalog.ColumnTypeTimestamp:
		return TypeTimestamp
	default:
		return TypeInvalid
	}
}

// ParseType resolves a type name as used by CAST.
func ParseType(name string) (Type, error) {
	if strings.EqualFold(strings.TrimSpace(name), "NULL") {
		return TypeNull, nil
	}
	colType, err := catalog.ParseColumnType(name)
	if err != nil {
		return TypeInvalid, fmt.Errorf("expr: unknown type %q", name)
	}
	return FromColumn(colType), nil
}

// CommonType returns the narrowest type both arguments widen to. NULL is
// compatible with everything; STRING and TIMESTAMP only with themselves.
func CommonType(a, b Type) (Type, bool) {
	switch {
	case a == TypeInvalid || b == TypeInvalid:
		return TypeInvalid, false
	case a == b:
		return a, true
	case a == TypeNull:
		return b, true
	case b == TypeNull:
		return a, true
	case !a.numericLike() || !b.numericLike():
		return TypeInvalid, false
	}
	if a.IsFloat() == b.IsFloat() {
		return maxType(a, b), true
	}
	float, other := a, b
	if !a.IsFloat() {
		float, other = b, a
	}
	if float == TypeFloat && other <= TypeSmallInt {
		return TypeFloat, true
	}
	return TypeDouble, true
}

func maxType(a, b Type) Type {
	if a > b {
		return a
	}
	return b
}

// CanCast reports whether an explicit CAST from one type to another is legal.
func CanCast(from, to Type) bool {
	switch {
	case from == TypeInvalid || to == TypeInvalid || to == TypeNull:
		return from == to && from == TypeNull
	case from == to, from == TypeNull:
		return true
	case from.numericLike() && to.numericLike():
		return true
	case from == TypeString || to == TypeString:
		return true
	case from == TypeTimestamp:
		return to.IsNumeric()
	case to == TypeTimestamp:
		return from.IsNumeric()
	default:
		return false
	}
}

// ArithmeticType computes the result of a binary arithmetic operation whose
// operands were already checked to be numeric or NULL. Integer arithmetic
// yields BIGINT; a floating operand or division yields DOUBLE.
func ArithmeticType(op BinaryOp, left, right Type) Type {
	if op == OpDivide || left.IsFloat() || right.IsFloat() {
		return TypeDouble
	}
	return TypeBigInt
}

// NumericLiteralType picks the type of a numeric literal as written. Integers
// get the narrowest integer type that holds them and fall back to DOUBLE past
// the BIGINT range; other numbers are FLOAT while they fit its range.
func NumericLiteralType(text string) (Type, error) {
	value, err := decimal.NewFromString(text)
	if err != nil {
		return TypeInvalid, fmt.Errorf("expr: invalid numeric literal %q", text)
	}
	if !strings.ContainsAny(text, ".eE") && value.IsInteger() {
		return integerLiteralType(value), nil
	}
	f, _ := value.Float64()
	if math.Abs(f) <= math.MaxFloat32 {
		return TypeFloat, nil
	}
	return TypeDouble, nil
}

var (
	minTinyInt  = decimal.NewFromInt(math.MinInt8)
	maxTinyInt  = decimal.NewFromInt(math.MaxInt8)
	minSmallInt = decimal.NewFromInt(math.MinInt16)
	maxSmallInt = decimal.NewFromInt(math.MaxInt16)
	minInt      = decimal.NewFromInt(math.MinInt32)
	maxInt      = decimal.NewFromInt(math.MaxInt32)
	minBigInt   = decimal.NewFromInt(math.MinInt64)
	maxBigInt   = decimal.NewFromInt(math.MaxInt64)
)

func integerLiteralType(value decimal.Decimal) Type {
	within := func(lo, hi decimal.Decimal) bool {
		return value.Cmp(lo) >= 0 && value.Cmp(hi) <= 0
	}
	switch {
	case within(minTinyInt, maxTinyInt):
		return TypeTinyInt
	case within(minSmallInt, maxSmallInt):
		return TypeSmallInt
	case within(minInt, maxInt):
		return TypeInt
	case within(minBigInt, maxBigInt):
		return TypeBigInt
	default:
		return TypeDouble
	}
}

// EqualLiteralValues compares two literal spellings, treating numerically
// equal values (e.g. "04" and "4") as equal.
func EqualLiteralValues(a, b string) bool {
	if a == b {
		return true
	}
	da, errA := decimal.NewFromString(strings.TrimSpace(a))
	db, errB := decimal.NewFromString(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return false
	}
	return da.Equal(db)
}
