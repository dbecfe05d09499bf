package bdoc

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Decimal is an arbitrary-precision decimal: value = coefficient * 10^(-scale).
// The scale is kept as given, so 107.78 and 107.780 are distinct decimals
// that compare equal numerically (Cmp) but not structurally (Equal).
//
// The zero Decimal is 0 with scale 0.
type Decimal struct {
	coef  *big.Int
	scale int32
}

// NewDecimal creates a decimal from an unscaled coefficient and a
// non-negative scale. The coefficient is copied.
func NewDecimal(coef *big.Int, scale int32) (Decimal, error) {
	if scale < 0 {
		return Decimal{}, fmt.Errorf("bdoc: negative decimal scale %d", scale)
	}
	c := new(big.Int)
	if coef != nil {
		c.Set(coef)
	}
	return Decimal{coef: c, scale: scale}, nil
}

// DecimalFromInt64 creates a decimal with scale 0.
func DecimalFromInt64(v int64) Decimal {
	return Decimal{coef: big.NewInt(v), scale: 0}
}

// ParseDecimal parses plain decimal notation: an optional minus sign,
// digits, and optionally a point followed by digits. The number of
// fractional digits becomes the scale. Exponents are not accepted.
// Examples: "107.78", "-0.0001234", "42".
func ParseDecimal(s string) (Decimal, error) {
	body := s
	if strings.HasPrefix(body, "-") {
		body = body[1:]
	}
	intPart, fracPart, hasPoint := strings.Cut(body, ".")
	if intPart == "" || (hasPoint && fracPart == "") {
		return Decimal{}, fmt.Errorf("bdoc: invalid decimal %q", s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return Decimal{}, fmt.Errorf("bdoc: invalid decimal %q", s)
	}
	if len(fracPart) > math.MaxInt32 {
		return Decimal{}, fmt.Errorf("bdoc: decimal scale out of range: %q", s)
	}

	coef, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("bdoc: invalid decimal %q", s)
	}
	if body != s {
		coef.Neg(coef)
	}
	return Decimal{coef: coef, scale: int32(len(fracPart))}, nil
}

// MustDecimal is ParseDecimal that panics on error. For literals.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Scale returns the number of digits after the decimal point.
func (d Decimal) Scale() int32 {
	return d.scale
}

// Coefficient returns a copy of the unscaled coefficient.
func (d Decimal) Coefficient() *big.Int {
	return new(big.Int).Set(d.coefInt())
}

func (d Decimal) coefInt() *big.Int {
	if d.coef == nil {
		return new(big.Int)
	}
	return d.coef
}

// String returns the canonical text form. It is the inverse of
// ParseDecimal for every decimal ParseDecimal produces from canonical
// input, and it never changes the scale.
func (d Decimal) String() string {
	coefStr := d.coefInt().String()
	if d.scale == 0 {
		return coefStr
	}

	negative := false
	if coefStr[0] == '-' {
		negative = true
		coefStr = coefStr[1:]
	}

	if pad := int(d.scale) + 1 - len(coefStr); pad > 0 {
		coefStr = strings.Repeat("0", pad) + coefStr
	}

	insertPos := len(coefStr) - int(d.scale)
	result := coefStr[:insertPos] + "." + coefStr[insertPos:]
	if negative {
		result = "-" + result
	}
	return result
}

// Sign returns -1, 0 or +1.
func (d Decimal) Sign() int {
	return d.coefInt().Sign()
}

// Cmp compares numerically, ignoring scale. Returns -1, 0 or +1.
func (d Decimal) Cmp(other Decimal) int {
	a := new(big.Int).Set(d.coefInt())
	b := new(big.Int).Set(other.coefInt())

	switch {
	case d.scale < other.scale:
		a.Mul(a, pow10(other.scale-d.scale))
	case d.scale > other.scale:
		b.Mul(b, pow10(d.scale-other.scale))
	}
	return a.Cmp(b)
}

// Equal reports whether d and other have the same coefficient and scale.
func (d Decimal) Equal(other Decimal) bool {
	return d.scale == other.scale && d.coefInt().Cmp(other.coefInt()) == 0
}

// Float64 converts to the nearest float64. Precision may be lost.
func (d Decimal) Float64() float64 {
	// Out-of-range text yields ±Inf or 0.
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

func (d Decimal) clone() Decimal {
	if d.coef == nil {
		return d
	}
	return Decimal{coef: new(big.Int).Set(d.coef), scale: d.scale}
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
