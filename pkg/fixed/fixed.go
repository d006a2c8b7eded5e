// Package fixed implements non-negative decimal fixed-point amounts.
//
// An Amount stores its value as an unsigned integer scaled by 10^digits.
// The scale travels with every value, so pools running at different
// precisions can live in the same process without any shared setting.
package fixed

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// MaxDigits is the largest supported scale; 10^19 no longer fits in a uint64.
const MaxDigits = 18

var (
	// ErrInvalidArgument is returned for negative or non-finite inputs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidScale is returned when a scale is outside [0, MaxDigits].
	ErrInvalidScale = errors.New("invalid scale")

	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("underflow")

	// ErrOverflow is returned when a result does not fit in 64 bits.
	ErrOverflow = errors.New("overflow")

	// ErrDivisionByZero is returned by Div when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
)

var pow10 = func() [MaxDigits + 1]uint64 {
	var p [MaxDigits + 1]uint64
	p[0] = 1
	for i := 1; i <= MaxDigits; i++ {
		p[i] = p[i-1] * 10
	}
	return p
}()

// Scale is the number of fractional decimal digits an Amount represents exactly.
type Scale uint8

// NewScale validates digits and returns the matching Scale.
func NewScale(digits int) (Scale, error) {
	if digits < 0 || digits > MaxDigits {
		return 0, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidScale, digits, MaxDigits)
	}
	return Scale(digits), nil
}

// MustScale is like NewScale but panics on an invalid digit count.
func MustScale(digits int) Scale {
	s, err := NewScale(digits)
	if err != nil {
		panic(err)
	}
	return s
}

// Digits returns the number of fractional digits.
func (s Scale) Digits() int {
	return int(s)
}

// Factor returns 10^digits.
func (s Scale) Factor() uint64 {
	return pow10[s]
}

// Zero returns the zero amount at this scale.
func (s Scale) Zero() Amount {
	return Amount{scale: s}
}

// FromRaw wraps an integer that is already in scaled form.
func (s Scale) FromRaw(raw uint64) Amount {
	return Amount{raw: raw, scale: s}
}

// FromInt returns n whole units.
func (s Scale) FromInt(n int64) (Amount, error) {
	if n < 0 {
		return Amount{}, fmt.Errorf("%w: %d is negative", ErrInvalidArgument, n)
	}
	raw, err := smath.Mul64(uint64(n), s.Factor())
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %d at scale %d", ErrOverflow, n, s)
	}
	return Amount{raw: raw, scale: s}, nil
}

// FromDecimal converts d, truncating digits beyond the scale.
func (s Scale) FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s is negative", ErrInvalidArgument, d)
	}
	scaled := d.Shift(int32(s)).Truncate(0).BigInt()
	if !scaled.IsUint64() {
		return Amount{}, fmt.Errorf("%w: %s at scale %d", ErrOverflow, d, s)
	}
	return Amount{raw: scaled.Uint64(), scale: s}, nil
}

// FromFloat converts x through its shortest decimal representation, so 9.871
// at scale 3 is exactly 9871 rather than whatever x*1000 rounds to in binary.
func (s Scale) FromFloat(x float64) (Amount, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Amount{}, fmt.Errorf("%w: %v is not finite", ErrInvalidArgument, x)
	}
	return s.FromDecimal(decimal.NewFromFloat(x))
}

// Parse converts a decimal literal such as "120.5".
func (s Scale) Parse(str string) (Amount, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %v", ErrInvalidArgument, str, err)
	}
	return s.FromDecimal(d)
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func (s Scale) MustParse(str string) Amount {
	a, err := s.Parse(str)
	if err != nil {
		panic(err)
	}
	return a
}

// Amount is an immutable non-negative fixed-point value.
type Amount struct {
	raw   uint64
	scale Scale
}

// Raw returns the scaled integer.
func (a Amount) Raw() uint64 {
	return a.raw
}

// Scale returns the scale the amount was built with.
func (a Amount) Scale() Scale {
	return a.scale
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == 0
}

func (a Amount) mustMatch(b Amount) {
	if a.scale != b.scale {
		panic(fmt.Sprintf("FIXED_SCALE_MISMATCH: %d vs %d", a.scale, b.scale))
	}
}

// Add returns a + b.
func (a Amount) Add(b Amount) (Amount, error) {
	a.mustMatch(b)
	raw, err := smath.Add64(a.raw, b.raw)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return Amount{raw: raw, scale: a.scale}, nil
}

// Sub returns a - b, or ErrUnderflow when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	a.mustMatch(b)
	raw, err := smath.Sub(a.raw, b.raw)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, a, b)
	}
	return Amount{raw: raw, scale: a.scale}, nil
}

// Mul returns a * b rescaled once: (raw_a * raw_b) / 10^digits, truncated.
func (a Amount) Mul(b Amount) (Amount, error) {
	a.mustMatch(b)
	raw, ok := mulDiv(a.raw, b.raw, a.scale.Factor())
	if !ok {
		return Amount{}, fmt.Errorf("%w: %s * %s", ErrOverflow, a, b)
	}
	return Amount{raw: raw, scale: a.scale}, nil
}

// Div returns a / b: (raw_a * 10^digits) / raw_b, truncated.
func (a Amount) Div(b Amount) (Amount, error) {
	a.mustMatch(b)
	if b.raw == 0 {
		return Amount{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, a)
	}
	raw, ok := mulDiv(a.raw, a.scale.Factor(), b.raw)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %s / %s", ErrOverflow, a, b)
	}
	return Amount{raw: raw, scale: a.scale}, nil
}

// MulInt returns a * n without rescaling.
func (a Amount) MulInt(n uint64) (Amount, error) {
	raw, err := smath.Mul64(a.raw, n)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s * %d", ErrOverflow, a, n)
	}
	return Amount{raw: raw, scale: a.scale}, nil
}

// mulDiv computes x*y/d with a 256-bit intermediate. d must be non-zero.
func mulDiv(x, y, d uint64) (uint64, bool) {
	var z uint256.Int
	_, overflow := z.MulDivOverflow(uint256.NewInt(x), uint256.NewInt(y), uint256.NewInt(d))
	if overflow || !z.IsUint64() {
		return 0, false
	}
	return z.Uint64(), true
}

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	a.mustMatch(b)
	switch {
	case a.raw < b.raw:
		return -1
	case a.raw > b.raw:
		return 1
	default:
		return 0
	}
}

func (a Amount) Equal(b Amount) bool              { return a.Cmp(b) == 0 }
func (a Amount) LessThan(b Amount) bool           { return a.Cmp(b) < 0 }
func (a Amount) LessThanOrEqual(b Amount) bool    { return a.Cmp(b) <= 0 }
func (a Amount) GreaterThan(b Amount) bool        { return a.Cmp(b) > 0 }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Cmp(b) >= 0 }

// Decimal returns the exact decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.raw), -int32(a.scale))
}

// Float64 is for display only. Never feed it back into the ledger.
func (a Amount) Float64() float64 {
	return float64(a.raw) / float64(a.scale.Factor())
}

// String renders the value with trailing zeros trimmed ("9.871", "120").
func (a Amount) String() string {
	return a.Decimal().String()
}

// StringFixed renders every fractional digit ("120.00").
func (a Amount) StringFixed() string {
	return a.Decimal().StringFixed(int32(a.scale))
}

// MarshalJSON encodes the amount as a fixed decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed() + `"`), nil
}
