package fixed

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewScale(t *testing.T) {
	require := require.New(t)

	s, err := NewScale(7)
	require.NoError(err)
	require.Equal(uint64(10_000_000), s.Factor())

	_, err = NewScale(-1)
	require.ErrorIs(err, ErrInvalidScale)

	_, err = NewScale(MaxDigits + 1)
	require.ErrorIs(err, ErrInvalidScale)

	s, err = NewScale(MaxDigits)
	require.NoError(err)
	require.Equal(uint64(1_000_000_000_000_000_000), s.Factor())
}

func TestConstructors(t *testing.T) {
	s := MustScale(3)

	tests := []struct {
		name    string
		build   func() (Amount, error)
		raw     uint64
		wantErr error
	}{
		{
			name:  "integer",
			build: func() (Amount, error) { return s.FromInt(20) },
			raw:   20_000,
		},
		{
			name:    "negative integer",
			build:   func() (Amount, error) { return s.FromInt(-1) },
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "float uses shortest representation",
			build: func() (Amount, error) { return s.FromFloat(9.871) },
			raw:   9_871,
		},
		{
			name:  "float truncates extra digits",
			build: func() (Amount, error) { return s.FromFloat(1.23456) },
			raw:   1_234,
		},
		{
			name:    "negative float",
			build:   func() (Amount, error) { return s.FromFloat(-0.5) },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "not finite",
			build:   func() (Amount, error) { return s.FromFloat(math.Inf(1)) },
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "decimal literal",
			build: func() (Amount, error) { return s.Parse("0.0019") },
			raw:   1,
		},
		{
			name:    "garbage literal",
			build:   func() (Amount, error) { return s.Parse("abc") },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "too large",
			build:   func() (Amount, error) { return s.Parse("100000000000000000000") },
			wantErr: ErrOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			a, err := tt.build()
			if tt.wantErr != nil {
				require.ErrorIs(err, tt.wantErr)
				return
			}
			require.NoError(err)
			require.Equal(tt.raw, a.Raw())
			require.Equal(s, a.Scale())
		})
	}
}

func TestAddSub(t *testing.T) {
	require := require.New(t)
	s := MustScale(2)

	sum, err := s.MustParse("1.25").Add(s.MustParse("2.5"))
	require.NoError(err)
	require.Equal(s.MustParse("3.75"), sum)

	diff, err := sum.Sub(s.MustParse("3.75"))
	require.NoError(err)
	require.True(diff.IsZero())

	_, err = s.MustParse("1").Sub(s.MustParse("1.01"))
	require.ErrorIs(err, ErrUnderflow)

	_, err = s.FromRaw(math.MaxUint64).Add(s.FromRaw(1))
	require.ErrorIs(err, ErrOverflow)
}

func TestMulDiv(t *testing.T) {
	require := require.New(t)
	s := MustScale(2)

	// 0.4 * 0.51 = 0.204, truncated to 0.20
	p, err := s.MustParse("0.4").Mul(s.MustParse("0.51"))
	require.NoError(err)
	require.Equal(s.MustParse("0.2"), p)

	q, err := s.MustParse("51").Div(s.MustParse("100"))
	require.NoError(err)
	require.Equal(s.MustParse("0.51"), q)

	// 1 / 3 truncates toward zero
	q, err = s.MustParse("1").Div(s.MustParse("3"))
	require.NoError(err)
	require.Equal(uint64(33), q.Raw())

	_, err = s.MustParse("1").Div(s.Zero())
	require.ErrorIs(err, ErrDivisionByZero)

	// the intermediate product exceeds 64 bits but the result does not
	big := s.FromRaw(1 << 62)
	p, err = big.Mul(s.MustParse("1.5"))
	require.NoError(err)
	require.Equal(uint64(3<<61), p.Raw())

	_, err = big.Mul(s.MustParse("5"))
	require.ErrorIs(err, ErrOverflow)

	m, err := s.MustParse("1.5").MulInt(4)
	require.NoError(err)
	require.Equal(s.MustParse("6"), m)

	_, err = s.FromRaw(math.MaxUint64).MulInt(2)
	require.ErrorIs(err, ErrOverflow)
}

func TestCompare(t *testing.T) {
	require := require.New(t)
	s := MustScale(4)
	one, two := s.MustParse("1"), s.MustParse("2")

	require.Equal(-1, one.Cmp(two))
	require.Equal(1, two.Cmp(one))
	require.Equal(0, one.Cmp(s.MustParse("1.0000")))
	require.True(one.LessThan(two))
	require.True(one.LessThanOrEqual(one))
	require.True(two.GreaterThan(one))
	require.True(two.GreaterThanOrEqual(two))
	require.True(one.Equal(s.FromRaw(10_000)))
}

func TestScaleMismatchPanics(t *testing.T) {
	require := require.New(t)
	a := MustScale(2).MustParse("1")
	b := MustScale(3).MustParse("1")

	require.Panics(func() { _, _ = a.Add(b) })
	require.Panics(func() { _ = a.Cmp(b) })
}

func TestDisplay(t *testing.T) {
	require := require.New(t)
	s := MustScale(2)

	require.Equal("120", s.MustParse("120").String())
	require.Equal("120.00", s.MustParse("120").StringFixed())
	require.Equal("9.5", s.MustParse("9.5").String())
	require.InDelta(9.5, s.MustParse("9.5").Float64(), 1e-12)
	require.True(decimal.RequireFromString("0.07").Equal(s.MustParse("0.07").Decimal()))
	require.Equal("7", MustScale(0).MustParse("7").StringFixed())

	out, err := json.Marshal(struct {
		V Amount `json:"v"`
	}{V: s.MustParse("42")})
	require.NoError(err)
	require.JSONEq(`{"v":"42.00"}`, string(out))
}
