package calc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokensAcceptsBothDecimalSeparators(t *testing.T) {
	t.Parallel()

	tokens := Tokens("suma 1,5 y 2.25 y 3")
	require.Len(t, tokens, 3)
	require.Equal(t, "1,5", tokens[0].Span)
	require.InDelta(t, 1.5, tokens[0].Value, 1e-12)
	require.InDelta(t, 2.25, tokens[1].Value, 1e-12)
	require.InDelta(t, 3.0, tokens[2].Value, 1e-12)
}

func TestAllPreservesOrder(t *testing.T) {
	t.Parallel()

	require.Equal(t, []float64{10, 2, 5}, All("de 10 quita 2 y luego 5"))
	require.Empty(t, All("sin cifras"))
}

func TestFirst(t *testing.T) {
	t.Parallel()

	v, ok := First("convierte 3 km y 7 mi")
	require.True(t, ok)
	require.Equal(t, 3.0, v)

	_, ok = First("nada")
	require.False(t, ok)
}

func TestParseNumberTrailingSeparator(t *testing.T) {
	t.Parallel()

	v, err := ParseNumber("50,")
	require.NoError(t, err)
	require.Equal(t, 50.0, v)

	_, err = ParseNumber("abc")
	require.Error(t, err)
}

func TestArithmeticHelpers(t *testing.T) {
	t.Parallel()

	sum, err := Sum([]float64{1, 2, 3.5})
	require.NoError(t, err)
	require.Equal(t, 6.5, sum)

	diff, err := Subtract([]float64{10, 3, 2})
	require.NoError(t, err)
	require.Equal(t, 5.0, diff)

	prod, err := Product([]float64{2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 24.0, prod)

	quot, err := Divide([]float64{100, 5, 2})
	require.NoError(t, err)
	require.Equal(t, 10.0, quot)

	for _, fn := range []func([]float64) (float64, error){Sum, Subtract, Product, Divide} {
		_, err := fn(nil)
		require.ErrorIs(t, err, ErrNotEnoughOperands)
	}

	_, err = Divide([]float64{4})
	require.ErrorIs(t, err, ErrNotEnoughOperands)

	_, err = Divide([]float64{10, 2, 0, 5})
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10-4-3", 3},
		{"100/10/2", 5},
		{"-3+5", 2},
		{"2*-3", -6},
		{"1.5 * 2", 3},
		{"(50/100) * 200", 100},
		{"((1))", 1},
		{"7/2", 3.5},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Evaluate(tc.expr)
			require.NoError(t, err)
			require.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestEvaluateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want error
	}{
		{"1/0", ErrDivisionByZero},
		{"8/(4-4)", ErrDivisionByZero},
		{"2+", ErrSyntax},
		{"(2+3", ErrSyntax},
		{"2 3", ErrSyntax},
		{"1..2", ErrSyntax},
		{"", ErrSyntax},
		{"5 % 2", ErrSyntax},
		{")", ErrSyntax},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := Evaluate(tc.expr)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "(50/100) * 200", Sanitize("¿cuánto es 50% * 200?"))
	require.Equal(t, "3.5 + 1", Sanitize("3,5 + 1 manzanas"))
	require.Equal(t, "2+3*4", Sanitize("2+3*4"))
	require.Empty(t, Sanitize("me llamo Carlos"))
}

func TestIsCandidate(t *testing.T) {
	t.Parallel()

	require.True(t, IsCandidate("2+2"))
	require.True(t, IsCandidate("(20/100)"))
	require.False(t, IsCandidate("1  100"))
	require.False(t, IsCandidate("+"))
	require.False(t, IsCandidate(""))
}

func TestConversions(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.8641, Round(KmToMiles(3), 4), 1e-9)
	require.InDelta(t, 3.0, Round(MilesToKm(1.864113), 4), 1e-9)
	require.Equal(t, 1.5, MetersToKm(1500))
	require.Equal(t, 212.0, CelsiusToFahrenheit(100))
	require.Equal(t, 0.0, FahrenheitToCelsius(32))
	require.InDelta(t, 37.78, Round(FahrenheitToCelsius(100), 2), 1e-9)
}

func TestKmMilesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, km := range []float64{0.5, 1, 3, 42.195, 1000} {
		mi := Round(KmToMiles(km), 4)
		back := Round(MilesToKm(mi), 4)
		require.InDelta(t, km, back, 1e-3*km+1e-4)
	}
}

func TestRoundHalfToEven(t *testing.T) {
	t.Parallel()

	require.Equal(t, 2.0, Round(2.5, 0))
	require.Equal(t, 4.0, Round(3.5, 0))
	require.Equal(t, 0.12, Round(0.125, 2))
	require.Equal(t, -6.67, Round(FahrenheitToCelsius(20), 2))
}
