package mathutil

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestRescale(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		from, to uint8
		round    Rounding
		want     int64
	}{
		{"same precision", 1234, 6, 6, RoundDown, 1234},
		{"scale up", 5, 6, 9, RoundDown, 5000},
		{"scale up to normalized", 1, 0, 6, RoundDown, 1000000},
		{"scale down exact", 5000, 9, 6, RoundDown, 5},
		{"scale down truncates", 5999, 9, 6, RoundDown, 5},
		{"scale down rounds up", 5001, 9, 6, RoundUp, 6},
		{"scale down exact rounds up unchanged", 5000, 9, 6, RoundUp, 5},
		{"zero", 0, 6, 18, RoundDown, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Rescale(sdkmath.NewInt(tc.amount), tc.from, tc.to, tc.round)
			require.NoError(t, err)
			require.Equal(t, sdkmath.NewInt(tc.want), got)
		})
	}
}

func TestRescaleRejectsBadInput(t *testing.T) {
	_, err := Rescale(sdkmath.NewInt(1), 19, 6, RoundDown)
	require.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = Rescale(sdkmath.Int{}, 6, 18, RoundDown)
	require.ErrorIs(t, err, ErrAmountNil)

	_, err = Rescale(sdkmath.NewInt(-1), 6, 18, RoundDown)
	require.ErrorIs(t, err, ErrAmountNegative)
}

func TestNormalizeRoundTrip(t *testing.T) {
	native := sdkmath.NewInt(2_000_000) // 2.0 at 6 decimals
	norm, err := Normalize(native, 6)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", norm.String())

	back, err := Denormalize(norm, 6, RoundDown)
	require.NoError(t, err)
	require.Equal(t, native, back)
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name        string
		a, b, denom int64
		round       Rounding
		want        int64
	}{
		{"exact", 6, 4, 8, RoundDown, 3},
		{"truncates", 7, 3, 4, RoundDown, 5},
		{"rounds up", 7, 3, 4, RoundUp, 6},
		{"zero numerator", 0, 100, 7, RoundUp, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MulDiv(sdkmath.NewInt(tc.a), sdkmath.NewInt(tc.b), sdkmath.NewInt(tc.denom), tc.round)
			require.NoError(t, err)
			require.Equal(t, sdkmath.NewInt(tc.want), got)
		})
	}
}

func TestMulDivZeroDenominator(t *testing.T) {
	_, err := MulDiv(sdkmath.NewInt(1), sdkmath.NewInt(1), sdkmath.ZeroInt(), RoundDown)
	require.ErrorIs(t, err, ErrZeroDenominator)
}

func TestMinInt(t *testing.T) {
	require.Equal(t, sdkmath.NewInt(3), MinInt(sdkmath.NewInt(3), sdkmath.NewInt(9)))
	require.Equal(t, sdkmath.NewInt(3), MinInt(sdkmath.NewInt(9), sdkmath.NewInt(3)))
	require.Equal(t, sdkmath.NewInt(4), MinInt(sdkmath.NewInt(4), sdkmath.NewInt(4)))
}
