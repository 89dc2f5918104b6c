package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100},
		{"0.01", 1},
		{"120.50", 12050},
		{"14674.41", 1467441},
		{"-8356.57", -835657},
		{"+3.49", 349},
		{" 5885.76 ", 588576},
		{"367.38", 36738},
		{".5", 50},
		{"2.", 200},

		// Beyond two decimals: round half to even, never truncate.
		{"1.005", 100},  // exact half, 0 is even
		{"1.015", 102},  // exact half, 1 is odd
		{"1.025", 102},  // exact half, 2 is even
		{"1.0051", 101}, // beyond half rounds up
		{"1.0049", 100},
		{"1.00500", 100},
		{"-1.015", -102},
		{"0.999", 100},
	}
	for _, tc := range cases {
		got, err := ParseMinorUnits(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseMinorUnitsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "12,50", "1.2.3", "1e3", "$5", "-", "."} {
		_, err := ParseMinorUnits(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestParseMinorUnitsRejectsOutOfRange(t *testing.T) {
	_, err := ParseMinorUnits("99999999999999999999.00")
	require.Error(t, err)
	_, err = ParseMinorUnits("-12345678901234567890")
	require.Error(t, err)

	// Leading zeros do not count against the bound.
	got, err := ParseMinorUnits("000000000000000000001.50")
	require.NoError(t, err)
	require.Equal(t, int64(150), got)
}

func TestMajor(t *testing.T) {
	require.Equal(t, "0.00", Major(0))
	require.Equal(t, "0.01", Major(1))
	require.Equal(t, "5885.76", Major(588576))
	require.Equal(t, "-8356.57", Major(-835657))
	require.Equal(t, "-0.05", Major(-5))
}

func TestFormatFallsBackOnUnknownCode(t *testing.T) {
	require.Equal(t, "ZZZ 1.00", Format(100, "ZZZ"))
}
