package appver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewerOrEqual(t *testing.T) {
	testCases := []struct {
		name      string
		candidate string
		baseline  string
		expected  bool
	}{
		{"equal", "4.2.0", "4.2.0", true},
		{"equal after padding", "4.2.0", "4.2", true},
		{"padding symmetry", "1.0", "1.0.0.0", true},
		{"newer patch", "4.2.1", "4.2.0", true},
		{"older patch", "4.1.9", "4.2.0", false},
		{"newer minor", "3.1.0", "3.0.0", true},
		{"older major", "4.9.9", "5.0.0", false},
		{"longer candidate newer", "1.0.0.1", "1.0", true},
		{"longer baseline newer", "1.0", "1.0.0.1", false},
		{"single segment", "5", "4.9.9", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsNewerOrEqual(tc.candidate, tc.baseline)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

// at least one direction must hold for any two well-formed versions
func TestIsNewerOrEqualTotalOrdering(t *testing.T) {
	versions := []string{"1.0", "1.0.0.0", "4.2", "4.2.0", "4.1.9", "5.0.0", "0.0.1"}

	for _, a := range versions {
		for _, b := range versions {
			ab, err := IsNewerOrEqual(a, b)
			require.NoError(t, err)
			ba, err := IsNewerOrEqual(b, a)
			require.NoError(t, err)
			assert.True(t, ab || ba, "neither %q >= %q nor %q >= %q", a, b, b, a)
		}
	}
}

func TestIsNewerOrEqualMalformed(t *testing.T) {
	testCases := []struct {
		name      string
		candidate string
		baseline  string
	}{
		{"non-integer segment", "4.2a.0", "4.2.0"},
		{"empty candidate", "", "4.2.0"},
		{"empty segment", "4..2", "4.2.0"},
		{"malformed baseline", "4.2.0", "latest"},
		{"negative segment", "4.-2.0", "4.2.0"},
		{"semver prerelease rejected", "4.2.0-beta", "4.2.0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := IsNewerOrEqual(tc.candidate, tc.baseline)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParse(t *testing.T) {
	v, err := Parse("3.1.0")
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", v.Original())

	_, err = Parse("v3.1.0")
	assert.ErrorIs(t, err, ErrMalformed)
}
