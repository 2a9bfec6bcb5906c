package plux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{"canonical", "00:07:80:4D:2E:76", "00:07:80:4D:2E:76", true},
		{"lowercase", "00:07:80:4d:2e:76", "00:07:80:4D:2E:76", true},
		{"dashes", "00-07-80-4d-2e-76", "00:07:80:4D:2E:76", true},
		{"windows BTH form", "BTH00:07:80:4D:2E:76", "00:07:80:4D:2E:76", true},
		{"lowercase bth with dashes", "bth00-07-80-4d-2e-76", "00:07:80:4D:2E:76", true},
		{"surrounding whitespace", "  00:07:80:4D:2E:76\n", "00:07:80:4D:2E:76", true},
		{"too short", "00:07:80:4D:2E", "", false},
		{"too long", "00:07:80:4D:2E:76:99", "", false},
		{"bad hex", "00:07:80:4D:2E:GG", "", false},
		{"no separators", "0007804D2E76", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if !tt.valid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformAddr(t *testing.T) {
	canonical := "00:07:80:4D:2E:76"

	assert.Equal(t, "BTH00:07:80:4D:2E:76", PlatformAddr(canonical, "windows"))
	assert.Equal(t, "00-07-80-4D-2E-76", PlatformAddr(canonical, "linux"))
	assert.Equal(t, "00-07-80-4D-2E-76", PlatformAddr(canonical, "darwin"))
}

func TestFormatAddr(t *testing.T) {
	// Whatever the platform form is, it must round-trip through Normalize.
	formatted, err := FormatAddr("00-07-80-4d-2e-76")
	require.NoError(t, err)

	back, err := Normalize(formatted)
	require.NoError(t, err)
	assert.Equal(t, "00:07:80:4D:2E:76", back)

	_, err = FormatAddr("not-a-mac")
	assert.Error(t, err)
}
