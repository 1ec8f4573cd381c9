package util

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{12, "12"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45210, "-45,210"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.in))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.50", FormatFloat(1.5, 2))
	assert.Equal(t, "-", FormatFloat(math.NaN(), 2))
}

func TestFormatPValue(t *testing.T) {
	assert.Equal(t, "0.0500", FormatPValue(0.05))
	assert.Equal(t, "1.00e-06", FormatPValue(1e-6))
	assert.Equal(t, "-", FormatPValue(math.NaN()))
}

func TestFormatInts(t *testing.T) {
	assert.Equal(t, "1, 2, 30", FormatInts([]int{1, 2, 30}))
	assert.Equal(t, "", FormatInts(nil))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, "tt"), ExpandPath("~/tt"))
	assert.True(t, filepath.IsAbs(ExpandPath("relative/dir")))
	assert.Equal(t, "", ExpandPath(""))
}
