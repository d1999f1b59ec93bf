package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{in: "25/1", want: 25},
		{in: "30000/1001", want: 29.97002997002997},
		{in: "24", want: 24},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFrameRate(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseFrameRateInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1/0", "x/1", "1/x"} {
		t.Run(in, func(t *testing.T) {
			_, err := parseFrameRate(in)
			assert.Error(t, err)
		})
	}
}

func TestParseSeconds(t *testing.T) {
	assert.Equal(t, 12.5, parseSeconds("12.5"))
	assert.Equal(t, 12.5, parseSeconds(" 12.5\n"))
	assert.Equal(t, float64(0), parseSeconds("N/A"))
	assert.Equal(t, float64(0), parseSeconds(""))
}
