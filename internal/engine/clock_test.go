package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		elapsed, length float64
		want            string
	}{
		{0, 360, "00:00"},
		{60, 360, "01:00"},
		{90, 360, "01:30"},
		{359, 360, "05:59"},
		{360, 360, "06:00"},
		{500, 360, "06:00"},
		{30, 60, "03:00"},
		{10, 0, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.elapsed, tt.length, 6), "%v/%v", tt.elapsed, tt.length)
	}
}
