package timefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    string
	}{
		{"elapsed", 0, "Available now"},
		{"negative clamps to now", -5, "Available now"},
		{"single minute", 1, "Available in 1 minute"},
		{"minutes only", 45, "Available in 45 minutes"},
		{"exact hour", 60, "Available in 1 hour"},
		{"hour and minutes", 90, "Available in 1 hour and 30 minutes"},
		{"multiple hours", 150, "Available in 2 hours and 30 minutes"},
		{"exact day", 1440, "Available in 1 day"},
		{"day and hour", 1500, "Available in 1 day and 1 hour"},
		{"day hour minute", 1501, "Available in 1 day, 1 hour and 1 minute"},
		{"days and minutes", 2885, "Available in 2 days and 5 minutes"},
		{"six days", 6 * 1440, "Available in 6 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(tt.minutes))
		})
	}
}
