package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowContains(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(now, 15*time.Minute, 30*time.Minute)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"now", now, true},
		{"start edge", now.Add(-15 * time.Minute), true},
		{"end edge", now.Add(30 * time.Minute), true},
		{"just before start", now.Add(-15*time.Minute - time.Second), false},
		{"just after end", now.Add(30*time.Minute + time.Second), false},
		{"forty minutes ahead", now.Add(40 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.at))
		})
	}
}
