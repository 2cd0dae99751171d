package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleSettings_Enabled(t *testing.T) {
	assert.False(t, ScheduleSettings{}.Enabled())
	assert.False(t, ScheduleSettings{Interval: -time.Minute}.Enabled())
	assert.True(t, ScheduleSettings{Interval: time.Hour}.Enabled())
}

func TestScheduledPass_Totals(t *testing.T) {
	pass := ScheduledPass{
		Summaries: map[string]IndexSummary{
			"/a": {Indexed: 3, Skipped: 1},
			"/b": {Indexed: 2, Skipped: 4, Cancelled: true},
		},
	}

	indexed, skipped := pass.Totals()

	assert.Equal(t, 5, indexed)
	assert.Equal(t, 5, skipped)
}

func TestScheduledPass_TotalsEmpty(t *testing.T) {
	indexed, skipped := ScheduledPass{}.Totals()

	assert.Zero(t, indexed)
	assert.Zero(t, skipped)
}
