package domain

import "time"

// ScheduleSettings holds periodic re-index configuration.
type ScheduleSettings struct {
	// Interval is the time between full re-index passes over every
	// registered folder. Zero disables the schedule.
	Interval time.Duration
}

// Enabled reports whether periodic re-indexing is switched on.
func (s ScheduleSettings) Enabled() bool {
	return s.Interval > 0
}

// ScheduledPass is the outcome of one periodic re-index pass.
type ScheduledPass struct {
	StartedAt time.Time
	EndedAt   time.Time

	// Summaries holds one summary per folder path.
	Summaries map[string]IndexSummary

	// Err is set when the folder list could not be read.
	Err error
}

// Totals sums indexed and skipped counts across all folders.
func (p ScheduledPass) Totals() (indexed, skipped int) {
	for _, s := range p.Summaries {
		indexed += s.Indexed
		skipped += s.Skipped
	}
	return indexed, skipped
}
