package scheduler

import (
	"testing"

	"book-rental-backend/internal/config"
	"book-rental-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRegistersJobs(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		MarkOverdueOrders:   "0 0 1 * * *",
		SendReturnReminders: "0 0 9 * * *",
	}}
	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Deps{}, cfg))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		MarkOverdueOrders:   "every night",
		SendReturnReminders: "0 0 9 * * *",
	}}
	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Deps{}, cfg))
	assert.ErrorContains(t, err, "MarkOverdueOrders")
}
