package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-reservation-backend/internal/config"
	"book-reservation-backend/internal/jobs"
	"book-reservation-backend/internal/repository/memory"
)

func newRunner(schedule string) *jobs.JobRunner {
	store := memory.NewStore()
	cfg := &config.Config{Scheduler: config.SchedulerConfig{LateFeeAccrualReport: schedule}}
	return jobs.NewJobRunner(store.Reservations(), store.Books(), cfg)
}

func TestNewScheduler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s, err := NewScheduler(newRunner("0 0 2 * * *"))
		require.NoError(t, err)
		assert.Equal(t, 1, s.Entries())

		s.Start()
		s.Stop()
	})

	t.Run("Invalid schedule", func(t *testing.T) {
		_, err := NewScheduler(newRunner("every night"))
		assert.Error(t, err)
	})

	t.Run("Five field schedule is rejected", func(t *testing.T) {
		_, err := NewScheduler(newRunner("0 2 * * *"))
		assert.Error(t, err)
	})
}
