package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/rtodesk/rto-records/internal/lifecycle"
)

func TestNewScheduler_RejectsBadTime(t *testing.T) {
	job := NewRefreshJob(newMemoryStore(), lifecycle.RefreshWindows, nil)

	_, err := NewScheduler(job, "25:99")
	assert.Error(t, err)
	_, err = NewScheduler(job, "midnight")
	assert.Error(t, err)

	s, err := NewScheduler(job, "01:30")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNextRun(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	// later today
	next := nextRun(now, "23:15")
	assert.Equal(t, time.Date(2025, 6, 10, 23, 15, 0, 0, time.UTC), next)

	// already passed today, so tomorrow
	next = nextRun(now, "01:30")
	assert.Equal(t, time.Date(2025, 6, 11, 1, 30, 0, 0, time.UTC), next)

	// exactly now rolls to tomorrow
	next = nextRun(now, "14:00")
	assert.Equal(t, time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC), next)
}
