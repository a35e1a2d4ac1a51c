package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"carebook/internal/logger"
	"carebook/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockCompleter struct {
	calls    int
	lastUser *uuid.UUID
	lastTx   *gorm.DB
	count    int64
	err      error
}

func (m *mockCompleter) CompleteOverdue(
	ctx context.Context,
	tx *gorm.DB,
	userID *uuid.UUID,
	now time.Time,
) (int64, error) {
	m.calls++
	m.lastTx = tx
	m.lastUser = userID
	return m.count, m.err
}

func newTestJob(completer *mockCompleter) *BookingSweepJob {
	return &BookingSweepJob{
		bookingRepo: completer,
		log:         logger.New("bookingSweepJob"),
		schedule:    services.Hourly,
	}
}

func TestBookingSweepJobMetadata(t *testing.T) {
	job := newTestJob(&mockCompleter{})

	assert.Equal(t, "BookingOverdueSweep", job.Name())
	assert.Equal(t, services.Hourly, job.Schedule())
}

func TestBookingSweepJobExecutesSystemWide(t *testing.T) {
	completer := &mockCompleter{count: 3}
	job := newTestJob(completer)

	err := job.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, completer.calls)

	// System-wide sweep: no user scope, no enclosing transaction.
	assert.Nil(t, completer.lastUser)
	assert.Nil(t, completer.lastTx)
}

func TestBookingSweepJobPropagatesError(t *testing.T) {
	completer := &mockCompleter{err: errors.New("db unavailable")}
	job := newTestJob(completer)

	err := job.Execute(context.Background())

	assert.Error(t, err)
}
