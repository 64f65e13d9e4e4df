package tithe

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, total int64) *TitheBatch {
	t.Helper()
	calc, err := NewCalculator(testTable())
	require.NoError(t, err)
	bd, err := calc.Distribute(decimal.NewFromInt(total))
	require.NoError(t, err)
	batch, err := NewTitheBatch("2026-08", PeriodFirstFortnight, time.Now(), decimal.NewFromInt(total), bd, uuid.New())
	require.NoError(t, err)
	return batch
}

func TestNewTitheBatch(t *testing.T) {
	t.Run("starts undistributed", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		assert.False(t, batch.Distributed)
		assert.Nil(t, batch.DistributedAt)
		assert.Nil(t, batch.DistributedBy)
		assert.True(t, batch.TotalReceived.Equal(decimal.NewFromInt(150)))
	})

	t.Run("rejects unknown period type", func(t *testing.T) {
		_, err := NewTitheBatch("2026-08", "WEEKLY", time.Now(), decimal.NewFromInt(100), Breakdown{}, uuid.New())
		assert.Error(t, err)
	})

	t.Run("rejects breakdown over total", func(t *testing.T) {
		bd := Breakdown{TitheOfTithe: decimal.NewFromInt(200)}
		_, err := NewTitheBatch("2026-08", PeriodMonthly, time.Now(), decimal.NewFromInt(100), bd, uuid.New())
		assert.Error(t, err)
	})
}

func TestTitheBatchDistribute(t *testing.T) {
	t.Run("stamps who and when exactly once", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		userID := uuid.New()
		at := time.Now()

		require.NoError(t, batch.Distribute(userID, at))
		assert.True(t, batch.Distributed)
		assert.Equal(t, userID, *batch.DistributedBy)
		assert.Equal(t, at, *batch.DistributedAt)
	})

	t.Run("bumps the version for optimistic locking", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		require.Equal(t, 1, batch.Version)

		require.NoError(t, batch.Distribute(uuid.New(), time.Now()))
		assert.Equal(t, 2, batch.Version)
	})

	t.Run("second attempt fails without touching the stamp", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		firstUser := uuid.New()
		firstAt := time.Now().Add(-time.Hour)
		require.NoError(t, batch.Distribute(firstUser, firstAt))

		err := batch.Distribute(uuid.New(), time.Now())
		assert.ErrorIs(t, err, ErrAlreadyDistributed)
		assert.Equal(t, firstUser, *batch.DistributedBy)
		assert.Equal(t, firstAt, *batch.DistributedAt)
	})
}

func TestTitheBatchRecompute(t *testing.T) {
	calc, err := NewCalculator(testTable())
	require.NoError(t, err)

	t.Run("replaces total and breakdown", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		newTotal := decimal.NewFromInt(130)
		bd, err := calc.Distribute(newTotal)
		require.NoError(t, err)

		require.NoError(t, batch.Recompute(newTotal, bd))
		assert.True(t, batch.TotalReceived.Equal(newTotal))
		assert.Equal(t, bd, batch.Breakdown)
	})

	t.Run("bumps the version for optimistic locking", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		bd, err := calc.Distribute(decimal.NewFromInt(90))
		require.NoError(t, err)

		require.NoError(t, batch.Recompute(decimal.NewFromInt(90), bd))
		assert.Equal(t, 2, batch.Version)
	})

	t.Run("never touches the distributed flag", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		require.NoError(t, batch.Distribute(uuid.New(), time.Now()))

		bd, err := calc.Distribute(decimal.NewFromInt(90))
		require.NoError(t, err)
		require.NoError(t, batch.Recompute(decimal.NewFromInt(90), bd))
		assert.True(t, batch.Distributed)
		assert.NotNil(t, batch.DistributedAt)
	})

	t.Run("rejects inconsistent breakdown", func(t *testing.T) {
		batch := newTestBatch(t, 150)
		bd := Breakdown{TitheOfTithe: decimal.NewFromInt(500)}
		assert.Error(t, batch.Recompute(decimal.NewFromInt(100), bd))
	})
}
