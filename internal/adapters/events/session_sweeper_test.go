package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	remaining int64
	calls     []int
	err       error
}

func (f *fakeDeleter) SweepExpiredSessions(_ context.Context, limit int) (int64, error) {
	f.calls = append(f.calls, limit)
	if f.err != nil {
		return 0, f.err
	}
	n := int64(limit)
	if f.remaining < n {
		n = f.remaining
	}
	f.remaining -= n
	return n, nil
}

func TestSessionSweeperDrainsInBatches(t *testing.T) {
	t.Parallel()

	deleter := &fakeDeleter{remaining: 25}
	sweeper := NewSessionSweeper(discardLogger(), deleter, 0, 10)

	total, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Equal(t, []int{10, 10, 10}, deleter.calls)
}

func TestSessionSweeperReportsStoreErrors(t *testing.T) {
	t.Parallel()

	deleter := &fakeDeleter{err: errors.New("db gone")}
	sweeper := NewSessionSweeper(discardLogger(), deleter, 0, 0)

	_, err := sweeper.SweepOnce(context.Background())
	assert.EqualError(t, err, "db gone")
	assert.Equal(t, []int{500}, deleter.calls)
}
