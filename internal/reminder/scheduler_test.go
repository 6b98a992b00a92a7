package reminder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob func(ctx context.Context) (RunResult, error)

func (f funcJob) Run(ctx context.Context) (RunResult, error) { return f(ctx) }

func TestNewSchedulerValidation(t *testing.T) {
	job := funcJob(func(context.Context) (RunResult, error) { return RunResult{}, nil })

	_, err := NewScheduler(nil, time.Minute, nil)
	assert.Error(t, err)

	_, err = NewScheduler(job, 500*time.Millisecond, nil)
	assert.Error(t, err)

	s, err := NewScheduler(job, time.Minute, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSchedulerRunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	var runs atomic.Int32
	job := funcJob(func(context.Context) (RunResult, error) {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return RunResult{Notified: 1}, nil
	})

	s, err := NewScheduler(job, time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not run the job on start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), runs.Load())
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	log, buf := logger.NewTestLogger()
	done := make(chan struct{})
	job := funcJob(func(context.Context) (RunResult, error) {
		defer close(done)
		panic("scan exploded")
	})

	s, err := NewScheduler(job, time.Hour, log)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Contains(t, buf.String(), "scan exploded")
}

func TestSchedulerStopCancelsSlowRun(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	job := funcJob(func(ctx context.Context) (RunResult, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return RunResult{}, ctx.Err()
	})

	s, err := NewScheduler(job, time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight run was not cancelled")
	}
}

func TestSchedulerLogsSkippedRunsQuietly(t *testing.T) {
	log, buf := logger.NewTestLogger()
	done := make(chan struct{})
	job := funcJob(func(context.Context) (RunResult, error) {
		defer close(done)
		return RunResult{}, ErrRunLocked
	})

	s, err := NewScheduler(job, time.Hour, log)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NotContains(t, buf.String(), "reminder scan failed")
}
