package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshu-sajeev/queuectl/common"
	"github.com/joshu-sajeev/queuectl/internal/config"
	"github.com/joshu-sajeev/queuectl/internal/executor"
	"github.com/joshu-sajeev/queuectl/internal/mocks"
	"github.com/joshu-sajeev/queuectl/internal/models"
	"github.com/joshu-sajeev/queuectl/internal/storage/sqlite"
)

// fakeRunner pops canned results instead of spawning real processes.
type fakeRunner struct {
	mu      sync.Mutex
	results []executor.Result
	calls   int
	delay   time.Duration
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ time.Duration) executor.Result {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return executor.Result{ExitCode: 0}
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

func testSettings() *config.Settings {
	return &config.Settings{
		PollInterval:  10 * time.Millisecond,
		SweepInterval: time.Millisecond,
	}
}

func newTestWorker(t *testing.T, id int, runner executor.Runner) (*Worker, *sqlite.JobRepository) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	repo := sqlite.NewJobRepository(db)

	return New(id, repo, runner, testSettings(), zerolog.Nop()), repo
}

func enqueue(t *testing.T, repo *sqlite.JobRepository, j models.Job) {
	t.Helper()
	if j.State == "" {
		j.State = config.StatePending
	}
	if j.Command == "" {
		j.Command = "exit 0"
	}
	require.NoError(t, repo.Enqueue(context.Background(), &j))
}

func TestWorkerSuccessPath(t *testing.T) {
	runner := &fakeRunner{results: []executor.Result{{ExitCode: 0, Stdout: "done\n"}}}
	w, repo := newTestWorker(t, 1, runner)
	ctx := context.Background()

	enqueue(t, repo, models.Job{ID: "e1", MaxRetries: 3})

	worked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)

	j, err := repo.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, config.StateCompleted, j.State)
	assert.Equal(t, 0, j.Attempts, "success does not count an attempt")
	assert.Equal(t, "done\n", j.StdoutLog)

	worked, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, worked, "a completed job is never picked again")
}

func TestWorkerSchedulesRetryWithBackoff(t *testing.T) {
	runner := &fakeRunner{results: []executor.Result{{ExitCode: 1, Stderr: "boom\n"}}}
	w, repo := newTestWorker(t, 1, runner)
	ctx := context.Background()

	require.NoError(t, repo.SetConfig(ctx, config.KeyBackoffBase, "2"))
	require.NoError(t, repo.SetConfig(ctx, config.KeyMaxBackoffSeconds, "10"))
	enqueue(t, repo, models.Job{ID: "e2", MaxRetries: 3})

	before := time.Now()
	worked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)

	j, err := repo.Get(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, config.StatePending, j.State)
	assert.Equal(t, 1, j.Attempts)
	require.NotNil(t, j.RetryAt)
	assert.WithinDuration(t, before.Add(2*time.Second), *j.RetryAt, 2*time.Second, "first retry waits base^1")
	require.NotNil(t, j.LastError)
	assert.Contains(t, *j.LastError, "exit code 1")
	assert.Contains(t, *j.LastError, "boom")
}

func TestWorkerRetryThenSuccess(t *testing.T) {
	runner := &fakeRunner{results: []executor.Result{
		{ExitCode: 1, Stderr: "first\n"},
		{ExitCode: 1, Stderr: "second\n"},
		{ExitCode: 0, Stdout: "ok\n"},
	}}
	w, repo := newTestWorker(t, 1, runner)
	ctx := context.Background()

	require.NoError(t, repo.SetConfig(ctx, config.KeyBackoffBase, "2"))
	require.NoError(t, repo.SetConfig(ctx, config.KeyMaxBackoffSeconds, "10"))
	enqueue(t, repo, models.Job{ID: "e2", MaxRetries: 3})

	for i := 0; i < 3; i++ {
		// Fast-forward past any scheduled backoff instead of sleeping.
		_, err := repo.PromoteReadyRetries(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)

		worked, err := w.RunOnce(ctx)
		require.NoError(t, err)
		require.True(t, worked, "iteration %d should claim the job", i)
	}

	j, err := repo.Get(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, config.StateCompleted, j.State)
	assert.Equal(t, 2, j.Attempts, "two failures before the success")
	assert.Equal(t, 3, runner.calls)
}

func TestWorkerMovesToDLQAfterMaxRetries(t *testing.T) {
	runner := &fakeRunner{results: []executor.Result{{ExitCode: 1, Stderr: "always fails\n"}}}
	w, repo := newTestWorker(t, 1, runner)
	ctx := context.Background()

	enqueue(t, repo, models.Job{ID: "e3", MaxRetries: 2})

	// max_retries=2 allows exactly 3 executions.
	for i := 0; i < 3; i++ {
		_, err := repo.PromoteReadyRetries(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)

		worked, err := w.RunOnce(ctx)
		require.NoError(t, err)
		require.True(t, worked)
	}
	assert.Equal(t, 3, runner.calls)

	j, err := repo.Get(ctx, "e3")
	require.NoError(t, err)
	assert.Equal(t, config.StateDead, j.State)
	assert.Equal(t, 3, j.Attempts)

	entry, err := repo.GetDLQ(ctx, "e3")
	require.NoError(t, err)
	assert.Contains(t, entry.Reason, "max retries exceeded")

	worked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, worked, "dead jobs are not claimable")
}

func TestWorkerZeroRetriesGoesStraightToDLQ(t *testing.T) {
	runner := &fakeRunner{results: []executor.Result{{ExitCode: 7}}}
	w, repo := newTestWorker(t, 1, runner)
	ctx := context.Background()

	enqueue(t, repo, models.Job{ID: "one-shot", MaxRetries: 0})

	worked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)
	assert.Equal(t, 1, runner.calls)

	j, err := repo.Get(ctx, "one-shot")
	require.NoError(t, err)
	assert.Equal(t, config.StateDead, j.State)
	assert.Equal(t, 1, j.Attempts)
}

func TestWorkerTimeoutCountsAsFailure(t *testing.T) {
	runner := &fakeRunner{results: []executor.Result{{ExitCode: -1, TimedOut: true}}}
	w, repo := newTestWorker(t, 1, runner)
	ctx := context.Background()

	enqueue(t, repo, models.Job{ID: "slow", MaxRetries: 3})

	worked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)

	j, err := repo.Get(ctx, "slow")
	require.NoError(t, err)
	assert.Equal(t, config.StatePending, j.State)
	assert.Equal(t, 1, j.Attempts)
	require.NotNil(t, j.LastError)
	assert.Contains(t, *j.LastError, "timed out")
}

func TestWorkerSwallowsLeaseLost(t *testing.T) {
	repo := &mocks.JobRepoMock{}
	j := &models.Job{ID: "stolen", State: config.StateProcessing, MaxRetries: 3}

	repo.On("ReclaimExpiredLeases", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("PromoteReadyRetries", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("AllConfig", mock.Anything).Return(map[string]string{}, nil)
	repo.On("ClaimNextRunnable", mock.Anything, 1, mock.Anything, mock.Anything).Return(j, nil)
	repo.On("MarkCompleted", mock.Anything, "stolen", 1, mock.Anything, mock.Anything).
		Return(common.ErrLeaseLost)

	w := New(1, repo, &fakeRunner{}, testSettings(), zerolog.Nop())

	worked, err := w.RunOnce(context.Background())
	require.NoError(t, err, "a lost lease is logged, not propagated")
	assert.True(t, worked)

	// The worker must not try another state change for the stolen job.
	repo.AssertNotCalled(t, "ScheduleRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MoveToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkerPropagatesStoreErrors(t *testing.T) {
	repo := &mocks.JobRepoMock{}
	repo.On("ReclaimExpiredLeases", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("PromoteReadyRetries", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("AllConfig", mock.Anything).Return(map[string]string(nil), errors.New("disk on fire"))

	w := New(1, repo, &fakeRunner{}, testSettings(), zerolog.Nop())

	worked, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, worked)
}

func TestWorkerGracefulShutdownFinishesInFlightJob(t *testing.T) {
	runner := &fakeRunner{delay: 300 * time.Millisecond, results: []executor.Result{{ExitCode: 0}}}
	w, repo := newTestWorker(t, 1, runner)

	enqueue(t, repo, models.Job{ID: "e6", MaxRetries: 3})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Let the worker claim and start executing, then request shutdown.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not shut down")
	}

	j, err := repo.Get(context.Background(), "e6")
	require.NoError(t, err)
	assert.Equal(t, config.StateCompleted, j.State, "shutdown must not truncate a running job")
}
