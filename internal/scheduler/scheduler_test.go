package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/config"
	"github.com/eminbuyuk/lxmon/internal/models"
	"github.com/eminbuyuk/lxmon/internal/transport"
)

type fakeSampler struct{}

func (fakeSampler) CollectAll(context.Context) []models.Metric {
	return []models.Metric{{Type: models.TypeCPU, Name: "usage_percent", Value: 12.5}}
}

type fakeAPI struct {
	mu          sync.Mutex
	registerErr error
	registered  []models.Registration
	batches     []models.MetricsSubmission
	pending     [][]models.PendingCommand
	results     []models.CommandResult
}

func (f *fakeAPI) Register(_ context.Context, reg models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, reg)
	return f.registerErr
}

func (f *fakeAPI) SubmitMetrics(_ context.Context, batch models.MetricsSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return nil
}

// PollCommands hands out each queued slice once.
func (f *fakeAPI) PollCommands(context.Context, string) ([]models.PendingCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	next := f.pending[0]
	f.pending = f.pending[1:]
	return next, nil
}

func (f *fakeAPI) SubmitResult(_ context.Context, _ string, res models.CommandResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

func (f *fakeAPI) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeAPI) resultCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type funcRunner func(ctx context.Context, cmd models.PendingCommand) models.CommandResult

func (f funcRunner) Execute(ctx context.Context, cmd models.PendingCommand) models.CommandResult {
	return f(ctx, cmd)
}

func instantRunner() funcRunner {
	return func(_ context.Context, cmd models.PendingCommand) models.CommandResult {
		return models.CommandResult{CommandID: cmd.ID}
	}
}

func testHost() HostIdentity {
	return HostIdentity{
		OSInfo: func(context.Context) (*models.OSInfo, error) {
			return &models.OSInfo{OS: "linux"}, nil
		},
		LocalIP: func() string { return "10.1.2.3" },
	}
}

func testConfig(interval time.Duration) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Hostname = "web-01"
	cfg.Collection.Interval = config.Duration{Duration: interval}
	return cfg
}

func newTestScheduler(cfg *config.Config, api *fakeAPI, runner Runner, logger *zap.Logger) *Scheduler {
	return New(cfg, fakeSampler{}, api, runner, testHost(), logger, agentmetrics.New())
}

func runAsync(s *Scheduler, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func TestRun_RegistrationFailureIsFatal(t *testing.T) {
	api := &fakeAPI{registerErr: &transport.ExhaustedError{Path: transport.PathRegister, Attempts: 3, Last: errors.New("refused")}}
	s := newTestScheduler(testConfig(time.Hour), api, instantRunner(), zap.NewNop())

	err := s.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrExhausted)
	assert.Equal(t, Stopped, s.State())
	assert.Zero(t, api.batchCount())
}

func TestRun_RegistersWithHostIdentity(t *testing.T) {
	api := &fakeAPI{}
	s := newTestScheduler(testConfig(time.Hour), api, instantRunner(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)
	require.Eventually(t, func() bool { return api.batchCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Len(t, api.registered, 1)
	reg := api.registered[0]
	assert.Equal(t, "web-01", reg.Hostname)
	assert.Equal(t, "10.1.2.3", reg.IPAddress)
	assert.Equal(t, "agent-key-1", reg.APIKey)
	require.NotNil(t, reg.OSInfo)
	assert.Equal(t, "linux", reg.OSInfo.OS)

	batch := api.batches[0]
	assert.Equal(t, "web-01", batch.Hostname)
	assert.Equal(t, "agent-key-1", batch.APIKey)
	assert.Len(t, batch.Metrics, 1)
}

func TestRun_RegistersWithoutOSInfo(t *testing.T) {
	api := &fakeAPI{}
	s := newTestScheduler(testConfig(time.Hour), api, instantRunner(), zap.NewNop())
	s.host.OSInfo = func(context.Context) (*models.OSInfo, error) { return nil, errors.New("no host info") }

	s.Stop()
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, api.registered, 1)
	assert.Nil(t, api.registered[0].OSInfo)
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	api := &fakeAPI{}
	s := newTestScheduler(testConfig(20*time.Millisecond), api, instantRunner(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	require.Eventually(t, func() bool { return s.State() == Running }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return api.batchCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, Stopped, s.State())
}

func TestRun_ExecutesPolledCommands(t *testing.T) {
	api := &fakeAPI{pending: [][]models.PendingCommand{{{ID: 1, Command: "a"}, {ID: 2, Command: "b"}}}}
	s := newTestScheduler(testConfig(10*time.Millisecond), api, instantRunner(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)
	require.Eventually(t, func() bool { return api.resultCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	ids := map[int64]bool{}
	for _, r := range api.results {
		ids[r.CommandID] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true}, ids)
}

func TestRun_CommandsRunConcurrently(t *testing.T) {
	api := &fakeAPI{pending: [][]models.PendingCommand{{{ID: 1}, {ID: 2}}}}

	var wg sync.WaitGroup
	wg.Add(2)
	bothStarted := make(chan struct{})
	go func() { wg.Wait(); close(bothStarted) }()

	runner := funcRunner(func(_ context.Context, cmd models.PendingCommand) models.CommandResult {
		wg.Done()
		select {
		case <-bothStarted:
		case <-time.After(2 * time.Second):
			return models.CommandResult{CommandID: cmd.ID, ExitCode: 99}
		}
		return models.CommandResult{CommandID: cmd.ID}
	})
	s := newTestScheduler(testConfig(10*time.Millisecond), api, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)
	require.Eventually(t, func() bool { return api.resultCount() == 2 }, 3*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	for _, r := range api.results {
		assert.Equal(t, 0, r.ExitCode, "command %d did not overlap", r.CommandID)
	}
}

func TestRun_DrainWaitsForInFlightCommand(t *testing.T) {
	api := &fakeAPI{pending: [][]models.PendingCommand{{{ID: 7, Command: "sleep"}}}}

	started := make(chan struct{})
	var runCtxErr error
	runner := funcRunner(func(ctx context.Context, cmd models.PendingCommand) models.CommandResult {
		close(started)
		time.Sleep(200 * time.Millisecond)
		runCtxErr = ctx.Err()
		return models.CommandResult{CommandID: cmd.ID}
	})
	s := newTestScheduler(testConfig(10*time.Millisecond), api, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	<-started
	cancel()
	require.Eventually(t, func() bool { return s.State() == Draining }, time.Second, time.Millisecond)

	require.NoError(t, <-done)
	assert.Equal(t, Stopped, s.State())
	assert.Equal(t, 1, api.resultCount(), "result must be sent before Run returns")
	assert.NoError(t, runCtxErr, "work unit context must survive shutdown")
}

func TestRun_PanickingCommandIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	api := &fakeAPI{pending: [][]models.PendingCommand{{{ID: 1}, {ID: 2}}}}
	runner := funcRunner(func(_ context.Context, cmd models.PendingCommand) models.CommandResult {
		if cmd.ID == 1 {
			panic("bad command")
		}
		return models.CommandResult{CommandID: cmd.ID}
	})
	s := newTestScheduler(testConfig(10*time.Millisecond), api, runner, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)
	require.Eventually(t, func() bool { return api.resultCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, int64(2), api.results[0].CommandID)
	assert.Equal(t, 1, logs.FilterMessage("Work unit panicked").Len())
}

func TestStop_EndsRun(t *testing.T) {
	api := &fakeAPI{}
	s := newTestScheduler(testConfig(time.Hour), api, instantRunner(), zap.NewNop())

	done := runAsync(s, context.Background())
	require.Eventually(t, func() bool { return s.State() == Running }, time.Second, time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, Stopped, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "stopped", Stopped.String())
}
