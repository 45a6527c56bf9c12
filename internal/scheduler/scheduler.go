// Package scheduler implements the agent lifecycle: register with the
// collector, then on every tick collect and submit metrics, poll for commands
// and run each one, and finally drain outstanding work on shutdown.
//
// Work units run on a context detached from cancellation. Stopping the
// scheduler only stops new ticks; everything already started runs to
// completion before Run returns.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/config"
	"github.com/eminbuyuk/lxmon/internal/executor"
	"github.com/eminbuyuk/lxmon/internal/models"
)

// State is the lifecycle phase of a Scheduler.
type State int32

const (
	Starting State = iota
	Running
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Sampler produces one metric batch per call.
type Sampler interface {
	CollectAll(ctx context.Context) []models.Metric
}

// API is the collector surface the scheduler drives.
type API interface {
	Register(ctx context.Context, reg models.Registration) error
	SubmitMetrics(ctx context.Context, batch models.MetricsSubmission) error
	executor.CommandAPI
}

// Runner executes one command.
type Runner interface {
	Execute(ctx context.Context, cmd models.PendingCommand) models.CommandResult
}

// HostIdentity supplies registration details about the local machine.
type HostIdentity struct {
	OSInfo  func(ctx context.Context) (*models.OSInfo, error)
	LocalIP func() string
}

// Scheduler coordinates registration, periodic collection and command runs.
type Scheduler struct {
	cfg     *config.Config
	sampler Sampler
	api     API
	runner  Runner
	poller  *executor.Poller
	host    HostIdentity
	logger  *zap.Logger
	metrics *agentmetrics.Metrics

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Scheduler. cfg.Hostname must already be resolved.
func New(cfg *config.Config, sampler Sampler, api API, runner Runner, host HostIdentity, logger *zap.Logger, metrics *agentmetrics.Metrics) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		sampler: sampler,
		api:     api,
		runner:  runner,
		poller:  executor.NewPoller(api, cfg.Hostname, logger),
		host:    host,
		logger:  logger.Named("scheduler"),
		metrics: metrics,
		stop:    make(chan struct{}),
	}
}

// State returns the current lifecycle phase.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
	s.logger.Debug("State changed", zap.Stringer("state", st))
}

// Stop asks a running scheduler to drain. It returns immediately; Run returns
// once draining has finished.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Run registers the agent and then ticks until ctx is cancelled or Stop is
// called. It returns an error only when registration fails; in that case no
// work has been started.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setState(Starting)

	if err := s.register(ctx); err != nil {
		s.setState(Stopped)
		return fmt.Errorf("register agent: %w", err)
	}

	s.setState(Running)
	s.logger.Info("Agent running",
		zap.String("hostname", s.cfg.Hostname),
		zap.Duration("interval", s.cfg.Collection.Interval.Duration))

	work := context.WithoutCancel(ctx)

	commands := pool.New()
	if n := s.cfg.Commands.MaxConcurrent; n > 0 {
		commands = commands.WithMaxGoroutines(n)
	}

	var units conc.WaitGroup
	units.Go(func() {
		s.safely("initial collection", func() { s.collectAndSubmit(work) })
	})

	ticker := time.NewTicker(s.cfg.Collection.Interval.Duration)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-s.stop:
			break loop
		case <-ticker.C:
			s.metrics.Ticks.Inc()
			units.Go(func() {
				s.safely("tick", func() { s.tick(work, commands) })
			})
		}
	}
	ticker.Stop()

	s.setState(Draining)
	s.logger.Info("Draining outstanding work")

	// Ticks must finish before the pool is waited on; they are the only
	// producers of command tasks.
	units.Wait()
	commands.Wait()

	s.setState(Stopped)
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) register(ctx context.Context) error {
	reg := models.Registration{
		Hostname:  s.cfg.Hostname,
		IPAddress: s.host.LocalIP(),
		APIKey:    s.cfg.Server.APIKey,
	}
	info, err := s.host.OSInfo(ctx)
	if err != nil {
		s.logger.Warn("Host info unavailable, registering without it", zap.Error(err))
	} else {
		reg.OSInfo = info
	}

	if err := s.api.Register(ctx, reg); err != nil {
		return err
	}
	s.logger.Info("Agent registered",
		zap.String("hostname", reg.Hostname),
		zap.String("ip_address", reg.IPAddress))
	return nil
}

// tick is one work unit: metrics first, then commands. Each command is handed
// to the pool and reported on its own.
func (s *Scheduler) tick(ctx context.Context, commands *pool.Pool) {
	s.collectAndSubmit(ctx)

	for _, cmd := range s.poller.Poll(ctx) {
		commands.Go(func() {
			s.safely("command", func() {
				res := s.runner.Execute(ctx, cmd)
				s.poller.Report(ctx, res)
			})
		})
	}
}

func (s *Scheduler) collectAndSubmit(ctx context.Context) {
	batch := s.sampler.CollectAll(ctx)

	err := s.api.SubmitMetrics(ctx, models.MetricsSubmission{
		Hostname: s.cfg.Hostname,
		APIKey:   s.cfg.Server.APIKey,
		Metrics:  batch,
	})
	if err != nil {
		s.logger.Error("Dropping metrics batch",
			zap.Int("metrics", len(batch)),
			zap.Error(err))
		return
	}
	s.logger.Info("Sent metrics", zap.Int("metrics", len(batch)))
}

// safely runs fn and logs a panic instead of letting it take the agent down.
func (s *Scheduler) safely(unit string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("Work unit panicked",
				zap.String("unit", unit),
				zap.Any("panic", v),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}
