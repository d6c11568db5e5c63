package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/uptime-monitor/internal/metrics"
	"github.com/angeloszaimis/uptime-monitor/internal/notify"
	"github.com/angeloszaimis/uptime-monitor/internal/probe"
	"github.com/angeloszaimis/uptime-monitor/internal/worker"
	"github.com/angeloszaimis/uptime-monitor/pkg/logger"
)

// CheckRepository is the part of the record store a cycle needs.
type CheckRepository interface {
	List() ([]string, error)
	Read(key string, dst any) error
	Update(key string, value any) error
}

// OutcomeLog receives one line per classified check.
type OutcomeLog interface {
	Append(id, line string) error
}

// EventSink receives metric events. *metrics.Collector implements it.
type EventSink interface {
	Emit(event metrics.Event)
}

// Stage names the step at which a check's chain stopped.
type Stage string

const (
	StageList     Stage = "list"
	StageRead     Stage = "read"
	StageValidate Stage = "validate"
	StageLog      Stage = "log"
	StageUpdate   Stage = "update"
	StageAlert    Stage = "alert"
)

type Failure struct {
	CheckID string
	Stage   Stage
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("check %s: %s: %v", f.CheckID, f.Stage, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarises one cycle.
type Report struct {
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration
	Checks    int
	Up        int
	Down      int
	Alerts    int
	Failures  []Failure
}

// Completed is the number of checks whose outcome was logged and persisted.
func (r Report) Completed() int {
	return r.Up + r.Down
}

type Option func(*Pipeline)

// WithConcurrency bounds the number of chains in flight. Zero or less means
// unbounded.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func WithEvents(sink EventSink) Option {
	return func(p *Pipeline) {
		p.events = sink
	}
}

type Pipeline struct {
	checks      CheckRepository
	logs        OutcomeLog
	prober      probe.Prober
	notifier    notify.Notifier
	events      EventSink
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
}

func NewPipeline(checks CheckRepository, logs OutcomeLog, prober probe.Prober, notifier notify.Notifier, log *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		checks:   checks,
		logs:     logs,
		prober:   prober,
		notifier: notifier,
		logger:   logger.Component(log, "monitor"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// cycle accumulates results from concurrent chains.
type cycle struct {
	mutex  sync.Mutex
	report Report
}

func (c *cycle) fail(id string, stage Stage, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.report.Failures = append(c.report.Failures, Failure{CheckID: id, Stage: stage, Err: err})
}

func (c *cycle) done(outcome Outcome) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if outcome.State == StateUp {
		c.report.Up++
	} else {
		c.report.Down++
	}
}

func (c *cycle) alerted() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.report.Alerts++
}

// RunCycle processes every stored check once and returns after all chains
// have settled. The only error returned is a failure to list the checks;
// per-check failures are in the report.
func (p *Pipeline) RunCycle(ctx context.Context) (Report, error) {
	c := &cycle{report: Report{
		CycleID:   uuid.NewString(),
		StartedAt: p.now(),
	}}
	log := p.logger.With(slog.String("cycle_id", c.report.CycleID))

	ids, err := p.checks.List()
	if err != nil {
		c.fail("", StageList, err)
		p.emit(metrics.Event{Type: metrics.EventCheckFailed, Stage: string(StageList)})
		log.Error("Failed to list checks", slog.String("error", err.Error()))
		return c.report, fmt.Errorf("list checks: %w", err)
	}
	c.report.Checks = len(ids)

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for _, id := range ids {
		g.Go(func() error {
			p.runChain(ctx, log, c, id)
			return nil
		})
	}
	_ = g.Wait()

	c.report.Duration = p.now().Sub(c.report.StartedAt)
	p.emit(metrics.Event{Type: metrics.EventCycleCompleted, Duration: c.report.Duration})

	log.Info("Cycle completed",
		slog.Int("checks", c.report.Checks),
		slog.Int("up", c.report.Up),
		slog.Int("down", c.report.Down),
		slog.Int("alerts", c.report.Alerts),
		slog.Int("failures", len(c.report.Failures)),
		slog.Duration("duration", c.report.Duration),
	)
	return c.report, nil
}

func (p *Pipeline) runChain(ctx context.Context, log *slog.Logger, c *cycle, id string) {
	log = log.With(slog.String("check_id", id))

	fail := func(stage Stage, err error) {
		c.fail(id, stage, err)
		p.emit(metrics.Event{Type: metrics.EventCheckFailed, CheckID: id, Stage: string(stage)})
		log.Warn("Check skipped this cycle", slog.String("stage", string(stage)), slog.String("error", err.Error()))
	}

	var raw map[string]any
	if err := p.checks.Read(id, &raw); err != nil {
		fail(StageRead, err)
		return
	}

	check, err := ParseCheck(raw)
	if err != nil {
		fail(StageValidate, err)
		return
	}
	if check.ID != id {
		fail(StageValidate, fmt.Errorf("%w: id %q does not match record key", ErrInvalidCheck, check.ID))
		return
	}

	res, probeErr := p.prober.Probe(ctx, check.Request())
	outcome := Classify(check, res.StatusCode, probeErr, p.now().UnixMilli())
	if probeErr != nil {
		log.Debug("Probe failed", slog.String("error", probeErr.Error()), slog.Bool("timeout", probe.IsTimeout(probeErr)))
	}

	line, err := outcome.LogLine()
	if err != nil {
		fail(StageLog, err)
		return
	}
	if err := p.logs.Append(id, line); err != nil {
		fail(StageLog, err)
		return
	}
	if err := p.checks.Update(id, outcome.apply(raw)); err != nil {
		fail(StageUpdate, err)
		return
	}

	c.done(outcome)
	p.emit(metrics.Event{
		Type:       metrics.EventCheckProbed,
		CheckID:    check.ID,
		State:      string(outcome.State),
		StatusCode: outcome.StatusCode,
		Duration:   res.Duration,
	})

	if !outcome.AlertWarranted {
		return
	}

	c.alerted()
	if err := p.notifier.Notify(ctx, check.UserPhone, outcome.AlertMessage()); err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, notify.ErrCircuitOpen) {
			result = metrics.ResultSkipped
		}
		p.emit(metrics.Event{Type: metrics.EventAlert, CheckID: check.ID, Result: result})
		fail(StageAlert, err)
		return
	}
	p.emit(metrics.Event{Type: metrics.EventAlert, CheckID: check.ID, Result: metrics.ResultSent})
	log.Info("Alert sent", slog.String("state", string(outcome.State)))
}

func (p *Pipeline) emit(event metrics.Event) {
	if p.events != nil {
		p.events.Emit(event)
	}
}

// NewCheckWorker schedules RunCycle every period.
func NewCheckWorker(p *Pipeline, period time.Duration, log *slog.Logger) *worker.Periodic {
	return worker.New("checks", period, func(ctx context.Context) error {
		_, err := p.RunCycle(ctx)
		return err
	}, log)
}
