package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/uptime-monitor/internal/metrics"
	"github.com/angeloszaimis/uptime-monitor/internal/worker"
	"github.com/angeloszaimis/uptime-monitor/pkg/logger"
)

// DefaultPeriod is the delay between sweeps.
const DefaultPeriod = 24 * time.Hour

// LogRotator is the part of the log store a sweep needs.
type LogRotator interface {
	List(includeArchived bool) ([]string, error)
	Rotate(id string) (string, error)
}

// EventSink receives metric events.
type EventSink interface {
	Emit(event metrics.Event)
}

type SweepReport struct {
	SweepID   string
	StartedAt time.Time
	Duration  time.Duration
	// Rotated maps log id to the archive it was written to.
	Rotated map[string]string
	// Failed maps log id to the reason it was not rotated.
	Failed map[string]error
	// Skipped holds ids not attempted because ctx ended first, sorted.
	Skipped []string
}

// Succeeded reports whether every listed log was rotated.
func (r SweepReport) Succeeded() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}

// FailedIDs returns the ids that were not rotated, sorted.
func (r SweepReport) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type Sweeper struct {
	logs   LogRotator
	events EventSink
	logger *slog.Logger
}

func NewSweeper(logs LogRotator, events EventSink, log *slog.Logger) *Sweeper {
	return &Sweeper{
		logs:   logs,
		events: events,
		logger: logger.Component(log, "rotation"),
	}
}

// Sweep rotates every active log once. It returns an error only when the
// logs cannot be listed.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{
		SweepID:   uuid.NewString(),
		StartedAt: time.Now(),
		Rotated:   make(map[string]string),
		Failed:    make(map[string]error),
	}

	log := s.logger.With(slog.String("sweep_id", report.SweepID))

	ids, err := s.logs.List(false)
	if err != nil {
		log.Error("Failed to list logs", slog.String("error", err.Error()))
		return report, fmt.Errorf("list logs: %w", err)
	}

	var (
		mutex sync.Mutex
		g     errgroup.Group
	)
	for _, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				mutex.Lock()
				report.Skipped = append(report.Skipped, id)
				mutex.Unlock()
				return nil
			}

			archive, err := s.logs.Rotate(id)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				report.Failed[id] = err
				s.emit(metrics.ResultFailed)
				log.Warn("Log rotation failed",
					slog.String("log_id", id),
					slog.String("error", err.Error()))
				return nil
			}
			report.Rotated[id] = archive
			s.emit(metrics.ResultRotated)
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(report.Skipped)

	report.Duration = time.Since(report.StartedAt)
	log.Info("Sweep completed",
		slog.Int("rotated", len(report.Rotated)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Duration("duration", report.Duration))

	return report, nil
}

func (s *Sweeper) emit(result string) {
	if s.events != nil {
		s.events.Emit(metrics.Event{Type: metrics.EventRotation, Result: result})
	}
}

// NewWorker schedules a sweep every period.
func NewWorker(s *Sweeper, period time.Duration, log *slog.Logger) *worker.Periodic {
	if period <= 0 {
		period = DefaultPeriod
	}
	return worker.New("rotation", period, func(ctx context.Context) error {
		_, err := s.Sweep(ctx)
		return err
	}, log)
}
