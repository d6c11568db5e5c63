package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/uptime-monitor/internal/worker"
	"github.com/angeloszaimis/uptime-monitor/pkg/logger"
)

var _ = Describe("Periodic", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	It("should run immediately and then once per period", func() {
		var counter atomic.Int32
		w := worker.New("counter", 100*time.Millisecond, func(context.Context) error {
			counter.Add(1)
			return nil
		}, logger.Discard())

		go w.Loop(ctx)

		time.Sleep(150 * time.Millisecond)
		w.Shutdown()
		Eventually(w.Done()).Should(BeClosed())

		Expect(counter.Load()).To(BeEquivalentTo(2))
	})

	It("should never overlap runs", func() {
		var (
			inFlight atomic.Int32
			overlap  atomic.Bool
			runs     atomic.Int32
		)
		w := worker.New("slow", time.Millisecond, func(context.Context) error {
			if inFlight.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			runs.Add(1)
			return nil
		}, logger.Discard())

		go w.Loop(ctx)
		Eventually(runs.Load).Should(BeNumerically(">=", 3))
		w.Shutdown()
		Eventually(w.Done()).Should(BeClosed())

		Expect(overlap.Load()).To(BeFalse())
	})

	It("should keep looping after a failing run", func() {
		var runs atomic.Int32
		w := worker.New("failing", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		}, logger.Discard())

		go w.Loop(ctx)
		Eventually(runs.Load).Should(BeNumerically(">=", 3))
		w.Shutdown()
		Eventually(w.Done()).Should(BeClosed())

		n, lastErr, _ := w.Stats()
		Expect(n).To(BeNumerically(">=", 3))
		Expect(lastErr).To(MatchError("boom"))
	})

	It("should survive a panicking run", func() {
		var runs atomic.Int32
		w := worker.New("panicky", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			panic("kaboom")
		}, logger.Discard())

		go w.Loop(ctx)
		Eventually(runs.Load).Should(BeNumerically(">=", 2))
		w.Shutdown()
		Eventually(w.Done()).Should(BeClosed())

		_, lastErr, _ := w.Stats()
		Expect(lastErr).To(MatchError(ContainSubstring("kaboom")))
	})

	It("should let the run in flight finish on shutdown", func() {
		started := make(chan struct{})
		release := make(chan struct{})
		var finished atomic.Bool
		var runs atomic.Int32

		w := worker.New("long", 10*time.Millisecond, func(taskCtx context.Context) error {
			runs.Add(1)
			close(started)
			<-release
			finished.Store(taskCtx.Err() == nil)
			return nil
		}, logger.Discard())

		go w.Loop(ctx)
		Eventually(started).Should(BeClosed())

		w.Shutdown()
		cancel()
		Consistently(w.Done(), 50*time.Millisecond).ShouldNot(BeClosed())

		close(release)
		Eventually(w.Done()).Should(BeClosed())
		Expect(finished.Load()).To(BeTrue())
		Expect(runs.Load()).To(BeEquivalentTo(1))
	})

	It("should not run after shutdown before start", func() {
		var runs atomic.Int32
		w := worker.New("never", time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		}, logger.Discard())

		w.Shutdown()
		w.Shutdown()
		w.Loop(ctx)

		Expect(runs.Load()).To(BeZero())
		Expect(w.Done()).To(BeClosed())
	})

	It("should stop when the context is cancelled", func() {
		w := worker.New("ctx", time.Hour, func(context.Context) error { return nil }, logger.Discard())

		go w.Loop(ctx)
		Eventually(func() int { n, _, _ := w.Stats(); return n }).Should(Equal(1))
		cancel()
		Eventually(w.Done()).Should(BeClosed())
	})

	It("should expose its name and period", func() {
		w := worker.New("rotation", 24*time.Hour, func(context.Context) error { return nil }, nil)
		Expect(w.Name()).To(Equal("rotation"))
		Expect(w.Period()).To(Equal(24 * time.Hour))
	})
})
