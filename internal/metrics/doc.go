// Package metrics collects operational metrics for the monitor.
//
// The pipeline and the rotation sweeper emit events onto a buffered channel;
// a single collector goroutine folds them into:
//   - Prometheus series on a private registry (probes by state, pipeline
//     failures by stage, alert and rotation results, cycle and probe latency)
//   - an in-memory snapshot per check (last state, probe count, latency
//     percentiles, status code distribution) served as JSON
//
// Emit never blocks the caller. When the buffer is full the event is dropped
// and counted.
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//	collector.Emit(metrics.Event{Type: metrics.EventCheckProbed, CheckID: id, State: "up"})
//	snap := collector.Snapshot()
package metrics
