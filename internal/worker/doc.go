// Package worker provides Periodic, a self-rescheduling loop that runs a task,
// waits for the task to finish, and only then arms the timer for the next
// run. Two runs of the same Periodic never overlap.
//
// Usage:
//
//	w := worker.New("check-worker", time.Minute, pipeline.Exec, log)
//	go w.Loop(ctx)
//	...
//	w.Shutdown() // no new runs; a run in flight completes
package worker
