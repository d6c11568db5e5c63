// Package monitor runs monitoring cycles over the stored checks.
//
// A cycle lists every check id and fans out one chain per check:
//
//	read -> validate -> probe -> classify, log, persist -> alert
//
// Chains are independent. A failure in one (an unreadable record, an invalid
// check, a failed write) is recorded in the cycle Report and never touches
// the others. A probe that errors is not a failure; the check is simply down.
//
// The outcome line is appended to the check's log before the record is
// updated, and an alert is sent only when a previously checked check changes
// state.
package monitor
