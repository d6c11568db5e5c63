// Package rotation archives active check logs on a schedule.
//
// Each sweep lists the active logs and rotates every one independently. A
// log that fails to rotate (deleted underneath the sweep, unreadable) is
// reported and skipped; the others are still archived.
package rotation
