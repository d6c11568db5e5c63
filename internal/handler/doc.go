// Package handler implements the read-only status API: liveness with worker
// stats, stored check records and check log archives.
package handler
