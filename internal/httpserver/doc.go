// Package httpserver runs the status API with sane timeouts and a bounded
// graceful shutdown.
package httpserver
