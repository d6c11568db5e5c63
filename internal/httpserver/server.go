package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const shutdownTimeout = 5 * time.Second

// Server wraps http.Server for the status API.
type Server struct {
	server *http.Server

	mutex    sync.Mutex
	listener net.Listener
}

// New validates addr and returns a server that is not yet listening.
func New(addr string, handler http.Handler) (*Server, error) {
	if err := validateHostPort(addr); err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Listen binds the address. Start calls it when needed; calling it first
// lets the caller learn the bound port (useful with ":0").
func (s *Server) Listen() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the server is shut down. A clean shutdown returns nil.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mutex.Lock()
	ln := s.listener
	s.mutex.Unlock()

	err := s.server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, waiting at most five seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func validateHostPort(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	return validation.Errors{
		"host": validation.Validate(host, is.Host),
		"port": validation.Validate(port, validation.Required, is.Digit, validation.By(portInRange)),
	}.Filter()
}

// portInRange accepts 0 so tests can bind an ephemeral port.
func portInRange(value any) error {
	n, err := strconv.Atoi(value.(string))
	if err != nil || n < 0 || n > 65535 {
		return validation.NewError("validation_invalid_port", "must be between 0 and 65535")
	}
	return nil
}
