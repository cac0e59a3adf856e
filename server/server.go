// Package server exposes the assembler and interpreter over Connect
// (HTTP/JSON) and the assembler's diagnostics over LSP.
package server

import (
	"net/http"
	"runtime"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/stackvm/pkg/runstore"
)

var log = commonlog.GetLogger("stackvm.server")

// Server serves the AssemblerService and VMService procedures.
type Server struct {
	pool     *WorkerPool
	store    *runstore.Store
	maxSteps int
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*config)

type config struct {
	store    *runstore.Store
	workers  int
	maxSteps int
}

// WithRunStore records every execution in store.
func WithRunStore(store *runstore.Store) Option {
	return func(c *config) { c.store = store }
}

// WithWorkers sets the number of interpreter goroutines.
// The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithStepLimit sets the step limit applied when a request does not carry
// its own. Zero means unlimited.
func WithStepLimit(n int) Option {
	return func(c *config) { c.maxSteps = n }
}

// New creates a Server and starts its worker pool.
func New(opts ...Option) *Server {
	cfg := &config{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		pool:     NewWorkerPool(cfg.workers),
		store:    cfg.store,
		maxSteps: cfg.maxSteps,
		mux:      http.NewServeMux(),
	}

	codec := connect.WithCodec(jsonCodec{})
	s.mux.Handle(AssembleProcedure, connect.NewUnaryHandler(AssembleProcedure, s.Assemble, codec))
	s.mux.Handle(ExecuteProcedure, connect.NewUnaryHandler(ExecuteProcedure, s.Execute, codec))
	s.mux.Handle(ListRunsProcedure, connect.NewUnaryHandler(ListRunsProcedure, s.ListRuns, codec))

	return s
}

// Handler returns the HTTP handler serving all procedures.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	log.Noticef("stackvm server listening on %s", addr)
	log.Infof("  Assemble: http://%s%s", addr, AssembleProcedure)
	log.Infof("  Execute:  http://%s%s", addr, ExecuteProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the worker pool.
func (s *Server) Stop() {
	s.pool.Stop()
}
