package server

import (
	"context"
	"sync"

	"beacon/internal/pipeline"
	"beacon/internal/store"
)

// Runner triggers one triage pipeline run. Satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Summary, error)
}

// ServerContext holds the shared state behind the HTTP and MCP surfaces.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store  *store.Store
	runner Runner

	mu       sync.RWMutex
	shutdown bool

	// refreshMu serializes refresh runs; concurrent triggers would race on
	// the dedup cache and double-spend model quota.
	refreshMu sync.Mutex
}

// NewServerContext creates a server context around the store and pipeline.
func NewServerContext(ctx context.Context, st *store.Store, runner Runner) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		store:  st,
		runner: runner,
	}
}

// Context returns the server lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the triage store.
func (sc *ServerContext) Store() *store.Store {
	return sc.store
}

// Refresh runs the pipeline once. Only one refresh runs at a time; callers
// block until the in-flight run completes.
func (sc *ServerContext) Refresh(ctx context.Context) (*pipeline.Summary, error) {
	sc.refreshMu.Lock()
	defer sc.refreshMu.Unlock()
	return sc.runner.Run(ctx)
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Idempotent.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
