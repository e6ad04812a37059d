// Package server runs the engine's long-lived services: it starts them
// together, watches for failure or a termination signal, and winds them
// down in reverse registration order.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running unit owned by the Lifecycle. Start blocks
// for the service's whole life; Stop asks it to return.
type Service interface {
	Start() error
	Stop()
}

// FuncService wraps a start/stop closure pair as a Service, for
// components too small to deserve their own type.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

func (f *FuncService) Start() error { return f.StartFn() }

func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle owns a set of named services. Registration order is start
// order; shutdown walks the set backwards so dependents go down before
// what they depend on.
type Lifecycle struct {
	logger  *zap.Logger
	mu      sync.Mutex
	entries []lifecycleEntry
}

type lifecycleEntry struct {
	name string
	svc  Service
}

// NewLifecycle returns an empty Lifecycle logging through logger.
//
// Precondition: logger is non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers svc under name. Call before Run; services added while
// Run is in flight are not started.
//
// Precondition: name is non-empty; svc is non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, lifecycleEntry{name: name, svc: svc})
}

// Run launches every registered service and blocks until one of them
// fails, ctx is cancelled, or the process receives SIGINT or SIGTERM.
// Whatever the trigger, every service is stopped before Run returns.
//
// Postcondition: Stop has been called on each started service, in
// reverse registration order.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failed := make(chan error, len(l.entries))
	for _, ent := range l.entries {
		ent := ent
		go func() {
			l.logger.Info("service starting", zap.String("service", ent.name))
			launched := time.Now()
			if err := ent.svc.Start(); err != nil {
				l.logger.Error("service exited with error",
					zap.String("service", ent.name),
					zap.Error(err),
					zap.Duration("ran_for", time.Since(launched)))
				failed <- fmt.Errorf("service %s: %w", ent.name, err)
				cancel()
			}
		}()
	}

	l.logger.Info("services launched",
		zap.Int("count", len(l.entries)),
		zap.Duration("elapsed", time.Since(began)))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		l.logger.Info("termination signal", zap.String("signal", sig.String()))
	case err := <-failed:
		l.logger.Error("service failure, stopping the rest", zap.Error(err))
	case <-ctx.Done():
		l.logger.Info("context cancelled, stopping services")
	}

	l.stopAll()

	l.logger.Info("engine stopped", zap.Duration("uptime", time.Since(began)))
	return nil
}

// stopAll winds services down in reverse registration order.
func (l *Lifecycle) stopAll() {
	began := time.Now()
	for i := len(l.entries) - 1; i >= 0; i-- {
		ent := l.entries[i]
		l.logger.Info("service stopping", zap.String("service", ent.name))
		ent.svc.Stop()
		l.logger.Info("service stopped", zap.String("service", ent.name))
	}
	l.logger.Info("all services stopped",
		zap.Duration("elapsed", time.Since(began)))
}
