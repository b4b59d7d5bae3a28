package monitor

import (
	"context"
	"sync"

	"github.com/retailx/theft-monitor/internal/logger"
)

// Supervisor owns the background surveillance task. The hosting
// application starts it once and keeps the handle to stop it at
// shutdown; the task never propagates a failure beyond its own log
// output and error slot.
type Supervisor struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Supervise launches m.Run as a background task tied to parent.
func Supervise(parent context.Context, m *Monitor) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	s := &Supervisor{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := m.Run(ctx); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			logger.Error("Supervisor", "Surveillance task failed: %v", err)
		}
	}()

	return s
}

// Stop cancels the task and waits for it to finish.
func (s *Supervisor) Stop() error {
	s.cancel()
	<-s.done
	return s.Err()
}

// Done is closed when the task has finished.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Err returns the task's terminal error, if any.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
