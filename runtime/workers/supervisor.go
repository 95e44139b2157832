package workers

import (
	"chat-relay/contract"
	relayerrors "chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Supervisor runs workers in dedicated goroutines, recovers their panics
// and restarts them after a delay. A failure in one worker never stops the
// supervisor or its siblings. Stop cancels the supervised context and Run
// returns once every goroutine has drained.
type Supervisor struct {
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = 200 * time.Millisecond
	}
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run blocks until every worker has finished. Cancelling the parent
// context, or calling Stop, winds everything down.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	for _, worker := range s.workers {
		s.start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Supervisor) start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	name := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info("worker stopped", "name", name)
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("worker panicked", "name", name, "panic", r)
						err = relayerrors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info("worker finished", "name", name)
				return
			}
			if ctx.Err() != nil {
				s.log.Info("worker stopped (context canceled)", "name", name)
				return
			}

			s.log.Warn("worker crashed, restarting", "name", name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}
