package troupe

import (
	"os"
	"os/signal"
)

// startSignalWatcher installs the interrupt handler and launches the
// watcher goroutine. It runs before the first worker is spawned, so a
// signal arriving during pool bring-up is never lost.
//
// The watcher has exactly three outs: the interrupt signal arrives and it
// forces the whole system down; the last worker exits cleanly and closes
// cancelWait; or Interrupt already forced shutdown programmatically and
// closed forceCh. Every path unregisters the signal handler before the
// goroutine ends, so no watcher outlives its system.
func (s *System) startSignalWatcher() {
	s.sigCh = make(chan os.Signal, 1)
	signal.Notify(s.sigCh, s.cfg.InterruptSignal.UnwrapOr(os.Interrupt))

	go func() {
		defer close(s.sigDone)
		defer signal.Stop(s.sigCh)

		select {
		case got := <-s.sigCh:
			log.InfoS(s.ctx, "Interrupt signal received",
				"signal", got.String(),
				"run_id", s.runID)

			s.forceShutdown()

		case <-s.cancelWait:
			// Clean shutdown already completed; nothing to do.

		case <-s.forceCh:
			// Interrupt() took the forced path without a signal.
		}
	}()
}
