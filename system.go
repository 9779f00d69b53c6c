package troupe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/troupe/queue"
)

const (
	// DefaultPoolSize is the number of workers a system runs when the
	// config does not say otherwise.
	DefaultPoolSize = 4

	// DefaultActorQueueLimit is the default cap on the number of
	// undelivered messages a single mailbox may hold.
	DefaultActorQueueLimit = 1024

	// DefaultCastLimit is the default cap on the number of actors that
	// may ever be created within one create/join cycle.
	DefaultCastLimit = 1 << 20
)

// Config holds the knobs for one actor system instance. All fields are
// fixed at Create time; the pool never resizes and the limits never move
// while the system lives.
type Config struct {
	// PoolSize is the number of worker goroutines that dispatch actor
	// messages. Values <= 0 fall back to DefaultPoolSize.
	PoolSize int

	// ActorQueueLimit caps the number of undelivered messages per
	// mailbox. A send that would exceed it fails with ErrMailboxFull.
	// Values <= 0 fall back to DefaultActorQueueLimit.
	ActorQueueLimit int

	// CastLimit caps the number of actors ever created in this run.
	// Spawn requests beyond the cap are dropped silently. Values <= 0
	// fall back to DefaultCastLimit.
	CastLimit int

	// InterruptSignal overrides the OS signal that forces the system
	// down. Defaults to os.Interrupt.
	InterruptSignal fn.Option[os.Signal]
}

// DefaultConfig returns the configuration Create uses.
func DefaultConfig() Config {
	return Config{
		PoolSize:        DefaultPoolSize,
		ActorQueueLimit: DefaultActorQueueLimit,
		CastLimit:       DefaultCastLimit,
	}
}

// normalize fills zero-valued fields with their defaults.
func (c Config) normalize() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.ActorQueueLimit <= 0 {
		c.ActorQueueLimit = DefaultActorQueueLimit
	}
	if c.CastLimit <= 0 {
		c.CastLimit = DefaultCastLimit
	}

	return c
}

// systemLive enforces the one-live-instance-per-process rule. Create
// flips it on; Join flips it back off once everything has torn down.
var systemLive atomic.Bool

// System is one actor system instance: a registry of actors, a shared run
// queue, and a fixed pool of workers draining it. All mutable scheduler
// state lives behind a single mutex; workers and senders coordinate
// through the two condition variables.
type System struct {
	cfg Config

	// runID distinguishes this create/join cycle in log output.
	runID uuid.UUID

	// ctx is the value threaded through structured log calls. The
	// system itself has no cancellation to propagate; forced shutdown
	// travels through scheduler state instead.
	ctx context.Context

	// mu guards the scheduler fields below it (workCond through
	// deadWorkers), every mailbox, and every actor flag. It is the only
	// lock in the runtime.
	mu sync.Mutex

	// workCond is where workers wait for the run queue to gain work or
	// for stop to flip.
	workCond *sync.Cond

	// workersDone is broadcast by the last worker to exit; Join waits
	// on it.
	workersDone *sync.Cond

	// runQueue holds actors that have at least one pending message and
	// are not currently held by a worker.
	runQueue *queue.Ring[*actor]

	// registry is append-only; registry[id] is the actor with that id,
	// and len(registry) is both the total created and the next free id.
	registry []*actor

	// deadActors counts actors that are inactive with drained mailboxes.
	// When it reaches len(registry) no further work can arise and the
	// system stops.
	deadActors int

	// stop is set once shutdown has begun, cleanly or by force.
	stop bool

	// interrupted records that shutdown was forced rather than earned
	// by every actor dying.
	interrupted bool

	// deadWorkers counts workers that have exited their loop.
	deadWorkers int

	// cancelWait is closed by the last worker on a clean shutdown to
	// release the signal watcher from its wait.
	cancelWait chan struct{}

	// forceCh is closed exactly once when shutdown is forced, releasing
	// the signal watcher if the force came from Interrupt rather than a
	// real signal.
	forceCh   chan struct{}
	forceOnce sync.Once

	// sigCh receives the configured interrupt signal.
	sigCh chan os.Signal

	// sigDone is closed when the signal watcher goroutine has exited.
	sigDone chan struct{}

	// wg tracks the worker goroutines.
	wg sync.WaitGroup

	joinOnce sync.Once
}

// Create starts a new actor system with the default configuration. The
// given role becomes actor 0, which is greeted with a Hello message whose
// payload is nil. At most one system may live per process at a time; a
// second Create before Join fails with ErrSystemExists.
func Create(role *Role) (*System, ActorID, error) {
	return CreateWithConfig(role, DefaultConfig())
}

// CreateWithConfig is Create with explicit knobs.
func CreateWithConfig(role *Role, cfg Config) (*System, ActorID, error) {
	if role == nil {
		return nil, 0, fmt.Errorf("troupe: root actor needs a role")
	}

	if !systemLive.CompareAndSwap(false, true) {
		return nil, 0, ErrSystemExists
	}

	s := &System{
		cfg:        cfg.normalize(),
		runID:      uuid.New(),
		ctx:        context.Background(),
		runQueue:   queue.New[*actor](),
		cancelWait: make(chan struct{}),
		forceCh:    make(chan struct{}),
		sigDone:    make(chan struct{}),
	}
	s.workCond = sync.NewCond(&s.mu)
	s.workersDone = sync.NewCond(&s.mu)

	// Actor 0 exists before anything can run or signal.
	const rootID ActorID = 0
	s.registry = append(s.registry, newActor(rootID, role))

	// The watcher starts before the first worker so a forced shutdown
	// can never race pool bring-up.
	s.startSignalWatcher()

	for i := 0; i < s.cfg.PoolSize; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	log.InfoS(s.ctx, "Actor system created",
		"run_id", s.runID,
		"pool_size", s.cfg.PoolSize,
		"actor_queue_limit", s.cfg.ActorQueueLimit,
		"cast_limit", s.cfg.CastLimit)

	// Greet the root actor. The system has only just started, so the
	// only way this can fail is a forced shutdown that already beat us
	// here, in which case dropping the greeting is correct.
	_ = s.Send(rootID, Message{Type: MsgHello})

	return s, rootID, nil
}

// Send enqueues a message for the target actor. It is safe to call from
// any goroutine, including from inside handlers. The error taxonomy, in
// the order the conditions are checked: ErrUnknownActor for an id that
// was never registered, ErrActorInactive once the target has handled a
// GoDie or the system was interrupted,
// ErrSystemStopping during shutdown, and ErrMailboxFull when the target's
// mailbox is at the configured limit.
func (s *System) Send(to ActorID, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if to < 0 || int64(to) >= int64(len(s.registry)) {
		return ErrUnknownActor
	}

	a := s.registry[to]
	if !a.active {
		return ErrActorInactive
	}
	if s.stop {
		return ErrSystemStopping
	}
	if a.mailbox.Len() >= s.cfg.ActorQueueLimit {
		return ErrMailboxFull
	}

	a.mailbox.Push(msg)

	log.TraceS(s.ctx, "Message enqueued",
		"actor_id", a.id,
		"msg_type", msg.Type,
		"mailbox_len", a.mailbox.Len())

	// First pending message makes the actor runnable; while it already
	// sits in the run queue or on a worker, the dispatcher will pick
	// the new message up on its own.
	if !a.onQueue {
		a.onQueue = true
		s.runQueue.Push(a)
		s.workCond.Signal()
	}

	return nil
}

// ActorCount returns the number of actors created so far in this run,
// dead ones included.
func (s *System) ActorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.registry)
}

// Interrupt forces the system down exactly as the interrupt signal would:
// every actor is marked inactive, pending mailboxes drain, and Join
// returns once the workers have finished. Safe to call more than once.
func (s *System) Interrupt() {
	s.forceShutdown()
}

// forceShutdown is the shared forced-termination path for the signal
// watcher and Interrupt. The broadcast wakes workers parked on an empty
// run queue so they can observe stop; without it an idle system would
// never notice the interrupt.
func (s *System) forceShutdown() {
	s.forceOnce.Do(func() {
		s.mu.Lock()
		s.interrupted = true
		s.stop = true
		for _, a := range s.registry {
			a.active = false
		}
		s.workCond.Broadcast()
		total := len(s.registry)
		s.mu.Unlock()

		close(s.forceCh)

		log.InfoS(s.ctx, "Forced shutdown",
			"run_id", s.runID,
			"actors_total", total)
	})
}

// Join blocks until every worker has exited, then tears the system down.
// After Join returns a new Create may succeed. Calling Join again is a
// no-op.
func (s *System) Join() {
	s.joinOnce.Do(func() {
		s.mu.Lock()
		for s.deadWorkers != s.cfg.PoolSize {
			s.workersDone.Wait()
		}
		s.mu.Unlock()

		// The condition variable says the loops have ended; the
		// WaitGroup says the goroutines are gone.
		s.wg.Wait()
		<-s.sigDone

		log.InfoS(s.ctx, "Actor system joined",
			"run_id", s.runID,
			"actors_total", len(s.registry),
			"interrupted", s.interrupted)

		systemLive.Store(false)
	})
}

// JoinContext is Join with a deadline. If the context expires first, the
// system keeps shutting down in the background and a later Join (or
// JoinContext) call can still be used to observe completion.
func (s *System) JoinContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Join()
		close(done)
	}()

	select {
	case <-done:
		return nil

	case <-ctx.Done():
		log.WarnS(s.ctx, "Join abandoned before workers finished",
			ctx.Err(), "run_id", s.runID)

		return ctx.Err()
	}
}
