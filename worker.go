package troupe

// worker is one pool goroutine. Each iteration claims an actor from the
// run queue, takes exactly one message from its mailbox, and runs the
// handler outside the lock. Because the actor's onQueue flag stays set
// from the moment a send enqueues it until a dispatch leaves its mailbox
// empty, no other worker can claim the same actor in between: dispatch
// hands the worker exclusive access to the actor's state without any
// per-actor lock.
func (s *System) worker(idx int) {
	defer s.wg.Done()

	log.DebugS(s.ctx, "Worker started", "worker", idx)

	for {
		s.mu.Lock()
		for s.runQueue.Len() == 0 && !s.stop {
			s.workCond.Wait()
		}

		// Shutdown with a drained run queue is the only exit. Both
		// break paths below leave the mutex held for the
		// termination handshake.
		if s.stop && s.runQueue.Len() == 0 {
			break
		}

		a := s.runQueue.Pop()
		msg := a.mailbox.Pop()
		s.mu.Unlock()

		s.dispatch(a, msg)

		s.mu.Lock()
		if a.mailbox.Len() > 0 {
			// More pending work: straight back onto the run
			// queue. onQueue is still set, so no send slipped a
			// duplicate entry in while the handler ran.
			s.runQueue.Push(a)
			s.workCond.Signal()
			s.mu.Unlock()

			continue
		}

		a.onQueue = false

		// Inactive with a drained mailbox and off the queue: the
		// actor is dead. Once every actor created so far is dead no
		// live actor remains to produce new sends, so the system
		// stops.
		if !a.active {
			s.deadActors++

			log.DebugS(s.ctx, "Actor dead",
				"actor_id", a.id,
				"dead_actors", s.deadActors,
				"actors_total", len(s.registry))

			if s.deadActors == len(s.registry) {
				s.stop = true
				s.workCond.Broadcast()
				break
			}
		}
		s.mu.Unlock()
	}

	// Termination path, mutex held. The signal ripples the wake-up to
	// any peer still parked on workCond.
	s.workCond.Signal()
	s.deadWorkers++

	log.DebugS(s.ctx, "Worker exiting",
		"worker", idx,
		"dead_workers", s.deadWorkers)

	if s.deadWorkers == s.cfg.PoolSize {
		// Last one out releases the signal watcher, unless a forced
		// shutdown already did.
		if !s.interrupted {
			close(s.cancelWait)
		}
		s.workersDone.Broadcast()
	}
	s.mu.Unlock()
}

// dispatch runs one message against one actor. The caller holds no locks;
// control messages reacquire the scheduler mutex for exactly the state
// they touch.
func (s *System) dispatch(a *actor, msg Message) {
	switch msg.Type {
	case MsgSpawn:
		s.handleSpawn(a, msg)

	case MsgGoDie:
		s.mu.Lock()
		a.active = false
		s.mu.Unlock()

		log.DebugS(s.ctx, "Actor marked inactive", "actor_id", a.id)

	case MsgHello:
		// Hello always resets the state slot before the handler
		// runs, so roles observe a fresh slot on every greeting.
		a.state = nil

		if h := a.role.handlerFor(MsgHello); h != nil {
			h(&Context{system: s, self: a.id}, &a.state, msg)
		}

	default:
		h := a.role.handlerFor(msg.Type)
		if h == nil {
			log.TraceS(s.ctx, "Dropping message with no handler",
				"actor_id", a.id,
				"msg_type", msg.Type)

			return
		}

		h(&Context{system: s, self: a.id}, &a.state, msg)
	}
}

// handleSpawn consumes a MsgSpawn addressed to parent: register a new
// actor with the supplied role and greet it with the parent's id. At the
// cast limit, or once shutdown has begun, the request evaporates with no
// notification to the spawner.
func (s *System) handleSpawn(parent *actor, msg Message) {
	role, ok := msg.Data.(*Role)
	if !ok || role == nil {
		log.WarnS(s.ctx, "Spawn payload is not a role", nil,
			"parent", parent.id)

		return
	}

	s.mu.Lock()
	if s.stop || len(s.registry) >= s.cfg.CastLimit {
		stopping := s.stop
		s.mu.Unlock()

		log.TraceS(s.ctx, "Spawn dropped",
			"parent", parent.id,
			"stopping", stopping)

		return
	}

	child := newActor(ActorID(len(s.registry)), role)
	s.registry = append(s.registry, child)
	total := len(s.registry)
	s.mu.Unlock()

	log.DebugS(s.ctx, "Actor spawned",
		"actor_id", child.id,
		"parent", parent.id,
		"actors_total", total)

	// The greeting carries the spawner's id, and lands before anything
	// else can: nobody but the spawner has observed the new id yet.
	_ = s.Send(child.id, Message{Type: MsgHello, Data: parent.id})
}
