package troupe

import "github.com/roasbeef/troupe/queue"

// actor is the scheduler's record for one actor. Every field is guarded
// by the owning System's mutex, except state, which is read and written
// only by the actor's own handler while a worker holds exclusive dispatch
// of the actor.
type actor struct {
	// id is assigned once at registration and never changes.
	id ActorID

	// role is the fixed handler table for this actor.
	role *Role

	// state is the actor's private state slot. It starts nil and is
	// reset to nil each time a Hello message is dispatched.
	state any

	// mailbox is the actor's FIFO of pending messages. Its logical size
	// is capped by the system's ActorQueueLimit; the ring itself grows
	// as needed below that cap.
	mailbox *queue.Ring[Message]

	// onQueue is true while the actor sits in the run queue or is being
	// processed by a worker. It is what keeps an actor from appearing in
	// the run queue twice and from running on two workers at once.
	onQueue bool

	// active is true until the actor processes a GoDie message or the
	// system is interrupted. Sends to an inactive actor are rejected,
	// but messages already in the mailbox still drain.
	active bool
}

// newActor builds a fresh actor record with an empty mailbox.
func newActor(id ActorID, role *Role) *actor {
	return &actor{
		id:      id,
		role:    role,
		mailbox: queue.New[Message](),
		active:  true,
	}
}
