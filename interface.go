// Package troupe implements a small in-process actor runtime. A fixed
// worker pool multiplexes many actors onto a few goroutines: each actor
// owns a private state slot and a FIFO mailbox, and the scheduler
// dispatches at most one message per actor at a time, so handlers mutate
// their state without any synchronization of their own.
package troupe

import "fmt"

// ErrSystemExists indicates that Create was called while another actor
// system instance was still live (not yet joined) in this process.
var ErrSystemExists = fmt.Errorf("actor system already exists")

// ErrActorInactive indicates that the target actor has processed a GoDie
// message (or the system was interrupted) and no longer accepts sends.
var ErrActorInactive = fmt.Errorf("actor is inactive")

// ErrUnknownActor indicates that the target actor id was never registered.
var ErrUnknownActor = fmt.Errorf("unknown actor id")

// ErrSystemStopping indicates that the system has entered shutdown and no
// further sends are accepted.
var ErrSystemStopping = fmt.Errorf("actor system is stopping")

// ErrMailboxFull indicates that the target actor's mailbox is at its
// configured limit. The caller decides whether to back off or drop.
var ErrMailboxFull = fmt.Errorf("actor mailbox is full")

// ActorID identifies an actor within one create/join cycle. Ids are dense
// non-negative integers assigned sequentially at spawn, starting at 0 for
// the root actor, and are never reused while the system lives.
type ActorID int64

// MessageType selects the handler a message is dispatched to. User
// message types are indexes into the role's handler table; the reserved
// control types below sit at the top of the range, far beyond any
// realistic handler table, so they can never collide with user codes.
type MessageType uint32

const (
	// MsgHello is delivered to every newly registered actor as its very
	// first message. For the root actor its payload is nil; for spawned
	// actors it is the ActorID of the spawner. A role that wants the
	// greeting defines handler index 0.
	MsgHello MessageType = 0

	// MsgSpawn asks the receiving actor's scheduler slot to register a
	// new actor. The payload must be the *Role for the new actor. The
	// runtime consumes this message itself; it is never dispatched to a
	// user handler. When the actor cap is reached or the system is
	// stopping, the spawn is dropped without notice.
	MsgSpawn MessageType = 0xfffffffe

	// MsgGoDie marks the receiving actor inactive. Messages already in
	// its mailbox are still delivered, after which the actor is dead.
	// Never dispatched to a user handler.
	MsgGoDie MessageType = 0xffffffff
)

// Message is the unit of communication between actors. The runtime
// allocates nothing around Data and never copies or inspects it; payload
// ownership is a contract between sender and handler.
type Message struct {
	// Type selects the handler (or control action) for this message.
	Type MessageType

	// Len is the advisory payload size in bytes. The runtime carries it
	// through untouched.
	Len int

	// Data is the opaque payload. It reaches the handler exactly as the
	// sender passed it.
	Data any
}

// Handler processes one message on behalf of an actor. The state pointer
// refers to the actor's private state slot; the handler may replace or
// mutate it freely because the scheduler guarantees at most one handler
// invocation per actor at any time. The context is only valid for the
// duration of the call.
type Handler func(ctx *Context, state *any, msg Message)

// Role is an actor's fixed table of message handlers, indexed by
// MessageType. It is immutable once an actor has been created with it; a
// single Role value may back any number of actors.
type Role struct {
	// Handlers maps a message type to its handler. A message whose type
	// is not a valid index is dropped silently.
	Handlers []Handler
}

// handlerFor returns the handler for the given message type, or nil when
// the type is outside the table.
func (r *Role) handlerFor(t MessageType) Handler {
	if int64(t) >= int64(len(r.Handlers)) {
		return nil
	}

	return r.Handlers[t]
}

// Context carries the identity of the actor a handler is running on
// behalf of, replacing the thread-local "current actor" slot a
// pthread-based runtime would use. It is handed to the handler at
// dispatch and must not be retained after the handler returns.
type Context struct {
	system *System
	self   ActorID
}

// Self returns the id of the actor whose handler is currently executing.
func (c *Context) Self() ActorID {
	return c.self
}

// System returns the actor system the current actor belongs to.
func (c *Context) System() *System {
	return c.system
}

// Send enqueues a message for another actor. It is shorthand for
// System().Send and is safe to call from within any handler.
func (c *Context) Send(to ActorID, msg Message) error {
	return c.system.Send(to, msg)
}

// Spawn requests a new actor with the given role. The request is routed
// through the current actor's own mailbox, so the new actor's Hello
// message carries this actor's id as the payload. When the actor cap has
// been reached or the system is stopping the request is dropped silently.
func (c *Context) Spawn(role *Role) error {
	return c.system.Send(c.self, Message{
		Type: MsgSpawn,
		Data: role,
	})
}

// GoDie marks the current actor for death. Once the GoDie is handled,
// further sends to the actor fail with ErrActorInactive; messages already
// queued are still delivered, and once the mailbox drains the actor is
// dead.
func (c *Context) GoDie() error {
	return c.system.Send(c.self, Message{
		Type: MsgGoDie,
	})
}
