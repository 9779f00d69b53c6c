//go:build !windows

package troupe

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// busyRole builds a cast of size actors that spin forever by re-sending
// themselves a work message. Only an interrupt can bring them down.
func busyRole(size ActorID) *Role {
	role := &Role{}
	role.Handlers = []Handler{
		func(ctx *Context, state *any, msg Message) {
			if ctx.Self() < size-1 {
				_ = ctx.Spawn(role)
			}
			_ = ctx.Send(ctx.Self(), Message{Type: 1})
		},
		func(ctx *Context, state *any, msg Message) {
			_ = ctx.Send(ctx.Self(), Message{Type: 1})
		},
	}

	return role
}

// requireRejected asserts the post-interrupt send taxonomy: targets are
// either inactive or the system as a whole is refusing work.
func requireRejected(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)
	require.True(t,
		errors.Is(err, ErrActorInactive) ||
			errors.Is(err, ErrSystemStopping),
		"unexpected rejection: %v", err)
}

// TestInterruptSignalForcesShutdown delivers a real interrupt signal to
// a system of ten spinning actors and expects a bounded, complete
// shutdown.
func TestInterruptSignalForcesShutdown(t *testing.T) {
	const cast = 10

	sys, root, err := Create(busyRole(cast))
	require.NoError(t, err)

	// Let the whole cast assemble and spin before pulling the plug.
	require.Eventually(t, func() bool {
		return sys.ActorCount() == cast
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	ctx, cancel := context.WithTimeout(
		context.Background(), 10*time.Second,
	)
	defer cancel()
	require.NoError(t, sys.JoinContext(ctx))

	requireRejected(t, sys.Send(root, Message{Type: 1}))
	requireRejected(t, sys.Send(ActorID(cast-1), Message{Type: 1}))
}

// TestInterruptIdleSystem tests the programmatic interrupt against a
// fully idle system: nothing sits in the run queue, every worker is
// parked, and the forced shutdown still wakes and drains them.
func TestInterruptIdleSystem(t *testing.T) {
	sys, root, err := Create(noopHello())
	require.NoError(t, err)

	// Give the greeting time to be consumed so the system goes idle.
	time.Sleep(50 * time.Millisecond)

	sys.Interrupt()

	ctx, cancel := context.WithTimeout(
		context.Background(), 5*time.Second,
	)
	defer cancel()
	require.NoError(t, sys.JoinContext(ctx))

	requireRejected(t, sys.Send(root, Message{Type: 1}))
}

// TestInterruptTwice tests that repeated interrupts are harmless.
func TestInterruptTwice(t *testing.T) {
	sys, _, err := Create(noopHello())
	require.NoError(t, err)

	sys.Interrupt()
	sys.Interrupt()
	sys.Join()
}

// TestInterruptDropsSpawns tests that spawn requests in flight during a
// forced shutdown are discarded rather than creating actors that would
// never run.
func TestInterruptDropsSpawns(t *testing.T) {
	gate := make(chan struct{})

	role := &Role{}
	role.Handlers = []Handler{
		func(ctx *Context, state *any, msg Message) {},
		func(ctx *Context, state *any, msg Message) {
			// Park so the spawn behind us stays queued until the
			// interrupt lands.
			<-gate
		},
	}

	sys, root, err := Create(role)
	require.NoError(t, err)

	require.NoError(t, sys.Send(root, Message{Type: 1}))
	require.NoError(t, sys.Send(root, Message{
		Type: MsgSpawn, Data: role,
	}))

	sys.Interrupt()
	close(gate)
	sys.Join()

	require.Equal(t, 1, sys.ActorCount())
}
