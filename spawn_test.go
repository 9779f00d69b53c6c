package troupe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// chainRole builds a role whose greeting records (self, parent payload),
// spawns a successor with the same role while self < last, and then dies.
func chainRole(last ActorID, mu *sync.Mutex,
	parents map[ActorID]any,
) *Role {

	role := &Role{}
	role.Handlers = []Handler{
		func(ctx *Context, state *any, msg Message) {
			mu.Lock()
			parents[ctx.Self()] = msg.Data
			mu.Unlock()

			if ctx.Self() < last {
				_ = ctx.Spawn(role)
			}
			_ = ctx.GoDie()
		},
	}

	return role
}

// TestSpawnChain runs the generational chain: every actor spawns exactly
// one successor until the target depth, then the whole cast dies and the
// system joins. Ids come out dense and each greeting carries the
// spawner's id.
func TestSpawnChain(t *testing.T) {
	const generations = 100

	var (
		mu      sync.Mutex
		parents = make(map[ActorID]any)
	)

	sys, root, err := Create(chainRole(generations, &mu, parents))
	require.NoError(t, err)
	require.Equal(t, ActorID(0), root)

	sys.Join()

	require.Equal(t, generations+1, sys.ActorCount())
	require.Len(t, parents, generations+1)

	// The root's greeting has no sender; every other actor was greeted
	// by its predecessor.
	require.Nil(t, parents[0])
	for id := ActorID(1); id <= generations; id++ {
		require.Equal(t, id-1, parents[id])
	}
}

// TestSpawnCap tests that the cast limit silently swallows the spawn that
// would exceed it: no id is issued, no greeting is sent, and the system
// still winds down cleanly.
func TestSpawnCap(t *testing.T) {
	const castLimit = 3

	var (
		mu      sync.Mutex
		parents = make(map[ActorID]any)
	)

	// The chain would happily run to depth 10; the cap stops it at 3
	// actors.
	sys, _, err := CreateWithConfig(
		chainRole(10, &mu, parents),
		Config{CastLimit: castLimit},
	)
	require.NoError(t, err)

	sys.Join()

	require.Equal(t, castLimit, sys.ActorCount())
	require.Len(t, parents, castLimit)

	_, beyondCap := parents[ActorID(castLimit)]
	require.False(t, beyondCap)
}

// TestSpawnBadPayload tests that a spawn message whose payload is not a
// role is discarded without creating anything.
func TestSpawnBadPayload(t *testing.T) {
	sys, root, err := Create(noopHello())
	require.NoError(t, err)

	require.NoError(t, sys.Send(root, Message{
		Type: MsgSpawn, Data: "not a role",
	}))
	require.NoError(t, sys.Send(root, Message{Type: MsgGoDie}))

	sys.Join()

	require.Equal(t, 1, sys.ActorCount())
}
