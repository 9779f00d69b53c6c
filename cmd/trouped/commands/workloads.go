package commands

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/roasbeef/troupe"
	"github.com/roasbeef/troupe/internal/build"
)

var (
	// generations is the depth of the spawn chain.
	generations int

	// messages is the number of echo messages to push through.
	messages int
)

// chainCmd runs the generational spawn chain: each actor greets, spawns
// its successor, and dies, until the target depth is reached.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Run a generational spawn chain and wait for it to die out",
	RunE: func(cmd *cobra.Command, args []string) error {
		last := troupe.ActorID(generations)

		role := &troupe.Role{}
		role.Handlers = []troupe.Handler{
			func(ctx *troupe.Context, state *any,
				msg troupe.Message) {

				if ctx.Self() < last {
					_ = ctx.Spawn(role)
				}
				_ = ctx.GoDie()
			},
		}

		start := time.Now()
		sys, _, err := troupe.CreateWithConfig(role, cfg.Runtime())
		if err != nil {
			return err
		}
		sys.Join()

		fmt.Printf("chain done: %d actors in %v\n",
			sys.ActorCount(), time.Since(start))

		return nil
	},
}

// echoCmd pushes a batch of messages through a single actor and reports
// the throughput.
var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Push a message batch through one actor",
	RunE: func(cmd *cobra.Command, args []string) error {
		var handled atomic.Int64

		role := &troupe.Role{Handlers: []troupe.Handler{
			func(ctx *troupe.Context, state *any,
				msg troupe.Message) {
			},
			func(ctx *troupe.Context, state *any,
				msg troupe.Message) {

				handled.Add(1)
			},
		}}

		sys, root, err := troupe.CreateWithConfig(role, cfg.Runtime())
		if err != nil {
			return err
		}

		start := time.Now()
		sent := 0
		for sent < messages {
			err := sys.Send(root, troupe.Message{
				Type: 1, Data: sent,
			})
			switch {
			case err == nil:
				sent++

			case errors.Is(err, troupe.ErrMailboxFull):
				// Backpressure: give the workers a beat.
				time.Sleep(time.Millisecond)

			default:
				return err
			}
		}

		for {
			err := sys.Send(root, troupe.Message{
				Type: troupe.MsgGoDie,
			})
			if err == nil {
				break
			}
			if !errors.Is(err, troupe.ErrMailboxFull) {
				return err
			}
			time.Sleep(time.Millisecond)
		}

		sys.Join()

		fmt.Printf("echo done: %d messages in %v\n",
			handled.Load(), time.Since(start))

		return nil
	},
}

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trouped %s (%s)\n",
			build.Version(), build.GoVersion)
	},
}

func init() {
	chainCmd.Flags().IntVar(
		&generations, "generations", 100,
		"Number of actors spawned after the root in the spawn chain",
	)
	echoCmd.Flags().IntVar(
		&messages, "messages", 10000,
		"Number of messages to push through the echo actor",
	)
}
