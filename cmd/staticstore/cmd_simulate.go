package main

import (
	"fmt"
	"time"

	"staticstore/internal/host"
	"staticstore/internal/hostfs"
	"staticstore/internal/identity"
	"staticstore/internal/persist"
	"staticstore/internal/plugin"
	"staticstore/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	simFrames        int
	simBurst         int
	simSavesPerFrame int
	simChunk         int
)

// simulateCmd replays a scripted burst of saves against an in-memory host
// whose writes become visible a few bytes per frame.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted save burst against a simulated slow host",
	Long: `Runs the configured save variant on a virtual clock. For the first
--burst frames every frame saves --saves-per-frame variables; the simulated host
reveals --chunk bytes of each write per frame. Prints how many writes the burst
turned into.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		res, err := simulate(cfg.Location(), cfg.GetDebounceInterval(), simulation{
			frames:        simFrames,
			burst:         simBurst,
			savesPerFrame: simSavesPerFrame,
			chunk:         simChunk,
			rate:          fps,
		})
		if err != nil {
			return err
		}
		logger.Info("Simulation finished",
			zap.Int("save_calls", res.saveCalls),
			zap.Int("writes", res.stats.Writes),
			zap.Stringer("state", res.state))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "frames:            %d\n", res.frames)
		fmt.Fprintf(out, "save calls:        %d\n", res.saveCalls)
		fmt.Fprintf(out, "controller saves:  %d\n", res.stats.SaveRequests)
		fmt.Fprintf(out, "directory creates: %d\n", res.stats.DirCreations)
		fmt.Fprintf(out, "writes issued:     %d\n", res.stats.Writes)
		fmt.Fprintf(out, "bytes written:     %d\n", res.stats.BytesWritten)
		fmt.Fprintf(out, "transitions:       %d\n", res.transitions)
		fmt.Fprintf(out, "final state:       %s (idle=%v)\n", res.state, res.idle)
		return nil
	},
}

type simulation struct {
	frames        int
	burst         int
	savesPerFrame int
	chunk         int
	rate          int
}

type simulationResult struct {
	frames      int
	saveCalls   int
	transitions int
	stats       persist.Stats
	state       persist.State
	idle        bool
}

func simulate(loc persist.Location, debounce time.Duration, sim simulation) (simulationResult, error) {
	if sim.rate <= 0 {
		sim.rate = 60
	}
	dt := time.Second / time.Duration(sim.rate)

	mem := hostfs.NewMemory()
	slow := hostfs.NewDeferred(mem, sim.chunk)
	world := host.NewWorld()

	var res simulationResult
	st, err := plugin.New(plugin.Options{
		FS:           slow,
		Location:     loc,
		Accessors:    world,
		Resolver:     world,
		Debounce:     debounce,
		OnTransition: func(_, _ persist.State) { res.transitions++ },
	})
	if err != nil {
		return res, err
	}

	id := 0
	for frame := 0; frame < sim.frames; frame++ {
		if frame < sim.burst {
			for i := 0; i < sim.savesPerFrame; i++ {
				id++
				ref := identity.Ref{Owner: identity.GlobalOwner, Kind: identity.Variable, ID: id}
				if err := world.WriteAccessor(ref, store.Number(float64(frame))); err != nil {
					return res, err
				}
				if _, err := st.Save(ref); err != nil {
					return res, err
				}
				res.saveCalls++
			}
		}
		st.OnFrameTick(dt)
		if _, err := slow.Step(); err != nil {
			return res, err
		}
		res.frames++
	}

	res.stats = st.Stats()
	res.state = st.State()
	res.idle = st.Idle()
	if st.IsFailed() {
		return res, fmt.Errorf("storage deactivated: %w", st.Err())
	}
	return res, nil
}
