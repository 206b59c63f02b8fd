package sim_test

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/parsim/heat2d"
	"github.com/parsim/heat2d/comm"
	"github.com/parsim/heat2d/sim"
)

// withinDeadline fails the test if f does not finish in time; a stuck halo
// exchange would otherwise block forever.
func withinDeadline(t *testing.T, d time.Duration, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("blocked past deadline")
	}
}

// runRanks runs one simulation per rank of a fresh group to completion and
// returns the simulations for inspection.
func runRanks(t *testing.T, base *heat2d.Params, ranks int) []*sim.Simulation {
	t.Helper()
	group := comm.NewGroup(ranks)
	sims := make([]*sim.Simulation, ranks)
	for r := 0; r < ranks; r++ {
		sims[r] = sim.New(base.ForRank(r, ranks), group.Rank(r))
		sims[r].Progress = io.Discard
	}

	withinDeadline(t, 30*time.Second, func() {
		var wg sync.WaitGroup
		for r := 0; r < ranks; r++ {
			wg.Add(1)
			go func(r int) {
				defer wg.Done()
				assert.NoError(t, sims[r].Run())
			}(r)
		}
		wg.Wait()
	})
	return sims
}

func TestNewRejectsMismatchedCommunicator(t *testing.T) {
	p, err := heat2d.NewParams(4, 6, 1)
	require.NoError(t, err)
	g := comm.NewGroup(2)
	assert.Panics(t, func() { sim.New(p, g.Rank(1)) })
}

func TestStepReportsEnergy(t *testing.T) {
	p, err := heat2d.NewParams(4, 6, 1)
	require.NoError(t, err)

	s := sim.New(p, comm.NewGroup(1).Rank(0))
	var buf bytes.Buffer
	s.Progress = &buf

	energy, err := s.Step(0)
	require.NoError(t, err)
	// Hand computation for the zero initial field: only the left-edge
	// source contributes, 2*gamma²*dx² = 0.005.
	assert.InDelta(t, 0.005, energy, 1e-15)

	line := buf.String()
	require.True(t, strings.HasPrefix(line, "E(t=0) = "), "got %q", line)
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "E(t=0) = ")), 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.005, v, 1e-15)
}

func TestStepHonorsOutputCadence(t *testing.T) {
	p, err := heat2d.NewParams(4, 6, 6)
	require.NoError(t, err)
	p.NOut = 3

	s := sim.New(p, comm.NewGroup(1).Rank(0))
	var buf bytes.Buffer
	s.Progress = &buf
	require.NoError(t, s.Run())

	// Iterations 0 and 3 report.
	assert.Equal(t, 2, strings.Count(buf.String(), "E(t="))
}

func TestEnergyNonIncreasingWithoutSource(t *testing.T) {
	// With the source edge held at zero, every Dirichlet edge is zero and
	// diffusion cannot create energy: the update is a convex combination
	// of current values, so the L2 diagnostic never grows.
	p, err := heat2d.NewParams(8, 8, 0)
	require.NoError(t, err)
	p.Source = 0

	s := sim.New(p, comm.NewGroup(1).Rank(0))
	s.Progress = io.Discard
	f := s.Field()
	for x := 1; x <= p.NX; x++ {
		for y := 0; y < p.NY; y++ {
			f.Set(x, y, 0.5+0.4*math.Sin(float64(x*p.NY+y)))
		}
	}

	prev := math.Inf(1)
	for it := 0; it < 60; it++ {
		energy, err := s.Step(it)
		require.NoError(t, err)
		assert.LessOrEqual(t, energy, prev+1e-12, "iteration %d", it)
		prev = energy
	}
}

func TestMultiRankMatchesSingleRank(t *testing.T) {
	// The same 8x6 global problem, run whole on one rank and split into
	// two 4-row slabs, must produce the same field: the halo exchange is a
	// correct substitute for direct neighbor access. The steps are pinned
	// to the single-rank values so both runs integrate the same equation.
	single, err := heat2d.NewParams(8, 6, 25)
	require.NoError(t, err)

	split, err := heat2d.NewParams(4, 6, 25)
	require.NoError(t, err)
	split.DX = single.DX
	split.DT = single.DT

	whole := runRanks(t, single, 1)[0].Field().Interior()

	sims := runRanks(t, split, 2)
	var stitched []float64
	for _, s := range sims {
		stitched = append(stitched, s.Field().Interior()...)
	}

	require.Len(t, stitched, len(whole))
	assert.True(t, floats.EqualApprox(whole, stitched, 1e-12),
		"split run diverged from single-rank run")
}

func TestInteriorReadsExchangedHalos(t *testing.T) {
	// Two ranks, one step, with rank 1 holding a hot row against the seam.
	// Rank 0's seam row must pick up heat through the exchanged halo.
	base, err := heat2d.NewParams(4, 6, 0)
	require.NoError(t, err)
	base.Source = 0

	group := comm.NewGroup(2)
	sims := make([]*sim.Simulation, 2)
	for r := 0; r < 2; r++ {
		sims[r] = sim.New(base.ForRank(r, 2), group.Rank(r))
		sims[r].Progress = io.Discard
	}
	for y := 1; y < base.NY-1; y++ {
		sims[1].Field().Set(1, y, 1) // rank 1's first owned row
	}

	withinDeadline(t, 10*time.Second, func() {
		var wg sync.WaitGroup
		for r := 0; r < 2; r++ {
			wg.Add(1)
			go func(r int) {
				defer wg.Done()
				_, err := sims[r].Step(0)
				assert.NoError(t, err)
			}(r)
		}
		wg.Wait()
	})

	gamma := base.Gamma()
	assert.InDelta(t, gamma, sims[0].Field().At(4, 2), 1e-15,
		"rank 0's upper seam did not see rank 1's boundary row")
}

func TestDeadlockFreeAcrossGroupSizes(t *testing.T) {
	base, err := heat2d.NewParams(4, 6, 3)
	require.NoError(t, err)
	for _, ranks := range []int{1, 2, 3, 4} {
		runRanks(t, base, ranks)
	}
}
