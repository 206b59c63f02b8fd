// Package sim drives the time-stepped simulation for one rank: halo
// exchange, region evaluation, global energy reduction, progress reporting,
// and buffer rotation.
package sim

import (
	"fmt"
	"io"
	"os"

	"github.com/parsim/heat2d"
	"github.com/parsim/heat2d/comm"
	"github.com/parsim/heat2d/grid"
	"github.com/parsim/heat2d/stencil"
)

// A Simulation holds one rank's state: the two field buffers whose
// current/next roles swap after every step, the rank-bound parameters, and
// the communicator connecting the rank to its neighbors. The swap is a
// relabeling of the two handles, never a data copy.
type Simulation struct {
	p    *heat2d.Params
	c    *comm.Comm
	cur  *grid.Field
	next *grid.Field

	// Progress receives the energy report lines emitted by the
	// coordinating rank. It defaults to os.Stderr.
	Progress io.Writer
}

// New creates a simulation for the rank bound in p, with both buffers
// zeroed. New panics if p and c disagree about the rank or group size.
func New(p *heat2d.Params, c *comm.Comm) *Simulation {
	if p.Rank != c.Rank() || p.Ranks != c.Size() {
		panic(fmt.Sprintf("sim: parameters are for rank %v of %v, communicator for rank %v of %v",
			p.Rank, p.Ranks, c.Rank(), c.Size()))
	}
	return &Simulation{
		p:        p,
		c:        c,
		cur:      grid.New(p.NX, p.NY),
		next:     grid.New(p.NX, p.NY),
		Progress: os.Stderr,
	}
}

// Params returns the rank-bound configuration of the simulation.
func (s *Simulation) Params() *heat2d.Params { return s.p }

// Field returns the buffer holding the most recently computed state. Before
// the first step this is the initial condition, which the caller may fill
// in place.
func (s *Simulation) Field() *grid.Field { return s.cur }

func (s *Simulation) lowerSeam() grid.Region {
	return grid.Region{X0: 1, X1: 2, Y0: 1, Y1: s.p.NY - 1}
}

func (s *Simulation) upperSeam() grid.Region {
	return grid.Region{X0: s.p.NX, X1: s.p.NX + 1, Y0: 1, Y1: s.p.NY - 1}
}

func (s *Simulation) interior() grid.Region {
	return grid.Region{X0: 2, X1: s.p.NX, Y0: 1, Y1: s.p.NY - 1}
}

// exchangeLower refreshes the lower halo row with the lower-ranked neighbor
// and then evaluates the seam row that reads it. The first rank skips the
// transfer; its lower edge is a physical boundary handled by the kernel.
func (s *Simulation) exchangeLower() (float64, error) {
	if s.p.Rank > 0 {
		if err := s.c.Send(s.p.Rank-1, comm.TagDown, s.cur.Row(1)); err != nil {
			return 0, err
		}
		if err := s.c.Recv(s.p.Rank-1, comm.TagUp, s.cur.Row(0)); err != nil {
			return 0, err
		}
	}
	return stencil.Evaluate(s.next, s.cur, s.lowerSeam(), s.p)
}

// exchangeUpper refreshes the upper halo row with the higher-ranked
// neighbor and then evaluates the seam row that reads it. The transfer
// order mirrors exchangeLower (receive before send), so each rendezvous
// pairs up with the neighbor's matching call as the round ripples along the
// rank chain.
func (s *Simulation) exchangeUpper() (float64, error) {
	if s.p.Rank < s.p.Ranks-1 {
		if err := s.c.Recv(s.p.Rank+1, comm.TagDown, s.cur.Row(s.p.NX+1)); err != nil {
			return 0, err
		}
		if err := s.c.Send(s.p.Rank+1, comm.TagUp, s.cur.Row(s.p.NX)); err != nil {
			return 0, err
		}
	}
	return stencil.Evaluate(s.next, s.cur, s.upperSeam(), s.p)
}

// Step runs iteration it: both seam exchanges and their evaluations, then
// the interior evaluation, the global energy reduction, the coordinator's
// progress line every NOut iterations, and finally the buffer swap.
//
// Both exchanges complete strictly before the interior evaluation starts;
// the interior stencil reads halo cells written only during the exchanges.
//
// Step returns the globally reduced energy on rank 0 and the rank's local
// contribution elsewhere. Any transport error is fatal to the run.
func (s *Simulation) Step(it int) (float64, error) {
	lower, err := s.exchangeLower()
	if err != nil {
		return 0, fmt.Errorf("sim: step %v: %w", it, err)
	}
	upper, err := s.exchangeUpper()
	if err != nil {
		return 0, fmt.Errorf("sim: step %v: %w", it, err)
	}
	inner, err := stencil.Evaluate(s.next, s.cur, s.interior(), s.p)
	if err != nil {
		return 0, fmt.Errorf("sim: step %v: %w", it, err)
	}

	energy := s.c.ReduceSum(lower + upper + inner)
	if s.p.Rank == 0 && it%s.p.NOut == 0 {
		fmt.Fprintf(s.Progress, "E(t=%g) = %g\n", s.p.Time(it), energy)
	}

	s.cur, s.next = s.next, s.cur
	return energy, nil
}

// Run executes all NI iterations.
func (s *Simulation) Run() error {
	for it := 0; it < s.p.NI; it++ {
		if _, err := s.Step(it); err != nil {
			return err
		}
	}
	return nil
}
