// Package comm provides the message-passing fabric for the ranks of one
// simulation run. Ranks share no field memory; halos travel as copies over
// point-to-point transfers, and the per-step energy diagnostic is combined
// by a sum reduction delivered to rank 0.
//
// All transfers are synchronous. There is no timeout or cancellation: a
// peer that never posts its matching call blocks the rank forever, which is
// the intended all-or-nothing behavior of a batch simulation.
package comm

import "fmt"

// Message tags separating the two opposing data flows of one pairwise halo
// exchange. Keeping the flows on distinct tags means a rank's send can
// never rendezvous against the wrong peer message.
const (
	TagDown = 0 // rows flowing toward the lower-ranked neighbor
	TagUp   = 1 // rows flowing toward the higher-ranked neighbor

	numTags = 2
)

// A Group connects a fixed number of ranks through one unbuffered channel
// per directed (sender, receiver, tag) triple, plus one channel per rank
// for the reduction. Unbuffered channels give every transfer rendezvous
// semantics, the equivalent of a synchronous-mode send meeting its receive.
type Group struct {
	size   int
	links  []chan []float64
	reduce []chan float64
}

// NewGroup creates the fabric for the given number of ranks. NewGroup
// panics if size is not positive.
func NewGroup(size int) *Group {
	if size < 1 {
		panic(fmt.Sprintf("comm: invalid group size %v", size))
	}
	g := &Group{
		size:   size,
		links:  make([]chan []float64, size*size*numTags),
		reduce: make([]chan float64, size),
	}
	for i := range g.links {
		g.links[i] = make(chan []float64)
	}
	for i := range g.reduce {
		g.reduce[i] = make(chan float64)
	}
	return g
}

// Size is the number of ranks in the group.
func (g *Group) Size() int { return g.size }

// Rank returns the handle through which the given rank uses the group.
// Rank panics if r is not a member.
func (g *Group) Rank(r int) *Comm {
	if r < 0 || r >= g.size {
		panic(fmt.Sprintf("comm: invalid rank %v in a group of %v", r, g.size))
	}
	return &Comm{g: g, rank: r}
}

func (g *Group) link(from, to, tag int) chan []float64 {
	return g.links[(from*g.size+to)*numTags+tag]
}

// A Comm is one rank's handle on its group.
type Comm struct {
	g    *Group
	rank int
}

// Rank is this handle's rank within the group.
func (c *Comm) Rank() int { return c.rank }

// Size is the number of ranks in the group.
func (c *Comm) Size() int { return c.g.size }

// Send delivers a copy of row to the given rank under the given tag,
// blocking until the peer posts the matching Recv. The row is copied
// before the handoff, so the caller may reuse its buffer immediately after
// Send returns.
func (c *Comm) Send(to, tag int, row []float64) error {
	if err := c.check(to, tag); err != nil {
		return err
	}
	buf := make([]float64, len(row))
	copy(buf, row)
	c.g.link(c.rank, to, tag) <- buf
	return nil
}

// Recv blocks until the given rank sends under the given tag, then copies
// the payload into dst. A payload whose length differs from dst is a
// protocol violation and returns an error.
func (c *Comm) Recv(from, tag int, dst []float64) error {
	if err := c.check(from, tag); err != nil {
		return err
	}
	row := <-c.g.link(from, c.rank, tag)
	if len(row) != len(dst) {
		return fmt.Errorf("comm: rank %v received %v values from rank %v, want %v",
			c.rank, len(row), from, len(dst))
	}
	copy(dst, row)
	return nil
}

func (c *Comm) check(peer, tag int) error {
	if peer < 0 || peer >= c.g.size || peer == c.rank {
		return fmt.Errorf("comm: rank %v has no peer %v in a group of %v", c.rank, peer, c.g.size)
	}
	if tag != TagDown && tag != TagUp {
		return fmt.Errorf("comm: invalid tag %v", tag)
	}
	return nil
}

// ReduceSum combines x across all ranks of the group. Every rank must call
// ReduceSum exactly once per step. Rank 0 receives the global sum; every
// other rank gets its own contribution back unchanged.
func (c *Comm) ReduceSum(x float64) float64 {
	if c.rank != 0 {
		c.g.reduce[c.rank] <- x
		return x
	}
	sum := x
	for r := 1; r < c.g.size; r++ {
		sum += <-c.g.reduce[r]
	}
	return sum
}
