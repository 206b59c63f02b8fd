// Package stencil implements the explicit 5-point finite-difference update
// for 2D heat diffusion and its evaluation over grid regions.
package stencil

import (
	"github.com/exascience/pargo/parallel"
	"github.com/exascience/pargo/sequential"

	"github.com/parsim/heat2d"
	"github.com/parsim/heat2d/grid"
)

// Update computes the diffusion step for cell (x, y), writing
//
//	next[x,y] = (1-4γ)·cur[x,y] + γ·(cur[x±1,y] + cur[x,y±1])
//
// and returning the cell's energy contribution 0.5·next[x,y]²·dx².
//
// Before reading any neighbor, Update forces the fixed Dirichlet values
// into the ghost cells of cur that this cell's stencil touches: the bottom
// and top physical edges are held at 0, the first rank holds the left edge
// at p.Source, and the last rank holds the right edge at 0. The writes are
// idempotent (the same constant every call) and target edge cells that no
// other cell of the same region reads, so cells of one region may be
// updated in any order and concurrently.
func Update(next, cur *grid.Field, x, y int, p *heat2d.Params) float64 {
	if y == 1 {
		cur.Set(x, 0, 0)
	}
	if y == p.NY-2 {
		cur.Set(x, p.NY-1, 0)
	}
	// Only the ranks at the two ends of the chain own a physical edge
	// along the decomposed axis; everywhere else those rows are halos.
	if p.Rank == 0 && x == 1 {
		cur.Set(0, y, p.Source)
	}
	if p.Rank == p.Ranks-1 && x == p.NX {
		cur.Set(p.NX+1, y, 0)
	}

	g := p.Gamma()
	v := (1-4*g)*cur.At(x, y) +
		g*(cur.At(x+1, y)+cur.At(x-1, y)+cur.At(x, y+1)+cur.At(x, y-1))
	next.Set(x, y, v)
	return 0.5 * v * v * p.DX * p.DX
}

// Evaluate applies Update to every cell of region r with a parallel
// map-reduce over the flattened index space, summing the per-cell energy
// contributions. The reduction order is unspecified, so two evaluations of
// the same region are numerically close but not necessarily bit-identical.
//
// Within one evaluation cur is only read (except for the disjoint ghost
// cell writes of Update) and next is only written, each cell exactly once.
func Evaluate(next, cur *grid.Field, r grid.Region, p *heat2d.Params) (float64, error) {
	return parallel.RangeReduceFloat64(
		0, r.Len(), p.Batches,
		func(low, high int) float64 {
			var sum float64
			for i := low; i < high; i++ {
				x, y := r.Split(i)
				sum += Update(next, cur, x, y, p)
			}
			return sum
		},
		add,
	), nil
}

// EvaluateSequential is the sequential twin of Evaluate, with a
// deterministic reduction order. It exists for testing and debugging.
func EvaluateSequential(next, cur *grid.Field, r grid.Region, p *heat2d.Params) (float64, error) {
	return sequential.RangeReduceFloat64(
		0, r.Len(), p.Batches,
		func(low, high int) float64 {
			var sum float64
			for i := low; i < high; i++ {
				x, y := r.Split(i)
				sum += Update(next, cur, x, y, p)
			}
			return sum
		},
		add,
	), nil
}

func add(x, y float64) float64 { return x + y }
