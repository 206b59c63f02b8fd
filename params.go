package heat2d

import "fmt"

// Defaults: unit diffusivity, a unit heat source on the left physical
// edge, and an energy report every 1000 iterations.
const (
	DefaultAlpha  = 1.0
	DefaultSource = 1.0
	DefaultNOut   = 1000
)

// Params is the immutable per-run configuration shared by every component
// of a simulation. It is constructed once at startup and passed by
// read-only reference; no component mutates it. Rank identity enters only
// through ForRank, which returns a bound copy and leaves the base value
// untouched.
type Params struct {
	// Local slab extents: NX owned rows along the decomposed axis, NY
	// cells per row. Halo rows are not included.
	NX, NY int

	// NI is the iteration count, NOut the number of iterations between
	// energy reports from the coordinating rank.
	NI, NOut int

	// Rank and Ranks identify this process within the 1D rank chain.
	Rank, Ranks int

	// Alpha is the thermal diffusivity, DX the spatial step, DT the time
	// step. NewParams derives DX = 1/NX and DT = DX²/(5·Alpha).
	Alpha, DX, DT float64

	// Source is the Dirichlet temperature imposed on the left physical
	// edge by the first rank.
	Source float64

	// Batches is the batch count handed to the parallel region evaluator;
	// 0 selects the library default.
	Batches int
}

// NewParams returns a validated configuration for a local nx-by-ny slab
// simulated over ni iterations, with the spatial and time steps derived
// from nx and the remaining fields at their defaults.
func NewParams(nx, ny, ni int) (*Params, error) {
	p := &Params{
		NX:     nx,
		NY:     ny,
		NI:     ni,
		NOut:   DefaultNOut,
		Ranks:  1,
		Alpha:  DefaultAlpha,
		Source: DefaultSource,
	}
	p.DX = 1.0 / float64(nx)
	p.DT = p.DX * p.DX / (5.0 * p.Alpha)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports the first configuration error, or nil. Configuration
// errors are fatal at startup; nothing inside the time loop revalidates.
func (p *Params) Validate() error {
	switch {
	case p.NX < 2:
		return fmt.Errorf("heat2d: local width %v, need at least 2 rows so the two seams are distinct", p.NX)
	case p.NY < 3:
		return fmt.Errorf("heat2d: local height %v, need at least 3 to hold both physical edges", p.NY)
	case p.NI < 0:
		return fmt.Errorf("heat2d: negative iteration count %v", p.NI)
	case p.NOut < 1:
		return fmt.Errorf("heat2d: invalid output cadence %v", p.NOut)
	case p.Alpha <= 0:
		return fmt.Errorf("heat2d: diffusivity %v must be positive", p.Alpha)
	case p.DX <= 0 || p.DT <= 0:
		return fmt.Errorf("heat2d: invalid steps dx=%v dt=%v", p.DX, p.DT)
	}
	return nil
}

// ForRank returns a copy of p bound to one rank of a group of the given
// size. ForRank panics if rank is not a member of such a group.
func (p *Params) ForRank(rank, ranks int) *Params {
	if ranks < 1 || rank < 0 || rank >= ranks {
		panic(fmt.Sprintf("heat2d: invalid rank %v of %v", rank, ranks))
	}
	bound := *p
	bound.Rank = rank
	bound.Ranks = ranks
	return &bound
}

// Gamma is the stability ratio alpha·dt/dx² of the explicit scheme.
func (p *Params) Gamma() float64 { return p.Alpha * p.DT / (p.DX * p.DX) }

// Stable reports whether the explicit scheme is stable for these steps,
// that is 4·Gamma < 1. An unstable configuration is not an error, it is a
// correctness hazard the caller may want to reject.
func (p *Params) Stable() bool { return 4*p.Gamma() < 1 }

// GlobalNX is the width of the whole decomposed domain across all ranks.
func (p *Params) GlobalNX() int { return p.NX * p.Ranks }

// GlobalNY is the height of the whole domain; the split is along the first
// axis only.
func (p *Params) GlobalNY() int { return p.NY }

// Time converts an iteration index to simulated time.
func (p *Params) Time(it int) float64 { return float64(it) * p.DT }
