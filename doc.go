// Package heat2d simulates 2D heat diffusion with an explicit 5-point
// finite-difference scheme over a domain split into horizontal slabs, one
// slab per cooperating rank. Ranks keep their slab boundaries consistent by
// exchanging one-row halos through point-to-point messages and combine their
// per-step energy diagnostics through a global reduction.
//
// The root package holds the immutable per-run Params value object shared by
// every component.
//
// heat2d provides the following subpackages:
//
// heat2d/grid provides the process-local field buffer with halo rows, its
// row-major addressing, and rectangular index regions over it.
//
// heat2d/stencil provides the 5-point diffusion kernel with ghost-cell
// boundary injection, and its parallel evaluation over grid regions.
//
// heat2d/comm provides the message-passing fabric connecting the ranks of
// one run: tagged point-to-point transfers and the energy sum reduction.
//
// heat2d/sim provides the per-rank time-step driver sequencing halo
// exchange, region evaluation, reduction, reporting, and buffer rotation.
//
// heat2d/checkpoint provides the binary writer and reader for the final
// field and run metadata.
//
// cmd/heat2d is the executable tying the above together.
package heat2d
