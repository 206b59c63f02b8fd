package grid

import "fmt"

// A Region is the half-open rectangular index range [X0,X1) x [Y0,Y1) over
// a field, used to express seam and interior sub-computations without
// duplicating kernel code. For evaluation the region is flattened to the
// 1D index space [0, Len()); Split and Combine convert between the two.
type Region struct {
	X0, X1, Y0, Y1 int
}

// Len is the number of cells in the region.
func (r Region) Len() int { return (r.X1 - r.X0) * (r.Y1 - r.Y0) }

// Split maps a flat index i in [0, Len()) to its 2D coordinate. It is the
// inverse of Combine and panics on an out-of-range index.
func (r Region) Split(i int) (x, y int) {
	if i < 0 || i >= r.Len() {
		panic(fmt.Sprintf("grid: flat index %v out of range for region %+v", i, r))
	}
	dy := r.Y1 - r.Y0
	return i/dy + r.X0, i%dy + r.Y0
}

// Combine maps a coordinate inside the region to its flat index. It is the
// inverse of Split and panics on a coordinate outside the region.
func (r Region) Combine(x, y int) int {
	if x < r.X0 || x >= r.X1 || y < r.Y0 || y >= r.Y1 {
		panic(fmt.Sprintf("grid: coordinate (%v,%v) outside region %+v", x, y, r))
	}
	dy := r.Y1 - r.Y0
	return (x-r.X0)*dy + (y - r.Y0)
}
