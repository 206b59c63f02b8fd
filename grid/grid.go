// Package grid provides the process-local storage for one slab of the
// simulated domain: a row-major field buffer with one halo row at each end
// of the decomposed axis, and rectangular index regions over it.
package grid

import "fmt"

// A Field is one rank's slab of the temperature grid plus one halo row on
// each side of the decomposed axis. Cells are stored row-major with stride
// NY: row 0 is the lower halo, rows 1 through NX are owned, row NX+1 is the
// upper halo. A Field is owned exclusively by its rank; halos hold copies
// of neighbor data received by message, never shared memory.
type Field struct {
	NX, NY int
	Cells  []float64
}

// New allocates a zeroed field for an nx-by-ny slab, including the two halo
// rows.
func New(nx, ny int) *Field {
	if nx < 1 || ny < 1 {
		panic(fmt.Sprintf("grid: invalid extents %vx%v", nx, ny))
	}
	return &Field{NX: nx, NY: ny, Cells: make([]float64, (nx+2)*ny)}
}

// Index maps the coordinate (x, y) to its linear offset in Cells. The x
// axis addresses rows including halos, so 0 <= x < NX+2 and 0 <= y < NY.
// An out-of-range coordinate is a caller defect and panics; Index never
// wraps or clamps.
func (f *Field) Index(x, y int) int {
	if x < 0 || x >= f.NX+2 || y < 0 || y >= f.NY {
		panic(fmt.Sprintf("grid: coordinate (%v,%v) out of range for %vx%v field", x, y, f.NX, f.NY))
	}
	return x*f.NY + y
}

// At returns the cell value at (x, y).
func (f *Field) At(x, y int) float64 { return f.Cells[f.Index(x, y)] }

// Set stores v at (x, y).
func (f *Field) Set(x, y int, v float64) { f.Cells[f.Index(x, y)] = v }

// Row returns row x of the field as a slice aliasing the underlying cells.
// Rows are the unit of halo exchange: row 1 and row NX are sent to
// neighbors, rows 0 and NX+1 receive from them.
func (f *Field) Row(x int) []float64 {
	i := f.Index(x, 0)
	return f.Cells[i : i+f.NY]
}

// Interior returns the owned rows 1 through NX as one contiguous slice,
// excluding the halos. This is the layout persisted by a checkpoint.
func (f *Field) Interior() []float64 {
	return f.Cells[f.NY : (f.NX+1)*f.NY]
}
