// Package checkpoint persists the final temperature field and run metadata
// of a simulation in one flat binary file shared by every rank.
//
// The layout is little-endian: a uint64 global width, a uint64 global
// height, a float64 final simulated time, then for each rank in rank order
// a contiguous block of NX·NY float64 cells in row-major order, halos
// excluded. Because the slabs partition the first axis, the concatenated
// blocks form the global field in row-major order.
package checkpoint

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/parsim/heat2d"
	"github.com/parsim/heat2d/grid"
)

const headerSize = 24

// Write stores one rank's slab of the final field. Every rank of a run
// calls Write with the same path; each opens the file itself and writes
// only its own block at the offset computed from its rank. Rank 0
// additionally sizes the file and writes the header. The write is complete
// before the file handle is closed.
func Write(path string, p *heat2d.Params, f *grid.Field) error {
	if f.NX != p.NX || f.NY != p.NY {
		return fmt.Errorf("checkpoint: field is %vx%v, parameters say %vx%v", f.NX, f.NY, p.NX, p.NY)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	blockSize := int64(8 * p.NX * p.NY)
	if p.Rank == 0 {
		if err := out.Truncate(headerSize + blockSize*int64(p.Ranks)); err != nil {
			out.Close()
			return fmt.Errorf("checkpoint: %w", err)
		}
		hdr := make([]byte, headerSize)
		binary.LittleEndian.PutUint64(hdr[0:], uint64(p.GlobalNX()))
		binary.LittleEndian.PutUint64(hdr[8:], uint64(p.GlobalNY()))
		binary.LittleEndian.PutUint64(hdr[16:], math.Float64bits(p.Time(p.NI)))
		if _, err := out.WriteAt(hdr, 0); err != nil {
			out.Close()
			return fmt.Errorf("checkpoint: %w", err)
		}
	}

	buf := make([]byte, blockSize)
	for i, v := range f.Interior() {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	if _, err := out.WriteAt(buf, headerSize+int64(p.Rank)*blockSize); err != nil {
		out.Close()
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// A Header describes a checkpoint's global grid and final simulated time.
type Header struct {
	NX, NY int
	Time   float64
}

// Read parses a checkpoint written by a complete group of ranks, returning
// the header and the stitched global field in row-major order.
func Read(path string) (Header, []float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("checkpoint: %w", err)
	}
	if len(raw) < headerSize {
		return Header{}, nil, fmt.Errorf("checkpoint: %v is %v bytes, shorter than the %v byte header",
			path, len(raw), headerSize)
	}
	h := Header{
		NX:   int(binary.LittleEndian.Uint64(raw[0:])),
		NY:   int(binary.LittleEndian.Uint64(raw[8:])),
		Time: math.Float64frombits(binary.LittleEndian.Uint64(raw[16:])),
	}
	body := raw[headerSize:]
	if h.NX < 0 || h.NY < 0 || len(body) != 8*h.NX*h.NY {
		return Header{}, nil, fmt.Errorf("checkpoint: %v holds %v bytes of field data for a %vx%v grid, want %v",
			path, len(body), h.NX, h.NY, 8*h.NX*h.NY)
	}
	field := make([]float64, h.NX*h.NY)
	for i := range field {
		field[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[8*i:]))
	}
	return h, field, nil
}
