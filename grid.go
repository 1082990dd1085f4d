package tilegrid

import (
	"encoding/binary"
	"fmt"
	"math"
)

// InstanceOffset is the per-instance attribute: the screen-space top-left
// corner of one tile copy.
//
// GPU layout (InstanceStride bytes, stepped per instance):
//
//	Translate (vec2<i32>) = 8 bytes (location 2)
type InstanceOffset struct {
	Translate [2]int32
}

// InstanceStride is the byte stride of one InstanceOffset in the instance buffer.
const InstanceStride = 8

// InstanceGrid is the row-major set of offsets covering a viewport with
// whole tiles. Offsets[row*Columns+col] translates to (col*TileSize, row*TileSize).
type InstanceGrid struct {
	TileSize int
	Columns  int
	Rows     int
	Offsets  []InstanceOffset
}

// BuildGrid computes the instance offsets for tiles of tileSize pixels over a
// width x height viewport.
//
// Columns and rows are truncated: pixels beyond Columns*tileSize or
// Rows*tileSize stay unpainted, there are no partial tiles. A viewport
// dimension smaller than tileSize yields an empty grid, which is not an error.
//
// Tile size and viewport dimensions must fit in int32, the offset component
// type, and the grid may hold at most math.MaxUint32 instances.
func BuildGrid(tileSize, width, height int) (InstanceGrid, error) {
	if err := validateGridParams(tileSize, width, height); err != nil {
		return InstanceGrid{}, err
	}

	cols := width / tileSize
	rows := height / tileSize
	if uint64(cols)*uint64(rows) > math.MaxUint32 {
		return InstanceGrid{}, fmt.Errorf("%w: %dx%d tiles exceed %d instances",
			ErrInvalidViewport, cols, rows, uint32(math.MaxUint32))
	}
	g := InstanceGrid{
		TileSize: tileSize,
		Columns:  cols,
		Rows:     rows,
		Offsets:  make([]InstanceOffset, 0, cols*rows),
	}
	for row := 0; row < rows; row++ {
		y := int32(row * tileSize) //nolint:gosec // row*tileSize < height <= MaxInt32
		for col := 0; col < cols; col++ {
			g.Offsets = append(g.Offsets, InstanceOffset{
				Translate: [2]int32{int32(col * tileSize), y}, //nolint:gosec // col*tileSize < width <= MaxInt32
			})
		}
	}
	return g, nil
}

// validateGridParams checks that tileSize and the viewport are representable
// as int32 offsets.
func validateGridParams(tileSize, width, height int) error {
	if tileSize <= 0 || tileSize > math.MaxInt32 {
		return fmt.Errorf("%w: %d", ErrInvalidTileSize, tileSize)
	}
	if width < 0 || height < 0 || width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	return nil
}

// Len returns the number of instances in the grid.
func (g InstanceGrid) Len() int { return len(g.Offsets) }

// Empty reports whether the grid covers no tiles.
func (g InstanceGrid) Empty() bool { return len(g.Offsets) == 0 }

// At returns the offset at linear index i.
func (g InstanceGrid) At(i int) InstanceOffset { return g.Offsets[i] }

// Bytes packs the offsets into the little-endian instance buffer layout.
func (g InstanceGrid) Bytes() []byte {
	buf := make([]byte, len(g.Offsets)*InstanceStride)
	for i, o := range g.Offsets {
		binary.LittleEndian.PutUint32(buf[i*InstanceStride:], uint32(o.Translate[0]))   //nolint:gosec // non-negative
		binary.LittleEndian.PutUint32(buf[i*InstanceStride+4:], uint32(o.Translate[1])) //nolint:gosec // non-negative
	}
	return buf
}
