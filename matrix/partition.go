package matrix

import (
	"fmt"
	"math"
	"sync"
)

// Quadrant positions within a 2×2 tiling, row-major.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// parallelCopyMin is the block side from which block copies run on
// separate goroutines.
const parallelCopyMin = 64

// Quadrants is a 2×2 tiling indexed by quadrant position.
type Quadrants [4]*Matrix

// Decompose splits m into its four quadrants. blockSize must be exactly half
// of m's side.
func Decompose(m *Matrix, blockSize int) (Quadrants, error) {
	var q Quadrants
	if blockSize <= 0 || m.Size != 2*blockSize {
		return q, fmt.Errorf("%w: block size %d does not halve side %d", ErrShape, blockSize, m.Size)
	}
	blocks, err := Split(m, blockSize)
	if err != nil {
		return q, err
	}
	copy(q[:], blocks)
	return q, nil
}

// Reassemble joins four equally sized quadrants into a new matrix.
func Reassemble(q Quadrants) (*Matrix, error) {
	return Join(q[:])
}

// Split cuts m into (side/blockSize)^2 blocks in row-major tile order.
func Split(m *Matrix, blockSize int) ([]*Matrix, error) {
	if blockSize <= 0 || m.Size%blockSize != 0 {
		return nil, fmt.Errorf("%w: block size %d does not divide side %d", ErrShape, blockSize, m.Size)
	}
	tiles := m.Size / blockSize
	blocks := make([]*Matrix, tiles*tiles)
	forEachBlock(len(blocks), blockSize, func(index int) {
		row := (index / tiles) * blockSize
		col := (index % tiles) * blockSize
		sub := New(blockSize)
		for k := 0; k < blockSize; k++ {
			src := (row+k)*m.Size + col
			copy(sub.Data[k*blockSize:(k+1)*blockSize], m.Data[src:src+blockSize])
		}
		blocks[index] = sub
	})
	return blocks, nil
}

// Join is the inverse of Split. The number of blocks must be a perfect square
// and all blocks must share the same side.
func Join(blocks []*Matrix) (*Matrix, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no blocks to join", ErrShape)
	}
	tiles := int(math.Sqrt(float64(len(blocks))))
	if tiles*tiles != len(blocks) {
		return nil, fmt.Errorf("%w: %d blocks do not form a square tiling", ErrShape, len(blocks))
	}
	for i, b := range blocks {
		if b == nil {
			return nil, fmt.Errorf("%w: block %d is missing", ErrShape, i)
		}
	}
	blockSize := blocks[0].Size
	for i, b := range blocks {
		if b.Size != blockSize {
			return nil, fmt.Errorf("%w: block %d has side %d, block 0 has %d", ErrShape, i, b.Size, blockSize)
		}
	}

	size := tiles * blockSize
	out := New(size)
	forEachBlock(len(blocks), blockSize, func(index int) {
		row := (index / tiles) * blockSize
		col := (index % tiles) * blockSize
		b := blocks[index]
		for k := 0; k < blockSize; k++ {
			dst := (row+k)*size + col
			copy(out.Data[dst:dst+blockSize], b.Data[k*blockSize:(k+1)*blockSize])
		}
	})
	return out, nil
}

// TopLeftCorner copies the size×size top-left corner of m. A size larger
// than m's side yields a copy of m.
func TopLeftCorner(m *Matrix, size int) *Matrix {
	if size >= m.Size {
		return m.Clone()
	}
	sub := New(size)
	for k := 0; k < size; k++ {
		copy(sub.Data[k*size:(k+1)*size], m.Data[k*m.Size:k*m.Size+size])
	}
	return sub
}

// forEachBlock runs fn for every block index. Each call writes a disjoint
// region, so large blocks are copied concurrently.
func forEachBlock(count, blockSize int, fn func(index int)) {
	if blockSize < parallelCopyMin {
		for i := 0; i < count; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(index int) {
			defer wg.Done()
			fn(index)
		}(i)
	}
	wg.Wait()
}
