// Package matrix holds the square integer matrix type shared by the
// orchestrator, the wire protocol and the compute backends.
package matrix

import (
	"errors"
	"fmt"
)

// ErrShape is returned when operands or blocks do not have compatible sides.
var ErrShape = errors.New("shape mismatch")

// Matrix is a square grid of ints backed by a flat row-major []int.
type Matrix struct {
	Data []int
	Size int
}

// New allocates a zeroed size×size matrix.
func New(size int) *Matrix {
	return &Matrix{
		Data: make([]int, size*size),
		Size: size,
	}
}

// FromRows copies rows into a new matrix. Every row must have len(rows) elements.
func FromRows(rows [][]int) (*Matrix, error) {
	n := len(rows)
	out := New(n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d elements, want %d", ErrShape, i, len(row), n)
		}
		copy(out.Data[i*n:(i+1)*n], row)
	}
	return out, nil
}

// Identity returns the size×size identity matrix.
func Identity(size int) *Matrix {
	out := New(size)
	for i := 0; i < size; i++ {
		out.Data[i*size+i] = 1
	}
	return out
}

// Rows returns a copy of m as a slice of rows.
func (m *Matrix) Rows() [][]int {
	rows := make([][]int, m.Size)
	for i := range rows {
		rows[i] = append([]int(nil), m.Row(i)...)
	}
	return rows
}

// Row returns row i without copying.
func (m *Matrix) Row(i int) []int {
	return m.Data[i*m.Size : (i+1)*m.Size]
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) int {
	if i < 0 || i >= m.Size || j < 0 || j >= m.Size {
		panic(fmt.Sprintf("At: index (%d, %d) out of bounds for size %d", i, j, m.Size))
	}
	return m.Data[i*m.Size+j]
}

// Set sets the element at row i, column j.
func (m *Matrix) Set(value, i, j int) {
	if i < 0 || i >= m.Size || j < 0 || j >= m.Size {
		panic(fmt.Sprintf("Set: index (%d, %d) out of bounds for size %d", i, j, m.Size))
	}
	m.Data[i*m.Size+j] = value
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		Data: append([]int(nil), m.Data...),
		Size: m.Size,
	}
}

// Equal reports whether m and o have the same size and elements.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Size != o.Size || len(m.Data) != len(o.Data) {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Validate checks that the backing slice matches the declared size.
func (m *Matrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrShape)
	}
	if m.Size < 0 || len(m.Data) != m.Size*m.Size {
		return fmt.Errorf("%w: %d elements for size %d", ErrShape, len(m.Data), m.Size)
	}
	return nil
}

// IsPowerOfTwo reports whether n is 2^k for some k >= 0.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Add returns a+b, or an error if the sides differ.
func Add(a, b *Matrix) (*Matrix, error) {
	if a.Size != b.Size {
		return nil, fmt.Errorf("%w: %d vs %d", ErrShape, a.Size, b.Size)
	}
	out := New(a.Size)
	for i := range a.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out, nil
}

// MatMul returns a×b with the naive triple loop.
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a.Size != b.Size {
		return nil, fmt.Errorf("%w: %d vs %d", ErrShape, a.Size, b.Size)
	}
	n := a.Size
	out := New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0
			for t := 0; t < n; t++ {
				sum += a.Data[i*n+t] * b.Data[t*n+j]
			}
			out.Data[i*n+j] = sum
		}
	}
	return out, nil
}
