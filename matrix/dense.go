package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ToDense converts m to a gonum dense matrix.
func ToDense(m *Matrix) *mat.Dense {
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	if m.Size == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(m.Size, m.Size, data)
}

// FromDense converts a square gonum matrix back to ints, rounding each
// element to the nearest integer.
func FromDense(d mat.Matrix) *Matrix {
	r, _ := d.Dims()
	out := New(r)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			out.Data[i*r+j] = int(math.Round(d.At(i, j)))
		}
	}
	return out
}
