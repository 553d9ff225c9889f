// Package backend implements the compute backends that perform leaf-level
// multiplications and additions, and the client the orchestrator uses to
// reach them.
package backend

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"distmul/matrix"

	"gonum.org/v1/gonum/mat"
)

// RowsPerStrip is how many result rows a worker computes per work item in
// MultiplyParallel.
const RowsPerStrip = 32

// maxExactFloat is the largest magnitude below which every integer is exact
// in a float64.
const maxExactFloat = 1 << 53

// Multiply returns a×b. Operands whose products and partial sums stay exact in
// float64 are multiplied by gonum; larger ones fall back to integer
// arithmetic.
func Multiply(a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if err := checkOperands(a, b); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		return matrix.New(0), nil
	}
	if !productExact(a, b) {
		return matrix.MatMul(a, b)
	}
	var c mat.Dense
	c.Mul(matrix.ToDense(a), matrix.ToDense(b))
	return matrix.FromDense(&c), nil
}

// Add returns a+b, using gonum when the sum is exact in float64.
func Add(a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if err := checkOperands(a, b); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		return matrix.New(0), nil
	}
	if maxAbs(a)+maxAbs(b) >= maxExactFloat {
		return matrix.Add(a, b)
	}
	var c mat.Dense
	c.Add(matrix.ToDense(a), matrix.ToDense(b))
	return matrix.FromDense(&c), nil
}

// MultiplyParallel computes a×b on up to workers goroutines. The result is
// divided into horizontal strips of RowsPerStrip rows; workers pull strips
// from a queue and compute each with a gonum product, or with integer
// arithmetic when the operands are too large for float64. workers <= 0 means
// runtime.GOMAXPROCS(0).
func MultiplyParallel(a, b *matrix.Matrix, workers int) (*matrix.Matrix, error) {
	if err := checkOperands(a, b); err != nil {
		return nil, err
	}
	n := a.Size
	if n <= RowsPerStrip {
		return Multiply(a, b)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	exact := productExact(a, b)
	var denseA, denseB *mat.Dense
	if exact {
		denseA = matrix.ToDense(a)
		denseB = matrix.ToDense(b)
	}
	out := matrix.New(n)

	numStrips := (n + RowsPerStrip - 1) / RowsPerStrip
	work := make(chan int, numStrips)
	for strip := 0; strip < numStrips; strip++ {
		work <- strip
	}
	close(work)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, numStrips); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for strip := range work {
				rowStart := strip * RowsPerStrip
				rowEnd := min(rowStart+RowsPerStrip, n)
				// Each strip owns rows [rowStart, rowEnd) of out.
				if !exact {
					mulRowsInt(a, b, out, rowStart, rowEnd)
					continue
				}

				aStrip := denseA.Slice(rowStart, rowEnd, 0, n)
				var cStrip mat.Dense
				cStrip.Mul(aStrip, denseB)
				for i := rowStart; i < rowEnd; i++ {
					row := out.Row(i)
					for j := range row {
						row[j] = int(math.Round(cStrip.At(i-rowStart, j)))
					}
				}
			}
		}()
	}
	wg.Wait()
	return out, nil
}

// mulRowsInt writes rows [rowStart, rowEnd) of a×b into out.
func mulRowsInt(a, b, out *matrix.Matrix, rowStart, rowEnd int) {
	n := a.Size
	for i := rowStart; i < rowEnd; i++ {
		row := out.Row(i)
		for j := range row {
			sum := 0
			for t := 0; t < n; t++ {
				sum += a.Data[i*n+t] * b.Data[t*n+j]
			}
			row[j] = sum
		}
	}
}

// productExact reports whether every partial sum of a×b is bounded by
// n·max|a|·max|b| < 2^53.
func productExact(a, b *matrix.Matrix) bool {
	return maxAbs(a)*maxAbs(b)*float64(a.Size) < maxExactFloat
}

// maxAbs returns the largest element magnitude of m as a float64, which
// cannot overflow for math.MinInt.
func maxAbs(m *matrix.Matrix) float64 {
	var top float64
	for _, v := range m.Data {
		top = max(top, math.Abs(float64(v)))
	}
	return top
}

func checkOperands(a, b *matrix.Matrix) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: missing operand", matrix.ErrShape)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if a.Size != b.Size {
		return fmt.Errorf("%w: operands have sides %d and %d", matrix.ErrShape, a.Size, b.Size)
	}
	return nil
}
