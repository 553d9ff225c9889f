package matrix

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrParse is returned when delimited input is not a valid square matrix.
var ErrParse = errors.New("matrix parse error")

// ReadCSV parses a comma-separated square matrix without headers. The side
// must be a power of two.
func ReadCSV(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, len(rows)+1, err)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: %w: the matrix is not square", ErrParse, ErrShape)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: the input is empty", ErrParse)
	}
	if len(rows) != len(rows[0]) || !IsPowerOfTwo(len(rows)) {
		return nil, fmt.Errorf("%w: %w: the matrix is not square or does not have a size of a power of 2", ErrParse, ErrShape)
	}
	return FromRows(rows)
}

func parseRow(record []string) ([]int, error) {
	row := make([]int, len(record))
	for i, field := range record {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("the line is not a number array: %q", field)
		}
		row[i] = v
	}
	return row, nil
}

// WriteText writes m as space-separated values, one row per line.
func WriteText(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < m.Size; i++ {
		for j, v := range m.Row(i) {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(v))
		}
		// bufio keeps the first write error.
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
