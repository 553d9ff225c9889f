package matrix

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	m, err := ReadCSV(strings.NewReader("1,2\n3, 4\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	want := []int{1, 2, 3, 4}
	for i := range want {
		if m.Data[i] != want[i] {
			t.Errorf("at %d, got %d, want %d", i, m.Data[i], want[i])
		}
	}
}

func TestReadCSVRejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"not square":   "1,2\n3,4\n5,6\n",
		"ragged":       "1,2\n3\n",
		"non numeric":  "1,x\n3,4\n",
		"not pow2 6x6": strings.Repeat("1,1,1,1,1,1\n", 6),
	}
	for name, in := range cases {
		if _, err := ReadCSV(strings.NewReader(in)); !errors.Is(err, ErrParse) {
			t.Errorf("%s: expected ErrParse, got %v", name, err)
		}
	}

	_, err := ReadCSV(strings.NewReader(strings.Repeat("1,1,1,1,1,1\n", 6)))
	if !errors.Is(err, ErrShape) {
		t.Errorf("6x6: expected ErrShape, got %v", err)
	}
}

func TestWriteText(t *testing.T) {
	m, _ := FromRows([][]int{{1, 2}, {3, 4}})
	var buf bytes.Buffer
	if err := WriteText(&buf, m); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if got, want := buf.String(), "1 2\n3 4\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

var errSink = errors.New("sink closed")

type failingWriter struct{ written int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.written += len(p)
	return 0, errSink
}

func TestWriteTextReportsWriteError(t *testing.T) {
	m := New(64)
	for i := range m.Data {
		m.Data[i] = -1_000_000_000 - i
	}
	w := &failingWriter{}
	if err := WriteText(w, m); !errors.Is(err, errSink) {
		t.Fatalf("expected errSink, got %v", err)
	}
	// The first failed flush stops the writer before the whole matrix is sent.
	if w.written >= 64*64*12 {
		t.Errorf("writer received %d bytes after failing", w.written)
	}
}

func TestDenseRoundTrip(t *testing.T) {
	m := sequential(4)
	if back := FromDense(ToDense(m)); !back.Equal(m) {
		t.Errorf("dense conversion changed the matrix")
	}
}
