package frame

import (
	"testing"

	"github.com/mauricelam/pyolin/record"
)

func TestNewTypedColumns(t *testing.T) {
	f, err := New([][]string{
		{"1", "0.5", "x"},
		{"2", "1.25", "y"},
	}, record.Header{"n", "r", "s"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer f.Release()

	if f.NumRows() != 2 || f.NumCols() != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", f.NumRows(), f.NumCols())
	}

	n := f.Column("n")
	if len(n) != 2 || n[0] != int64(1) || n[1] != int64(2) {
		t.Errorf("integer column = %v", n)
	}

	r := f.Column("r")
	if r[1] != 1.25 {
		t.Errorf("float column = %v", r)
	}

	s := f.Column("s")
	if s[0] != "x" {
		t.Errorf("string column = %v", s)
	}
}

func TestNewSynthesizesHeader(t *testing.T) {
	f, err := New([][]string{{"a", "b"}}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer f.Release()

	cols := f.Columns()
	if len(cols) != 2 || cols[0] != "0" || cols[1] != "1" {
		t.Errorf("synthesized columns = %v", cols)
	}
}

func TestNewPadsRaggedRows(t *testing.T) {
	f, err := New([][]string{
		{"1", "x"},
		{"2"},
	}, record.Header{"n", "s"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer f.Release()

	if v := f.Cell(1, 1); v != nil {
		t.Errorf("padded cell = %v, want nil", v)
	}
}

func TestTabular(t *testing.T) {
	f, err := New([][]string{{"1", "x"}}, record.Header{"n", "s"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer f.Release()

	header := f.TableHeader()
	if len(header) != 2 || header[0] != "n" {
		t.Errorf("TableHeader = %v", header)
	}

	rows := f.TableRows()
	if len(rows) != 1 || rows[0][0] != "1" || rows[0][1] != "x" {
		t.Errorf("TableRows = %v", rows)
	}
}

func TestColumnUnknown(t *testing.T) {
	f, err := New([][]string{{"1"}}, record.Header{"n"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer f.Release()

	if vals := f.Column("missing"); vals != nil {
		t.Errorf("Column(missing) = %v, want nil", vals)
	}
}
