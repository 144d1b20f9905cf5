// Package frame provides the tabular in-memory representation behind
// the df binding, built on Apache Arrow. Columns are typed by
// inference: a column whose every cell parses as an integer becomes
// int64, float64 next, utf8 otherwise.
package frame

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/mauricelam/pyolin/record"
)

// Frame is an immutable column-typed table.
type Frame struct {
	rec    arrow.Record
	header record.Header
}

// New builds a Frame from rows of cells and a header. A nil header is
// synthesized positionally. Ragged rows are padded with empty cells.
func New(rows [][]string, header record.Header) (*Frame, error) {
	columns := len(header)

	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}

	if header == nil {
		header = record.Synthesize(columns).Header
	}

	fields := make([]arrow.Field, columns)
	for i := range fields {
		label := strconv.Itoa(i)
		if i < len(header) {
			label = header[i]
		}

		fields[i] = arrow.Field{
			Name:     label,
			Type:     inferType(rows, i),
			Nullable: true,
		}
	}

	schema := arrow.NewSchema(fields, nil)
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range rows {
		for i, field := range fields {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			appendCell(builder.Field(i), field.Type, cell)
		}
	}

	rec := builder.NewRecord()

	return &Frame{rec: rec, header: header}, nil
}

func inferType(rows [][]string, col int) arrow.DataType {
	sawFloat := false

	for _, row := range rows {
		if col >= len(row) {
			continue
		}

		cell := row[col]
		if cell == "" {
			continue
		}

		if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
			continue
		}

		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			sawFloat = true

			continue
		}

		return arrow.BinaryTypes.String
	}

	if sawFloat {
		return arrow.PrimitiveTypes.Float64
	}

	return arrow.PrimitiveTypes.Int64
}

func appendCell(b array.Builder, typ arrow.DataType, cell string) {
	if cell == "" {
		b.AppendNull()

		return
	}

	switch typ.ID() {
	case arrow.INT64:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			b.AppendNull()

			return
		}

		b.(*array.Int64Builder).Append(v)

	case arrow.FLOAT64:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			b.AppendNull()

			return
		}

		b.(*array.Float64Builder).Append(v)

	default:
		b.(*array.StringBuilder).Append(cell)
	}
}

// Release frees the underlying Arrow buffers.
func (f *Frame) Release() {
	if f.rec != nil {
		f.rec.Release()
		f.rec = nil
	}
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return int(f.rec.NumRows()) }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return int(f.rec.NumCols()) }

// Columns returns the column labels.
func (f *Frame) Columns() []string { return append([]string(nil), f.header...) }

// Column returns the values of the named column, typed per inference
// (int64, float64, or string; nil for null cells).
func (f *Frame) Column(name string) []any {
	for i, label := range f.header {
		if label == name {
			return f.columnValues(i)
		}
	}

	return nil
}

// Cell returns the typed value at the given row and column index.
func (f *Frame) Cell(row, col int) any {
	values := f.columnValues(col)
	if row < 0 || row >= len(values) {
		return nil
	}

	return values[row]
}

func (f *Frame) columnValues(i int) []any {
	if i < 0 || i >= f.NumCols() {
		return nil
	}

	col := f.rec.Column(i)
	out := make([]any, col.Len())

	for j := 0; j < col.Len(); j++ {
		if col.IsNull(j) {
			continue
		}

		switch arr := col.(type) {
		case *array.Int64:
			out[j] = arr.Value(j)
		case *array.Float64:
			out[j] = arr.Value(j)
		case *array.String:
			out[j] = arr.Value(j)
		default:
			out[j] = col.ValueStr(j)
		}
	}

	return out
}

// TableHeader implements record.Tabular.
func (f *Frame) TableHeader() record.Header { return f.header }

// TableRows implements record.Tabular.
func (f *Frame) TableRows() [][]string {
	rows := make([][]string, f.NumRows())

	for i := range rows {
		row := make([]string, f.NumCols())

		for j := 0; j < f.NumCols(); j++ {
			if v := f.Cell(i, j); v != nil {
				row[j] = fmt.Sprintf("%v", v)
			}
		}

		rows[i] = row
	}

	return rows
}

// String renders the frame compactly for str/repr output.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%dx%d %v)", f.NumRows(), f.NumCols(), f.header)
}
