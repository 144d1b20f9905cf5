package ioformat

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/mauricelam/pyolin/record"
)

// PrintConfig carries the rendering context for a single run.
type PrintConfig struct {
	// Header is the known column labels: set explicitly by the program
	// or derived from the parser. Nil means unknown, in which case
	// printers fall back to positional labels at render time.
	Header record.Header

	// RecordSep and FieldSep configure the txt printer family.
	RecordSep string
	FieldSep  string

	// Suggested is a printer hint recorded while binding data sources
	// (e.g. "json" when the program consumed JSON documents). Only the
	// auto printer consults it.
	Suggested string
}

func (c PrintConfig) recordSep() string {
	if c.RecordSep == "" {
		return "\n"
	}

	return c.RecordSep
}

func (c PrintConfig) fieldSep() string {
	if c.FieldSep == "" {
		return " "
	}

	return c.FieldSep
}

// Printer converts a result value into output bytes.
type Printer interface {
	Print(w io.Writer, result any, cfg PrintConfig) error
}

type printerCtor func() Printer

//nolint:gochecknoglobals
var printers = map[string]printerCtor{
	"txt":      func() Printer { return txtPrinter{} },
	"awk":      func() Printer { return txtPrinter{} },
	"unix":     func() Printer { return txtPrinter{} },
	"csv":      func() Printer { return csvPrinter{comma: ','} },
	"tsv":      func() Printer { return csvPrinter{comma: '\t'} },
	"markdown": func() Printer { return markdownPrinter{} },
	"md":       func() Printer { return markdownPrinter{} },
	"table":    func() Printer { return markdownPrinter{} },
	"json":     func() Printer { return jsonPrinter{} },
	"jsonl":    func() Printer { return jsonlPrinter{} },
	"yaml":     func() Printer { return yamlPrinter{} },
	"repr":     func() Printer { return reprPrinter{} },
	"str":      func() Printer { return strPrinter{} },
	"binary":   func() Printer { return binaryPrinter{} },
	"auto":     func() Printer { return autoPrinter{} },
}

// formatCell renders a single cell value as text.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'g', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', 6, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		if record.IsSkipped(v) {
			return ""
		}

		return fmt.Sprintf("%v", val)
	}
}

// tableView is a result reshaped into header and rows for the tabular
// printers. Rows are produced lazily so streaming printers can flush
// already-produced rows before a later record fails.
type tableView struct {
	header record.Header
	real   bool // header came from data or configuration, not synthesis
	rows   *record.Stream
}

// rowCells reshapes one result item into a row of cells. Map items are
// flattened by the given (or their own sorted) key order.
func rowCells(item any, keys record.Header) []any {
	switch v := item.(type) {
	case record.Record:
		return anySlice(v.Fields)
	case []string:
		return anySlice(v)
	case []any:
		return v
	case map[string]any:
		if keys == nil {
			keys = sortedKeys(v)
		}

		cells := make([]any, len(keys))
		for i, k := range keys {
			cells[i] = v[k]
		}

		return cells
	default:
		return []any{item}
	}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}

func sortedKeys(m map[string]any) record.Header {
	keys := make(record.Header, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// asStream reshapes any sequence-like result into a stream of items,
// reporting ok=false for values that are not sequences.
func asStream(result any) (*record.Stream, bool) {
	switch v := result.(type) {
	case *record.Stream:
		return v, true
	case []any:
		return record.StreamOf(v...), true
	case [][]string:
		items := make([]any, len(v))
		for i, row := range v {
			items[i] = row
		}

		return record.StreamOf(items...), true
	case []map[string]any:
		items := make([]any, len(v))
		for i, row := range v {
			items[i] = row
		}

		return record.StreamOf(items...), true
	default:
		return nil, false
	}
}

// toTable reshapes a result into header plus rows. Single records,
// scalars, and maps become one-row tables; sequences become one row per
// item. A nil header in cfg falls back to a synthesized positional one
// sized by the first row.
func toTable(result any, cfg PrintConfig) (tableView, error) {
	if tab, ok := result.(record.Tabular); ok {
		rows := tab.TableRows()
		items := make([]any, len(rows))

		for i, row := range rows {
			items[i] = row
		}

		return tableView{
			header: tab.TableHeader(),
			real:   true,
			rows:   record.StreamOf(items...),
		}, nil
	}

	header := cfg.Header
	real := header != nil

	if m, ok := result.(map[string]any); ok {
		keys := header
		if keys == nil {
			keys = sortedKeys(m)
		}

		return tableView{
			header: keys,
			real:   true,
			rows:   record.StreamOf(rowCells(m, keys)),
		}, nil
	}

	stream, ok := asStream(result)
	if !ok {
		// Single record or scalar: exactly one row.
		stream = record.StreamOf(result)
	}

	peek, err := stream.Peek(1)
	if err != nil && len(peek) == 0 {
		return tableView{}, err
	}

	if header == nil && len(peek) > 0 {
		if m, isMap := peek[0].(map[string]any); isMap {
			header = sortedKeys(m)
			real = true
		} else {
			header = record.Synthesize(len(rowCells(peek[0], nil))).Header
		}
	}

	keys := header
	if !real {
		keys = nil
	}

	rows := record.NewStream(func() (any, bool, error) {
		item, ok, err := stream.Next()
		if err != nil || !ok {
			return nil, false, err
		}

		return rowCells(item, keys), true, nil
	})

	return tableView{header: header, real: real, rows: rows}, nil
}

// nextRow pulls and formats one row of cells from a table view.
func (t tableView) nextRow() ([]string, bool, error) {
	item, ok, err := t.rows.Next()
	if err != nil || !ok {
		return nil, false, err
	}

	cells, _ := item.([]any)
	row := make([]string, len(cells))

	for i, cell := range cells {
		row[i] = formatCell(cell)
	}

	return row, true, nil
}

// txtPrinter writes each row on its own record line with fields joined
// by the field separator. Scalar results print as a single line.
type txtPrinter struct{}

func (txtPrinter) Print(w io.Writer, result any, cfg PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	table, err := toTable(result, cfg)
	if err != nil {
		return err
	}

	if table.real {
		_, err = io.WriteString(w, joinRow(table.header, cfg)+cfg.recordSep())
		if err != nil {
			return err
		}
	}

	for {
		row, ok, err := table.nextRow()
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		_, err = io.WriteString(w, joinRow(row, cfg)+cfg.recordSep())
		if err != nil {
			return err
		}
	}
}

func joinRow(cells []string, cfg PrintConfig) string {
	out := ""

	for i, cell := range cells {
		if i > 0 {
			out += cfg.fieldSep()
		}

		out += cell
	}

	return out
}

// csvPrinter writes delimiter-separated rows, emitting a header row
// first when a real header is known. Rows are flushed one at a time.
type csvPrinter struct {
	comma rune
}

func (p csvPrinter) Print(w io.Writer, result any, cfg PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	table, err := toTable(result, cfg)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = p.comma

	if table.real {
		if err := writer.Write(table.header); err != nil {
			return err
		}

		writer.Flush()
	}

	for {
		row, ok, err := table.nextRow()
		if err != nil {
			return err
		}

		if !ok {
			return writer.Error()
		}

		if err := writer.Write(row); err != nil {
			return err
		}

		writer.Flush()

		if err := writer.Error(); err != nil {
			return err
		}
	}
}

// strPrinter renders the value as a single unit of display text.
type strPrinter struct{}

func (strPrinter) Print(w io.Writer, result any, _ PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	if stream, ok := result.(*record.Stream); ok {
		values, err := stream.Collect()
		if err != nil {
			return err
		}

		result = values
	}

	_, err := fmt.Fprintf(w, "%v\n", result)

	return err
}

// reprPrinter renders the value in Go debug syntax as a single unit.
type reprPrinter struct{}

func (reprPrinter) Print(w io.Writer, result any, _ PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	if stream, ok := result.(*record.Stream); ok {
		values, err := stream.Collect()
		if err != nil {
			return err
		}

		result = values
	}

	_, err := fmt.Fprintf(w, "%#v\n", result)

	return err
}

// binaryPrinter writes an already-raw byte sequence unmodified.
type binaryPrinter struct{}

func (binaryPrinter) Print(w io.Writer, result any, _ PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)

		return err

	case string:
		_, err := io.WriteString(w, v)

		return err

	default:
		return ErrTypeMismatch.
			With(
				slog.String("printer", "binary"),
				slog.String("type", fmt.Sprintf("%T", result)),
			)
	}
}
