package ioformat

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/mauricelam/pyolin/record"
)

// normalize converts a result value into something encoding/json (and
// go-yaml) can marshal: streams and records become slices, skip
// sentinels are filtered out, and leaf strings that look numeric are
// emitted as numbers so field values round-trip as data, not text.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case *record.Stream:
		items, err := val.Collect()
		if err != nil {
			return nil, err
		}

		return normalize(items)

	case record.Record:
		return normalize(anySlice(val.Fields))

	case record.Tabular:
		rows := val.TableRows()
		header := val.TableHeader()
		out := make([]any, len(rows))

		for i, row := range rows {
			obj := make(map[string]any, len(header))
			for j, key := range header {
				if j < len(row) {
					obj[key], _ = normalize(row[j])
				}
			}

			out[i] = obj
		}

		return out, nil

	case []string:
		return normalize(anySlice(val))

	case [][]string:
		out := make([]any, len(val))
		for i, row := range val {
			out[i], _ = normalize(row)
		}

		return out, nil

	case []any:
		out := make([]any, 0, len(val))

		for _, item := range val {
			if record.IsSkipped(item) {
				continue
			}

			n, err := normalize(item)
			if err != nil {
				return nil, err
			}

			out = append(out, n)
		}

		return out, nil

	case map[string]any:
		out := make(map[string]any, len(val))

		for k, item := range val {
			if record.IsSkipped(item) {
				continue
			}

			n, err := normalize(item)
			if err != nil {
				return nil, err
			}

			out[k] = n
		}

		return out, nil

	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i, nil
		}

		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, nil
		}

		return val, nil

	case []byte:
		return normalize(string(val))

	default:
		if record.IsSkipped(v) {
			return nil, nil
		}

		return v, nil
	}
}

// recordLike reports whether an item is itself a fixed-size ordered
// sequence or flat mapping, i.e. printable as one table row.
func recordLike(item any) bool {
	switch item.(type) {
	case record.Record, []string, []any, map[string]any:
		return true
	default:
		return false
	}
}

// scalarCells reports whether every cell of a row item is scalar.
func scalarCells(item any) bool {
	for _, cell := range rowCells(item, nil) {
		switch cell.(type) {
		case []any, []string, map[string]any:
			return false
		}
	}

	return true
}

// jsonPrinter emits a JSON array. Each record becomes an object keyed
// by header labels when a header is known, otherwise by positional
// index. Non-tabular results are marshaled directly. The full sequence
// is buffered; nothing is emitted on failure.
type jsonPrinter struct{}

func (jsonPrinter) Print(w io.Writer, result any, cfg PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	if rows, ok, err := tableObjects(result, cfg); err != nil {
		return err
	} else if ok {
		return marshalIndent(w, rows)
	}

	value, err := normalize(result)
	if err != nil {
		return err
	}

	return marshalIndent(w, value)
}

func marshalIndent(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// tableObjects converts a sequence-of-record-like result into a slice
// of objects keyed by the header labels (real or positional).
// ok is false when the result is not shaped like a table.
func tableObjects(result any, cfg PrintConfig) ([]any, bool, error) {
	stream, isSeq := asStream(result)
	if !isSeq {
		return nil, false, nil
	}

	peek, err := stream.Peek(1)
	if err != nil {
		return nil, false, err
	}

	if len(peek) == 0 {
		return []any{}, true, nil
	}

	if !recordLike(peek[0]) || !scalarCells(peek[0]) {
		return nil, false, nil
	}

	table, err := toTable(stream, cfg)
	if err != nil {
		return nil, false, err
	}

	header := table.header

	var rows []any

	for {
		item, ok, err := table.rows.Next()
		if err != nil {
			return nil, false, err
		}

		if !ok {
			return rows, true, nil
		}

		cells, _ := item.([]any)
		obj := make(map[string]any, len(cells))

		for i, cell := range cells {
			key := strconv.Itoa(i)
			if i < len(header) {
				key = header[i]
			}

			obj[key], err = normalize(cell)
			if err != nil {
				return nil, false, err
			}
		}

		rows = append(rows, obj)
	}
}

// jsonlPrinter emits one JSON value per line with no enclosing array.
// Rows are flushed as they are produced.
type jsonlPrinter struct{}

func (jsonlPrinter) Print(w io.Writer, result any, cfg PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	stream, isSeq := asStream(result)
	if !isSeq {
		return ErrTypeMismatch.
			With(
				slog.String("printer", "jsonl"),
				slog.String("type", fmt.Sprintf("%T", result)),
			)
	}

	enc := json.NewEncoder(w)

	for {
		item, ok, err := stream.Next()
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		if record.IsSkipped(item) {
			continue
		}

		value, err := lineValue(item, cfg)
		if err != nil {
			return err
		}

		if err := enc.Encode(value); err != nil {
			return err
		}
	}
}

// lineValue converts one sequence item for jsonl output: record-like
// items become objects keyed like the json printer, everything else is
// normalized as-is.
func lineValue(item any, cfg PrintConfig) (any, error) {
	if !recordLike(item) || !scalarCells(item) {
		return normalize(item)
	}

	if m, ok := item.(map[string]any); ok {
		return normalize(m)
	}

	cells := rowCells(item, nil)
	obj := make(map[string]any, len(cells))

	for i, cell := range cells {
		key := strconv.Itoa(i)
		if i < len(cfg.Header) {
			key = cfg.Header[i]
		}

		var err error

		obj[key], err = normalize(cell)
		if err != nil {
			return nil, err
		}
	}

	return obj, nil
}
