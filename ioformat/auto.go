package ioformat

import (
	"bytes"
	"io"
	"strings"
	"unicode"

	"github.com/mauricelam/pyolin/record"
)

// autoParser inspects a bounded prefix of the input and delegates to a
// concrete parser. Detection runs once, before any record exists, and
// the chosen parser is fixed for the run.
type autoParser struct {
	recordSep string
	fieldSep  string
}

func newAutoParser(recordSep, fieldSep string) (Parser, error) {
	return autoParser{recordSep: recordSep, fieldSep: fieldSep}, nil
}

// detectSampleLines bounds the prefix examined during detection.
const detectSampleLines = 10

// Detect classifies the input and returns the concrete format name:
// "json" when the first non-whitespace character opens a JSON document
// and the document decodes, "csv" or "tsv" when the per-line delimiter
// count is uniform and at least one, else "txt".
func Detect(data []byte) string {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "json"
	}

	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	if len(lines) > detectSampleLines {
		lines = lines[:detectSampleLines]
	}

	if len(lines) == 0 {
		return "txt"
	}

	if uniformCount(lines, ',') {
		return "csv"
	}

	if uniformCount(lines, '\t') {
		return "tsv"
	}

	return "txt"
}

// uniformCount reports whether every sampled line contains the same
// number of sep characters, and at least one.
func uniformCount(lines []string, sep byte) bool {
	count := strings.Count(lines[0], string(sep))
	if count < 1 {
		return false
	}

	for _, line := range lines[1:] {
		if strings.Count(line, string(sep)) != count {
			return false
		}
	}

	return true
}

func (p autoParser) Parse(data []byte) (*RecordSet, error) {
	format := Detect(data)

	fieldSep := p.fieldSep
	if format == "tsv" {
		fieldSep = "\t"
	}

	parser, err := NewParser(format, p.recordSep, fieldSep)
	if err != nil {
		return nil, err
	}

	set, err := parser.Parse(data)
	if err == nil {
		return set, nil
	}

	// A JSON-looking prefix that fails to decode falls back to txt.
	if format == "json" {
		fallback, ferr := NewParser("txt", p.recordSep, p.fieldSep)
		if ferr != nil {
			return nil, ferr
		}

		return fallback.Parse(data)
	}

	return nil, err
}

// autoPrinter picks a rendering strategy from the result shape:
// tabular values and sequences of flat records render as markdown,
// mappings and nested structures as json, scalars as txt. A suggestion
// recorded while binding (e.g. JSON input) wins for non-tabular shapes.
type autoPrinter struct{}

func (autoPrinter) pick(result any, cfg PrintConfig) string {
	switch result.(type) {
	case record.Tabular:
		return "markdown"
	case map[string]any:
		return "json"
	}

	if cfg.Suggested != "" {
		return cfg.Suggested
	}

	stream, isSeq := asStream(result)
	if !isSeq {
		return "txt"
	}

	peek, _ := stream.Peek(1)
	if len(peek) == 0 {
		return "markdown"
	}

	if recordLike(peek[0]) {
		if scalarCells(peek[0]) {
			return "markdown"
		}

		return "json"
	}

	return "markdown"
}

func (p autoPrinter) Print(w io.Writer, result any, cfg PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	printer, err := NewPrinter(p.pick(result, cfg))
	if err != nil {
		return err
	}

	return printer.Print(w, result, cfg)
}
