// Package ioformat maps parser and printer identifiers to strategies
// for converting raw input into records and result values into output
// bytes. Both registries are fixed at process start; format
// auto-detection picks a concrete entry once per run.
package ioformat

import (
	"log/slog"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/mauricelam/pyolin/pkg"
)

// Predefined errors (sentinel values).
var (
	ErrUnknownParser  = pkg.NewError("unknown input format")
	ErrUnknownPrinter = pkg.NewError("unknown output format")
	ErrUnexpectedData = pkg.NewError("unexpected input data format")

	// ErrTypeMismatch reports a value handed to a printer that does not
	// satisfy its structural requirement.
	ErrTypeMismatch = pkg.NewError("result type not supported by printer")

	// ErrDetectFailed reports that auto-detection could not classify the
	// input.
	ErrDetectFailed = pkg.NewError("unable to detect input format")
)

// NewParser creates a parser for the given format identifier. The
// record and field separators may be empty to use the format defaults.
func NewParser(format, recordSep, fieldSep string) (Parser, error) {
	ctor, ok := parsers[format]
	if !ok {
		return nil, ErrUnknownParser.
			With(
				slog.String("format", format),
				slog.String("suggestion", Suggest(format, ParserNames())),
			)
	}

	return ctor(recordSep, fieldSep)
}

// NewPrinter creates a printer for the given format identifier.
func NewPrinter(format string) (Printer, error) {
	ctor, ok := printers[format]
	if !ok {
		return nil, ErrUnknownPrinter.
			With(
				slog.String("format", format),
				slog.String("suggestion", Suggest(format, PrinterNames())),
			)
	}

	return ctor(), nil
}

// ParserNames returns the sorted identifiers of all registered parsers.
func ParserNames() []string { return names(parsers) }

// PrinterNames returns the sorted identifiers of all registered
// printers.
func PrinterNames() []string { return names(printers) }

func names[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// Suggest returns the closest registered identifier to the given
// (unrecognized) one, or "" when nothing comes close.
func Suggest(format string, candidates []string) string {
	matches := fuzzy.Find(format, candidates)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}
