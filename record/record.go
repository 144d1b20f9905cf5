// Package record holds the data model shared by the parsers, printers,
// and the execution engine: records split into fields, optional headers,
// lazily-produced result streams, and the skip sentinel.
package record

// Record is one structural unit of input: an ordered, fixed-at-creation
// sequence of field values plus the verbatim source text of the line it
// was parsed from. Records are never mutated after construction.
type Record struct {
	Fields []string
	Source string
	Num    int
}

// Make constructs a Record from its fields and source line.
func Make(fields []string, source string) Record {
	return Record{Fields: fields, Source: source, Num: -1}
}

// First reports whether this is the first record in its sequence.
func (r Record) First() bool { return r.Num == 0 }

// Header is an ordered sequence of column labels.
type Header []string

// Synthesized reports whether the header was generated positionally
// rather than derived from actual input data. Positional headers are
// skipped by printers that only emit "real" headers.
type SynthesizedHeader struct {
	Header
}

// Synthesize generates a positional header for n columns: "value" for a
// single column, "0", "1", ... otherwise.
func Synthesize(n int) SynthesizedHeader {
	if n == 1 {
		return SynthesizedHeader{Header{"value"}}
	}

	labels := make(Header, n)
	for i := range labels {
		labels[i] = itoa(i)
	}

	return SynthesizedHeader{labels}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	var buf [20]byte

	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}

	return string(buf[pos:])
}

// Tabular is implemented by values that can present themselves as a
// header plus rows of cells, such as a data frame.
type Tabular interface {
	TableHeader() Header
	TableRows() [][]string
}

// skip is the unique sentinel produced when an else-less conditional's
// condition is false. It is unexported so no user program can construct
// a value that unifies with it.
type skip struct{}

// Skipped is the skip sentinel singleton. It never appears in final
// output; the engine and printers filter it after evaluation.
//
//nolint:gochecknoglobals
var Skipped any = skip{}

// IsSkipped reports whether v is the skip sentinel.
func IsSkipped(v any) bool {
	_, ok := v.(skip)

	return ok
}
