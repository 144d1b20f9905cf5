package ioformat

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mauricelam/pyolin/record"
)

// RecordSet is the parsed representation of the whole input: a record
// sequence with an optional header, or raw bytes for the binary format.
type RecordSet struct {
	Records []record.Record
	Header  record.Header

	// Format is the concrete format that produced this set. For the
	// auto parser it names the detected format, not "auto".
	Format string

	// Binary marks a set with no record structure at all. Accessing
	// records through one is a capability error in the engine.
	Binary bool
}

// Parser converts raw input bytes into a RecordSet.
type Parser interface {
	Parse(data []byte) (*RecordSet, error)
}

// parserCtor builds a parser from record and field separators.
type parserCtor func(recordSep, fieldSep string) (Parser, error)

//nolint:gochecknoglobals
var parsers = map[string]parserCtor{
	"txt":       newTxtParser,
	"awk":       newTxtParser,
	"unix":      newTxtParser,
	"csv":       newCSVParser(0),
	"csv_excel": newCSVParser(','),
	"csv_unix":  newCSVParser(','),
	"tsv":       newCSVParser('\t'),
	"json": func(string, string) (Parser, error) {
		return jsonParser{}, nil
	},
	"binary": func(string, string) (Parser, error) {
		return binaryParser{}, nil
	},
	"auto": newAutoParser,
}

const (
	defaultRecordSep = "\n"
	defaultFieldSep  = `[ \t]+`
)

// compileSep compiles a separator as a regular expression, falling back
// to a literal match when it is not a valid pattern.
func compileSep(sep string) *regexp.Regexp {
	re, err := regexp.Compile(sep)
	if err != nil {
		return regexp.MustCompile(regexp.QuoteMeta(sep))
	}

	return re
}

// splitRecords splits data into record strings on the (regex-capable)
// record separator. A trailing empty element left by a final separator
// is dropped, so "a\nb\n" yields two records. CRLF line endings are
// normalized when splitting on the default separator.
func splitRecords(data []byte, recordSep string) []string {
	normalizeCR := recordSep == ""
	if recordSep == "" {
		recordSep = defaultRecordSep
	}

	parts := compileSep(recordSep).Split(string(data), -1)
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}

	if normalizeCR {
		for i, p := range parts {
			parts[i] = strings.TrimSuffix(p, "\r")
		}
	}

	return parts
}

// detectRecords applies header voting to parsed records, moving the
// first record into the header slot when it wins the vote.
func detectRecords(recs []record.Record, format string) *RecordSet {
	set := &RecordSet{Records: recs, Format: format}

	if record.DetectHeader(recs) {
		set.Header = record.Header(recs[0].Fields)
		set.Records = recs[1:]
	}

	for i := range set.Records {
		set.Records[i].Num = i
	}

	return set
}

// SplitLines splits raw input on the (regex-capable) record separator
// without any field splitting.
func SplitLines(data []byte, recordSep string) []string {
	return splitRecords(data, recordSep)
}

// txtParser splits records on the record separator and fields on a run
// of the (regex-capable) field separator, awk style.
type txtParser struct {
	recordSep string
	fieldSep  *regexp.Regexp
}

func newTxtParser(recordSep, fieldSep string) (Parser, error) {
	if fieldSep == "" {
		fieldSep = defaultFieldSep
	}

	return txtParser{recordSep: recordSep, fieldSep: compileSep(fieldSep)}, nil
}

func (p txtParser) Parse(data []byte) (*RecordSet, error) {
	lines := splitRecords(data, p.recordSep)
	recs := make([]record.Record, 0, len(lines))

	for _, line := range lines {
		if line == "" {
			recs = append(recs, record.Make(nil, line))

			continue
		}

		recs = append(recs, record.Make(p.fieldSep.Split(line, -1), line))
	}

	return detectRecords(recs, "txt"), nil
}

// csvParser splits records on the (regex-capable) record separator and
// parses each record with a delimiter-based dialect.
type csvParser struct {
	recordSep string
	comma     rune
}

// newCSVParser returns a constructor for a named CSV dialect. A zero
// delimiter means "first character of the field separator, else comma".
func newCSVParser(delimiter rune) parserCtor {
	return func(recordSep, fieldSep string) (Parser, error) {
		comma := delimiter
		if comma == 0 {
			comma = ','

			if fieldSep != "" {
				comma = []rune(fieldSep)[0]
			}
		}

		return csvParser{recordSep: recordSep, comma: comma}, nil
	}
}

func (p csvParser) Parse(data []byte) (*RecordSet, error) {
	lines := splitRecords(data, p.recordSep)
	recs := make([]record.Record, 0, len(lines))

	for _, line := range lines {
		reader := csv.NewReader(strings.NewReader(line))
		reader.Comma = p.comma
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		fields, err := reader.Read()
		if err != nil {
			return nil, ErrUnexpectedData.Wrap(err).
				With(slog.String("line", line))
		}

		recs = append(recs, record.Make(fields, line))
	}

	format := "csv"
	if p.comma == '\t' {
		format = "tsv"
	}

	return detectRecords(recs, format), nil
}

// jsonParser decodes the entire input as one JSON value. The document
// must be an array of flat objects; keys of the first object become the
// header. Decoding is non-streaming: the whole buffer is decoded before
// any record exists.
type jsonParser struct{}

func (jsonParser) Parse(data []byte) (*RecordSet, error) {
	var doc []map[string]any

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrUnexpectedData.Wrap(err).
			With(slog.String("format", "json"))
	}

	set := &RecordSet{Format: "json"}

	for i, obj := range doc {
		if i == 0 {
			set.Header = objectKeys(data, obj)
		}

		fields := make([]string, len(set.Header))
		for j, key := range set.Header {
			fields[j] = formatCell(obj[key])
		}

		source, _ := json.Marshal(obj)
		rec := record.Make(fields, string(source))
		rec.Num = i
		set.Records = append(set.Records, rec)
	}

	return set, nil
}

// objectKeys returns the keys of obj in their order of first appearance
// within the raw document, so the header matches the input layout.
func objectKeys(data []byte, obj map[string]any) record.Header {
	keys := make(record.Header, 0, len(obj))
	seen := map[string]bool{}

	dec := json.NewDecoder(strings.NewReader(string(data)))

	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}

			// Stop after the first object closes.
			if depth == 1 && len(keys) > 0 {
				return keys
			}

		case string:
			// Keys of the first object live at depth 2: array, object.
			if depth == 2 && !seen[t] {
				if _, ok := obj[t]; ok {
					seen[t] = true
					keys = append(keys, t)

					// Skip the value so nested object keys aren't
					// mistaken for columns.
					skipValue(dec)
				}
			}
		}
	}

	return keys
}

func skipValue(dec *json.Decoder) {
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}

		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}

		if depth <= 0 {
			return
		}
	}
}

// binaryParser yields no record structure, only the raw bytes, which
// the engine serves through the file and contents bindings.
type binaryParser struct{}

func (binaryParser) Parse([]byte) (*RecordSet, error) {
	return &RecordSet{Format: "binary", Binary: true}, nil
}
