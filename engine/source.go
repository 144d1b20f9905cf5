package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/mauricelam/pyolin/ioformat"
	"github.com/mauricelam/pyolin/log"
	"github.com/mauricelam/pyolin/record"
)

// source serves every data-dependent binding lazily from a single read
// of the input. Each representation (raw bytes, parsed records, lines,
// JSON documents, frame) is materialized at most once and cached; the
// first materialization freezes the parser configuration.
type source struct {
	cfg RunConfig
	log log.Logger

	parserFormat string
	frozen       bool

	raw     []byte
	haveRaw bool

	set *ioformat.RecordSet

	lines     []string
	haveLines bool

	docs     []any
	haveDocs bool

	frame     any
	haveFrame bool

	headerOverride record.Header
}

func newSource(cfg RunConfig) *source {
	return &source{
		cfg:            cfg,
		log:            cfg.Log,
		parserFormat:   cfg.Parser,
		headerOverride: cfg.Header,
	}
}

// setParser changes the input format. It fails once any representation
// of the input has been materialized.
func (s *source) setParser(format string) error {
	if s.frozen {
		return ErrLateConfiguration.With(
			slog.String("parser", s.parserFormat),
			slog.String("requested", format),
		)
	}

	// Validate the name eagerly so the error points at the assignment.
	if _, err := ioformat.NewParser(format, s.cfg.RecordSep, s.cfg.FieldSep); err != nil {
		return err
	}

	s.parserFormat = format

	return nil
}

func (s *source) setHeader(header record.Header) {
	s.headerOverride = header
}

// freeze pins the parser configuration. Called on every materialization
// path before input is read.
func (s *source) freeze() {
	if !s.frozen {
		s.frozen = true
		s.log.Trace("parser frozen", slog.String("parser", s.parserFormat))
	}
}

func (s *source) readRaw() ([]byte, error) {
	s.freeze()

	if s.haveRaw {
		return s.raw, nil
	}

	data, err := io.ReadAll(s.cfg.Input)
	if err != nil {
		return nil, errReadInput.Wrap(err).
			With(slog.String("filename", s.cfg.Filename))
	}

	s.raw = data
	s.haveRaw = true
	s.log.Debug("input read", slog.Int("bytes", len(data)))

	return s.raw, nil
}

// contents returns the whole input as a string, or raw bytes under the
// binary parser.
func (s *source) contents() (any, error) {
	data, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	if s.parserFormat == "binary" {
		return data, nil
	}

	return string(data), nil
}

// recordSet parses the input with the active parser, once.
func (s *source) recordSet() (*ioformat.RecordSet, error) {
	if s.set != nil {
		return s.set, nil
	}

	data, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	parser, err := ioformat.NewParser(s.parserFormat, s.cfg.RecordSep, s.cfg.FieldSep)
	if err != nil {
		return nil, err
	}

	set, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	if s.headerOverride != nil {
		set.Header = s.headerOverride
	}

	s.set = set
	s.log.Debug("input parsed",
		slog.String("format", set.Format),
		slog.Int("records", len(set.Records)),
		slog.Int("columns", len(set.Header)),
	)

	return s.set, nil
}

// records returns the parsed record sequence, guarding against parsers
// that yield no record structure.
func (s *source) records() ([]record.Record, error) {
	set, err := s.recordSet()
	if err != nil {
		return nil, err
	}

	if set.Binary {
		return nil, ErrCapability.With(
			slog.String("parser", set.Format),
			slog.String("requested", "records"),
		)
	}

	return set.Records, nil
}

// header returns the active column labels: the explicit override when
// set, otherwise whatever the parser detected.
func (s *source) header() (record.Header, error) {
	if s.headerOverride != nil {
		return s.headerOverride, nil
	}

	set, err := s.recordSet()
	if err != nil {
		return nil, err
	}

	return set.Header, nil
}

// lineVals splits the input on record boundaries only, with no field
// structure.
func (s *source) lineVals() ([]string, error) {
	if s.haveLines {
		return s.lines, nil
	}

	data, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	if s.parserFormat == "binary" {
		return nil, ErrCapability.With(
			slog.String("parser", "binary"),
			slog.String("requested", "lines"),
		)
	}

	s.lines = ioformat.SplitLines(data, s.cfg.RecordSep)
	s.haveLines = true

	return s.lines, nil
}

// jsonDocs decodes the input as a sequence of concatenated top-level
// JSON documents, independent of the active parser.
func (s *source) jsonDocs() ([]any, error) {
	if s.haveDocs {
		return s.docs, nil
	}

	data, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	docs := []any{}

	for {
		var doc any

		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, ioformat.ErrUnexpectedData.Wrap(err).
				With(slog.String("requested", "json documents"))
		}

		docs = append(docs, doc)
	}

	s.docs = docs
	s.haveDocs = true
	s.log.Debug("json documents decoded", slog.Int("count", len(docs)))

	return s.docs, nil
}

// frameVal builds the df binding through the configured hook.
func (s *source) frameVal() (any, error) {
	if s.haveFrame {
		return s.frame, nil
	}

	if s.cfg.Frames == nil {
		return nil, ErrMissingDependency.With(
			slog.String("variable", "df"),
			slog.String("needs", "a frame builder"),
		)
	}

	recs, err := s.records()
	if err != nil {
		return nil, err
	}

	header, err := s.header()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Fields
	}

	frame, err := s.cfg.Frames(rows, header)
	if err != nil {
		return nil, err
	}

	s.frame = frame
	s.haveFrame = true

	return s.frame, nil
}
