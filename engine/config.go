package engine

import (
	"io"

	"github.com/mauricelam/pyolin/log"
	"github.com/mauricelam/pyolin/record"
)

// FrameBuilder constructs a columnar data frame from parsed rows. The
// binding for the df variable is served through this hook so that
// callers decide whether to link a frame library at all.
type FrameBuilder func(rows [][]string, header record.Header) (any, error)

// RunConfig carries everything an [Engine] needs for one run.
type RunConfig struct {
	// Input is the data stream. It is read at most once, when the
	// program first references a data-dependent variable.
	Input io.Reader

	// Filename names the input, or is empty when reading a pipe.
	Filename string

	// Output receives printed results.
	Output io.Writer

	// Parser names the input format. Empty selects auto detection.
	Parser string

	// Printer names the output format. Empty selects auto selection.
	Printer string

	// RecordSep and FieldSep override the parser's separators when
	// non-empty. FieldSep is a regular expression for the awk parser.
	RecordSep string
	FieldSep  string

	// Header forces the column labels instead of voting on the first
	// record.
	Header record.Header

	// Frames builds the df binding. Nil reports a missing dependency
	// when a program references df.
	Frames FrameBuilder

	Log log.Logger
}

func (cfg RunConfig) withDefaults() RunConfig {
	if cfg.Parser == "" {
		cfg.Parser = "auto"
	}
	if cfg.Printer == "" {
		cfg.Printer = "auto"
	}
	if cfg.Log.Logger == nil {
		cfg.Log = log.Default()
	}
	return cfg
}
