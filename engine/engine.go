// Package engine turns a compiled program into output: it classifies
// the program's free variables into an execution scope, materializes
// implicit bindings lazily from a single read of the input, evaluates
// the program once or once per record, and hands the result to a
// printer.
package engine

import (
	"context"
	"log/slog"

	"github.com/mauricelam/pyolin/ioformat"
	"github.com/mauricelam/pyolin/lang"
	"github.com/mauricelam/pyolin/log"
	"github.com/mauricelam/pyolin/record"
)

// State tracks an engine through its one-shot lifecycle.
type State int

const (
	StateAnalyzing State = iota
	StateBound
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAnalyzing:
		return "analyzing"
	case StateBound:
		return "bound"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}

	return "unknown"
}

// Engine executes one program against one input. Engines are not
// reusable; the input is consumed by the run.
type Engine struct {
	cfg   RunConfig
	log   log.Logger
	state State
}

// New creates an engine for one run.
func New(cfg RunConfig) *Engine {
	cfg = cfg.withDefaults()

	return &Engine{cfg: cfg, log: cfg.Log, state: StateAnalyzing}
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State { return e.state }

func (e *Engine) setState(s State) {
	e.log.Trace("engine state",
		slog.String("from", e.state.String()),
		slog.String("to", s.String()),
	)
	e.state = s
}

// Run resolves the program's scope, evaluates it, and prints the
// result. Scope resolution and capability checks happen before any
// input is read.
func (e *Engine) Run(ctx context.Context, prog *lang.Prog) error {
	if err := e.run(ctx, prog); err != nil {
		e.setState(StateFailed)

		return err
	}

	e.setState(StateDone)

	return nil
}

func (e *Engine) run(ctx context.Context, prog *lang.Prog) error {
	res, err := Resolve(prog.FreeVars())
	if err != nil {
		return err
	}

	e.log.Debug("scope resolved",
		slog.Any("resolution", res),
		slog.String("program", prog.Source()),
	)

	if err := e.checkCapability(res); err != nil {
		return err
	}

	env := &runEnv{
		src:           newSource(e.cfg),
		log:           e.log,
		filename:      e.cfg.Filename,
		printerFormat: e.cfg.Printer,
	}

	e.setState(StateBound)
	e.setState(StateRunning)

	switch res.Scope {
	case ScopeNeutral, ScopeTable:
		result, err := prog.Eval(env)
		if err != nil {
			return err
		}

		return e.print(env, result)

	case ScopeRecord:
		if res.Iter == iterJSON {
			return e.runJSONDocs(ctx, prog, env)
		}

		return e.runPerRecord(ctx, prog, env)
	}

	return nil
}

// checkCapability rejects record-structured bindings before any I/O
// when the configured parser cannot ever serve them.
func (e *Engine) checkCapability(res Resolution) error {
	if e.cfg.Parser != "binary" {
		return nil
	}

	for _, name := range append(append([]string{}, res.RecordVars...), res.TableVars...) {
		switch name {
		case "record", "fields", "line", "records", "lines", "df":
			return ErrCapability.With(
				slog.String("parser", "binary"),
				slog.String("variable", name),
			)
		}
	}

	return nil
}

// runPerRecord evaluates the program once per parsed record, feeding
// results to the printer as a lazy stream so streaming printers flush
// rows before a later record fails.
func (e *Engine) runPerRecord(ctx context.Context, prog *lang.Prog, env *runEnv) error {
	recs, err := env.src.records()
	if err != nil {
		return err
	}

	env.usedRecords = true

	idx := 0
	stream := record.NewStream(func() (any, bool, error) {
		for {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}

			if idx >= len(recs) {
				return nil, false, nil
			}

			env.current = &recs[idx]
			idx++

			v, err := prog.Eval(env)
			if err != nil {
				return nil, false, err
			}

			if record.IsSkipped(v) {
				continue
			}

			return v, true, nil
		}
	})

	return e.print(env, stream)
}

// runJSONDocs evaluates the program against concatenated top-level JSON
// documents. A single document binds directly, with the result printed
// bare; multiple documents iterate like records.
func (e *Engine) runJSONDocs(ctx context.Context, prog *lang.Prog, env *runEnv) error {
	docs, err := env.src.jsonDocs()
	if err != nil {
		return err
	}

	env.suggested = "json"

	if len(docs) == 0 {
		return nil
	}

	if len(docs) == 1 {
		env.doc = docs[0]

		result, err := prog.Eval(env)
		if err != nil {
			return err
		}

		return e.print(env, result)
	}

	idx := 0
	stream := record.NewStream(func() (any, bool, error) {
		for {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}

			if idx >= len(docs) {
				return nil, false, nil
			}

			env.doc = docs[idx]
			idx++

			v, err := prog.Eval(env)
			if err != nil {
				return nil, false, err
			}

			if record.IsSkipped(v) {
				continue
			}

			return v, true, nil
		}
	})

	return e.print(env, stream)
}

// print renders the result with the printer in effect after evaluation.
// A bare skip sentinel produces no output at all.
func (e *Engine) print(env *runEnv, result any) error {
	if record.IsSkipped(result) {
		return nil
	}

	printer, err := ioformat.NewPrinter(env.printerFormat)
	if err != nil {
		return err
	}

	header := env.outputHeader()
	if header != nil && !headerApplies(result, len(header)) {
		header = nil
	}

	cfg := ioformat.PrintConfig{
		Header:    header,
		RecordSep: e.cfg.RecordSep,
		FieldSep:  e.cfg.FieldSep,
		Suggested: env.outputSuggestion(),
	}

	e.log.Trace("printing result",
		slog.String("printer", env.printerFormat),
		slog.Int("columns", len(cfg.Header)),
	)

	return printer.Print(e.cfg.Output, result, cfg)
}

// runEnv implements [lang.Environment] for one engine run. Bindings
// materialize on first reference through the shared source.
type runEnv struct {
	src *source
	log log.Logger

	filename      string
	printerFormat string
	suggested     string

	// usedRecords marks that the program consumed the parsed record
	// table, which makes the detected header relevant to the output.
	usedRecords bool

	// current is the record under evaluation in record scope.
	current *record.Record

	// doc is the JSON document under evaluation in record scope.
	doc any
}

// Bind implements [lang.Environment].
func (e *runEnv) Bind(names []string) (map[string]any, error) {
	out := make(map[string]any, len(names))

	for _, name := range names {
		v, ok, err := e.bind(name)
		if err != nil {
			return nil, err
		}

		if ok {
			out[name] = v
		}
	}

	return out, nil
}

func (e *runEnv) bind(name string) (any, bool, error) {
	switch name {
	case "record", "fields":
		if e.current == nil {
			return nil, false, nil
		}

		return anyStrings(e.current.Fields), true, nil

	case "line":
		if e.current == nil {
			return nil, false, nil
		}

		return e.current.Source, true, nil

	case "jsonobj":
		return e.doc, true, nil

	case "records":
		recs, err := e.src.records()
		if err != nil {
			return nil, false, err
		}

		e.usedRecords = true

		rows := make([]any, len(recs))
		for i, rec := range recs {
			rows[i] = anyStrings(rec.Fields)
		}

		return rows, true, nil

	case "lines":
		vals, err := e.src.lineVals()
		if err != nil {
			return nil, false, err
		}

		return anyStrings(vals), true, nil

	case "file", "contents":
		v, err := e.src.contents()
		if err != nil {
			return nil, false, err
		}

		return v, true, nil

	case "df":
		v, err := e.src.frameVal()
		if err != nil {
			return nil, false, err
		}

		e.usedRecords = true

		return v, true, nil

	case "jsonobjs":
		docs, err := e.src.jsonDocs()
		if err != nil {
			return nil, false, err
		}

		e.suggested = "json"

		return docs, true, nil

	case "filename":
		if e.filename == "" {
			return nil, true, nil
		}

		return e.filename, true, nil

	case "header":
		h, err := e.src.header()
		if err != nil {
			return nil, false, err
		}

		return anyStrings(h), true, nil

	case "parser":
		return e.src.parserFormat, true, nil

	case "printer":
		return e.printerFormat, true, nil
	}

	return nil, false, nil
}

// Assign implements [lang.Environment]. The configuration names are
// intercepted; everything else stays a program-local binding.
func (e *runEnv) Assign(name string, value any) (bool, error) {
	switch name {
	case "parser":
		format, err := stringValue(name, value)
		if err != nil {
			return true, err
		}

		return true, e.src.setParser(format)

	case "printer":
		format, err := stringValue(name, value)
		if err != nil {
			return true, err
		}

		if _, err := ioformat.NewPrinter(format); err != nil {
			return true, err
		}

		e.printerFormat = format

		return true, nil

	case "header":
		header, err := headerValue(value)
		if err != nil {
			return true, err
		}

		e.src.setHeader(header)

		return true, nil
	}

	return false, nil
}

// outputHeader returns the column labels the printer should use. The
// detected header only applies when the program actually consumed the
// record table; a program over lines or contents has no columns.
func (e *runEnv) outputHeader() record.Header {
	if e.src.headerOverride != nil {
		return e.src.headerOverride
	}

	if e.usedRecords && e.src.set != nil {
		return e.src.set.Header
	}

	return nil
}

// outputSuggestion hints the auto printer toward json when the data
// came in as json, matching what a round trip would expect.
func (e *runEnv) outputSuggestion() string {
	if e.suggested != "" {
		return e.suggested
	}

	if e.src.set != nil && e.src.set.Format == "json" {
		return "json"
	}

	return ""
}

// headerApplies reports whether column labels of the given width make
// sense for the result: the result must be row-shaped with matching
// width. Scalars, maps, and projected rows of a different width print
// without the input's header.
func headerApplies(result any, columns int) bool {
	switch v := result.(type) {
	case *record.Stream:
		peek, err := v.Peek(1)
		if err != nil || len(peek) == 0 {
			return true
		}

		return rowWidth(peek[0]) == columns

	case []any:
		if len(v) == 0 {
			return true
		}

		return rowWidth(v[0]) == columns

	case [][]string:
		if len(v) == 0 {
			return true
		}

		return len(v[0]) == columns
	}

	return false
}

func rowWidth(item any) int {
	switch v := item.(type) {
	case []any:
		return len(v)
	case []string:
		return len(v)
	default:
		return -1
	}
}

func anyStrings(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}

	return out
}

func stringValue(name string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", ErrBadAssignment.With(
			slog.String("name", name),
			slog.Any("value", value),
		)
	}

	return s, nil
}

func headerValue(value any) (record.Header, error) {
	switch v := value.(type) {
	case []string:
		return record.Header(v), nil
	case record.Header:
		return v, nil
	case []any:
		out := make(record.Header, len(v))

		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, ErrBadAssignment.With(
					slog.String("name", "header"),
					slog.Any("value", item),
				)
			}

			out[i] = s
		}

		return out, nil
	}

	return nil, ErrBadAssignment.With(
		slog.String("name", "header"),
		slog.Any("value", value),
	)
}
