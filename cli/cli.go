// Package cli contains the command line interface for pyolin.
//
// A single positional argument is the program to evaluate; an optional
// second argument names the input file, with stdin as the default:
//
//	pyolin 'record[0] if record[1] == "ok"' input.csv
//
// Input and output formats are selected with --parser and --printer,
// both defaulting to automatic detection. Logging and profiling flags
// mirror the other tooling in this family:
//
//	pyolin --log-level=debug --pprof-mode=cpu 'len(records)' data.csv
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/mauricelam/pyolin/engine"
	"github.com/mauricelam/pyolin/frame"
	"github.com/mauricelam/pyolin/ioformat"
	"github.com/mauricelam/pyolin/lang"
	"github.com/mauricelam/pyolin/log"
	"github.com/mauricelam/pyolin/pkg"
	"github.com/mauricelam/pyolin/record"
)

// CLI is the top-level command-line interface for pyolin.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Parser  string `default:"auto" help:"Input format (${parsers})."  placeholder:"format"`
	Printer string `default:"auto" help:"Output format (${printers})." placeholder:"format"`

	FieldSeparator  string   `help:"Field separator pattern for the awk parser." name:"field-separator"  short:"F"`
	RecordSeparator string   `help:"Record separator."                           name:"record-separator"`
	Header          []string `help:"Explicit column labels, replacing header detection."`

	Version kong.VersionFlag `help:"Print version and exit."`

	Prog string `arg:"" help:"Program to evaluate."`
	File string `arg:"" help:"Input file; stdin when omitted or '-'." optional:"" type:"existingfile"`
}

// Run executes the pyolin CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon
// completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless
	// of flag position. TextUnmarshaler on logFormat/logLevel handles
	// those flags during normal parsing, but this early scan also catches
	// boolean flags like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
		kong.Vars{"version": strings.TrimSpace(pkg.Version)}.
			CloneWith(formatVars()).
			CloneWith(cli.Log.vars()).
			CloneWith(cli.Pprof.vars()),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	defer cli.Log.start(ctx)()

	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx)
}

// Run evaluates the program against the selected input.
func (c *CLI) Run(ctx context.Context) error {
	prog, err := lang.Parse(c.Prog)
	if err != nil {
		return err
	}

	input, filename, cleanup, err := c.openInput()
	if err != nil {
		return err
	}
	defer cleanup()

	var header record.Header
	if len(c.Header) > 0 {
		header = record.Header(c.Header)
	}

	eng := engine.New(engine.RunConfig{
		Input:     input,
		Filename:  filename,
		Output:    os.Stdout,
		Parser:    c.Parser,
		Printer:   c.Printer,
		RecordSep: c.RecordSeparator,
		FieldSep:  c.FieldSeparator,
		Header:    header,
		Frames:    buildFrame,
		Log:       log.Default(),
	})

	return eng.Run(ctx, prog)
}

// openInput returns the input stream and the filename to expose through
// the filename binding. Stdin has no filename.
func (c *CLI) openInput() (r io.Reader, filename string, cleanup func(), err error) {
	if c.File == "" || c.File == "-" {
		return os.Stdin, "", func() {}, nil
	}

	f, err := os.Open(c.File)
	if err != nil {
		return nil, "", nil, err
	}

	return f, c.File, func() { _ = f.Close() }, nil
}

// formatVars exposes the registered format names to help text.
func formatVars() kong.Vars {
	return kong.Vars{
		"parsers":  strings.Join(ioformat.ParserNames(), ", "),
		"printers": strings.Join(ioformat.PrinterNames(), ", "),
	}
}

// buildFrame serves the df binding with an arrow-backed frame. Wiring
// it here keeps the engine free of the dependency.
func buildFrame(rows [][]string, header record.Header) (any, error) {
	return frame.New(rows, header)
}
