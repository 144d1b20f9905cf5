// Package lang is the program front end. It splits a one-liner into
// leading assignment statements and a final output expression, compiles
// each fragment with expr-lang, and reports the set of implicit
// variables the program references before anything is evaluated.
//
// A program has the shape
//
//	stmt; stmt; ...; EXPR
//
// where each leading statement is a simple assignment (`name = <expr>`)
// and the final fragment is the expression whose value is printed. The
// final fragment may carry an else-less conditional suffix,
//
//	EXPR if COND
//
// which produces the skip sentinel when COND is false, or a full
//
//	EXPR if COND else OTHER
//
// conditional evaluated lazily on either side.
package lang

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mauricelam/pyolin/record"
)

// Environment supplies the implicit variable bindings for a program
// evaluation. It is implemented by the execution engine.
type Environment interface {
	// Bind materializes the named implicit variables and returns values
	// to merge into the evaluation scope. Names the environment does not
	// recognize are simply omitted from the result.
	Bind(names []string) (map[string]any, error)

	// Assign stores a value produced by a leading assignment statement.
	// The environment reports whether it handled the name itself (for
	// configuration names such as parser, printer, and header); names it
	// does not handle become ordinary local bindings.
	Assign(name string, value any) (handled bool, err error)
}

// fragment is one compiled piece of a program along with the implicit
// variables it references.
type fragment struct {
	source  string
	program *vm.Program
	free    []string
}

// Prog is the compiled intermediate representation of a user program.
type Prog struct {
	source string
	stmts  []assignment
	cond   *fragment // nil unless the final expression is conditional
	expr   fragment
	orelse *fragment // nil for else-less conditionals
	free   []string
}

type assignment struct {
	name string
	rhs  fragment // empty name means evaluate-and-discard
}

var assignPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*)$`)

// Parse compiles the program text. No evaluation and no I/O happens
// here; the returned Prog statically exposes its free variables.
func Parse(source string) (*Prog, error) {
	fragments := splitStatements(source)
	if len(fragments) == 0 {
		return nil, ErrEmptyProgram.With(slog.String("source", source))
	}

	prog := &Prog{source: source}
	seen := map[string]bool{}
	assigned := map[string]bool{}

	collect := func(f fragment) {
		for _, name := range f.free {
			if !seen[name] && !assigned[name] {
				seen[name] = true
				prog.free = append(prog.free, name)
			}
		}
	}

	for _, stmtSrc := range fragments[:len(fragments)-1] {
		name, rhsSrc := splitAssignment(stmtSrc)

		rhs, err := compileFragment(rhsSrc)
		if err != nil {
			return nil, err
		}

		collect(rhs)

		if name != "" {
			assigned[name] = true
		}

		prog.stmts = append(prog.stmts, assignment{name: name, rhs: rhs})
	}

	exprSrc, condSrc, elseSrc := splitConditional(fragments[len(fragments)-1])

	f, err := compileFragment(exprSrc)
	if err != nil {
		return nil, err
	}

	prog.expr = f
	collect(f)

	if condSrc != "" {
		cond, err := compileFragment(condSrc)
		if err != nil {
			return nil, err
		}

		prog.cond = &cond
		collect(cond)
	}

	if elseSrc != "" {
		orelse, err := compileFragment(elseSrc)
		if err != nil {
			return nil, err
		}

		prog.orelse = &orelse
		collect(orelse)
	}

	return prog, nil
}

// Source returns the original program text.
func (p *Prog) Source() string { return p.source }

// FreeVars returns the set of implicit variable names the program
// references that are not bound by its own leading statements, in
// first-reference order.
func (p *Prog) FreeVars() []string { return p.free }

// Eval runs the program once against the given environment: leading
// statements in order, then the final expression. The skip sentinel is
// returned when an else-less conditional's condition is false.
func (p *Prog) Eval(env Environment) (any, error) {
	locals := map[string]any{}

	run := func(f fragment) (any, error) {
		bound, err := env.Bind(f.free)
		if err != nil {
			return nil, err
		}

		scope := make(map[string]any, len(locals)+len(bound))
		for k, v := range locals {
			scope[k] = v
		}

		for k, v := range bound {
			scope[k] = v
		}

		result, err := vm.Run(f.program, scope)
		if err != nil {
			return nil, ErrUserEvaluation.Wrap(err).
				With(slog.String("source", f.source))
		}

		return result, nil
	}

	for _, stmt := range p.stmts {
		value, err := run(stmt.rhs)
		if err != nil {
			return nil, err
		}

		if stmt.name == "" {
			continue
		}

		handled, err := env.Assign(stmt.name, value)
		if err != nil {
			return nil, err
		}

		if !handled {
			locals[stmt.name] = value
		}
	}

	if p.cond != nil {
		cond, err := run(*p.cond)
		if err != nil {
			return nil, err
		}

		if !Truthy(cond) {
			if p.orelse != nil {
				return run(*p.orelse)
			}

			return record.Skipped, nil
		}
	}

	return run(p.expr)
}

func compileFragment(source string) (fragment, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return fragment{}, ErrEmptyProgram
	}

	// No expr.Env option: identifiers resolve dynamically from the map
	// supplied at run time, so names outside the binding catalog are the
	// evaluator's problem, not ours.
	program, err := expr.Compile(source)
	if err != nil {
		return fragment{}, ErrProgramCompile.Wrap(err).
			With(slog.String("source", source))
	}

	free, err := freeVariables(source)
	if err != nil {
		return fragment{}, err
	}

	return fragment{source: source, program: program, free: free}, nil
}

// splitAssignment splits a statement of the form `name = rhs`. A
// fragment that is not an assignment is returned whole with an empty
// name; it is evaluated for effect and its value discarded.
func splitAssignment(source string) (name, rhs string) {
	m := assignPattern.FindStringSubmatch(source)
	if m == nil {
		return "", source
	}

	return m[1], m[2]
}

// splitStatements splits the program on top-level semicolons, honoring
// string literals and bracket nesting.
func splitStatements(source string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)

	for i := 0; i < len(source); i++ {
		c := source[i]

		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ';':
			if depth == 0 {
				parts = append(parts, source[start:i])
				start = i + 1
			}
		}
	}

	parts = append(parts, source[start:])

	out := parts[:0]

	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}

	return out
}

// splitConditional recognizes a top-level `EXPR if COND` or
// `EXPR if COND else OTHER` in the final fragment. The keywords must
// appear outside string literals and brackets. Only one level of the
// sugar exists: an `if` nested in OTHER or inside brackets is handed to
// the expression compiler verbatim, which rejects it. Nested or inline
// conditionals use the evaluator's native `COND ? EXPR : OTHER` form.
func splitConditional(source string) (exprSrc, condSrc, elseSrc string) {
	ifPos := findKeyword(source, "if")
	if ifPos < 0 {
		return source, "", ""
	}

	exprSrc = source[:ifPos]
	rest := source[ifPos+len("if"):]

	elsePos := findKeyword(rest, "else")
	if elsePos < 0 {
		return exprSrc, rest, ""
	}

	return exprSrc, rest[:elsePos], rest[elsePos+len("else"):]
}

// findKeyword returns the index of the first top-level occurrence of the
// word kw in source, or -1. The word must be delimited by whitespace.
func findKeyword(source, kw string) int {
	var (
		depth int
		quote byte
	)

	for i := 0; i < len(source); i++ {
		c := source[i]

		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if depth == 0 && isSpace(c) &&
				i+1+len(kw) < len(source) &&
				source[i+1:i+1+len(kw)] == kw &&
				isSpace(source[i+1+len(kw)]) {
				return i + 1
			}
		}
	}

	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Truthy reports the truthiness of a value: nil, false, zero numbers,
// and empty strings, slices, and maps are false; everything else is
// true. The skip sentinel is never truthy.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case uint64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return !record.IsSkipped(v)
	}
}
