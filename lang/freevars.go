package lang

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// identCollector gathers every identifier referenced by a parse tree.
// Builtin calls (len, map, filter, ...) are BuiltinNodes and predicate
// pointers (#) are PointerNodes, so plain IdentifierNodes are exactly
// the names resolved from the evaluation environment.
type identCollector struct {
	seen  map[string]bool
	names []string
}

// Visit implements ast.Visitor for identCollector.
func (c *identCollector) Visit(node *ast.Node) {
	ident, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}

	if !c.seen[ident.Value] {
		c.seen[ident.Value] = true
		c.names = append(c.names, ident.Value)
	}
}

// freeVariables parses source without executing it and returns the
// identifiers it references, in first-reference order.
func freeVariables(source string) ([]string, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, ErrProgramParse.Wrap(err).
			With(slog.String("source", source))
	}

	collector := &identCollector{seen: map[string]bool{}}
	ast.Walk(&tree.Node, collector)

	return collector.names, nil
}
