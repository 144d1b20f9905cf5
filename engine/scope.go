package engine

import (
	"log/slog"
	"sort"
	"strings"
)

// Scope classifies how often a program body runs against the input.
type Scope int

const (
	// ScopeNeutral programs run once and never touch record data.
	ScopeNeutral Scope = iota
	// ScopeRecord programs run once per input record.
	ScopeRecord
	// ScopeTable programs run once with whole-input bindings.
	ScopeTable
)

func (s Scope) String() string {
	switch s {
	case ScopeRecord:
		return "record"
	case ScopeTable:
		return "table"
	default:
		return "neutral"
	}
}

// iterSource names the input sequence that drives a record-scoped run.
type iterSource int

const (
	iterNone iterSource = iota
	// iterRecords iterates the parsed record table.
	iterRecords
	// iterJSON iterates concatenated top-level JSON documents.
	iterJSON
)

func (i iterSource) String() string {
	switch i {
	case iterRecords:
		return "records"
	case iterJSON:
		return "json"
	default:
		return "none"
	}
}

type binding struct {
	scope Scope
	iter  iterSource
}

// catalog maps every implicit variable name to its scope class. Names
// absent from the catalog resolve through the expression language
// itself and never affect scope.
var catalog = map[string]binding{
	"record": {ScopeRecord, iterRecords},
	"fields": {ScopeRecord, iterRecords},
	"line":   {ScopeRecord, iterRecords},

	"jsonobj": {ScopeRecord, iterJSON},

	"records":  {ScopeTable, iterNone},
	"lines":    {ScopeTable, iterNone},
	"file":     {ScopeTable, iterNone},
	"contents": {ScopeTable, iterNone},
	"df":       {ScopeTable, iterNone},
	"jsonobjs": {ScopeTable, iterNone},

	"filename": {ScopeNeutral, iterNone},
	"header":   {ScopeNeutral, iterNone},
	"parser":   {ScopeNeutral, iterNone},
	"printer":  {ScopeNeutral, iterNone},
}

// Resolution is the outcome of static scope analysis over a program's
// free variables.
type Resolution struct {
	Scope      Scope
	Iter       iterSource
	RecordVars []string
	TableVars  []string
}

// LogValue implements [slog.LogValuer].
func (r Resolution) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scope", r.Scope.String()),
		slog.String("iter", r.Iter.String()),
		slog.Any("record-vars", r.RecordVars),
		slog.Any("table-vars", r.TableVars),
	)
}

// Resolve classifies a program's free variables into an execution
// scope. Referencing both record-scoped and table-scoped variables, or
// record-scoped variables fed by different input sequences, is a
// conflict. Programs referencing neither run once in neutral scope.
func Resolve(free []string) (Resolution, error) {
	res := Resolution{Scope: ScopeNeutral, Iter: iterNone}
	for _, name := range free {
		b, ok := catalog[name]
		if !ok {
			continue
		}
		switch b.scope {
		case ScopeRecord:
			res.RecordVars = append(res.RecordVars, name)
			if res.Iter != iterNone && res.Iter != b.iter {
				return res, ErrScopeConflict.With(
					slog.Any("variables", sortedCopy(append(res.RecordVars, res.TableVars...))),
					slog.String("reason", "mixed record iteration sources"),
				)
			}
			res.Iter = b.iter
		case ScopeTable:
			res.TableVars = append(res.TableVars, name)
		}
	}
	sort.Strings(res.RecordVars)
	sort.Strings(res.TableVars)
	if len(res.RecordVars) > 0 && len(res.TableVars) > 0 {
		return res, ErrScopeConflict.With(
			slog.String("record-scoped", strings.Join(res.RecordVars, ", ")),
			slog.String("table-scoped", strings.Join(res.TableVars, ", ")),
		)
	}
	switch {
	case len(res.RecordVars) > 0:
		res.Scope = ScopeRecord
	case len(res.TableVars) > 0:
		res.Scope = ScopeTable
	}
	return res, nil
}

func sortedCopy(s []string) []string {
	c := append([]string(nil), s...)
	sort.Strings(c)
	return c
}
