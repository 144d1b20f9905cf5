package engine

import (
	"github.com/mauricelam/pyolin/pkg"
)

// Predefined errors (sentinel values).
var (
	// ErrScopeConflict reports a program that references both
	// record-scoped and table-scoped variables. Detected before any
	// input is read.
	ErrScopeConflict = pkg.NewError("conflicting execution scopes")

	// ErrCapability reports a data source access the active parser
	// cannot serve, such as records under the binary parser.
	ErrCapability = pkg.NewError("data source not supported by parser")

	// ErrLateConfiguration reports a parser reassignment after a table
	// source representation was already materialized.
	ErrLateConfiguration = pkg.NewError("parser already started, cannot reconfigure")

	// ErrMissingDependency reports a binding whose optional backing
	// library is unavailable.
	ErrMissingDependency = pkg.NewError("optional dependency unavailable")

	// ErrBadAssignment reports an assignment of an unusable value to a
	// configuration name.
	ErrBadAssignment = pkg.NewError("invalid configuration assignment")

	errReadInput = pkg.NewError("reading input")
)
