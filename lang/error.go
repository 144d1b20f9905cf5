package lang

import (
	"github.com/mauricelam/pyolin/pkg"
)

// Predefined errors (sentinel values).
var (
	ErrEmptyProgram   = pkg.NewError("empty program")
	ErrProgramParse   = pkg.NewError("program parse error")
	ErrProgramCompile = pkg.NewError("program compilation failed")

	// ErrUserEvaluation reports a failure inside the user-supplied
	// program itself. It is propagated, not caught, since it may
	// legitimately indicate bad input data.
	ErrUserEvaluation = pkg.NewError("program evaluation failed")
)
