// Package template implements the SQL template pipeline: conditional
// preprocessing, macro and constant expansion, and named/positional
// parameter substitution, producing either literalized SQL or a prepared
// statement with a bind plan.
package template

import "errors"

var (
	// ErrUnclosedLiteral is returned when a single-quoted string literal is
	// not closed before end of input.
	ErrUnclosedLiteral = errors.New("unclosed string literal")
	// ErrTooManySubstitutions is returned when a single query needs more
	// than 254 live substitution markers.
	ErrTooManySubstitutions = errors.New("too many substitutions in one query")
	// ErrMixedPlaceholders is returned when a query uses both named and
	// positional bind sites.
	ErrMixedPlaceholders = errors.New("named and positional placeholders in one query")
	// ErrUnknownMacro is returned for a $name(...) call with no registered macro.
	ErrUnknownMacro = errors.New("unknown macro")
	// ErrUnknownConstant is returned for a $name with no registered define.
	ErrUnknownConstant = errors.New("unknown constant")
	// ErrMissingParam is returned when a named parameter has no value.
	ErrMissingParam = errors.New("missing named parameter")
	// ErrMissingArg is returned when a positional placeholder has no argument.
	ErrMissingArg = errors.New("missing positional argument")

	// ErrUnmatchedEndif is returned for an #endif with no open #if.
	ErrUnmatchedEndif = errors.New("#endif without matching #if")
	// ErrUnmatchedBranch is returned for an #elif or #else outside any #if.
	ErrUnmatchedBranch = errors.New("#elif/#else without matching #if")
	// ErrBranchAfterElse is returned for an #elif or second #else after #else.
	ErrBranchAfterElse = errors.New("#elif/#else after #else")
	// ErrUnterminatedIf is returned when input ends inside an #if block.
	ErrUnterminatedIf = errors.New("#if without matching #endif")
)
