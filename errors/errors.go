package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // module read and compile
	PhaseCatalog   Phase = "catalog"   // export enumeration
	PhaseResolve   Phase = "resolve"   // export name resolution
	PhaseEncode    Phase = "encode"    // text to value
	PhaseCall      Phase = "call"      // engine call
	PhaseDecode    Phase = "decode"    // engine result to value
	PhaseConfig    Phase = "config"    // configuration
	PhaseTransport Phase = "transport" // client/daemon dispatch
)

// Kind categorizes the error
type Kind string

const (
	KindLoad               Kind = "load"
	KindUnsupportedType    Kind = "unsupported_type"
	KindNoEntryPoint       Kind = "no_entry_point"
	KindExportNotFound     Kind = "export_not_found"
	KindArityMismatch      Kind = "arity_mismatch"
	KindArgumentFormat     Kind = "argument_format"
	KindResultTypeMismatch Kind = "result_type_mismatch"
	KindExecution          Kind = "execution"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindConfig             Kind = "config"
	KindTransport          Kind = "transport"
)

// NoPosition marks an error that is not tied to an argument position.
const NoPosition = -1

// Error is the structured error type used throughout wasmship
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Export   string
	Detail   string
	Position int
	Expected int
	Actual   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Export != "" {
		b.WriteString(" in export ")
		b.WriteString(strconv.Quote(e.Export))
	}

	if e.Position >= 0 {
		if e.Phase == PhaseDecode {
			b.WriteString(" at result ")
		} else {
			b.WriteString(" at argument ")
		}
		b.WriteString(strconv.Itoa(e.Position))
	}

	if e.Kind == KindArityMismatch {
		fmt.Fprintf(&b, ": expected %d arguments, got %d", e.Expected, e.Actual)
	}

	if e.Detail != "" {
		if e.Kind == KindArityMismatch {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:    phase,
			Kind:     kind,
			Position: NoPosition,
		},
	}
}

// Export sets the export the error refers to
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
	return b
}

// Position sets the zero-based argument position
func (b *Builder) Position(pos int) *Builder {
	b.err.Position = pos
	return b
}

// Counts sets the expected and actual counts
func (b *Builder) Counts(expected, actual int) *Builder {
	b.err.Expected = expected
	b.err.Actual = actual
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:    PhaseLoad,
		Kind:     KindLoad,
		Position: NoPosition,
		Detail:   detail,
		Cause:    cause,
	}
}

// UnsupportedType creates an error for an engine type with no value representation
func UnsupportedType(export, engineType string) *Error {
	return &Error{
		Phase:    PhaseCatalog,
		Kind:     KindUnsupportedType,
		Position: NoPosition,
		Export:   export,
		Detail:   fmt.Sprintf("type %s has no value representation", engineType),
		Value:    engineType,
	}
}

// NoEntryPoint creates an error for an invocation with neither an export
// name nor a configured default.
func NoEntryPoint() *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindNoEntryPoint,
		Position: NoPosition,
		Detail:   "no export name given and module has no default entry point",
	}
}

// ExportNotFound creates a missing export error
func ExportNotFound(export string) *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindExportNotFound,
		Position: NoPosition,
		Export:   export,
		Detail:   fmt.Sprintf("function %q not found", export),
	}
}

// ArityMismatch creates an argument count error
func ArityMismatch(export string, expected, actual int) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindArityMismatch,
		Position: NoPosition,
		Export:   export,
		Expected: expected,
		Actual:   actual,
	}
}

// ArgumentFormat creates an error for text that does not parse as its
// declared type. Position is zero-based.
func ArgumentFormat(export string, position int, text, typ string, cause error) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindArgumentFormat,
		Position: position,
		Export:   export,
		Detail:   fmt.Sprintf("cannot parse %q as %s", text, typ),
		Value:    text,
		Cause:    cause,
	}
}

// ResultTypeMismatch creates an error for an engine result that disagrees
// with the declared result type.
func ResultTypeMismatch(export string, position int, declared, actual string) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindResultTypeMismatch,
		Position: position,
		Export:   export,
		Detail:   fmt.Sprintf("result %d declared %s, engine returned %s", position, declared, actual),
	}
}

// Execution wraps an engine trap or fault. The engine message is kept verbatim.
func Execution(export string, cause error) *Error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindExecution,
		Position: NoPosition,
		Export:   export,
		Detail:   detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotFound,
		Position: NoPosition,
		Detail:   fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidInput,
		Position: NoPosition,
		Detail:   detail,
	}
}

// Config creates a configuration error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:    PhaseConfig,
		Kind:     KindConfig,
		Position: NoPosition,
		Detail:   detail,
		Cause:    cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     kind,
		Position: NoPosition,
		Detail:   detail,
		Cause:    cause,
	}
}
