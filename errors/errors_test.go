package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "arity mismatch",
			err:      ArityMismatch("add", 2, 1),
			contains: []string{"[encode]", "arity_mismatch", `"add"`, "expected 2 arguments, got 1"},
		},
		{
			name:     "argument format",
			err:      ArgumentFormat("add", 1, "x", "i32", errors.New("invalid syntax")),
			contains: []string{"argument_format", "at argument 1", `"x"`, "i32", "caused by", "invalid syntax"},
		},
		{
			name:     "minimal error",
			err:      New(PhaseCall, KindExecution).Build(),
			contains: []string{"[call]", "execution"},
		},
		{
			name:     "execution keeps engine message",
			err:      Execution("boom", errors.New("wasm error: unreachable")),
			contains: []string{"execution", `"boom"`, "wasm error: unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				require.Contains(t, msg, s)
			}
		})
	}
}

func TestError_NoPositionOmitted(t *testing.T) {
	msg := ExportNotFound("missing").Error()
	require.NotContains(t, msg, "at argument")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Load("read module", cause)

	require.ErrorIs(t, err.Unwrap(), cause)
	require.ErrorIs(t, errors.Unwrap(err), cause)
	require.ErrorIs(t, err, cause)
}

func TestError_Is(t *testing.T) {
	err := ArityMismatch("add", 2, 3)

	require.True(t, err.Is(&Error{Phase: PhaseEncode, Kind: KindArityMismatch}))
	require.True(t, err.Is(&Error{Kind: KindArityMismatch}))
	require.False(t, err.Is(&Error{Phase: PhaseDecode, Kind: KindArityMismatch}))
	require.False(t, err.Is(&Error{Kind: KindArgumentFormat}))
	require.False(t, err.Is(errors.New("other")))

	wrapped := Wrap(PhaseTransport, KindTransport, err, "remote call")
	require.ErrorIs(t, wrapped, &Error{Kind: KindArityMismatch})
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(NoEntryPoint())
	require.True(t, ok)
	require.Equal(t, KindNoEntryPoint, kind)

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)

	require.True(t, IsKind(UnsupportedType("f", "v128"), KindUnsupportedType))
	require.False(t, IsKind(nil, KindUnsupportedType))
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindArgumentFormat).
		Export("add").
		Position(1).
		Counts(2, 2).
		Value("x").
		Cause(cause).
		Detail("expected %s, got %q", "i32", "x").
		Build()

	require.Equal(t, PhaseEncode, err.Phase)
	require.Equal(t, KindArgumentFormat, err.Kind)
	require.Equal(t, "add", err.Export)
	require.Equal(t, 1, err.Position)
	require.Equal(t, 2, err.Expected)
	require.Equal(t, 2, err.Actual)
	require.Equal(t, "x", err.Value)
	require.ErrorIs(t, err.Cause, cause)
	require.Equal(t, `expected i32, got "x"`, err.Detail)
}

func TestBuilder_DefaultPosition(t *testing.T) {
	err := New(PhaseConfig, KindConfig).Build()
	require.Equal(t, NoPosition, err.Position)
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err   *Error
		kind  Kind
		phase Phase
	}{
		{Load("compile", nil), KindLoad, PhaseLoad},
		{UnsupportedType("f", "v128"), KindUnsupportedType, PhaseCatalog},
		{NoEntryPoint(), KindNoEntryPoint, PhaseResolve},
		{ExportNotFound("f"), KindExportNotFound, PhaseResolve},
		{ArityMismatch("f", 1, 0), KindArityMismatch, PhaseEncode},
		{ArgumentFormat("f", 0, "a", "i64", nil), KindArgumentFormat, PhaseEncode},
		{ResultTypeMismatch("f", 0, "i32", "i64"), KindResultTypeMismatch, PhaseDecode},
		{Execution("f", errors.New("trap")), KindExecution, PhaseCall},
		{NotFound(PhaseConfig, "module", "calc"), KindNotFound, PhaseConfig},
		{InvalidInput(PhaseTransport, "bad"), KindInvalidInput, PhaseTransport},
		{Config("validate", nil), KindConfig, PhaseConfig},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			require.Equal(t, tt.kind, tt.err.Kind)
			require.Equal(t, tt.phase, tt.err.Phase)
		})
	}

	require.Equal(t, 0, ArgumentFormat("f", 0, "a", "i64", nil).Position)
	require.Equal(t, NoPosition, ExportNotFound("f").Position)
}
