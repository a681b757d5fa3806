package runtime

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/value"
)

type fakeBackend struct {
	module  Module
	catalog *FunctionExports
	listed  int
}

func (f *fakeBackend) Module() Module { return f.module }

func (f *fakeBackend) FunctionExports() (*FunctionExports, error) {
	f.listed++
	return f.catalog, nil
}

func (f *fakeBackend) Invoke(context.Context, string, []string) ([]value.Value, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeBackend) Close(context.Context) error { return nil }

func adderCatalog() *FunctionExports {
	i32 := value.I32Type
	return NewCatalogBuilder().
		Add("add", []value.ValueType{i32, i32}, []value.ValueType{i32}).
		Add("scale", []value.ValueType{value.I64Type, value.F64Type}, []value.ValueType{value.F64Type}).
		Add("nop", nil, nil).
		Skip("simd", errors.UnsupportedType("simd", "v128")).
		Build()
}

func TestResolveExport(t *testing.T) {
	tests := []struct {
		name   string
		entry  string
		export string
		want   string
		kind   errors.Kind
	}{
		{name: "explicit", export: "add", want: "add"},
		{name: "explicit wins over entry", entry: "main", export: "add", want: "add"},
		{name: "entry", entry: "main", want: "main"},
		{name: "neither", kind: errors.KindNoEntryPoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveExport(Module{Entry: tt.entry}, tt.export)
			if tt.kind != "" {
				require.True(t, errors.IsKind(err, tt.kind), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBind(t *testing.T) {
	require := require.New(t)

	call, err := Bind(adderCatalog(), "scale", []string{"-7", "0.5"})
	require.NoError(err)
	require.Equal("scale", call.Export)
	require.Equal([]value.Value{value.I64(-7), value.F64(0.5)}, call.Params)
	require.Equal([]value.ValueType{value.F64Type}, call.Signature.Results)
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name     string
		export   string
		args     []string
		kind     errors.Kind
		position int
		expected int
		actual   int
	}{
		{name: "missing export", export: "sub", args: []string{"1", "2"}, kind: errors.KindExportNotFound, position: errors.NoPosition},
		{name: "skipped export", export: "simd", kind: errors.KindUnsupportedType, position: errors.NoPosition},
		{name: "too few", export: "add", args: []string{"1"}, kind: errors.KindArityMismatch, position: errors.NoPosition, expected: 2, actual: 1},
		{name: "too many", export: "nop", args: []string{"1"}, kind: errors.KindArityMismatch, position: errors.NoPosition, expected: 0, actual: 1},
		{name: "second argument", export: "add", args: []string{"2", "abc"}, kind: errors.KindArgumentFormat, position: 1},
		{name: "overflow", export: "add", args: []string{"2147483648", "1"}, kind: errors.KindArgumentFormat, position: 0},
		{name: "float for int", export: "scale", args: []string{"1.5", "1"}, kind: errors.KindArgumentFormat, position: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			_, err := Bind(adderCatalog(), tt.export, tt.args)
			require.Error(err)

			e, ok := err.(*errors.Error)
			require.True(ok)
			require.Equal(tt.kind, e.Kind)
			require.Equal(tt.position, e.Position)
			require.Equal(tt.export, e.Export)
			if tt.kind == errors.KindArityMismatch {
				require.Equal(tt.expected, e.Expected)
				require.Equal(tt.actual, e.Actual)
			}
		})
	}
}

func TestCheckResults(t *testing.T) {
	call := &Call{
		Export:    "f",
		Signature: FunctionExport{Results: []value.ValueType{value.I32Type, value.F32Type}},
	}

	got, err := CheckResults(call, []value.Value{value.I32(1), value.F32(2)})
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = CheckResults(call, []value.Value{value.I32(1), value.F64(2)})
	require.True(t, errors.IsKind(err, errors.KindResultTypeMismatch))
	require.Equal(t, 1, err.(*errors.Error).Position)

	_, err = CheckResults(call, []value.Value{value.I32(1)})
	require.True(t, errors.IsKind(err, errors.KindResultTypeMismatch))
}

func TestInvokePipeline(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	b := &fakeBackend{module: Module{Entry: "add"}, catalog: adderCatalog()}

	add := func(_ context.Context, call *Call) ([]value.Value, error) {
		x, _ := call.Params[0].AsI32()
		y, _ := call.Params[1].AsI32()
		return []value.Value{value.I32(x + y)}, nil
	}

	results, err := Invoke(ctx, b, "", []string{"2", "3"}, add)
	require.NoError(err)
	require.Equal([]value.Value{value.I32(5)}, results)

	results, err = Invoke(ctx, b, "add", []string{"2147483647", "1"}, add)
	require.NoError(err)
	require.Equal([]value.Value{value.I32(math.MinInt32)}, results)
}

func TestInvokeRejectsBeforeExecution(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{catalog: adderCatalog()}

	executed := false
	exec := func(context.Context, *Call) ([]value.Value, error) {
		executed = true
		return nil, nil
	}

	_, err := Invoke(ctx, b, "", nil, exec)
	require.True(t, errors.IsKind(err, errors.KindNoEntryPoint))
	require.Zero(t, b.listed, "catalog consulted without an export name")

	_, err = Invoke(ctx, b, "add", []string{"1"}, exec)
	require.True(t, errors.IsKind(err, errors.KindArityMismatch))

	_, err = Invoke(ctx, b, "add", []string{"1", "x"}, exec)
	require.True(t, errors.IsKind(err, errors.KindArgumentFormat))

	require.False(t, executed)
}

func TestInvokeWrongResultType(t *testing.T) {
	b := &fakeBackend{catalog: adderCatalog()}
	exec := func(context.Context, *Call) ([]value.Value, error) {
		return []value.Value{value.I64(5)}, nil
	}

	_, err := Invoke(context.Background(), b, "add", []string{"2", "3"}, exec)
	require.True(t, errors.IsKind(err, errors.KindResultTypeMismatch))
}
