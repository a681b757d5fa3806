package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/runtime/runtimemock"
	"github.com/wasmship/wasmship/value"
)

var testResolver = runtime.ResolverFunc(func(ref string) (runtime.Module, error) {
	if ref == "missing" {
		return runtime.Module{}, errors.NotFound(errors.PhaseLoad, "module", ref)
	}
	return runtime.Module{Path: "/modules", Main: ref + ".wasm"}, nil
})

func TestInvokerReusesBackend(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	backend := runtimemock.NewMockBackend(ctrl)
	backend.EXPECT().Invoke(gomock.Any(), "add", []string{"2", "3"}).
		Return([]value.Value{value.I32(5)}, nil).Times(2)
	backend.EXPECT().Close(gomock.Any()).Return(nil)

	loads := 0
	inv := runtime.NewInvoker(testResolver, runtime.InvokerOptions{
		Factory: func(_ context.Context, m runtime.Module, _ runtime.Options) (runtime.Backend, error) {
			loads++
			require.Equal("/modules/adder.wasm", m.Location())
			return backend, nil
		},
	})

	cmd := runtime.Command{Module: "adder", Export: "add", Args: []string{"2", "3"}}
	for i := 0; i < 2; i++ {
		results, err := inv.Invoke(ctx, cmd)
		require.NoError(err)
		require.Equal([]value.Value{value.I32(5)}, results)
	}

	require.Equal(1, loads)
	require.Equal([]string{"adder"}, inv.Loaded())
	require.NoError(inv.Close(ctx))
	require.Empty(inv.Loaded())
}

func TestInvokerLoadFailureLeavesNoEntry(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	attempts := 0
	inv := runtime.NewInvoker(testResolver, runtime.InvokerOptions{
		Factory: func(context.Context, runtime.Module, runtime.Options) (runtime.Backend, error) {
			attempts++
			return nil, errors.Load("compile", fmt.Errorf("bad magic"))
		},
	})

	for i := 0; i < 2; i++ {
		_, err := inv.Invoke(ctx, runtime.Command{Module: "broken"})
		require.True(errors.IsKind(err, errors.KindLoad))
		require.Empty(inv.Loaded())
	}
	require.Equal(2, attempts)
}

func TestInvokerResolveFailure(t *testing.T) {
	inv := runtime.NewInvoker(testResolver, runtime.InvokerOptions{
		Factory: func(context.Context, runtime.Module, runtime.Options) (runtime.Backend, error) {
			t.Fatal("factory called for unresolved module")
			return nil, nil
		},
	})

	_, err := inv.Exports(context.Background(), "missing")
	require.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestInvokerExportsAndUnload(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	catalog := runtime.NewCatalogBuilder().Add("run", nil, nil).Build()
	backend := runtimemock.NewMockBackend(ctrl)
	backend.EXPECT().FunctionExports().Return(catalog, nil)
	backend.EXPECT().Close(gomock.Any()).Return(nil)

	inv := runtime.NewInvoker(testResolver, runtime.InvokerOptions{
		Factory: func(context.Context, runtime.Module, runtime.Options) (runtime.Backend, error) {
			return backend, nil
		},
	})

	got, err := inv.Exports(ctx, "app")
	require.NoError(err)
	require.Same(catalog, got)

	require.NoError(inv.Unload(ctx, "app"))
	require.NoError(inv.Unload(ctx, "app"))
	require.Empty(inv.Loaded())
}

func TestInvokerClosed(t *testing.T) {
	ctx := context.Background()
	inv := runtime.NewInvoker(testResolver, runtime.InvokerOptions{})
	require.NoError(t, inv.Close(ctx))

	_, err := inv.Invoke(ctx, runtime.Command{Module: "adder"})
	require.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestInvokerMetrics(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	metrics, err := runtime.NewMetrics(reg)
	require.NoError(err)

	backend := runtimemock.NewMockBackend(ctrl)
	backend.EXPECT().Invoke(gomock.Any(), "add", gomock.Any()).Return([]value.Value{value.I32(1)}, nil)
	backend.EXPECT().Invoke(gomock.Any(), "add", gomock.Any()).Return(nil, errors.ArityMismatch("add", 2, 1))
	backend.EXPECT().Close(gomock.Any()).Return(nil)

	inv := runtime.NewInvoker(testResolver, runtime.InvokerOptions{
		Engine:  "fake",
		Metrics: metrics,
		Factory: func(context.Context, runtime.Module, runtime.Options) (runtime.Backend, error) {
			return backend, nil
		},
	})

	_, err = inv.Invoke(ctx, runtime.Command{Module: "adder", Export: "add", Args: []string{"0", "1"}})
	require.NoError(err)
	_, err = inv.Invoke(ctx, runtime.Command{Module: "adder", Export: "add", Args: []string{"0"}})
	require.Error(err)

	require.NoError(inv.Close(ctx))

	// registering twice on the same registry must fail
	_, err = runtime.NewMetrics(reg)
	require.Error(err)

	count, err := testutil.GatherAndCount(reg, "wasmship_invocations_total")
	require.NoError(err)
	require.Equal(2, count)
}

func TestRegistry(t *testing.T) {
	require := require.New(t)

	factory := func(context.Context, runtime.Module, runtime.Options) (runtime.Backend, error) {
		return nil, errors.Load("always fails", nil)
	}
	runtime.Register("registry-test", factory)
	require.Contains(runtime.Engines(), "registry-test")
	require.Panics(func() { runtime.Register("registry-test", factory) })
	require.Panics(func() { runtime.Register("registry-nil", nil) })

	_, err := runtime.NewBackend(context.Background(), "registry-test", runtime.Module{}, runtime.Options{})
	require.True(errors.IsKind(err, errors.KindLoad))

	_, err = runtime.NewBackend(context.Background(), "no-such-engine", runtime.Module{}, runtime.Options{})
	require.True(errors.IsKind(err, errors.KindNotFound))
}
