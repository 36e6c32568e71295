package driver

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/cache"
	"github.com/sapphire-lang/sapphire/errors"
	"github.com/stretchr/testify/require"
)

func literalUnits(n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{
			Name:   fmt.Sprintf("u%d", i),
			Source: fmt.Sprintf("[:or, [:lvar, :x], [:lit, %d]]", i),
		}
	}
	return units
}

func TestCompileKeepsInputOrder(t *testing.T) {
	d := New(WithConcurrency(4), WithVerify(true))
	results, err := d.Compile(context.Background(), literalUnits(20))
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, r := range results {
		name := fmt.Sprintf("u%d", i)
		require.Equal(t, name, r.Unit)
		require.NoError(t, r.Err)
		require.NotNil(t, r.Code)
		require.Equal(t, name, r.Code.Name())
		require.Equal(t, int64(i), r.Code.ConstantAt(0))
	}
}

func TestCompileNodeUnits(t *testing.T) {
	units := []Unit{{Name: "direct", Node: &ast.True{}}}
	results, err := New().Compile(context.Background(), units)
	require.NoError(t, err)
	require.Equal(t, 2, results[0].Code.InstructionCount())
}

func TestSkipPolicyCollectsFailures(t *testing.T) {
	units := []Unit{
		{Name: "good1", Source: "[:nil]"},
		{Name: "unknown", Source: "[:while, [:true], [:nil]]"},
		{Name: "good2", Source: "[:true]"},
		{Name: "malformed", Source: "[:or, [:nil]]"},
	}
	results, err := New(WithConcurrency(2)).Compile(context.Background(), units)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, stderrors.As(err, &merr))
	require.Len(t, merr.Errors, 2)

	require.NotNil(t, results[0].Code)
	require.NotNil(t, results[2].Code)
	require.Nil(t, results[1].Code)
	require.Equal(t, errors.E1001, errors.CodeOf(results[1].Err))
	require.Equal(t, errors.E1002, errors.CodeOf(results[3].Err))

	var uerr *UnitError
	require.True(t, stderrors.As(results[3].Err, &uerr))
	require.Equal(t, "malformed", uerr.Unit)
	require.True(t, errors.IsInputError(results[3].Err))
}

func TestAbortPolicyStopsBatch(t *testing.T) {
	units := append([]Unit{{Name: "bad", Source: "[:or, [:nil]]"}}, literalUnits(3)...)
	results, err := New(WithConcurrency(1), WithPolicy(Abort)).Compile(context.Background(), units)
	require.Error(t, err)

	var uerr *UnitError
	require.True(t, stderrors.As(err, &uerr))
	require.Equal(t, "bad", uerr.Unit)
	for _, r := range results[1:] {
		require.True(t, r.Skipped, r.Unit)
		require.Nil(t, r.Code)
		require.NoError(t, r.Err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := New().Compile(ctx, literalUnits(3))
	require.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		require.True(t, r.Skipped)
	}
}

func TestCompileWithCache(t *testing.T) {
	c := cache.New()
	d := New(WithCache(c))
	units := literalUnits(3)

	first, err := d.Compile(context.Background(), units)
	require.NoError(t, err)
	for _, r := range first {
		require.False(t, r.Cached)
	}
	require.Equal(t, 3, c.Len())

	require.True(t, c.Invalidate("u1"))
	second, err := d.Compile(context.Background(), units)
	require.NoError(t, err)
	require.True(t, second[0].Cached)
	require.False(t, second[1].Cached)
	require.True(t, second[2].Cached)
	require.Same(t, first[0].Code, second[0].Code)
}

func TestCompileWithCacheRecompilesEditedSource(t *testing.T) {
	d := New(WithCache(cache.New()))
	tests := []struct {
		source string
		cached bool
		want   any
	}{
		{"[:lit, 1]", false, int64(1)},
		{"[:lit, 1]", true, int64(1)},
		{"[:lit, 2]", false, int64(2)},
	}
	for i, tt := range tests {
		results, err := d.Compile(context.Background(), []Unit{{Name: "x", Source: tt.source}})
		require.NoError(t, err, "compile %d", i)
		require.Equal(t, tt.cached, results[0].Cached, "compile %d", i)
		require.Equal(t, tt.want, results[0].Code.ConstantAt(0), "compile %d", i)
	}
}

func TestBatchLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := New(WithLogger(logger)).Compile(context.Background(), literalUnits(1))
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, `"message":"batch started"`)
	require.Contains(t, out, `"message":"batch finished"`)
	require.Contains(t, out, `"message":"compiled unit"`)
	require.Contains(t, out, `"batch":"`)
}

func TestParsePolicy(t *testing.T) {
	p, ok := ParsePolicy("abort")
	require.True(t, ok)
	require.Equal(t, Abort, p)
	p, ok = ParsePolicy("skip")
	require.True(t, ok)
	require.Equal(t, Skip, p)
	_, ok = ParsePolicy("retry")
	require.False(t, ok)
	require.Equal(t, "abort", Abort.String())
}
