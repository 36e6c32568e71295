package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/driver"
	serrors "github.com/sapphire-lang/sapphire/errors"
	"github.com/stretchr/testify/require"
)

const orSource = "[:or, [:call, nil, :a, [:arglist]], [:call, nil, :b, [:arglist]]]"

const orListing = `PUSH_SELF
SEND :a, 0, true
DUP
GOTO_IF_TRUE L1
POP
PUSH_SELF
SEND :b, 0, true
L1:
RET
`

// run executes the CLI with colors disabled and no config file in reach.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeSources(t *testing.T, sources map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, src := range sources {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		paths = append(paths, path)
	}
	return dir, paths
}

func TestDisListing(t *testing.T) {
	out, _, err := run(t, "", "dis", "-c", orSource, "--listing")
	require.NoError(t, err)
	require.Equal(t, orListing, out)
}

func TestDisTable(t *testing.T) {
	out, _, err := run(t, orSource, "dis", "--stdin")
	require.NoError(t, err)
	require.Contains(t, out, "OPCODE")
	require.Contains(t, out, "GOTO_IF_TRUE")
	require.NotContains(t, out, "REGION")
}

func TestDisRegions(t *testing.T) {
	src := "[:ensure, [:call, nil, :a, [:arglist]], [:call, nil, :b, [:arglist]]]"
	out, _, err := run(t, "", "dis", "-c", src)
	require.NoError(t, err)
	require.Contains(t, out, "SETUP_UNWIND")
	require.Contains(t, out, "REGION")
	require.Contains(t, out, "ensure ->")
}

func TestInputSources(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"a.sexp": "[:nil]"})

	_, _, err := run(t, "", "dis", "-c", "[:nil]", paths[0])
	require.EqualError(t, err, "multiple input sources specified")

	_, _, err = run(t, "", "ast")
	require.EqualError(t, err, "no input provided")

	_, _, err = run(t, "", "ast", paths[0], paths[0])
	require.EqualError(t, err, "expected a single input")
}

func TestASTOutputs(t *testing.T) {
	src := "[:or, [:lvar, :a], [:lit, 1]]"

	out, _, err := run(t, "", "ast", "-c", src)
	require.NoError(t, err)
	require.Equal(t, "or\n├─ lvar a\n└─ lit 1\n", out)

	out, _, err = run(t, "", "ast", "-c", src, "-o", "sexp")
	require.NoError(t, err)
	require.Equal(t, src+"\n", out)

	out, _, err = run(t, "", "ast", "-c", src, "-o", "json")
	require.NoError(t, err)
	var node ASTNode
	require.NoError(t, json.Unmarshal([]byte(out), &node))
	require.Equal(t, "or", node.Type)
	require.Len(t, node.Children, 2)
	require.Equal(t, "lvar", node.Children[0].Type)
	require.Equal(t, "a", node.Children[0].Value)

	_, _, err = run(t, "", "ast", "-c", src, "-o", "yaml")
	require.EqualError(t, err, `unknown output format "yaml"`)
}

func TestCompileWritesUnits(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"first.sexp":  orSource,
		"second.sexp": "[:lasgn, :x, [:lit, 1]]",
	})
	outDir := filepath.Join(t.TempDir(), "out")
	_, _, err := run(t, "", append([]string{"compile", "-d", outDir, "--verify"}, paths...)...)
	require.NoError(t, err)

	code, err := readUnit(filepath.Join(outDir, "first.sbc"))
	require.NoError(t, err)
	require.Equal(t, "first", code.Name())
	require.Equal(t, 2, code.NameCount())

	code, err = readUnit(filepath.Join(outDir, "second.sbc"))
	require.NoError(t, err)
	require.Equal(t, "x", code.LocalNameAt(0))

	out, _, err := run(t, "", "dis", filepath.Join(outDir, "first.sbc"), "--listing")
	require.NoError(t, err)
	require.Equal(t, orListing, out)
}

func TestCompileJSONFormat(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"unit.sexp": orSource})
	outDir := t.TempDir()
	_, _, err := run(t, "", "compile", "-f", "json", "-d", outDir, paths[0])
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "unit.json"))
	require.NoError(t, err)
	code, err := bytecode.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, "unit", code.Name())

	out, _, err := run(t, "", "dis", "--compiled", filepath.Join(outDir, "unit.json"), "-l")
	require.NoError(t, err)
	require.Equal(t, orListing, out)
}

func TestCompileStatsAndCache(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"unit.sexp": orSource})
	outDir := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.cbor")
	args := []string{"compile", "--stats", "--cache", cachePath, "-d", outDir, paths[0]}

	for i, cached := range []bool{false, true} {
		out, _, err := run(t, "", args...)
		require.NoError(t, err)
		var report []unitStats
		require.NoError(t, json.Unmarshal([]byte(out), &report), "run %d", i)
		require.Len(t, report, 1)
		require.Equal(t, "unit", report[0].Unit)
		require.Equal(t, cached, report[0].Cached, "run %d", i)
		require.Equal(t, 8, report[0].Stats.Instructions)
		require.Equal(t, filepath.Join(outDir, "unit.sbc"), report[0].Output)
	}
}

func TestCompileCacheSeesEditedSource(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"unit.sexp": "[:lit, 1]"})
	outDir := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.cbor")
	args := []string{"compile", "--stats", "--cache", cachePath, "-d", outDir, paths[0]}

	tests := []struct {
		source string
		cached bool
		want   any
	}{
		{"[:lit, 1]", false, int64(1)},
		{"[:lit, 2]", false, int64(2)},
		{"[:lit, 2]", true, int64(2)},
	}
	for i, tt := range tests {
		require.NoError(t, os.WriteFile(paths[0], []byte(tt.source), 0o644))
		out, _, err := run(t, "", args...)
		require.NoError(t, err, "run %d", i)
		var report []unitStats
		require.NoError(t, json.Unmarshal([]byte(out), &report), "run %d", i)
		require.Len(t, report, 1)
		require.Equal(t, tt.cached, report[0].Cached, "run %d", i)

		code, err := readUnit(filepath.Join(outDir, "unit.sbc"))
		require.NoError(t, err)
		require.Equal(t, tt.want, code.ConstantAt(0), "run %d", i)
	}
}

func TestDuplicateUnitNames(t *testing.T) {
	first := filepath.Join(t.TempDir(), "x.sexp")
	second := filepath.Join(t.TempDir(), "x.sexp")
	require.NoError(t, os.WriteFile(first, []byte("[:lit, 1]"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("[:lit, 2]"), 0o644))
	outDir := t.TempDir()

	_, _, err := run(t, "", "compile", "-d", outDir, first, second)
	require.EqualError(t, err, first+" and "+second+` both compile to unit "x"`)
	_, statErr := os.Stat(filepath.Join(outDir, "x.sbc"))
	require.True(t, os.IsNotExist(statErr))

	_, _, err = run(t, "", "check", first, second)
	require.Error(t, err)
	require.Contains(t, err.Error(), `both compile to unit "x"`)
}

func TestCompileFailures(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"good.sexp": "[:nil]",
		"bad.sexp":  "[:or, [:nil]]",
	})
	outDir := t.TempDir()
	_, _, err := run(t, "", append([]string{"compile", "-d", outDir}, paths...)...)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	require.Equal(t, serrors.E1002, serrors.CodeOf(err))

	_, statErr := os.Stat(filepath.Join(outDir, "good.sbc"))
	require.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(outDir, "bad.sbc"))
	require.True(t, os.IsNotExist(statErr))

	_, _, err = run(t, "", "compile", "--policy", "retry", paths[0])
	require.EqualError(t, err, `unknown policy "retry"`)
	_, _, err = run(t, "", "compile", "--format", "xml", paths[0])
	require.EqualError(t, err, `unknown format "xml"`)
}

func TestConfigFileAndEnvironment(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"unit.sexp": "[:true]"})

	outDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := "format: json\nout-dir: " + outDir + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))
	_, _, err := run(t, "", "compile", "--config", configPath, paths[0])
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "unit.json"))
	require.NoError(t, err)

	envDir := t.TempDir()
	t.Setenv("SAPPHIRE_OUT_DIR", envDir)
	t.Setenv("SAPPHIRE_FORMAT", "json")
	_, _, err = run(t, "", "compile", paths[0])
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(envDir, "unit.json"))
	require.NoError(t, err)

	// Flags win over the environment.
	flagDir := t.TempDir()
	_, _, err = run(t, "", "compile", "-d", flagDir, "-f", "cbor", paths[0])
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(flagDir, "unit.sbc"))
	require.NoError(t, err)
}

func TestCheck(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"ok.sexp": orSource})
	out, _, err := run(t, "", "check", paths[0])
	require.NoError(t, err)
	require.Equal(t, "ok  ok  (8 instructions, max stack 2)\n", out)

	_, paths = writeSources(t, map[string]string{
		"loop.sexp":  "[:while, [:true], [:nil]]",
		"short.sexp": "[:or, [:nil]]",
	})
	out, errOut, err := run(t, "", append([]string{"check", "-q"}, paths...)...)
	require.ErrorIs(t, err, errCheckFailed)
	require.Empty(t, out)
	require.Contains(t, errOut, "[E1001]")
	require.Contains(t, errOut, "[E1002]")
	require.Contains(t, errOut, "found 2 errors")
}

func TestReportError(t *testing.T) {
	color.NoColor = true
	var merr *multierror.Error
	merr = multierror.Append(merr,
		&driver.UnitError{Unit: "short", Err: serrors.MalformedNode("or", "two operands", "[:or, [:nil]]")},
		os.ErrNotExist,
	)
	var buf bytes.Buffer
	reportError(&buf, merr, false)
	out := buf.String()
	require.Contains(t, out, "error[E1002]")
	require.Contains(t, out, "--> short")
	require.Contains(t, out, "file does not exist")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	require.Equal(t, "dev\n", out)

	out, _, err = run(t, "", "version", "-o", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, "dev", info["version"])
}

func TestUnitName(t *testing.T) {
	require.Equal(t, "main", unitName("/src/app/main.sexp"))
	require.Equal(t, "lib.v2", unitName("lib.v2.sexp"))
	require.Equal(t, "plain", unitName("plain"))
}
