package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/cache"
	"github.com/sapphire-lang/sapphire/driver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Extensions of compiled unit files.
const (
	cborExt = ".sbc"
	jsonExt = ".json"
)

func newCompileCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [flags] FILE...",
		Short: "Compile s-expression files to bytecode",
		Long: `Compile each file as an independent unit and write one output file per
unit, named after the input, into the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd, "out-dir", "format", "concurrency", "policy", "cache", "stats"); err != nil {
				return err
			}
			return compileHandler(cmd, v, args)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().StringP("out-dir", "d", ".", "directory for compiled units")
	cmd.Flags().StringP("format", "f", "cbor", "output format: cbor or json")
	cmd.Flags().IntP("concurrency", "j", 0, "units compiled at once (default GOMAXPROCS)")
	cmd.Flags().String("policy", "skip", "on a unit failure: skip (compile the rest) or abort")
	cmd.Flags().String("cache", "", "snapshot file for the compile cache")
	cmd.Flags().Bool("stats", false, "print per-unit statistics as JSON")
	return cmd
}

// unitStats is one entry of the --stats report.
type unitStats struct {
	Unit   string          `json:"unit"`
	Output string          `json:"output"`
	Cached bool            `json:"cached"`
	Stats  *bytecode.Stats `json:"stats"`
}

func compileHandler(cmd *cobra.Command, v *viper.Viper, args []string) error {
	units, err := getUnits(cmd, args)
	if err != nil {
		return err
	}
	format := v.GetString("format")
	if format != "cbor" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}
	policy, ok := driver.ParsePolicy(v.GetString("policy"))
	if !ok {
		return fmt.Errorf("unknown policy %q", v.GetString("policy"))
	}
	logger, err := newLogger(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	opts := []driver.Option{
		driver.WithPolicy(policy),
		driver.WithVerify(v.GetBool("verify")),
		driver.WithLogger(logger),
	}
	if n := v.GetInt("concurrency"); n > 0 {
		opts = append(opts, driver.WithConcurrency(n))
	}
	cachePath := v.GetString("cache")
	var c *cache.Cache
	if cachePath != "" {
		c = cache.New(cache.WithLogger(logger))
		if err := c.LoadFile(cachePath); err != nil {
			return err
		}
		opts = append(opts, driver.WithCache(c))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, compileErr := driver.New(opts...).Compile(ctx, units)

	outDir := v.GetString("out-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	var report []unitStats
	for _, r := range results {
		if r.Code == nil {
			continue
		}
		path, err := writeUnit(outDir, format, r.Code)
		if err != nil {
			return err
		}
		stats := r.Code.Stats()
		report = append(report, unitStats{Unit: r.Unit, Output: path, Cached: r.Cached, Stats: &stats})
	}

	if c != nil {
		if err := c.SaveFile(cachePath); err != nil {
			return errors.Join(compileErr, err)
		}
	}
	if v.GetBool("stats") {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}
	return compileErr
}

func writeUnit(outDir, format string, code *bytecode.Code) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)
	if format == "json" {
		data, err = bytecode.Marshal(code)
		ext = jsonExt
	} else {
		data, err = bytecode.MarshalCBOR(code)
		ext = cborExt
	}
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, code.Name()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// readUnit loads a compiled unit written by the compile command.
func readUnit(path string) (*bytecode.Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == jsonExt {
		return bytecode.Unmarshal(data)
	}
	return bytecode.UnmarshalCBOR(data)
}
