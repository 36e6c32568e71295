package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/sapphire-lang/sapphire/compiler"
	"github.com/sapphire-lang/sapphire/driver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initConfig layers configuration: flags, then SAPPHIRE_* environment
// variables, then the config file.
func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix("SAPPHIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".sapphire")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	processGlobalFlags(v)
	return nil
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags(v *viper.Viper) {
	if v.GetBool("no-color") || !isTerminalIO() {
		color.NoColor = true
	}
}

// bindFlags binds the named flags of cmd to viper keys of the same name.
// Commands bind when they run so flags shared between commands do not
// shadow each other.
func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(v *viper.Viper, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", v.GetString("log-level"))
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func compilerOptions(v *viper.Viper, unit driver.Unit, logger zerolog.Logger) []compiler.Option {
	return []compiler.Option{
		compiler.WithName(unit.Name),
		compiler.WithFilename(unit.Filename),
		compiler.WithSource(unit.Source),
		compiler.WithVerify(v.GetBool("verify")),
		compiler.WithLogger(logger),
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "s-expression to read")
	cmd.Flags().Bool("stdin", false, "read the s-expression from stdin")
}

// getUnits determines what is to be compiled. There are three
// possibilities:
// 1. --code <sexp>
// 2. --stdin
// 3. one or more paths as arguments
func getUnits(cmd *cobra.Command, args []string) ([]driver.Unit, error) {
	codeFlagSet := cmd.Flags().Changed("code")
	stdinFlagSet, _ := cmd.Flags().GetBool("stdin")
	pathSupplied := len(args) > 0

	sources := 0
	for _, set := range []bool{codeFlagSet, stdinFlagSet, pathSupplied} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("multiple input sources specified")
	}
	if sources == 0 {
		return nil, errors.New("no input provided")
	}

	switch {
	case stdinFlagSet:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return []driver.Unit{{Name: "stdin", Source: string(data)}}, nil
	case codeFlagSet:
		code, _ := cmd.Flags().GetString("code")
		return []driver.Unit{{Name: "code", Source: code}}, nil
	}
	units := make([]driver.Unit, 0, len(args))
	paths := make(map[string]string, len(args))
	for _, path := range args {
		name := unitName(path)
		if prev, ok := paths[name]; ok {
			return nil, fmt.Errorf("%s and %s both compile to unit %q", prev, path, name)
		}
		paths[name] = path
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		units = append(units, driver.Unit{
			Name:     name,
			Filename: path,
			Source:   string(data),
		})
	}
	return units, nil
}

func getUnit(cmd *cobra.Command, args []string) (driver.Unit, error) {
	if len(args) > 1 {
		return driver.Unit{}, errors.New("expected a single input")
	}
	units, err := getUnits(cmd, args)
	if err != nil {
		return driver.Unit{}, err
	}
	return units[0], nil
}

// unitName names a unit after its file, without directory or extension.
func unitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
