package main

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/sapphire-lang/sapphire/driver"
	serrors "github.com/sapphire-lang/sapphire/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errCheckFailed is returned once the failures have been reported.
var errCheckFailed = stderrors.New("check failed")

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] FILE...",
		Short: "Compile and verify units without writing output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHandler(cmd, v, args)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().BoolP("quiet", "q", false, "only report failures")
	return cmd
}

func checkHandler(cmd *cobra.Command, v *viper.Viper, args []string) error {
	units, err := getUnits(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d := driver.New(driver.WithVerify(true), driver.WithLogger(logger))
	results, _ := d.Compile(ctx, units)

	quiet, _ := cmd.Flags().GetBool("quiet")
	out := cmd.OutOrStdout()
	var failures []*serrors.FormattedError
	for _, r := range results {
		if r.Err == nil {
			if !quiet {
				stats := r.Code.Stats()
				fmt.Fprintf(out, "ok  %s  (%d instructions, max stack %d)\n",
					r.Unit, stats.Instructions, stats.MaxStack)
			}
			continue
		}
		failures = append(failures, formatUnitError(r.Unit, r.Err))
	}
	if len(failures) == 0 {
		return nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), serrors.NewFormatter(!color.NoColor).FormatMultiple(failures))
	return errCheckFailed
}

// formatUnitError converts a unit failure for display, falling back to a
// plain message for errors outside the compiler taxonomy.
func formatUnitError(unit string, err error) *serrors.FormattedError {
	var fe serrors.FormattableError
	if stderrors.As(err, &fe) {
		formatted := fe.ToFormatted()
		if formatted.Filename == "" {
			formatted.Filename = unit
		}
		return formatted
	}
	return &serrors.FormattedError{Message: err.Error(), Filename: unit}
}
