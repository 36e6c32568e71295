package main

import (
	"fmt"
	"path/filepath"

	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/compiler"
	"github.com/sapphire-lang/sapphire/dis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDisCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [flags] [FILE]",
		Short: "Disassemble a unit",
		Long: `Disassemble a unit. The input is an s-expression, which is compiled
first, or a compiled unit written by the compile command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return disHandler(cmd, v, args)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("compiled", false, "treat FILE as a compiled unit (implied by the .sbc extension)")
	cmd.Flags().BoolP("listing", "l", false, "print a label listing instead of the offset table")
	return cmd
}

func disHandler(cmd *cobra.Command, v *viper.Viper, args []string) error {
	code, err := loadCode(cmd, v, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if listing, _ := cmd.Flags().GetBool("listing"); listing {
		lines, err := dis.Listing(code)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return nil
	}

	instructions, err := dis.Disassemble(code)
	if err != nil {
		return err
	}
	dis.Print(instructions, out)
	if code.RegionCount() > 0 {
		fmt.Fprintln(out)
		dis.PrintRegions(code, out)
	}
	return nil
}

// loadCode returns the unit named by the input flags, compiling it unless
// it is already compiled.
func loadCode(cmd *cobra.Command, v *viper.Viper, args []string) (*bytecode.Code, error) {
	compiled, _ := cmd.Flags().GetBool("compiled")
	if len(args) == 1 && (compiled || filepath.Ext(args[0]) == cborExt) {
		return readUnit(args[0])
	}
	unit, err := getUnit(cmd, args)
	if err != nil {
		return nil, err
	}
	node, err := ast.Parse(unit.Source)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(v, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return compiler.New(compilerOptions(v, unit, logger)...).Compile(node)
}
