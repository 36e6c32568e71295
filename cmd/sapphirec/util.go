package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var red = color.New(color.FgRed).SprintFunc()

func isTerminalIO() bool {
	stdout := os.Stdout.Fd()
	stderr := os.Stderr.Fd()
	outTerm := isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
	errTerm := isatty.IsTerminal(stderr) || isatty.IsCygwinTerminal(stderr)
	return outTerm && errTerm
}
