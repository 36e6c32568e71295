package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/hokaccha/go-prettyjson"
	"github.com/sapphire-lang/sapphire/driver"
	serrors "github.com/sapphire-lang/sapphire/errors"
)

func writeJSON(w io.Writer, v any) error {
	data, err := getOutputJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func getOutputJSON(v any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(v, "", "  ")
	}
	return prettyjson.Marshal(v)
}

// reportError writes err for a person to read. Batch errors are split into
// their unit errors, and compiler errors use the diagnostic formatter.
func reportError(w io.Writer, err error, useColor bool) {
	var merr *multierror.Error
	if stderrors.As(err, &merr) {
		for _, e := range merr.Errors {
			reportError(w, e, useColor)
		}
		return
	}

	filename := ""
	var uerr *driver.UnitError
	if stderrors.As(err, &uerr) {
		filename = uerr.Unit
	}
	var fe serrors.FormattableError
	if stderrors.As(err, &fe) {
		formatted := fe.ToFormatted()
		if formatted.Filename == "" {
			formatted.Filename = filename
		}
		fmt.Fprint(w, serrors.NewFormatter(useColor).Format(formatted))
		return
	}
	if useColor {
		fmt.Fprintln(w, red(err.Error()))
		return
	}
	fmt.Fprintln(w, err.Error())
}
