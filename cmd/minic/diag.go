package main

import (
	"fmt"
	"io"
	"os"
)

type color string

const (
	red   color = "\033[31m"
	bold  color = "\033[1m"
	reset color = "\033[0m"
)

// diagnostics writes error reports, colored when w is a terminal.
type diagnostics struct {
	w     io.Writer
	color bool
}

func newDiagnostics(w io.Writer, noColor bool) *diagnostics {
	d := &diagnostics{w: w}
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		return d
	}
	if f, ok := w.(*os.File); ok {
		d.color = isTerminal(f.Fd())
	}
	return d
}

func (d *diagnostics) paint(c color, s string) string {
	if !d.color {
		return s
	}
	return string(c) + s + string(reset)
}

func (d *diagnostics) fail(err error) {
	fmt.Fprintf(d.w, "%s %s\n", d.paint(bold, "minic:"), d.paint(red, err.Error()))
}
