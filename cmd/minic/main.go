// Command minic lowers C source into the reduced minic dialect and can carry
// the result on through SSA and x86_64 assembly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/ccfront"
	"github.com/tinyrange/minic/internal/codegen/x86_64"
	"github.com/tinyrange/minic/internal/ir"
	"github.com/tinyrange/minic/internal/lower"
	"github.com/tinyrange/minic/internal/minic"
	"github.com/tinyrange/minic/internal/parser"
)

// phaseError is a failure in one stage of the pipeline.
type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string { return e.phase + " error: " + e.err.Error() }

func (e *phaseError) Unwrap() error { return e.err }

type includeDirs []string

func (d *includeDirs) String() string { return strings.Join(*d, ",") }

func (d *includeDirs) Set(s string) error {
	*d = append(*d, s)
	return nil
}

type config struct {
	emit     string
	out      string
	frontend string
	includes includeDirs
	opts     lower.Options
	noColor  bool
}

var emitters = map[string]bool{"minic": true, "tree": true, "ir": true, "asm": true}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "repl" {
		return repl(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("minic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg := &config{}
	cfg.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: minic [flags] <file.c>\n       minic repl [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || !emitters[cfg.emit] || (cfg.frontend != "builtin" && cfg.frontend != "cc") {
		fs.Usage()
		return 2
	}
	diag := newDiagnostics(stderr, cfg.noColor)

	srcPath := fs.Arg(0)
	data, err := os.ReadFile(srcPath)
	if err != nil {
		diag.fail(&phaseError{"read", err})
		return 1
	}
	out, err := cfg.compile(srcPath, string(data))
	if err != nil {
		diag.fail(err)
		return 1
	}
	if cfg.out == "" {
		io.WriteString(stdout, out)
		return 0
	}
	if err := os.WriteFile(cfg.out, []byte(out), 0o644); err != nil {
		diag.fail(&phaseError{"write", err})
		return 1
	}
	return 0
}

func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.emit, "emit", "minic", "output: minic, tree, ir or asm")
	fs.StringVar(&c.out, "o", "", "write output to `path` instead of stdout")
	fs.StringVar(&c.frontend, "frontend", "builtin", "C frontend: builtin or cc (preprocessing)")
	fs.Var(&c.includes, "I", "add an include `dir` for the cc frontend (repeatable)")
	fs.IntVar(&c.opts.Workers, "j", 1, "lower top-level declarations with `n` workers")
	fs.BoolVar(&c.opts.PermitPostfixValues, "permit-postfix-values", false, "accept x++ and x-- where their value is used")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored diagnostics")
}

func (c *config) parse(name, src string) (*cast.File, error) {
	if c.frontend == "cc" {
		return ccfront.Parse(name, src, c.includes)
	}
	return parser.ParseFile(name, src)
}

// compile runs the pipeline as far as c.emit asks for.
func (c *config) compile(name, src string) (string, error) {
	f, err := c.parse(name, src)
	if err != nil {
		return "", &phaseError{"parse", err}
	}
	prog, err := lower.File(f, c.opts)
	if err != nil {
		return "", &phaseError{"lower", err}
	}
	return c.render(filepath.Base(name), prog)
}

func (c *config) render(module string, prog *minic.Program) (string, error) {
	var b strings.Builder
	switch c.emit {
	case "minic":
		if err := minic.Fprint(&b, prog); err != nil {
			return "", &phaseError{"print", err}
		}
		return b.String(), nil
	case "tree":
		if err := minic.Dump(&b, prog); err != nil {
			return "", &phaseError{"print", err}
		}
		return b.String(), nil
	}

	m := ir.NewModule(module)
	if err := ir.BuildModule(prog, m); err != nil {
		return "", &phaseError{"ir", err}
	}
	ir.Optimize(m)
	if c.emit == "ir" {
		return m.String(), nil
	}
	for _, f := range m.Funcs {
		ir.PhiEliminate(f)
	}
	asm, err := x86_64.EmitModule(m)
	if err != nil {
		return "", &phaseError{"codegen", err}
	}
	return asm, nil
}
