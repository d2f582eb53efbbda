package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/lower"
	"github.com/tinyrange/minic/internal/minic"
	"github.com/tinyrange/minic/internal/parser"
)

const (
	historyFile = ".minic_history"
	promptMain  = "minic> "
	promptCont  = "  ...> "
	replName    = "<repl>"
)

func repl(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("minic repl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg := &config{}
	cfg.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !emitters[cfg.emit] {
		fmt.Fprintf(stderr, "unknown -emit %q\n", cfg.emit)
		return 2
	}
	diag := newDiagnostics(stderr, cfg.noColor)
	s := &session{cfg: cfg, out: stdout, diag: diag}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(stdout, "minic repl: enter C declarations or statements, :quit to exit")
	for {
		src, ok := readInput(ln, s.typedef)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if s.eval(src) {
			return 0
		}
	}
}

// readInput reads lines until they form a complete declaration or
// statement list, or a syntax error that more input cannot fix.
func readInput(ln *liner.State, typedefs []cast.Node) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// ^C drops the pending input
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if strings.HasPrefix(strings.TrimSpace(b.String()), ":") || !incomplete(b.String(), typedefs...) {
			return b.String(), true
		}
	}
}

func incomplete(src string, typedefs ...cast.Node) bool {
	_, ferr := parser.ParseFile(replName, src, typedefs...)
	if ferr == nil {
		return false
	}
	_, ierr := parser.ParseItems(replName, src, typedefs...)
	if ierr == nil {
		return false
	}
	return parser.IsIncomplete(ferr) || parser.IsIncomplete(ierr)
}

// session is the state kept between REPL inputs: the output mode and the
// typedefs seen so far.
type session struct {
	cfg     *config
	out     io.Writer
	diag    *diagnostics
	typedef []cast.Node
}

// eval handles one input and reports whether the session should end.
func (s *session) eval(src string) bool {
	if cmd := strings.TrimSpace(src); strings.HasPrefix(cmd, ":") {
		return s.command(strings.Fields(cmd))
	}
	f, ferr := parser.ParseFile(replName, src, s.typedef...)
	if ferr == nil {
		// typedefs only steer later parses; minic has no form for them
		ext := f.Ext[:0]
		for _, n := range f.Ext {
			if _, ok := n.(*cast.Typedef); ok {
				s.typedef = append(s.typedef, n)
			} else {
				ext = append(ext, n)
			}
		}
		if len(ext) == 0 {
			return false
		}
		f.Ext = ext
		out, err := s.compileFile(f)
		if err != nil {
			s.diag.fail(err)
			return false
		}
		io.WriteString(s.out, out)
		return false
	}
	items, err := parser.ParseItems(replName, src, s.typedef...)
	if err != nil {
		// a file-level message is the more useful one for declarations
		s.diag.fail(&phaseError{"parse", ferr})
		return false
	}
	if s.cfg.emit == "ir" || s.cfg.emit == "asm" {
		s.diag.fail(fmt.Errorf("-emit %s needs declarations, not statements", s.cfg.emit))
		return false
	}
	for _, item := range items {
		n, err := lower.Lower(item, s.cfg.opts)
		if err != nil {
			s.diag.fail(&phaseError{"lower", err})
			return false
		}
		if s.cfg.emit == "tree" {
			minic.Dump(s.out, n)
		} else {
			minic.Fprint(s.out, n)
		}
	}
	return false
}

func (s *session) compileFile(f *cast.File) (string, error) {
	prog, err := lower.File(f, s.cfg.opts)
	if err != nil {
		return "", &phaseError{"lower", err}
	}
	return s.cfg.render("repl", prog)
}

func (s *session) command(fields []string) bool {
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":emit":
		if len(fields) != 2 || !emitters[fields[1]] {
			fmt.Fprintln(s.out, "usage: :emit minic|tree|ir|asm")
			return false
		}
		s.cfg.emit = fields[1]
	default:
		fmt.Fprintln(s.out, "commands: :emit minic|tree|ir|asm, :quit")
	}
	return false
}
