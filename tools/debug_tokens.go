// Command debug_tokens prints the token stream the built-in lexer produces
// for a C file, one token per line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tinyrange/minic/internal/lexer"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: debug_tokens <file.c>")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "debug_tokens: %v\n", err)
		os.Exit(1)
	}
	for _, t := range lexer.All(string(data)) {
		fmt.Printf("%d:%d\t%-10s %q\n", t.Line, t.Col, t.Type, t.Lex)
	}
}
