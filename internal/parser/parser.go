// Package parser is the built-in C frontend. It reads one preprocessed
// translation unit and produces a cast tree with coordinates on every node.
// It accepts more C than the minic dialect does: constructs such as goto,
// switch, casts and structs are parsed so the lowering pass can reject them
// by kind.
package parser

import (
	"errors"
	"fmt"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/lexer"
)

// Error is a syntax error at a source position.
type Error struct {
	Pos cast.Coord
	Msg string
	// EOF is set when the input ended before the construct was complete.
	EOF bool
}

func (e *Error) Error() string { return e.Pos.String() + ": " + e.Msg }

// IsIncomplete reports whether err is a syntax error caused by running out
// of input, so that more input could still make the source valid.
func IsIncomplete(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.EOF
}

type Parser struct {
	filename string
	toks     []lexer.Token
	i        int
	tok      lexer.Token
	// scopes maps names to true for typedef names and false for ordinary
	// identifiers that shadow them, innermost scope last.
	scopes []map[string]bool
}

func newParser(filename, src string) *Parser {
	p := &Parser{filename: filename, toks: lexer.All(src)}
	p.tok = p.toks[0]
	p.push()
	return p
}

// ParseFile parses a whole translation unit. Typedef names declared in ext
// are visible, as if ext preceded src.
func ParseFile(filename, src string, ext ...cast.Node) (*cast.File, error) {
	p := newParser(filename, src)
	p.declareTypedefs(ext)
	f := &cast.File{}
	for p.tok.Type != lexer.EOF {
		if p.tok.Type == lexer.SEMI {
			p.next()
			continue
		}
		if p.tok.Type == lexer.PRAGMA {
			f.Ext = append(f.Ext, p.pragma())
			continue
		}
		ds, err := p.declaration(true)
		if err != nil {
			return nil, err
		}
		f.Ext = append(f.Ext, ds...)
	}
	return f, nil
}

// ParseItems parses a sequence of block items, the contents of a function
// body without the braces. Typedef names declared in ext are visible.
func ParseItems(filename, src string, ext ...cast.Node) ([]cast.Node, error) {
	p := newParser(filename, src)
	p.declareTypedefs(ext)
	var items []cast.Node
	for p.tok.Type != lexer.EOF {
		ns, err := p.blockItem()
		if err != nil {
			return nil, err
		}
		items = append(items, ns...)
	}
	return items, nil
}

func (p *Parser) declareTypedefs(ext []cast.Node) {
	for _, n := range ext {
		if td, ok := n.(*cast.Typedef); ok {
			if name, ok := td.Name.(string); ok {
				p.declare(name, true)
			}
		}
	}
}

func (p *Parser) next() {
	if p.i < len(p.toks)-1 {
		p.i++
	}
	p.tok = p.toks[p.i]
}

// peek returns the token k positions ahead of the current one.
func (p *Parser) peek(k int) lexer.Token {
	if p.i+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+k]
}

func (p *Parser) coord(t lexer.Token) *cast.Coord {
	return &cast.Coord{File: p.filename, Line: t.Line, Column: t.Col}
}

func (p *Parser) at() cast.Loc { return cast.At(p.coord(p.tok)) }

func (p *Parser) errorf(format string, args ...any) error {
	return &Error{
		Pos: *p.coord(p.tok),
		Msg: fmt.Sprintf(format, args...),
		EOF: p.tok.Type == lexer.EOF,
	}
}

// unexpected reports the current token as out of place.
func (p *Parser) unexpected(what string) error {
	switch p.tok.Type {
	case lexer.EOF:
		return p.errorf("unexpected end of file, expected %s", what)
	case lexer.ILLEGAL:
		return p.errorf("illegal input %q", p.tok.Lex)
	}
	return p.errorf("expected %s, got %v", what, p.tok.Type)
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.tok.Type != tt {
		return lexer.Token{}, p.unexpected(tt.String())
	}
	t := p.tok
	p.next()
	return t, nil
}

func (p *Parser) push() { p.scopes = append(p.scopes, map[string]bool{}) }
func (p *Parser) pop()  { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *Parser) declare(name string, typedef bool) {
	p.scopes[len(p.scopes)-1][name] = typedef
}

func (p *Parser) isTypedef(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if td, ok := p.scopes[i][name]; ok {
			return td
		}
	}
	return false
}

func (p *Parser) pragma() cast.Node {
	n := &cast.Pragma{Loc: p.at(), String: p.tok.Lex}
	p.next()
	return n
}
