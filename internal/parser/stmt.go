package parser

import (
	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/lexer"
)

func (p *Parser) compound() (*cast.Compound, error) {
	c := &cast.Compound{Loc: p.at()}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	p.push()
	defer p.pop()
	for p.tok.Type != lexer.RBRACE {
		if p.tok.Type == lexer.EOF {
			return nil, p.unexpected("'}'")
		}
		ns, err := p.blockItem()
		if err != nil {
			return nil, err
		}
		c.BlockItems = append(c.BlockItems, ns...)
	}
	p.next()
	return c, nil
}

// blockItem parses a declaration or a statement. A declaration with several
// declarators yields one node each.
func (p *Parser) blockItem() ([]cast.Node, error) {
	labelled := p.tok.Type == lexer.IDENT && p.peek(1).Type == lexer.COLON
	if !labelled && p.startsDecl() {
		return p.declaration(false)
	}
	s, err := p.statement()
	if err != nil {
		return nil, err
	}
	return []cast.Node{s}, nil
}

func (p *Parser) statement() (cast.Node, error) {
	loc := p.at()
	switch p.tok.Type {
	case lexer.LBRACE:
		return p.compound()
	case lexer.SEMI:
		p.next()
		return &cast.EmptyStatement{Loc: loc}, nil
	case lexer.PRAGMA:
		return p.pragma(), nil

	case lexer.KW_IF:
		p.next()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.statement()
		if err != nil {
			return nil, err
		}
		n := &cast.If{Loc: loc, Cond: cond, IfTrue: then}
		if p.tok.Type == lexer.KW_ELSE {
			p.next()
			if n.IfFalse, err = p.statement(); err != nil {
				return nil, err
			}
		}
		return n, nil

	case lexer.KW_WHILE:
		p.next()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.statement()
		if err != nil {
			return nil, err
		}
		return &cast.While{Loc: loc, Cond: cond, Stmt: body}, nil

	case lexer.KW_DO:
		p.next()
		body, err := p.statement()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KW_WHILE); err != nil {
			return nil, err
		}
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &cast.DoWhile{Loc: loc, Cond: cond, Stmt: body}, nil

	case lexer.KW_FOR:
		return p.forStmt()

	case lexer.KW_SWITCH:
		p.next()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.statement()
		if err != nil {
			return nil, err
		}
		return &cast.Switch{Loc: loc, Cond: cond, Stmt: body}, nil

	case lexer.KW_CASE:
		p.next()
		x, err := p.condExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		return &cast.Case{Loc: loc, Expr: x, Stmts: []cast.Node{s}}, nil

	case lexer.KW_DEFAULT:
		p.next()
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		return &cast.Default{Loc: loc, Stmts: []cast.Node{s}}, nil

	case lexer.KW_RETURN:
		p.next()
		n := &cast.Return{Loc: loc}
		if p.tok.Type != lexer.SEMI {
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			n.Expr = x
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return n, nil

	case lexer.KW_BREAK, lexer.KW_CONTINUE:
		kw := p.tok.Type
		p.next()
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		if kw == lexer.KW_BREAK {
			return &cast.Break{Loc: loc}, nil
		}
		return &cast.Continue{Loc: loc}, nil

	case lexer.KW_GOTO:
		p.next()
		t, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &cast.Goto{Loc: loc, Name: t.Lex}, nil

	case lexer.IDENT:
		if p.peek(1).Type == lexer.COLON {
			name := p.tok.Lex
			p.next()
			p.next()
			s, err := p.statement()
			if err != nil {
				return nil, err
			}
			return &cast.Label{Loc: loc, Name: name, Stmt: s}, nil
		}
	}

	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return x, nil
}

func (p *Parser) parenExpr() (cast.Node, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return x, nil
}

func (p *Parser) forStmt() (cast.Node, error) {
	n := &cast.For{Loc: p.at()}
	p.next()
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	p.push()
	defer p.pop()

	var err error
	switch {
	case p.startsDecl():
		loc := p.at()
		ds, err := p.declaration(false)
		if err != nil {
			return nil, err
		}
		n.Init = &cast.DeclList{Loc: loc, Decls: ds}
	case p.tok.Type == lexer.SEMI:
		p.next()
	default:
		if n.Init, err = p.expr(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
	}
	if p.tok.Type != lexer.SEMI {
		if n.Cond, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	if p.tok.Type != lexer.RPAREN {
		if n.Next, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if n.Stmt, err = p.statement(); err != nil {
		return nil, err
	}
	return n, nil
}
