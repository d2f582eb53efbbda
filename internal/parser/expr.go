package parser

import (
	"strings"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/lexer"
)

// Binary operator precedence, loosest first.
var binPrec = map[lexer.TokenType]int{
	lexer.OROR:    1,
	lexer.ANDAND:  2,
	lexer.PIPE:    3,
	lexer.CARET:   4,
	lexer.AMP:     5,
	lexer.EQEQ:    6,
	lexer.NEQ:     6,
	lexer.LT:      7,
	lexer.GT:      7,
	lexer.LE:      7,
	lexer.GE:      7,
	lexer.SHL:     8,
	lexer.SHR:     8,
	lexer.PLUS:    9,
	lexer.MINUS:   9,
	lexer.STAR:    10,
	lexer.SLASH:   10,
	lexer.PERCENT: 10,
}

func isAssignOp(tt lexer.TokenType) bool {
	switch tt {
	case lexer.ASSIGN, lexer.ADD_ASSIGN, lexer.SUB_ASSIGN, lexer.MUL_ASSIGN,
		lexer.DIV_ASSIGN, lexer.MOD_ASSIGN, lexer.AND_ASSIGN, lexer.OR_ASSIGN,
		lexer.XOR_ASSIGN, lexer.SHL_ASSIGN, lexer.SHR_ASSIGN:
		return true
	}
	return false
}

// expr parses a comma expression. More than one operand yields an ExprList.
func (p *Parser) expr() (cast.Node, error) {
	first, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != lexer.COMMA {
		return first, nil
	}
	list := &cast.ExprList{Loc: cast.At(first.Pos()), Exprs: []cast.Node{first}}
	for p.tok.Type == lexer.COMMA {
		p.next()
		x, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		list.Exprs = append(list.Exprs, x)
	}
	return list, nil
}

func (p *Parser) assignExpr() (cast.Node, error) {
	left, err := p.condExpr()
	if err != nil {
		return nil, err
	}
	if !isAssignOp(p.tok.Type) {
		return left, nil
	}
	op := p.tok.Lex
	p.next()
	right, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return &cast.Assignment{Loc: cast.At(left.Pos()), Op: op, LValue: left, RValue: right}, nil
}

func (p *Parser) condExpr() (cast.Node, error) {
	c, err := p.binary(1)
	if err != nil {
		return nil, err
	}
	if p.tok.Type != lexer.QUESTION {
		return c, nil
	}
	p.next()
	t, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	f, err := p.condExpr()
	if err != nil {
		return nil, err
	}
	return &cast.TernaryOp{Loc: cast.At(c.Pos()), Cond: c, IfTrue: t, IfFalse: f}, nil
}

// binary parses left-associative binary operators of precedence min and up.
func (p *Parser) binary(min int) (cast.Node, error) {
	left, err := p.castExpr()
	if err != nil {
		return nil, err
	}
	for {
		prec := binPrec[p.tok.Type]
		if prec == 0 || prec < min {
			return left, nil
		}
		op := p.tok.Lex
		p.next()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &cast.BinaryOp{Loc: cast.At(left.Pos()), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) castExpr() (cast.Node, error) {
	if p.tok.Type != lexer.LPAREN || !p.startsTypeName(p.peek(1)) {
		return p.unary()
	}
	loc := p.at()
	p.next()
	tn, err := p.typeName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.LBRACE {
		init, err := p.initList()
		if err != nil {
			return nil, err
		}
		return p.postfix(&cast.CompoundLiteral{Loc: loc, Type: tn, Init: init})
	}
	x, err := p.castExpr()
	if err != nil {
		return nil, err
	}
	return &cast.Cast{Loc: loc, ToType: tn, Expr: x}, nil
}

func (p *Parser) unary() (cast.Node, error) {
	loc := p.at()
	switch p.tok.Type {
	case lexer.INC, lexer.DEC:
		op := p.tok.Lex
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &cast.UnaryOp{Loc: loc, Op: op, Expr: x}, nil
	case lexer.AMP, lexer.STAR, lexer.PLUS, lexer.MINUS, lexer.TILDE, lexer.BANG:
		op := p.tok.Lex
		p.next()
		x, err := p.castExpr()
		if err != nil {
			return nil, err
		}
		return &cast.UnaryOp{Loc: loc, Op: op, Expr: x}, nil
	case lexer.KW_SIZEOF:
		p.next()
		if p.tok.Type == lexer.LPAREN && p.startsTypeName(p.peek(1)) {
			p.next()
			tn, err := p.typeName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			return &cast.UnaryOp{Loc: loc, Op: "sizeof", Expr: tn}, nil
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &cast.UnaryOp{Loc: loc, Op: "sizeof", Expr: x}, nil
	}
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	return p.postfix(x)
}

func (p *Parser) postfix(x cast.Node) (cast.Node, error) {
	for {
		loc := cast.At(x.Pos())
		switch p.tok.Type {
		case lexer.LBRACK:
			p.next()
			sub, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACK); err != nil {
				return nil, err
			}
			x = &cast.ArrayRef{Loc: loc, Name: x, Subscript: sub}
		case lexer.LPAREN:
			call := &cast.FuncCall{Loc: loc, Name: x}
			p.next()
			if p.tok.Type != lexer.RPAREN {
				args := &cast.ExprList{Loc: p.at()}
				for {
					a, err := p.assignExpr()
					if err != nil {
						return nil, err
					}
					args.Exprs = append(args.Exprs, a)
					if p.tok.Type != lexer.COMMA {
						break
					}
					p.next()
				}
				call.Args = args
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			x = call
		case lexer.DOT, lexer.ARROW:
			kind := p.tok.Lex
			p.next()
			t, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			field := &cast.ID{Loc: cast.At(p.coord(t)), Name: t.Lex}
			x = &cast.StructRef{Loc: loc, Name: x, Type: kind, Field: field}
		case lexer.INC, lexer.DEC:
			x = &cast.UnaryOp{Loc: loc, Op: "p" + p.tok.Lex, Expr: x}
			p.next()
		default:
			return x, nil
		}
	}
}

func (p *Parser) primary() (cast.Node, error) {
	loc := p.at()
	t := p.tok
	switch t.Type {
	case lexer.IDENT:
		p.next()
		return &cast.ID{Loc: loc, Name: t.Lex}, nil
	case lexer.INT:
		p.next()
		return &cast.Constant{Loc: loc, Type: IntConstantType(t.Lex), Value: t.Lex}, nil
	case lexer.FLOAT:
		p.next()
		return &cast.Constant{Loc: loc, Type: FloatConstantType(t.Lex), Value: t.Lex}, nil
	case lexer.CHAR:
		p.next()
		return &cast.Constant{Loc: loc, Type: "char", Value: t.Lex}, nil
	case lexer.STRING:
		// adjacent literals are joined: "a" "b" is "ab"
		s := t.Lex
		p.next()
		for p.tok.Type == lexer.STRING {
			s = s[:len(s)-1] + p.tok.Lex[strings.IndexByte(p.tok.Lex, '"')+1:]
			p.next()
		}
		return &cast.Constant{Loc: loc, Type: "string", Value: s}, nil
	case lexer.LPAREN:
		p.next()
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return x, nil
	}
	return nil, p.unexpected("expression")
}

// IntConstantType derives the C type of an integer constant from its suffix.
func IntConstantType(lex string) string {
	var u, l int
	for i := len(lex) - 1; i >= 0 && i >= len(lex)-3; i-- {
		switch lex[i] {
		case 'u', 'U':
			u++
		case 'l', 'L':
			l++
		}
	}
	return strings.Repeat("unsigned ", u) + strings.Repeat("long ", l) + "int"
}

// FloatConstantType derives the C type of a floating constant from its suffix.
func FloatConstantType(lex string) string {
	switch lex[len(lex)-1] {
	case 'f', 'F':
		return "float"
	case 'l', 'L':
		return "long double"
	}
	return "double"
}
