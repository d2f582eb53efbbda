package minic

import (
	"fmt"
	"io"
	"strings"

	"github.com/tinyrange/minic/internal/cast"
)

// Fprint writes n to w as C-like source text.
func Fprint(w io.Writer, n Node) error {
	p := &printer{}
	p.top(n)
	_, err := io.WriteString(w, p.b.String())
	return err
}

// Sprint returns the C-like source text of n.
func Sprint(n Node) string {
	p := &printer{}
	p.top(n)
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.b.WriteString(strings.Repeat("\t", p.indent))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) top(n Node) {
	switch n := n.(type) {
	case *Program:
		for i, ext := range n.Ext {
			if i > 0 {
				if _, ok := ext.(*FuncDef); ok {
					p.b.WriteByte('\n')
				}
			}
			p.top(ext)
		}
	case *FuncDef:
		p.line("%s", p.decl(n.Decl))
		for _, pd := range n.ParamDecls {
			p.line("%s;", p.decl(pd))
		}
		p.stmt(n.Body)
	default:
		p.stmt(n)
	}
}

// stmt prints n as a statement at the current indentation.
func (p *printer) stmt(n Node) {
	switch n := n.(type) {
	case nil:
		p.line(";")
	case *Block:
		p.line("{")
		p.indent++
		for _, item := range n.Items {
			p.stmt(item)
		}
		p.indent--
		p.line("}")
	case *If:
		p.line("if (%s)", p.expr(n.Cond))
		p.body(n.Then)
		if n.Else != nil {
			p.line("else")
			p.body(n.Else)
		}
	case *While:
		p.line("while (%s)", p.expr(n.Cond))
		p.body(n.Body)
	case *DoWhile:
		p.line("do")
		p.body(n.Body)
		p.line("while (%s);", p.expr(n.Cond))
	case *For:
		p.line("for (%s; %s; %s)", p.clause(n.Init), p.expr(n.Cond), p.expr(n.Next))
		p.body(n.Body)
	case *Return:
		if n.Expr == nil {
			p.line("return;")
		} else {
			p.line("return %s;", p.expr(n.Expr))
		}
	case *EmptyStatement:
		p.line(";")
	case *Decl, *DeclList:
		p.line("%s;", p.clause(n))
	case *FuncDef, *Program:
		p.top(n)
	default:
		p.line("%s;", p.expr(n))
	}
}

// body prints a nested statement, indenting it unless it is a block.
func (p *printer) body(n Node) {
	if _, ok := n.(*Block); ok {
		p.stmt(n)
		return
	}
	p.indent++
	p.stmt(n)
	p.indent--
}

func (p *printer) clause(n Node) string {
	switch n := n.(type) {
	case *Decl:
		return p.decl(n)
	case *DeclList:
		parts := make([]string, len(n.Decls))
		for i, d := range n.Decls {
			s := p.decl(d)
			if i > 0 {
				if dd, ok := d.(*Decl); ok {
					_, s = p.declarator(dd.Type, TextOf(dd.Name))
					if dd.Init != nil {
						s += " = " + p.expr(dd.Init)
					}
				}
			}
			parts[i] = s
		}
		return strings.Join(parts, ", ")
	default:
		return p.expr(n)
	}
}

func (p *printer) decl(n Node) string {
	d, ok := n.(*Decl)
	if !ok {
		switch n := n.(type) {
		case *Typename:
			base, decl := p.declarator(n.Type, "")
			return join(base, decl)
		case *ID:
			return TextOf(n.Name)
		}
		return p.expr(n)
	}
	base, decl := p.declarator(d.Type, TextOf(d.Name))
	s := join(base, decl)
	for i := len(d.FuncSpec) - 1; i >= 0; i-- {
		s = TextOf(d.FuncSpec[i]) + " " + s
	}
	if d.Init != nil {
		s += " = " + p.expr(d.Init)
	}
	return s
}

// declarator splits a declarator chain into the base type and the
// declarator text wrapped around name.
func (p *printer) declarator(typ Node, name string) (string, string) {
	var mods []Node
	for {
		switch t := typ.(type) {
		case *ArrayDecl:
			mods = append(mods, t)
			typ = t.Type
			continue
		case *PtrDecl:
			mods = append(mods, t)
			typ = t.Type
			continue
		case *FuncDecl:
			mods = append(mods, t)
			typ = t.Type
			continue
		case *TypeDecl:
			if name == "" {
				name = TextOf(t.DeclName)
			}
			typ = t.Type
		}
		break
	}
	s := name
	for i, m := range mods {
		switch m := m.(type) {
		case *ArrayDecl:
			if i > 0 {
				if _, ok := mods[i-1].(*PtrDecl); ok {
					s = "(" + s + ")"
				}
			}
			s += "[" + cast.ExprString(m.Dim) + "]"
		case *FuncDecl:
			if i > 0 {
				if _, ok := mods[i-1].(*PtrDecl); ok {
					s = "(" + s + ")"
				}
			}
			s += "(" + p.params(m.Args) + ")"
		case *PtrDecl:
			s = "*" + s
		}
	}
	return p.typeName(typ), s
}

func (p *printer) params(n Node) string {
	pl, ok := n.(*ParamList)
	if !ok {
		return ""
	}
	parts := make([]string, len(pl.Params))
	for i, prm := range pl.Params {
		parts[i] = p.decl(prm)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) typeName(n Node) string {
	switch n := n.(type) {
	case *IdentifierType:
		names := make([]string, len(n.Names))
		for i, t := range n.Names {
			names[i] = TextOf(t)
		}
		return strings.Join(names, " ")
	case *Typename:
		base, decl := p.declarator(n.Type, "")
		return join(base, decl)
	case nil:
		return ""
	}
	return "<" + kindOf(n) + ">"
}

func (p *printer) expr(n Node) string {
	switch n := n.(type) {
	case nil:
		return ""
	case *ID:
		return TextOf(n.Name)
	case *Constant:
		return TextOf(n.Value)
	case *BinaryOp:
		return p.operand(n.Left) + " " + TextOf(n.Op) + " " + p.operand(n.Right)
	case *UnaryOp:
		op := TextOf(n.Op)
		switch op {
		case "sizeof":
			return "sizeof(" + p.expr(n.Expr) + ")"
		case "p++", "p--":
			return p.operand(n.Expr) + op[1:]
		}
		return op + p.operand(n.Expr)
	case *TernaryOp:
		return p.operand(n.Cond) + " ? " + p.operand(n.Then) + " : " + p.operand(n.Else)
	case *Assignment:
		if _, ok := n.Value.(*EmptyStatement); ok {
			return p.operand(n.Target) + " = /* no-op */"
		}
		return p.operand(n.Target) + " = " + p.expr(n.Value)
	case *ArrayRef:
		return p.operand(n.Name) + "[" + p.expr(n.Subscript) + "]"
	case *FuncCall:
		return p.operand(n.Name) + "(" + p.expr(n.Args) + ")"
	case *ExprList:
		parts := make([]string, len(n.Exprs))
		for i, e := range n.Exprs {
			parts[i] = p.expr(e)
		}
		return strings.Join(parts, ", ")
	case *InitList:
		parts := make([]string, len(n.Exprs))
		for i, e := range n.Exprs {
			parts[i] = p.expr(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *NamedInitializer:
		var b strings.Builder
		for _, d := range n.Name {
			if id, ok := d.(*ID); ok {
				b.WriteString("." + TextOf(id.Name))
			} else {
				b.WriteString("[" + p.expr(d) + "]")
			}
		}
		return b.String() + " = " + p.expr(n.Expr)
	case *Typename:
		return p.typeName(n)
	case *Decl, *DeclList:
		return p.clause(n)
	case *EmptyStatement:
		return ""
	}
	return "<" + kindOf(n) + ">"
}

func (p *printer) operand(n Node) string {
	switch n.(type) {
	case *ID, *Constant, *ArrayRef, *FuncCall:
		return p.expr(n)
	}
	return "(" + p.expr(n) + ")"
}

func join(base, decl string) string {
	if decl == "" {
		return base
	}
	if base == "" {
		return decl
	}
	return base + " " + decl
}
