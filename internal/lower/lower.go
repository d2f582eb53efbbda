// Package lower converts C syntax trees into the reduced minic dialect.
//
// The conversion is a single bottom-up pass. Every recognized node kind is
// rebuilt as its minic counterpart, assignments and increment/decrement
// operators are rewritten into the canonical Assignment form, and any other
// node kind aborts the pass with an UnsupportedConstructError. The first
// error in depth-first order wins; no partial tree is ever returned.
package lower

import (
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/minic"
)

// Options adjusts what Lower accepts and how File schedules its work.
// The zero value lowers sequentially and rejects postfix values.
type Options struct {
	// PermitPostfixValues accepts x++ and x-- where their value is used, as
	// in a[i++]. The rewrite yields the updated value there, not the old one.
	PermitPostfixValues bool
	// Workers > 1 lowers the top-level declarations of a file concurrently.
	Workers int
}

// Lower converts n and everything below it. n is treated as a statement.
func Lower(n cast.Node, opts Options) (minic.Node, error) {
	l := &lowerer{opts: opts}
	return l.node(n, stmtPos)
}

// File lowers a whole translation unit.
func File(f *cast.File, opts Options) (*minic.Program, error) {
	if f == nil {
		return &minic.Program{}, nil
	}
	n, err := Lower(f, opts)
	if err != nil {
		return nil, err
	}
	return n.(*minic.Program), nil
}

// position tells whether the value of a node is used by its parent.
type position int

const (
	valuePos position = iota
	stmtPos
)

type lowerer struct {
	opts Options
}

func at(n cast.Node) minic.Loc { return minic.At(n.Pos()) }

func (l *lowerer) node(n cast.Node, pos position) (minic.Node, error) {
	if n == nil {
		return nil, nil
	}
	f := &fields{l: l, owner: n}
	var out minic.Node
	switch n := n.(type) {
	case *cast.File:
		ext, err := l.topLevel(n.Ext)
		if err != nil {
			return nil, err
		}
		out = &minic.Program{Loc: at(n), Ext: ext}

	// declarations
	case *cast.Decl:
		if n.Bitsize != nil {
			return nil, &UnsupportedConstructError{Kind: "bit-field", Coord: n.Pos()}
		}
		out = &minic.Decl{
			Loc:      at(n),
			Name:     f.term(n.Name),
			FuncSpec: f.terms(n.FuncSpec),
			Type:     f.value(n.Type),
			Init:     f.value(n.Init),
		}
	case *cast.DeclList:
		out = &minic.DeclList{Loc: at(n), Decls: f.list(n.Decls, valuePos)}
	case *cast.ArrayDecl:
		out = &minic.ArrayDecl{Loc: at(n), Type: f.value(n.Type), Dim: n.Dim}
	case *cast.PtrDecl:
		out = &minic.PtrDecl{Loc: at(n), Type: f.value(n.Type)}
	case *cast.FuncDecl:
		out = &minic.FuncDecl{Loc: at(n), Args: f.value(n.Args), Type: f.value(n.Type)}
	case *cast.FuncDef:
		out = &minic.FuncDef{
			Loc:        at(n),
			Decl:       f.value(n.Decl),
			ParamDecls: f.list(n.ParamDecls, valuePos),
			Body:       f.stmt(n.Body),
		}
	case *cast.ParamList:
		out = &minic.ParamList{Loc: at(n), Params: f.list(n.Params, valuePos)}
	case *cast.Typename:
		out = &minic.Typename{Loc: at(n), Name: f.term(n.Name), Type: f.value(n.Type)}
	case *cast.TypeDecl:
		out = &minic.TypeDecl{Loc: at(n), DeclName: f.term(n.DeclName), Type: f.value(n.Type)}
	case *cast.IdentifierType:
		out = &minic.IdentifierType{Loc: at(n), Names: f.terms(n.Names)}

	// statements
	case *cast.Compound:
		out = &minic.Block{Loc: at(n), Items: f.list(n.BlockItems, stmtPos)}
	case *cast.If:
		out = &minic.If{Loc: at(n), Cond: f.value(n.Cond), Then: f.stmt(n.IfTrue), Else: f.stmt(n.IfFalse)}
	case *cast.While:
		out = &minic.While{Loc: at(n), Cond: f.value(n.Cond), Body: f.stmt(n.Stmt)}
	case *cast.DoWhile:
		out = &minic.DoWhile{Loc: at(n), Cond: f.value(n.Cond), Body: f.stmt(n.Stmt)}
	case *cast.For:
		out = &minic.For{
			Loc:  at(n),
			Init: f.stmt(n.Init),
			Cond: f.value(n.Cond),
			Next: f.stmt(n.Next),
			Body: f.stmt(n.Stmt),
		}
	case *cast.Return:
		out = &minic.Return{Loc: at(n), Expr: f.value(n.Expr)}
	case *cast.EmptyStatement:
		out = &minic.EmptyStatement{Loc: at(n)}
	case *cast.Assignment:
		return l.assignment(n)

	// expressions
	case *cast.BinaryOp:
		out = &minic.BinaryOp{Loc: at(n), Op: f.term(n.Op), Left: f.value(n.Left), Right: f.value(n.Right)}
	case *cast.UnaryOp:
		return l.unary(n, pos)
	case *cast.TernaryOp:
		out = &minic.TernaryOp{Loc: at(n), Cond: f.value(n.Cond), Then: f.value(n.IfTrue), Else: f.value(n.IfFalse)}
	case *cast.ArrayRef:
		out = &minic.ArrayRef{Loc: at(n), Name: f.value(n.Name), Subscript: f.value(n.Subscript)}
	case *cast.FuncCall:
		out = &minic.FuncCall{Loc: at(n), Name: f.value(n.Name), Args: f.value(n.Args)}
	case *cast.ID:
		out = &minic.ID{Loc: at(n), Name: f.term(n.Name)}
	case *cast.Constant:
		out = &minic.Constant{Loc: at(n), Type: f.term(n.Type), Value: f.term(n.Value)}
	case *cast.InitList:
		out = &minic.InitList{Loc: at(n), Exprs: f.list(n.Exprs, valuePos)}
	case *cast.NamedInitializer:
		out = &minic.NamedInitializer{Loc: at(n), Name: f.list(n.Name, valuePos), Expr: f.value(n.Expr)}
	case *cast.ExprList:
		// A comma list in statement position, such as the increment clause
		// of a for loop, passes that position on to its elements.
		out = &minic.ExprList{Loc: at(n), Exprs: f.list(n.Exprs, pos)}

	default:
		// Everything not listed above is outside the dialect: goto, labels,
		// switch, break, continue, casts, struct/union/enum, typedef, ...
		return nil, unsupported(n, "")
	}
	if f.err != nil {
		return nil, f.err
	}
	return out, nil
}

// fields lowers the fields of one node in order and keeps the first error.
// Once an error is recorded the remaining calls return nil without work.
type fields struct {
	l     *lowerer
	owner cast.Node
	err   error
}

func (f *fields) lower(n cast.Node, pos position) minic.Node {
	if f.err != nil {
		return nil
	}
	out, err := f.l.node(n, pos)
	f.err = err
	return out
}

func (f *fields) value(n cast.Node) minic.Node { return f.lower(n, valuePos) }
func (f *fields) stmt(n cast.Node) minic.Node  { return f.lower(n, stmtPos) }

func (f *fields) list(ns []cast.Node, pos position) []minic.Node {
	if f.err != nil {
		return nil
	}
	out, err := f.l.list(ns, pos)
	f.err = err
	return out
}

func (f *fields) term(v cast.Value) minic.Terminal {
	if f.err != nil {
		return nil
	}
	t, err := f.l.terminal(f.owner, v)
	f.err = err
	return t
}

func (f *fields) terms(vs []cast.Value) []minic.Terminal {
	if f.err != nil {
		return nil
	}
	ts, err := f.l.terminals(f.owner, vs)
	f.err = err
	return ts
}

// list lowers a sequence element by element, keeping length and order.
func (l *lowerer) list(ns []cast.Node, pos position) ([]minic.Node, error) {
	if ns == nil {
		return nil, nil
	}
	out := make([]minic.Node, len(ns))
	for i, n := range ns {
		m, err := l.node(n, pos)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// topLevel lowers the external declarations of a file, fanning out across
// Workers goroutines when asked to. The error returned is the one from the
// lowest failing index, which is the error a sequential run reports.
func (l *lowerer) topLevel(ext []cast.Node) ([]minic.Node, error) {
	if l.opts.Workers <= 1 || len(ext) < 2 {
		return l.list(ext, stmtPos)
	}
	out := make([]minic.Node, len(ext))
	errs := make([]error, len(ext))
	var failed atomic.Int64
	failed.Store(math.MaxInt64)

	var g errgroup.Group
	g.SetLimit(l.opts.Workers)
	for i, n := range ext {
		i, n := i, n // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if int64(i) > failed.Load() {
				return nil
			}
			out[i], errs[i] = l.node(n, stmtPos)
			if errs[i] != nil {
				for {
					cur := failed.Load()
					if int64(i) >= cur || failed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
