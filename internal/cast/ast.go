// Package cast is the C syntax tree handed over by the parsers. Its shape
// follows the classic pycparser layout so that any C frontend can target it.
// The set of node kinds is open: the lowering pass recognizes a subset and
// rejects everything else by kind.
package cast

import (
	"fmt"
	"strings"
)

// Coord is an opaque source position. Passes copy it, they never interpret it.
type Coord struct {
	File   string
	Line   int
	Column int
}

func (c *Coord) String() string {
	if c == nil {
		return "?"
	}
	if c.File == "" {
		return fmt.Sprintf("%d:%d", c.Line, c.Column)
	}
	return fmt.Sprintf("%s:%d:%d", c.File, c.Line, c.Column)
}

// Value is a terminal as a parser produces it: string, a Go integer, float32,
// float64, bool or nil. Nothing stops a buggy frontend from putting something
// else here, which is why consumers validate terminals.
type Value = any

type Node interface {
	Pos() *Coord
}

// Loc carries the coordinate of a node; every node embeds it.
type Loc struct {
	Coord *Coord
}

func (l Loc) Pos() *Coord { return l.Coord }

// At returns a Loc for c.
func At(c *Coord) Loc { return Loc{Coord: c} }

// KindOf names the kind of n for diagnostics, e.g. "Goto".
func KindOf(n Node) string {
	if n == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("%T", n)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

type File struct {
	Loc
	Ext []Node
}

// Declarations

type Decl struct {
	Loc
	Name     Value
	Quals    []Value
	Storage  []Value
	FuncSpec []Value
	Type     Node
	Init     Node // may be nil
	Bitsize  Node // may be nil
}

type DeclList struct {
	Loc
	Decls []Node
}

type ArrayDecl struct {
	Loc
	Type     Node
	Dim      Node // may be nil for int a[]
	DimQuals []Value
}

type PtrDecl struct {
	Loc
	Quals []Value
	Type  Node
}

type FuncDecl struct {
	Loc
	Args Node // *ParamList or nil
	Type Node
}

type FuncDef struct {
	Loc
	Decl       Node
	ParamDecls []Node // K&R style parameter declarations
	Body       Node
}

type ParamList struct {
	Loc
	Params []Node
}

type EllipsisParam struct{ Loc }

type Typename struct {
	Loc
	Name  Value
	Quals []Value
	Type  Node
}

type TypeDecl struct {
	Loc
	DeclName Value
	Quals    []Value
	Type     Node
}

type IdentifierType struct {
	Loc
	Names []Value
}

type Typedef struct {
	Loc
	Name    Value
	Quals   []Value
	Storage []Value
	Type    Node
}

type Struct struct {
	Loc
	Name  Value
	Decls []Node // nil for a reference to a declared struct
}

type Union struct {
	Loc
	Name  Value
	Decls []Node
}

type Enum struct {
	Loc
	Name   Value
	Values Node // *EnumeratorList or nil
}

type EnumeratorList struct {
	Loc
	Enumerators []Node
}

type Enumerator struct {
	Loc
	Name  Value
	Value Node
}

// Statements

type Compound struct {
	Loc
	BlockItems []Node
}

type If struct {
	Loc
	Cond    Node
	IfTrue  Node
	IfFalse Node // may be nil
}

type While struct {
	Loc
	Cond Node
	Stmt Node
}

type DoWhile struct {
	Loc
	Cond Node
	Stmt Node
}

type For struct {
	Loc
	Init Node // may be nil
	Cond Node // may be nil
	Next Node // may be nil
	Stmt Node
}

type Return struct {
	Loc
	Expr Node // may be nil
}

type EmptyStatement struct{ Loc }

type Break struct{ Loc }

type Continue struct{ Loc }

type Goto struct {
	Loc
	Name Value
}

type Label struct {
	Loc
	Name Value
	Stmt Node
}

type Switch struct {
	Loc
	Cond Node
	Stmt Node
}

type Case struct {
	Loc
	Expr  Node
	Stmts []Node
}

type Default struct {
	Loc
	Stmts []Node
}

type Pragma struct {
	Loc
	String Value
}

// Expressions

type Assignment struct {
	Loc
	Op     Value
	LValue Node
	RValue Node
}

type BinaryOp struct {
	Loc
	Op    Value
	Left  Node
	Right Node
}

// UnaryOp covers prefix operators, sizeof and the postfix increments, which
// are spelled "p++" and "p--".
type UnaryOp struct {
	Loc
	Op   Value
	Expr Node
}

type TernaryOp struct {
	Loc
	Cond    Node
	IfTrue  Node
	IfFalse Node
}

type ArrayRef struct {
	Loc
	Name      Node
	Subscript Node
}

type FuncCall struct {
	Loc
	Name Node
	Args Node // *ExprList or nil
}

type ID struct {
	Loc
	Name Value
}

type Constant struct {
	Loc
	Type  Value
	Value Value
}

type Cast struct {
	Loc
	ToType Node
	Expr   Node
}

type StructRef struct {
	Loc
	Name  Node
	Type  Value // "." or "->"
	Field Node
}

type CompoundLiteral struct {
	Loc
	Type Node
	Init Node
}

type InitList struct {
	Loc
	Exprs []Node
}

// NamedInitializer is a designated initializer. Name holds the designators in
// order: an *ID for .field and the index expression for [i].
type NamedInitializer struct {
	Loc
	Name []Node
	Expr Node
}

type ExprList struct {
	Loc
	Exprs []Node
}
