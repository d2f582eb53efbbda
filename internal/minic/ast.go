// Package minic defines the reduced C dialect produced by the lowering pass.
// The node set is closed. There is a single assignment construct, Assignment,
// and no compound-assignment or increment/decrement operators.
package minic

import "github.com/tinyrange/minic/internal/cast"

type Node interface {
	Pos() *cast.Coord
	isNode()
}

// Loc carries the source coordinate copied from the originating node.
type Loc struct {
	Coord *cast.Coord
}

func (l Loc) Pos() *cast.Coord { return l.Coord }

// At returns a Loc for c.
func At(c *cast.Coord) Loc { return Loc{Coord: c} }

type Program struct {
	Loc
	Ext []Node
}

// Declarations

type Decl struct {
	Loc
	Name     Terminal
	FuncSpec []Terminal
	Type     Node
	Init     Node // may be nil
}

type DeclList struct {
	Loc
	Decls []Node
}

// ArrayDecl keeps the dimension expression exactly as the parser produced it.
// Consumers that need its value read it from the source tree.
type ArrayDecl struct {
	Loc
	Type Node
	Dim  cast.Node // may be nil
}

type PtrDecl struct {
	Loc
	Type Node
}

type FuncDecl struct {
	Loc
	Args Node // *ParamList or nil
	Type Node
}

type FuncDef struct {
	Loc
	Decl       Node
	ParamDecls []Node
	Body       Node
}

type ParamList struct {
	Loc
	Params []Node
}

type Typename struct {
	Loc
	Name Terminal
	Type Node
}

type TypeDecl struct {
	Loc
	DeclName Terminal
	Type     Node
}

type IdentifierType struct {
	Loc
	Names []Terminal
}

// Statements

type Block struct {
	Loc
	Items []Node
}

type If struct {
	Loc
	Cond Node
	Then Node
	Else Node // may be nil
}

type While struct {
	Loc
	Cond Node
	Body Node
}

type DoWhile struct {
	Loc
	Cond Node
	Body Node
}

type For struct {
	Loc
	Init Node // may be nil
	Cond Node // may be nil
	Next Node // may be nil
	Body Node
}

type Return struct {
	Loc
	Expr Node // may be nil
}

// Assignment is the only way the dialect writes to a location.
type Assignment struct {
	Loc
	Target Node
	Value  Node
}

type EmptyStatement struct{ Loc }

// Expressions

type BinaryOp struct {
	Loc
	Op    Terminal
	Left  Node
	Right Node
}

type UnaryOp struct {
	Loc
	Op   Terminal
	Expr Node
}

type TernaryOp struct {
	Loc
	Cond Node
	Then Node
	Else Node
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
	Name Terminal
}

type Constant struct {
	Loc
	Type  Terminal
	Value Terminal
}

type InitList struct {
	Loc
	Exprs []Node
}

type NamedInitializer struct {
	Loc
	Name []Node
	Expr Node
}

type ExprList struct {
	Loc
	Exprs []Node
}

func (*Program) isNode()          {}
func (*Decl) isNode()             {}
func (*DeclList) isNode()         {}
func (*ArrayDecl) isNode()        {}
func (*PtrDecl) isNode()          {}
func (*FuncDecl) isNode()         {}
func (*FuncDef) isNode()          {}
func (*ParamList) isNode()        {}
func (*Typename) isNode()         {}
func (*TypeDecl) isNode()         {}
func (*IdentifierType) isNode()   {}
func (*Block) isNode()            {}
func (*If) isNode()               {}
func (*While) isNode()            {}
func (*DoWhile) isNode()          {}
func (*For) isNode()              {}
func (*Return) isNode()           {}
func (*Assignment) isNode()       {}
func (*EmptyStatement) isNode()   {}
func (*BinaryOp) isNode()         {}
func (*UnaryOp) isNode()          {}
func (*TernaryOp) isNode()        {}
func (*ArrayRef) isNode()         {}
func (*FuncCall) isNode()         {}
func (*ID) isNode()               {}
func (*Constant) isNode()         {}
func (*InitList) isNode()         {}
func (*NamedInitializer) isNode() {}
func (*ExprList) isNode()         {}

// IntConst builds the integer constant n, as the desugarer does for ++ and --.
func IntConst(n string) *Constant {
	return &Constant{Type: Text("int"), Value: Text(n)}
}
