// Package ir holds the SSA form the backend compiles from. Every value is a
// 64-bit integer; memory is touched only through explicit loads and stores.
package ir

import (
	"fmt"
	"strings"
)

type Module struct {
	Name    string
	Funcs   []*Function
	Globals []*Global
}

func NewModule(name string) *Module { return &Module{Name: name} }

// Global is a statically allocated object. Init holds the leading element
// values; the remainder of Size is zero filled.
type Global struct {
	Name string
	Size int
	Elem int // element width in bytes
	Init []int64
}

type Function struct {
	Name   string
	Params []string
	Blocks []*BasicBlock
	Slots  []int // byte sizes of stack-allocated arrays
	NextID ValueID
	entry  *BasicBlock
}

type BasicBlock struct {
	Name   string
	Instrs []Instr
	sealed bool
	Preds  []*BasicBlock
	Succs  []*BasicBlock
}

func (b *BasicBlock) terminated() bool {
	if len(b.Instrs) == 0 {
		return false
	}
	return b.Instrs[len(b.Instrs)-1].Val.Op.IsTerminator()
}

type ValueID int

type Value struct {
	ID    ValueID
	Op    Op
	Args  []ValueID
	Const int64
	Sym   string // callee for OpCall, symbol for OpGlobalAddr
}

type Op int

const (
	OpConst Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr // arithmetic
	// comparisons produce 0/1
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpRet
	OpStore // Args[0]=addr, Args[1]=value, Const=width
	OpLoad  // zero-extending; Args[0]=addr, Const=width
	OpLoadS // sign-extending
	OpParam // Const=parameter index
	OpCopy  // used during SSA destruction / phi elimination
	OpPhi   // phi nodes at start of a block; args aligned with Preds
	OpJmp   // unconditional jump; Args[0] holds target block index
	OpJnz   // conditional jump; Args[0]=cond, Args[1]=true blk idx, Args[2]=false blk idx
	OpCall  // Sym=callee, Args=arguments
	OpSlotAddr   // Const=index into Function.Slots
	OpGlobalAddr // Sym=global name
)

var opNames = [...]string{
	OpConst: "const", OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpShr: "shr",
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpRet: "ret", OpStore: "store", OpLoad: "load", OpLoadS: "loads", OpParam: "param",
	OpCopy: "copy", OpPhi: "phi", OpJmp: "jmp", OpJnz: "jnz", OpCall: "call",
	OpSlotAddr: "slot", OpGlobalAddr: "global",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op%d", int(op))
}

func (op Op) IsTerminator() bool { return op == OpJmp || op == OpJnz || op == OpRet }

// IsCompare reports whether op yields 0 or 1 from two operands.
func (op Op) IsCompare() bool { return op >= OpEq && op <= OpGe }

type Instr struct {
	Res ValueID // -1 if none
	Val Value
}

func (f *Function) newBlock(name string) *BasicBlock {
	b := &BasicBlock{Name: name}
	f.Blocks = append(f.Blocks, b)
	if f.entry == nil {
		f.entry = b
	}
	return b
}

func (f *Function) addEdge(pred, succ *BasicBlock) {
	pred.Succs = append(pred.Succs, succ)
	succ.Preds = append(succ.Preds, pred)
}

func (f *Function) newSlot(size int) int {
	f.Slots = append(f.Slots, size)
	return len(f.Slots) - 1
}

func (m *Module) String() string {
	var b strings.Builder
	for _, g := range m.Globals {
		fmt.Fprintf(&b, "global %s size=%d elem=%d", g.Name, g.Size, g.Elem)
		if len(g.Init) > 0 {
			fmt.Fprintf(&b, " init=%v", g.Init)
		}
		b.WriteByte('\n')
	}
	for i, f := range m.Funcs {
		if i > 0 || len(m.Globals) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.String())
	}
	return b.String()
}

func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(%s)\n", f.Name, strings.Join(f.Params, ", "))
	for i, size := range f.Slots {
		fmt.Fprintf(&b, "  slot%d: %d bytes\n", i, size)
	}
	for bi, bb := range f.Blocks {
		fmt.Fprintf(&b, "b%d.%s:", bi, bb.Name)
		if len(bb.Preds) > 0 {
			b.WriteString(" ; preds")
			for _, p := range bb.Preds {
				fmt.Fprintf(&b, " b%d", blockIndexOf(f, p))
			}
		}
		b.WriteByte('\n')
		for _, in := range bb.Instrs {
			b.WriteString("  ")
			b.WriteString(f.instrString(in))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (f *Function) instrString(in Instr) string {
	v := in.Val
	var b strings.Builder
	if in.Res >= 0 {
		fmt.Fprintf(&b, "v%d = ", in.Res)
	}
	b.WriteString(v.Op.String())
	var args []string
	switch v.Op {
	case OpConst, OpParam, OpSlotAddr:
		args = append(args, fmt.Sprint(v.Const))
	case OpGlobalAddr:
		args = append(args, v.Sym)
	case OpCall:
		args = append(args, v.Sym)
	case OpJmp:
		return fmt.Sprintf("jmp b%d", v.Args[0])
	case OpJnz:
		return fmt.Sprintf("jnz v%d, b%d, b%d", v.Args[0], v.Args[1], v.Args[2])
	case OpLoad, OpLoadS, OpStore:
		b.WriteString(fmt.Sprint(v.Const))
	}
	for _, a := range v.Args {
		args = append(args, fmt.Sprintf("v%d", a))
	}
	if len(args) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(args, ", "))
	}
	return b.String()
}
