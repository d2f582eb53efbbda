// Package x86_64 turns phi-free IR into GNU assembler input for the
// System V AMD64 ABI.
package x86_64

import (
	"fmt"
	"math"
	"strings"

	"github.com/tinyrange/minic/internal/ir"
)

// EmitModule emits AT&T syntax x86_64 assembly. Phis must already be
// eliminated.
func EmitModule(m *ir.Module) (string, error) {
	var b strings.Builder
	b.WriteString(".text\n")
	for _, f := range m.Funcs {
		if err := emitFunc(&b, f); err != nil {
			return "", err
		}
	}
	if len(m.Globals) > 0 {
		b.WriteString(".data\n")
		for _, g := range m.Globals {
			emitGlobal(&b, g)
		}
	}
	b.WriteString(".section .note.GNU-stack,\"\",@progbits\n")
	return b.String(), nil
}

var dataDirective = map[int]string{1: ".byte", 2: ".short", 4: ".long", 8: ".quad"}

func emitGlobal(b *strings.Builder, g *ir.Global) {
	fmt.Fprintf(b, ".globl %s\n.p2align 3\n%s:\n", g.Name, g.Name)
	for _, v := range g.Init {
		fmt.Fprintf(b, "  %s %d\n", dataDirective[g.Elem], v)
	}
	if rest := g.Size - len(g.Init)*g.Elem; rest > 0 {
		fmt.Fprintf(b, "  .zero %d\n", rest)
	}
}

var argRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

type funcEmitter struct {
	b         *strings.Builder
	f         *ir.Function
	alloc     allocation
	consts    map[ir.ValueID]int64
	slotBase  []int // %rbp offsets of stack arrays
	frameSize int
}

func emitFunc(b *strings.Builder, f *ir.Function) error {
	e := &funcEmitter{b: b, f: f, alloc: allocateRegisters(f), consts: map[ir.ValueID]int64{}}

	// Reserve 8 bytes per SSA value id used in the function, then the arrays.
	maxID := ir.ValueID(-1)
	for _, bb := range f.Blocks {
		for _, ins := range bb.Instrs {
			if ins.Res > maxID {
				maxID = ins.Res
			}
			if ins.Val.Op == ir.OpConst {
				e.consts[ins.Res] = ins.Val.Const
			}
		}
	}
	size := (int(maxID) + 1) * 8
	for _, s := range f.Slots {
		size += align(s, 8)
		e.slotBase = append(e.slotBase, -size)
	}
	e.frameSize = align(size, 16)

	fmt.Fprintf(b, ".globl %s\n%s:\n", f.Name, f.Name)
	// Prologue
	b.WriteString("  push %rbp\n")
	b.WriteString("  mov %rsp, %rbp\n")
	if e.frameSize > 0 {
		fmt.Fprintf(b, "  sub $%d, %%rsp\n", e.frameSize)
	}
	// Parameters always live in their slots.
	if len(f.Blocks) > 0 {
		for _, ins := range f.Blocks[0].Instrs {
			if ins.Val.Op != ir.OpParam {
				continue
			}
			i := int(ins.Val.Const)
			if i >= len(argRegs) {
				return fmt.Errorf("%s: more than 6 integer params not supported", f.Name)
			}
			fmt.Fprintf(b, "  mov %s, %d(%%rbp)\n", argRegs[i], slotOffset(ins.Res))
		}
	}

	for bi, bb := range f.Blocks {
		fmt.Fprintf(b, "%s:\n", e.label(bi))
		for _, ins := range bb.Instrs {
			if err := e.emitInstr(ins); err != nil {
				return err
			}
		}
	}
	// Falling off the end returns 0.
	b.WriteString("  xor %eax, %eax\n")
	e.epilogue()
	return nil
}

func (e *funcEmitter) label(bi int) string {
	return fmt.Sprintf(".L%s.%d.%s", e.f.Name, bi, e.f.Blocks[bi].Name)
}

func (e *funcEmitter) epilogue() {
	e.b.WriteString("  mov %rbp, %rsp\n")
	e.b.WriteString("  pop %rbp\n")
	e.b.WriteString("  ret\n")
}

func (e *funcEmitter) printf(format string, args ...any) {
	e.b.WriteString("  ")
	fmt.Fprintf(e.b, format, args...)
	e.b.WriteByte('\n')
}

// operand returns an AT&T source operand for id.
func (e *funcEmitter) operand(id ir.ValueID) string {
	if k, ok := e.consts[id]; ok && isImm32(k) {
		return fmt.Sprintf("$%d", k)
	}
	if r, ok := e.alloc.regOf[id]; ok {
		return r
	}
	return fmt.Sprintf("%d(%%rbp)", slotOffset(id))
}

func (e *funcEmitter) loadTo(id ir.ValueID, reg string) {
	if src := e.operand(id); src != reg {
		e.printf("mov %s, %s", src, reg)
	}
}

func (e *funcEmitter) storeFrom(reg string, id ir.ValueID) {
	if r, ok := e.alloc.regOf[id]; ok {
		if r != reg {
			e.printf("mov %s, %s", reg, r)
		}
		return
	}
	e.printf("mov %s, %d(%%rbp)", reg, slotOffset(id))
}

var arithOps = map[ir.Op]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpMul: "imul",
	ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
}

var setcc = map[ir.Op]string{
	ir.OpEq: "sete", ir.OpNe: "setne", ir.OpLt: "setl",
	ir.OpLe: "setle", ir.OpGt: "setg", ir.OpGe: "setge",
}

func (e *funcEmitter) emitInstr(ins ir.Instr) error {
	v := ins.Val
	switch v.Op {
	case ir.OpParam:
		// stored by the prologue
	case ir.OpConst:
		// Small constants are used as immediates at each use.
		if !isImm32(v.Const) {
			e.printf("mov $%d, %%rax", v.Const)
			e.storeFrom("%rax", ins.Res)
		}
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor:
		e.loadTo(v.Args[0], "%rax")
		e.printf("%s %s, %%rax", arithOps[v.Op], e.operand(v.Args[1]))
		e.storeFrom("%rax", ins.Res)
	case ir.OpShl, ir.OpShr:
		mn := "shl"
		if v.Op == ir.OpShr {
			mn = "sar"
		}
		e.loadTo(v.Args[0], "%rax")
		if k, ok := e.consts[v.Args[1]]; ok {
			e.printf("%s $%d, %%rax", mn, k&63)
		} else {
			e.loadTo(v.Args[1], "%rcx")
			e.printf("%s %%cl, %%rax", mn)
		}
		e.storeFrom("%rax", ins.Res)
	case ir.OpDiv, ir.OpMod:
		e.loadTo(v.Args[0], "%rax")
		e.loadTo(v.Args[1], "%rcx")
		e.printf("cqo")
		e.printf("idiv %%rcx")
		if v.Op == ir.OpDiv {
			e.storeFrom("%rax", ins.Res)
		} else {
			e.storeFrom("%rdx", ins.Res)
		}
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		e.loadTo(v.Args[0], "%rax")
		e.printf("cmp %s, %%rax", e.operand(v.Args[1]))
		e.printf("%s %%al", setcc[v.Op])
		e.printf("movzbq %%al, %%rax")
		e.storeFrom("%rax", ins.Res)
	case ir.OpCopy:
		e.loadTo(v.Args[0], "%rax")
		e.storeFrom("%rax", ins.Res)
	case ir.OpLoad, ir.OpLoadS:
		mn, err := loadInstr(v.Const, v.Op == ir.OpLoadS)
		if err != nil {
			return err
		}
		e.loadTo(v.Args[0], "%rcx")
		e.printf("%s (%%rcx), %s", mn, dest(v.Const, v.Op == ir.OpLoadS))
		e.storeFrom("%rax", ins.Res)
	case ir.OpStore:
		mn, reg, err := storeInstr(v.Const)
		if err != nil {
			return err
		}
		e.loadTo(v.Args[0], "%rcx")
		e.loadTo(v.Args[1], "%rax")
		e.printf("%s %s, (%%rcx)", mn, reg)
	case ir.OpSlotAddr:
		e.printf("lea %d(%%rbp), %%rax", e.slotBase[v.Const])
		e.storeFrom("%rax", ins.Res)
	case ir.OpGlobalAddr:
		e.printf("lea %s(%%rip), %%rax", v.Sym)
		e.storeFrom("%rax", ins.Res)
	case ir.OpCall:
		if len(v.Args) > len(argRegs) {
			return fmt.Errorf("%s: call to %s with more than 6 arguments not supported", e.f.Name, v.Sym)
		}
		// Stage arguments on the stack so filling one register cannot
		// clobber a later argument.
		for _, a := range v.Args {
			src := e.operand(a)
			if strings.HasSuffix(src, "(%rbp)") {
				e.printf("pushq %s", src)
			} else {
				e.printf("push %s", src)
			}
		}
		for i := len(v.Args) - 1; i >= 0; i-- {
			e.printf("pop %s", argRegs[i])
		}
		e.printf("xor %%eax, %%eax")
		e.printf("call %s", v.Sym)
		if ins.Res >= 0 {
			e.storeFrom("%rax", ins.Res)
		}
	case ir.OpRet:
		e.loadTo(v.Args[0], "%rax")
		e.epilogue()
	case ir.OpJmp:
		e.printf("jmp %s", e.label(int(v.Args[0])))
	case ir.OpJnz:
		e.loadTo(v.Args[0], "%rax")
		e.printf("test %%rax, %%rax")
		e.printf("jne %s", e.label(int(v.Args[1])))
		e.printf("jmp %s", e.label(int(v.Args[2])))
	case ir.OpPhi:
		return fmt.Errorf("%s: phi v%d reached the emitter", e.f.Name, ins.Res)
	default:
		return fmt.Errorf("%s: unsupported op %v", e.f.Name, v.Op)
	}
	return nil
}

func loadInstr(width int64, signed bool) (string, error) {
	switch width {
	case 1:
		if signed {
			return "movsbq", nil
		}
		return "movzbq", nil
	case 2:
		if signed {
			return "movswq", nil
		}
		return "movzwq", nil
	case 4:
		if signed {
			return "movslq", nil
		}
		return "movl", nil
	case 8:
		return "mov", nil
	}
	return "", fmt.Errorf("unsupported load width %d", width)
}

// dest names the register a load of the given width writes.
func dest(width int64, signed bool) string {
	if width == 4 && !signed {
		return "%eax"
	}
	return "%rax"
}

func storeInstr(width int64) (string, string, error) {
	switch width {
	case 1:
		return "movb", "%al", nil
	case 2:
		return "movw", "%ax", nil
	case 4:
		return "movl", "%eax", nil
	case 8:
		return "mov", "%rax", nil
	}
	return "", "", fmt.Errorf("unsupported store width %d", width)
}

func slotOffset(id ir.ValueID) int {
	return -8 * (int(id) + 1)
}

func align(n, a int) int {
	if n%a == 0 {
		return n
	}
	return n + (a - n%a)
}

func isImm32(k int64) bool { return k >= math.MinInt32 && k <= math.MaxInt32 }
