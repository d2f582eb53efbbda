package x86_64

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tinyrange/minic/internal/ir"
	"github.com/tinyrange/minic/internal/lower"
	"github.com/tinyrange/minic/internal/parser"
)

func compile(t *testing.T, src string) *ir.Module {
	t.Helper()
	f, err := parser.ParseFile("t.c", src)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := lower.File(f, lower.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := ir.NewModule("t")
	if err := ir.BuildModule(prog, m); err != nil {
		t.Fatal(err)
	}
	ir.Optimize(m)
	for _, fn := range m.Funcs {
		ir.PhiEliminate(fn)
	}
	return m
}

func emit(t *testing.T, src string) string {
	t.Helper()
	out, err := EmitModule(compile(t, src))
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestEmitFunction(t *testing.T) {
	out := emit(t, `
int div(int a, int b) { return a / b + a % b; }
int main() { return div(7, 2); }
`)
	for _, want := range []string{
		".globl div\ndiv:\n",
		"  mov %rdi, -8(%rbp)\n",
		"  mov %rsi, -16(%rbp)\n",
		"  cqo\n  idiv %rcx\n",
		"  push $7\n  push $2\n  pop %rsi\n  pop %rdi\n",
		"  call div\n",
		"  mov %rbp, %rsp\n  pop %rbp\n  ret\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEmitControlFlow(t *testing.T) {
	out := emit(t, `
int count(int n) {
	int c = 0;
	while (n > 0) {
		if (n & 1) c += 1;
		n >>= 1;
	}
	return c;
}`)
	for _, want := range []string{".Lcount.1.while.cond:", "setg %al", "sar $1, %rax", "jne .Lcount."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "phi") {
		t.Errorf("phi in output:\n%s", out)
	}
}

func TestEmitMemory(t *testing.T) {
	out := emit(t, `
char buf[16];
short tab[3] = {1, -2};
int get(int i) {
	int local[2];
	local[0] = tab[i];
	buf[i] = local[0];
	return buf[i];
}`)
	for _, want := range []string{
		"lea buf(%rip), %rax",
		"movswq (%rcx), %rax",
		"movb %al, (%rcx)",
		"movzbq (%rcx), %rax",
		".data\n",
		".globl buf\n.p2align 3\nbuf:\n  .zero 16\n",
		"tab:\n  .short 1\n  .short -2\n  .zero 2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEmitFrameIsAligned(t *testing.T) {
	m := compile(t, "int f(int a) { int x[3]; x[0] = a; return x[0]; }")
	out, err := EmitModule(m)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(out, "\n") {
		var n int
		if _, err := fmt.Sscanf(line, "  sub $%d, %%rsp", &n); err == nil && n%16 != 0 {
			t.Errorf("frame size %d not 16-byte aligned", n)
		}
	}
}

func TestEmitTooManyParams(t *testing.T) {
	m := compile(t, "int f(int a, int b, int c, int d, int e, int g, int h) { return h; }")
	if _, err := EmitModule(m); err == nil || !strings.Contains(err.Error(), "more than 6 integer params") {
		t.Errorf("got %v", err)
	}
}

func TestAllocatorKeepsCrossBlockValuesInSlots(t *testing.T) {
	m := compile(t, "int f(int a) { int b = a * 3; if (a) b = b + 1; return b; }")
	f := m.Funcs[0]
	alloc := allocateRegisters(f)
	defBlock := map[ir.ValueID]int{}
	for bi, b := range f.Blocks {
		for _, ins := range b.Instrs {
			if ins.Res >= 0 {
				defBlock[ins.Res] = bi
			}
		}
	}
	for bi, b := range f.Blocks {
		for _, ins := range b.Instrs {
			if ins.Val.Op == ir.OpParam {
				if _, ok := alloc.regOf[ins.Res]; ok {
					t.Errorf("param v%d got a register", ins.Res)
				}
			}
			for _, a := range uses(&ins) {
				if _, ok := alloc.regOf[a]; ok && defBlock[a] != bi {
					t.Errorf("v%d is used outside its block but got %s", a, alloc.regOf[a])
				}
			}
		}
	}
}
