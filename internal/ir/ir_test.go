package ir

import (
	"strings"
	"testing"

	"github.com/tinyrange/minic/internal/lower"
	"github.com/tinyrange/minic/internal/parser"
)

func build(t *testing.T, src string) *Module {
	t.Helper()
	m, err := tryBuild(src)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func tryBuild(src string) (*Module, error) {
	f, err := parser.ParseFile("t.c", src)
	if err != nil {
		return nil, err
	}
	prog, err := lower.File(f, lower.Options{})
	if err != nil {
		return nil, err
	}
	m := NewModule("t")
	return m, BuildModule(prog, m)
}

func TestBuildStraightLine(t *testing.T) {
	m := build(t, "int add(int a, int b) { return a + b; }")
	want := `func add(a, b)
b0.entry:
  v0 = param 0
  v1 = param 1
  v2 = add v0, v1
  ret v2
`
	if got := m.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildLoopCreatesPhis(t *testing.T) {
	m := build(t, `
int sum(int n) {
	int s = 0;
	for (int i = 0; i < n; i++)
		s += i;
	return s;
}`)
	f := m.Funcs[0]
	var header *BasicBlock
	for _, b := range f.Blocks {
		if b.Name == "for.cond" {
			header = b
		}
	}
	if header == nil {
		t.Fatalf("no loop header in\n%s", m)
	}
	if len(header.Preds) != 2 {
		t.Fatalf("header has %d preds, want 2", len(header.Preds))
	}
	phis := 0
	for _, in := range header.Instrs {
		if in.Val.Op == OpPhi {
			phis++
			if len(in.Val.Args) != 2 {
				t.Errorf("phi v%d has %d args", in.Res, len(in.Val.Args))
			}
		}
	}
	// s, i and n are all read in the header before the back edge exists.
	if phis != 3 {
		t.Errorf("header has %d phis, want 3:\n%s", phis, m)
	}
}

func TestOptimizeFoldsConstants(t *testing.T) {
	m := build(t, "int f() { return 2 * 3 + (1 << 2); }")
	Optimize(m)
	got := m.String()
	if !strings.Contains(got, "const 10") {
		t.Errorf("missing folded constant:\n%s", got)
	}
	for _, op := range []string{"mul", "add", "shl"} {
		if strings.Contains(got, " "+op+" ") {
			t.Errorf("%s survived folding:\n%s", op, got)
		}
	}
}

func TestOptimizeKeepsEffects(t *testing.T) {
	m := build(t, "int g; int f(int x) { x * 2; g = x; h(x); return 0; }")
	Optimize(m)
	got := m.String()
	if strings.Contains(got, "mul") {
		t.Errorf("dead multiply kept:\n%s", got)
	}
	for _, want := range []string{"store8", "call h"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q:\n%s", want, got)
		}
	}
}

func TestPhiEliminate(t *testing.T) {
	m := build(t, `
int f(int a, int b) {
	while (a < b) {
		int t = a;
		a = b;
		b = t;
	}
	return a && b;
}`)
	Optimize(m)
	for _, f := range m.Funcs {
		PhiEliminate(f)
		for bi, b := range f.Blocks {
			for i, in := range b.Instrs {
				if in.Val.Op == OpPhi {
					t.Errorf("b%d still has a phi", bi)
				}
				if in.Val.Op.IsTerminator() && i != len(b.Instrs)-1 {
					t.Errorf("b%d: terminator at %d of %d", bi, i, len(b.Instrs))
				}
			}
			for _, s := range b.Succs {
				if len(b.Succs) > 1 && len(s.Preds) > 1 {
					t.Errorf("critical edge %s -> %s left in place", b.Name, s.Name)
				}
			}
		}
	}
	if !strings.Contains(m.String(), "copy") {
		t.Errorf("no copies inserted:\n%s", m)
	}
}

func TestBranchTargetsFollowSplitEdges(t *testing.T) {
	m := build(t, "int f(int a) { int r = 1; if (a) r = 2; return r; }")
	f := m.Funcs[0]
	PhiEliminate(f)
	for _, b := range f.Blocks {
		if len(b.Instrs) == 0 {
			continue
		}
		term := b.Instrs[len(b.Instrs)-1].Val
		var targets []ValueID
		switch term.Op {
		case OpJmp:
			targets = term.Args[:1]
		case OpJnz:
			targets = term.Args[1:]
		}
		for i, ti := range targets {
			if f.Blocks[ti] != b.Succs[i] {
				t.Errorf("%s: branch target b%d does not match successor %s", b.Name, ti, b.Succs[i].Name)
			}
		}
	}
}

func TestGlobals(t *testing.T) {
	m := build(t, "int g[3] = {1, 2}; char c = 'a'; short s[2][2]; int n = -(4 * 2);")
	want := []string{
		"global g size=24 elem=8 init=[1 2]",
		"global c size=1 elem=1 init=[97]",
		"global s size=8 elem=2",
		"global n size=8 elem=8 init=[-8]",
	}
	got := m.String()
	for _, w := range want {
		if !strings.Contains(got, w+"\n") {
			t.Errorf("missing %q in:\n%s", w, got)
		}
	}
}

func TestArraysAndPointers(t *testing.T) {
	m := build(t, `
int f(int *p) {
	int a[4] = {7};
	char *q = 0;
	a[1] = p[2];
	*p = a[0];
	return q[3] + sizeof a;
}`)
	f := m.Funcs[0]
	if len(f.Slots) != 1 || f.Slots[0] != 32 {
		t.Errorf("slots = %v, want [32]", f.Slots)
	}
	got := m.String()
	for _, w := range []string{"mul v", "loads8", "load1", "store8", "const 32"} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in:\n%s", w, got)
		}
	}
}

func TestShadowingUsesDistinctVariables(t *testing.T) {
	m := build(t, "int f() { int x = 1; { int x = 2; } return x; }")
	Optimize(m)
	got := m.String()
	if !strings.Contains(got, "ret v0") {
		t.Errorf("return does not read the outer x:\n%s", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"float", "double d;", "t.c:1:8: d: floating type double not supported"},
		{"undefined", "int f() { return y; }", "t.c:1:18: undefined variable y"},
		{"address of scalar", "int f() { int x; return *&x; }", "cannot take the address of local x"},
		{"string", `int f() { return "s"; }`, "string literals not supported"},
		{"function value", "int g(); int f() { return g; }", "function g used as a value"},
		{"non-constant global", "int a; int b = a;", "initializer is not constant"},
		{"void variable", "void v;", "variable v declared void"},
		{"dimension", "int f(int n) { int a[n]; return 0; }", "array size n is not constant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tryBuild(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("got %v, want error containing %q", err, tt.msg)
			}
		})
	}
}
