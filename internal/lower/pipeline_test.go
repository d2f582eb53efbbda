package lower_test

import (
	"errors"
	"testing"

	"github.com/tinyrange/minic/internal/lower"
	"github.com/tinyrange/minic/internal/minic"
	"github.com/tinyrange/minic/internal/parser"
)

func lowerSource(t *testing.T, src string, opts lower.Options) (*minic.Program, error) {
	t.Helper()
	f, err := parser.ParseFile("t.c", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return lower.File(f, opts)
}

func TestPipelinePrint(t *testing.T) {
	src := `
int g[4];

int sum(int *a, int n) {
	int s = 0;
	for (int i = 0; i < n; i++)
		s += a[i];
	return s;
}

int main() {
	g[0] = sum(g, 4);
	if (g[0]) --g[1]; else g[2] *= 3;
	while (g[3] > 0) g[3]--;
	do { g[1] <<= 1; } while (0);
	return 0;
}
`
	want := `int g[4];

int sum(int *a, int n)
{
	int s = 0;
	for (int i = 0; i < n; i = i + 1)
		s = s + a[i];
	return s;
}

int main()
{
	g[0] = sum(g, 4);
	if (g[0])
		g[1] = g[1] - 1;
	else
		g[2] = g[2] * 3;
	while (g[3] > 0)
		g[3] = g[3] - 1;
	do
	{
		g[1] = g[1] << 1;
	}
	while (0);
	return 0;
}
`
	prog, err := lowerSource(t, src, lower.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := minic.Sprint(prog); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPipelineRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"goto", "int f() { goto out; out: return 0; }", "t.c:1:11: unsupported construct Goto"},
		{"switch", "int f(int x) { switch (x) { default: return 1; } }", "t.c:1:16: unsupported construct Switch"},
		{"cast", "int f(long x) { return (int)x; }", "t.c:1:24: unsupported construct Cast"},
		{"struct", "struct s { int a; };", "t.c:1:1: unsupported construct Struct"},
		{"typedef", "typedef int word;", "t.c:1:13: unsupported construct Typedef"},
		{"postfix value", "int f(int *a, int i) { return a[i++]; }", "t.c:1:33: unsupported construct UnaryOp (postfix ++ used as a value)"},
		{"pragma", "#pragma once\nint x;", "t.c:1:1: unsupported construct Pragma"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lowerSource(t, tt.src, lower.Options{})
			if err == nil {
				t.Fatal("no error")
			}
			if !errors.Is(err, lower.ErrUnsupportedConstruct) {
				t.Errorf("error %v is not ErrUnsupportedConstruct", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("got %q, want %q", err, tt.msg)
			}
		})
	}
}

func TestPipelineSideEffectTargets(t *testing.T) {
	for _, src := range []string{
		"int f(int *a, int i) { a[++i] += 1; return i; }",
		"int g(); int f(int *a) { a[g()]++; return 0; }",
	} {
		_, err := lowerSource(t, src, lower.Options{PermitPostfixValues: true})
		if !errors.Is(err, lower.ErrUnsupportedConstruct) {
			t.Errorf("%s: got %v, want ErrUnsupportedConstruct", src, err)
		}
	}
}

func TestPipelineParallel(t *testing.T) {
	src := `
int a(int x) { x += 1; return x; }
int b(int x) { x -= 1; return x; }
int c(int x) { x *= 2; return x; }
int d(int x) { x /= 2; return x; }
`
	seq, err := lowerSource(t, src, lower.Options{})
	if err != nil {
		t.Fatal(err)
	}
	par, err := lowerSource(t, src, lower.Options{Workers: 3})
	if err != nil {
		t.Fatal(err)
	}
	if minic.Sprint(seq) != minic.Sprint(par) {
		t.Errorf("parallel output differs:\n%s\nvs\n%s", minic.Sprint(par), minic.Sprint(seq))
	}
}
