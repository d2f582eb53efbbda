package ccfront

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/lower"
	"github.com/tinyrange/minic/internal/minic"
	"github.com/tinyrange/minic/internal/parser"
)

func lowered(t *testing.T, f *cast.File) string {
	t.Helper()
	prog, err := lower.File(f, lower.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return minic.Sprint(prog)
}

// Both frontends must hand the lowering pass the same tree.
func TestMatchesBuiltinParser(t *testing.T) {
	src := `
int g[4], *gp;

int sum(int *a, int n) {
	int s = 0, k;
	for (int i = 0; i < n; i++)
		s += a[i];
	k = n > 0 ? s / n : -1;
	return s + k;
}

int apply(int (*fp)(int), int x) { return fp(x); }

int main(void) {
	int m[2][3] = {{1, 2, 3}, {4}};
	g[0] = sum(g, 4);
	if (g[0] && !g[1]) --g[1]; else g[2] *= 3;
	while (g[3] > 0) g[3]--;
	do { g[1] <<= 1; } while (0);
	return sizeof(m) + sizeof(int) + (m[1][0], 2);
}
`
	want, err := parser.ParseFile("t.c", src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse("t.c", src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g, w := lowered(t, got), lowered(t, want); g != w {
		t.Errorf("cc frontend:\n%s\nbuilt-in parser:\n%s", g, w)
	}
}

func TestDeclaratorShapes(t *testing.T) {
	f, err := Parse("t.c", "int *a[3]; int (*fp)(int, ...);", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Ext) != 2 {
		t.Fatalf("got %d declarations", len(f.Ext))
	}
	arr, ok := f.Ext[0].(*cast.Decl).Type.(*cast.ArrayDecl)
	if !ok {
		t.Fatalf("a: got %T, want *cast.ArrayDecl", f.Ext[0].(*cast.Decl).Type)
	}
	if _, ok := arr.Type.(*cast.PtrDecl); !ok {
		t.Errorf("a: element is %T, want *cast.PtrDecl", arr.Type)
	}
	ptr, ok := f.Ext[1].(*cast.Decl).Type.(*cast.PtrDecl)
	if !ok {
		t.Fatalf("fp: got %T, want *cast.PtrDecl", f.Ext[1].(*cast.Decl).Type)
	}
	fn, ok := ptr.Type.(*cast.FuncDecl)
	if !ok {
		t.Fatalf("fp: pointee is %T, want *cast.FuncDecl", ptr.Type)
	}
	params := fn.Args.(*cast.ParamList).Params
	if len(params) != 2 {
		t.Fatalf("fp: %d params", len(params))
	}
	if _, ok := params[1].(*cast.EllipsisParam); !ok {
		t.Errorf("fp: last param is %T", params[1])
	}
}

func TestPreprocessor(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "limits.h"), []byte("#define LIMIT 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := `#include "limits.h"
#define TWICE(x) ((x) + (x))
int f(int a) { return TWICE(a) < LIMIT; }
`
	f, err := Parse("t.c", src, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	want := "int f(int a)\n{\n\treturn (a + a) < 8;\n}\n"
	if got := lowered(t, f); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCoords(t *testing.T) {
	f, err := Parse("t.c", "int f(int a) {\n\treturn a;\n}\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	body := f.Ext[0].(*cast.FuncDef).Body.(*cast.Compound)
	ret := body.BlockItems[0]
	if got := ret.Pos().String(); got != "t.c:2:2" {
		t.Errorf("return at %s, want t.c:2:2", got)
	}
}

func TestUnsupported(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"statement expression", "int f() { return ({ 1; }); }", "primary expression"},
		{"case range", "int f(int x) { switch (x) { case 1 ... 3: return 1; } return 0; }", "case range"},
		{"float type", "_Complex double z;", "type specifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t.c", tt.src, nil)
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("got %v, want *Error", err)
			}
			if !strings.Contains(e.Msg, tt.msg) {
				t.Errorf("got %q, want it to mention %q", e.Msg, tt.msg)
			}
		})
	}
}

func TestSyntaxError(t *testing.T) {
	if _, err := Parse("t.c", "int f( { }", nil); err == nil {
		t.Fatal("no error for malformed input")
	}
}
