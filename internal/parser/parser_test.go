package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tinyrange/minic/internal/cast"
)

// stripPos clears the coordinates in a tree so it can be compared with a
// hand-built one.
func stripPos(n cast.Node) {
	strip(reflect.ValueOf(n))
}

var locType = reflect.TypeOf(cast.Loc{})

func strip(v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			strip(v.Elem())
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			strip(v.Index(i))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if f.Type() == locType {
				f.Set(reflect.Zero(locType))
				continue
			}
			strip(f)
		}
	}
}

func it(names ...cast.Value) *cast.IdentifierType { return &cast.IdentifierType{Names: names} }

func td(name cast.Value, typ cast.Node) *cast.TypeDecl {
	return &cast.TypeDecl{DeclName: name, Type: typ}
}

func intc(v string) *cast.Constant { return &cast.Constant{Type: "int", Value: v} }

func mustParse(t *testing.T, src string) *cast.File {
	t.Helper()
	f, err := ParseFile("t.c", src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return f
}

func mustItems(t *testing.T, src string) []cast.Node {
	t.Helper()
	items, err := ParseItems("t.c", src)
	if err != nil {
		t.Fatalf("ParseItems(%q): %v", src, err)
	}
	return items
}

func TestParseFunction(t *testing.T) {
	f := mustParse(t, `
int add(int a, int b) {
	int s = a + b * 2;
	return s;
}
`)
	stripPos(f)
	want := &cast.File{Ext: []cast.Node{
		&cast.FuncDef{
			Decl: &cast.Decl{
				Name: "add",
				Type: &cast.FuncDecl{
					Args: &cast.ParamList{Params: []cast.Node{
						&cast.Decl{Name: "a", Type: td("a", it("int"))},
						&cast.Decl{Name: "b", Type: td("b", it("int"))},
					}},
					Type: td("add", it("int")),
				},
			},
			Body: &cast.Compound{BlockItems: []cast.Node{
				&cast.Decl{
					Name: "s",
					Type: td("s", it("int")),
					Init: &cast.BinaryOp{
						Op:    "+",
						Left:  &cast.ID{Name: "a"},
						Right: &cast.BinaryOp{Op: "*", Left: &cast.ID{Name: "b"}, Right: intc("2")},
					},
				},
				&cast.Return{Expr: &cast.ID{Name: "s"}},
			}},
		},
	}}
	if !reflect.DeepEqual(f, want) {
		t.Fatalf("tree mismatch:\ngot  %#v\nwant %#v", f.Ext[0], want.Ext[0])
	}
}

// chain renders the modifier chain of a declarator, outermost first.
func chain(n cast.Node) string {
	var parts []string
	for n != nil {
		parts = append(parts, cast.KindOf(n))
		switch x := n.(type) {
		case *cast.ArrayDecl:
			n = x.Type
		case *cast.PtrDecl:
			n = x.Type
		case *cast.FuncDecl:
			n = x.Type
		default:
			n = nil
		}
	}
	return strings.Join(parts, " ")
}

func TestDeclarators(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"int x;", "TypeDecl"},
		{"int *a[3];", "ArrayDecl PtrDecl TypeDecl"},
		{"int (*p)[3];", "PtrDecl ArrayDecl TypeDecl"},
		{"int **q;", "PtrDecl PtrDecl TypeDecl"},
		{"int (*f)(int);", "PtrDecl FuncDecl TypeDecl"},
		{"int *g(void);", "FuncDecl PtrDecl TypeDecl"},
		{"int m[2][3];", "ArrayDecl ArrayDecl TypeDecl"},
		{"char *const *volatile s;", "PtrDecl PtrDecl TypeDecl"},
	}
	for _, tt := range tests {
		f := mustParse(t, tt.src)
		if len(f.Ext) != 1 {
			t.Fatalf("%q: got %d declarations", tt.src, len(f.Ext))
		}
		d := f.Ext[0].(*cast.Decl)
		if got := chain(d.Type); got != tt.want {
			t.Errorf("%q: chain %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestArrayDimensionsInOrder(t *testing.T) {
	f := mustParse(t, "int m[2][3];")
	outer := f.Ext[0].(*cast.Decl).Type.(*cast.ArrayDecl)
	inner := outer.Type.(*cast.ArrayDecl)
	if got := cast.ExprString(outer.Dim); got != "2" {
		t.Errorf("outer dim = %q, want 2", got)
	}
	if got := cast.ExprString(inner.Dim); got != "3" {
		t.Errorf("inner dim = %q, want 3", got)
	}
}

func TestPointerQualifiersBindOutward(t *testing.T) {
	f := mustParse(t, "char *const *volatile s;")
	outer := f.Ext[0].(*cast.Decl).Type.(*cast.PtrDecl)
	inner := outer.Type.(*cast.PtrDecl)
	if !reflect.DeepEqual(outer.Quals, []cast.Value{"volatile"}) {
		t.Errorf("outer quals = %v", outer.Quals)
	}
	if !reflect.DeepEqual(inner.Quals, []cast.Value{"const"}) {
		t.Errorf("inner quals = %v", inner.Quals)
	}
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = a + b * c;", "x = (a + (b * c))"},
		{"x = (a + b) * c;", "x = ((a + b) * c)"},
		{"a = b = c;", "a = (b = c)"},
		{"x += y << 2 | 1;", "x += ((y << 2) | 1)"},
		{"x = a < b && c != d || e;", "x = (((a < b) && (c != d)) || e)"},
		{"y = c ? a : b;", "y = (c ? a : b)"},
		{"i++;", "i++"},
		{"--i;", "--i"},
		{"x = -a[i++];", "x = (-a[i++])"},
		{"f(a, b + 1);", "f(a, b + 1)"},
		{"p->next.v = 0;", "p->next.v = 0"},
		{"x = sizeof(int) + sizeof y;", "x = ((sizeof(int)) + (sizeof(y)))"},
		{"x = (long)y;", "x = ((long)y)"},
		{"x = !*p;", "x = (!(*p))"},
		{"a - b - c;", "(a - b) - c"},
	}
	for _, tt := range tests {
		items := mustItems(t, tt.src)
		if len(items) != 1 {
			t.Fatalf("%q: got %d items", tt.src, len(items))
		}
		if got := cast.ExprString(items[0]); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestPostfixSpelling(t *testing.T) {
	items := mustItems(t, "i++; i--; ++i; --i;")
	want := []string{"p++", "p--", "++", "--"}
	for i, n := range items {
		u, ok := n.(*cast.UnaryOp)
		if !ok {
			t.Fatalf("item %d is %s", i, cast.KindOf(n))
		}
		if u.Op != want[i] {
			t.Errorf("item %d op = %v, want %s", i, u.Op, want[i])
		}
	}
}

func TestConstants(t *testing.T) {
	tests := []struct {
		src      string
		typ, val string
	}{
		{"1;", "int", "1"},
		{"1u;", "unsigned int", "1u"},
		{"1UL;", "unsigned long int", "1UL"},
		{"0x10ll;", "long long int", "0x10ll"},
		{"1.5;", "double", "1.5"},
		{"1.5f;", "float", "1.5f"},
		{"'a';", "char", "'a'"},
		{`"ab" "cd";`, "string", `"abcd"`},
	}
	for _, tt := range tests {
		c, ok := mustItems(t, tt.src)[0].(*cast.Constant)
		if !ok {
			t.Fatalf("%q: not a constant", tt.src)
		}
		if c.Type != tt.typ || c.Value != tt.val {
			t.Errorf("%q: got %v %v, want %s %s", tt.src, c.Type, c.Value, tt.typ, tt.val)
		}
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		src  string
		kind string
	}{
		{"if (a) b = 1; else b = 2;", "If"},
		{"while (a) a--;", "While"},
		{"do a--; while (a);", "DoWhile"},
		{"for (i = 0; i < n; i++) ;", "For"},
		{"for (int i = 0; i < n; i++) {}", "For"},
		{"for (;;) break;", "For"},
		{"return;", "Return"},
		{";", "EmptyStatement"},
		{"{ x = 1; }", "Compound"},
		{"goto out;", "Goto"},
		{"out: x = 1;", "Label"},
		{"switch (x) { case 1: y = 2; break; default: y = 3; }", "Switch"},
		{"continue;", "Continue"},
		{"int a = 1, b;", "Decl"},
	}
	for _, tt := range tests {
		items := mustItems(t, tt.src)
		if got := cast.KindOf(items[0]); got != tt.kind {
			t.Errorf("%q: got %s, want %s", tt.src, got, tt.kind)
		}
	}
}

func TestForDeclarationIsDeclList(t *testing.T) {
	items := mustItems(t, "for (int i = 0, j = 1; i < j; i++) {}")
	f := items[0].(*cast.For)
	dl, ok := f.Init.(*cast.DeclList)
	if !ok {
		t.Fatalf("init is %s, want DeclList", cast.KindOf(f.Init))
	}
	if len(dl.Decls) != 2 {
		t.Errorf("got %d decls, want 2", len(dl.Decls))
	}
	if got := cast.ExprString(f.Next); got != "i++" {
		t.Errorf("next = %q", got)
	}
}

func TestMultipleDeclaratorsSplit(t *testing.T) {
	f := mustParse(t, "int a = 1, *b, c[4];")
	if len(f.Ext) != 3 {
		t.Fatalf("got %d declarations, want 3", len(f.Ext))
	}
	for i, name := range []string{"a", "b", "c"} {
		if d := f.Ext[i].(*cast.Decl); d.Name != name {
			t.Errorf("decl %d name = %v, want %s", i, d.Name, name)
		}
	}
}

func TestTypedefNames(t *testing.T) {
	f := mustParse(t, `
typedef unsigned long size;
size n;
int g(void) { size * p; return 0; }
`)
	if _, ok := f.Ext[0].(*cast.Typedef); !ok {
		t.Fatalf("first decl is %s", cast.KindOf(f.Ext[0]))
	}
	d := f.Ext[1].(*cast.Decl)
	if !reflect.DeepEqual(d.Type.(*cast.TypeDecl).Type.(*cast.IdentifierType).Names, []cast.Value{"size"}) {
		t.Errorf("n has type %#v", d.Type)
	}
	body := f.Ext[2].(*cast.FuncDef).Body.(*cast.Compound)
	if got := chain(body.BlockItems[0].(*cast.Decl).Type); got != "PtrDecl TypeDecl" {
		t.Errorf("size * p parsed as %s", got)
	}
}

func TestStructsAndEnums(t *testing.T) {
	f := mustParse(t, `
struct point { int x, y; unsigned flag : 1; };
union u { int i; float f; } v;
enum color { RED, GREEN = 2, BLUE };
`)
	s := f.Ext[0].(*cast.Decl).Type.(*cast.Struct)
	if s.Name != "point" || len(s.Decls) != 3 {
		t.Fatalf("struct = %#v", s)
	}
	if s.Decls[2].(*cast.Decl).Bitsize == nil {
		t.Error("bit-field width lost")
	}
	v := f.Ext[1].(*cast.Decl)
	if _, ok := v.Type.(*cast.TypeDecl).Type.(*cast.Union); !ok || v.Name != "v" {
		t.Errorf("union decl = %#v", v)
	}
	e := f.Ext[2].(*cast.Decl).Type.(*cast.Enum)
	vals := e.Values.(*cast.EnumeratorList).Enumerators
	if len(vals) != 3 || vals[1].(*cast.Enumerator).Value == nil {
		t.Errorf("enumerators = %#v", vals)
	}
}

func TestInitializers(t *testing.T) {
	f := mustParse(t, "int a[3] = {1, [2] = 3}; struct p q = {.x = 1, .y = {2}};")
	list := f.Ext[0].(*cast.Decl).Init.(*cast.InitList)
	if len(list.Exprs) != 2 {
		t.Fatalf("got %d initializers", len(list.Exprs))
	}
	ni := list.Exprs[1].(*cast.NamedInitializer)
	stripPos(ni)
	want := &cast.NamedInitializer{Name: []cast.Node{intc("2")}, Expr: intc("3")}
	if !reflect.DeepEqual(ni, want) {
		t.Errorf("designated = %#v", ni)
	}
	q := f.Ext[1].(*cast.Decl).Init.(*cast.InitList)
	y := q.Exprs[1].(*cast.NamedInitializer)
	if _, ok := y.Expr.(*cast.InitList); !ok {
		t.Errorf(".y initializer is %s", cast.KindOf(y.Expr))
	}
}

func TestParamForms(t *testing.T) {
	f := mustParse(t, "int f(void); int g(); int h(const char *, ...); int k(a, b) int a; int b; { return a; }")
	args := f.Ext[0].(*cast.Decl).Type.(*cast.FuncDecl).Args.(*cast.ParamList)
	if _, ok := args.Params[0].(*cast.Typename); !ok {
		t.Errorf("f(void) param is %s", cast.KindOf(args.Params[0]))
	}
	if f.Ext[1].(*cast.Decl).Type.(*cast.FuncDecl).Args != nil {
		t.Error("g() has a parameter list")
	}
	h := f.Ext[2].(*cast.Decl).Type.(*cast.FuncDecl).Args.(*cast.ParamList)
	if len(h.Params) != 2 || cast.KindOf(h.Params[1]) != "EllipsisParam" {
		t.Errorf("h params = %#v", h.Params)
	}
	k := f.Ext[3].(*cast.FuncDef)
	if len(k.ParamDecls) != 2 {
		t.Errorf("k has %d parameter declarations", len(k.ParamDecls))
	}
}

func TestPragma(t *testing.T) {
	f := mustParse(t, "#pragma pack(1)\nint x;\n")
	p, ok := f.Ext[0].(*cast.Pragma)
	if !ok || p.String != "pack(1)" {
		t.Fatalf("first ext = %#v", f.Ext[0])
	}
}

func TestCoordinates(t *testing.T) {
	f := mustParse(t, "int main() {\n  x = 1;\n}\n")
	a := f.Ext[0].(*cast.FuncDef).Body.(*cast.Compound).BlockItems[0]
	want := &cast.Coord{File: "t.c", Line: 2, Column: 3}
	if !reflect.DeepEqual(a.Pos(), want) {
		t.Errorf("assignment at %v, want %v", a.Pos(), want)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src        string
		msg        string
		incomplete bool
	}{
		{"int x", "t.c:1:6: unexpected end of file, expected ';'", true},
		{"int f() { x = 1;", "expected '}'", true},
		{"int x = ;", "t.c:1:9: expected expression, got ';'", false},
		{"int 3;", "expected identifier or '(', got integer constant", false},
		{"int x = @;", "illegal input \"@\"", false},
	}
	for _, tt := range tests {
		_, err := ParseFile("t.c", tt.src)
		if err == nil {
			t.Errorf("%q: no error", tt.src)
			continue
		}
		var perr *Error
		if !errors.As(err, &perr) {
			t.Errorf("%q: error %T is not *Error", tt.src, err)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%q: error %q does not contain %q", tt.src, err, tt.msg)
		}
		if IsIncomplete(err) != tt.incomplete {
			t.Errorf("%q: IsIncomplete = %v, want %v", tt.src, IsIncomplete(err), tt.incomplete)
		}
	}
}

func TestParseItemsSeesTypedefs(t *testing.T) {
	f := mustParse(t, "typedef int word;")
	items, err := ParseItems("t.c", "word * w;", f.Ext...)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := items[0].(*cast.Decl); !ok {
		t.Errorf("got %s, want Decl", cast.KindOf(items[0]))
	}
}

func TestParseFileSeesTypedefs(t *testing.T) {
	f := mustParse(t, "typedef int word;")
	if _, err := ParseFile("t.c", "word f(word a) { return a; }"); err == nil {
		t.Fatal("word should not be a type name without the typedef")
	}
	g, err := ParseFile("t.c", "word f(word a) { return a; }", f.Ext...)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Ext[0].(*cast.FuncDef); !ok {
		t.Errorf("got %s, want FuncDef", cast.KindOf(g.Ext[0]))
	}
}
