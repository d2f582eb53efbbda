package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const program = `int g;

int bump(int n) {
	g += n;
	return g++;
}
`

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.c")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunEmits(t *testing.T) {
	path := writeSource(t, "int g;\n\nint bump(int n) {\n\tg += n;\n\treturn g;\n}\n")
	tests := []struct {
		emit string
		want string
	}{
		{"minic", "\tg = g + n;\n"},
		{"tree", "Assignment"},
		{"ir", "global g size=8 elem=8"},
		{"asm", ".globl bump\n"},
	}
	for _, tt := range tests {
		t.Run(tt.emit, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run([]string{"-emit", tt.emit, path}, &stdout, &stderr); code != 0 {
				t.Fatalf("exit %d: %s", code, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("missing %q in:\n%s", tt.want, stdout.String())
			}
		})
	}
}

func TestRunWritesOutputFile(t *testing.T) {
	path := writeSource(t, "int f() { return 1; }\n")
	out := filepath.Join(t.TempDir(), "f.s")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-emit", "asm", "-o", out, path}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "f:\n") || stdout.Len() != 0 {
		t.Errorf("unexpected output file:\n%s\nstdout: %q", data, stdout.String())
	}
}

func TestRunPostfixValues(t *testing.T) {
	path := writeSource(t, program)
	var stdout, stderr bytes.Buffer
	if code := run([]string{path}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "minic: lower error: ") {
		t.Errorf("stderr = %q", stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := run([]string{"-permit-postfix-values", "-j", "4", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "return g = g + 1;") {
		t.Errorf("got:\n%s", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	bad := writeSource(t, "int f( {")
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"no file", nil, 2, "usage: minic"},
		{"bad emit", []string{"-emit", "obj", bad}, 2, "usage: minic"},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.c")}, 1, "minic: read error: "},
		{"syntax", []string{bad}, 1, "minic: parse error: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Fatalf("exit %d, want %d", code, tt.code)
			}
			if !strings.Contains(stderr.String(), tt.msg) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.msg)
			}
		})
	}
}

func TestSession(t *testing.T) {
	var out, errs bytes.Buffer
	s := &session{cfg: &config{emit: "minic"}, out: &out, diag: newDiagnostics(&errs, true)}

	if s.eval("typedef int word;") {
		t.Fatal("session ended early")
	}
	s.eval("word x; x *= 2;")
	if got := out.String(); !strings.Contains(got, "x = x * 2;") {
		t.Errorf("statements: got %q", got)
	}

	out.Reset()
	s.eval(":emit ir")
	s.eval("int f(int a) { return a + 1; }")
	if !strings.Contains(out.String(), "func f(a)") {
		t.Errorf("ir: got %q", out.String())
	}

	if errs.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", errs.String())
	}

	s.eval("goto done;")
	if !strings.Contains(errs.String(), "minic: ") {
		t.Errorf("no diagnostic for rejected input: %q", errs.String())
	}
	if !s.eval(":quit") {
		t.Error(":quit did not end the session")
	}
}

func TestSessionTypedefInDefinition(t *testing.T) {
	var out, errs bytes.Buffer
	s := &session{cfg: &config{emit: "minic"}, out: &out, diag: newDiagnostics(&errs, true)}
	s.eval("typedef int T;")
	s.eval("T f(T a) { return a; }")
	if errs.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", errs.String())
	}
	if want := "T f(T a)\n{\n\treturn a;\n}\n"; out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
	if !incomplete("T g(T a) {", s.typedef...) {
		t.Error("open definition using a session typedef should be incomplete")
	}
	if incomplete("T g(T a) {") {
		t.Error("without the typedef the input is a syntax error")
	}
}

func TestIncomplete(t *testing.T) {
	for src, want := range map[string]bool{
		"int f() {":     true,
		"if (x) {":      true,
		"x = 1;":        false,
		"int f() { }":   false,
		"int f( ) ) {}": false,
	} {
		if got := incomplete(src); got != want {
			t.Errorf("incomplete(%q) = %v, want %v", src, got, want)
		}
	}
}
