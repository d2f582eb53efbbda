package types

import (
	"strings"
	"testing"
)

func TestFromNames(t *testing.T) {
	tests := []struct {
		names []string
		want  Type
	}{
		{[]string{"int"}, Int()},
		{[]string{"long"}, Int()},
		{[]string{"long", "long", "int"}, Int()},
		{[]string{"unsigned"}, Uint64T()},
		{[]string{"unsigned", "long", "int"}, Uint64T()},
		{[]string{"signed", "int"}, Int()},
		{[]string{"char"}, CharT()},
		{[]string{"signed", "char"}, Int8T()},
		{[]string{"unsigned", "char"}, Uint8T()},
		{[]string{"short"}, Int16T()},
		{[]string{"unsigned", "short", "int"}, Uint16T()},
		{[]string{"void"}, VoidT()},
		{[]string{"_Bool"}, Uint8T()},
	}
	for _, tt := range tests {
		got, err := FromNames(tt.names)
		if err != nil {
			t.Errorf("%v: %v", tt.names, err)
			continue
		}
		if got.K != tt.want.K {
			t.Errorf("%v: got %v, want %v", tt.names, got, tt.want)
		}
	}
}

func TestFromNamesRejects(t *testing.T) {
	tests := []struct {
		names []string
		msg   string
	}{
		{[]string{"double"}, "floating type double not supported"},
		{[]string{"size_t"}, "unknown type name size_t"},
		{[]string{"signed", "unsigned"}, "invalid type"},
		{[]string{"char", "short"}, "invalid type"},
		{[]string{"long", "char"}, "invalid type"},
		{[]string{"void", "int"}, "invalid type"},
		{nil, "missing type specifier"},
	}
	for _, tt := range tests {
		_, err := FromNames(tt.names)
		if err == nil || !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%v: got %v, want error containing %q", tt.names, err, tt.msg)
		}
	}
}

func TestSizes(t *testing.T) {
	arr := ArrayOf(ArrayOf(Int16T(), 3), 4)
	if got := arr.Size(); got != 24 {
		t.Errorf("[4][3]int16 size = %d, want 24", got)
	}
	if got := PointerTo(VoidT()).ElemSize(); got != 1 {
		t.Errorf("void* elem size = %d, want 1", got)
	}
	d := ArrayOf(CharT(), 8).Decay()
	if !d.IsPointer() || d.ElemSize() != 1 {
		t.Errorf("decayed char[8] = %v", d)
	}
	if got := PointerTo(ArrayOf(Int(), 2)).String(); got != "*[2]int64" {
		t.Errorf("String = %q", got)
	}
}
