package types

import (
	"fmt"
	"strings"
)

// Kind represents a minimal set of C-like types we care about now.
type Kind int

const (
	Int8 Kind = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Ptr
	Byte // alias for Uint8
	Void
	Array
)

// Type is a minimal description of a value's type.
// Every integer lives in a 64-bit register; the kind decides how it is
// loaded from and stored to memory.
type Type struct {
	K    Kind
	Elem *Type // non-nil only when K==Ptr or K==Array
	Len  int   // element count when K==Array; 0 means unknown
}

func Int() Type    { return Type{K: Int64} }
func Int8T() Type  { return Type{K: Int8} }
func Int16T() Type { return Type{K: Int16} }
func Int32T() Type { return Type{K: Int32} }
func Uint8T() Type  { return Type{K: Uint8} }
func Uint16T() Type { return Type{K: Uint16} }
func Uint32T() Type { return Type{K: Uint32} }
func Uint64T() Type { return Type{K: Uint64} }
func VoidT() Type   { return Type{K: Void} }

func PointerTo(elem Type) Type { return Type{K: Ptr, Elem: &elem} }

func ArrayOf(elem Type, n int) Type { return Type{K: Array, Elem: &elem, Len: n} }

// Size returns the size in bytes for this type on our target.
func (t Type) Size() int {
	switch t.K {
	case Int8, Uint8, Byte:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32:
		return 4
	case Int64, Uint64:
		return 8
	case Ptr:
		// 64-bit pointers
		return 8
	case Void:
		return 0
	case Array:
		if t.Elem == nil {
			return 0
		}
		return t.Len * t.Elem.Size()
	default:
		return 8
	}
}

// ElemSize returns the pointee size if pointer, else 0. Arithmetic on a
// void pointer steps one byte at a time.
func (t Type) ElemSize() int {
	if t.K == Ptr && t.Elem != nil {
		if t.Elem.K == Void {
			return 1
		}
		return t.Elem.Size()
	}
	return 0
}

func (t Type) IsPointer() bool { return t.K == Ptr }
func (t Type) IsArray() bool   { return t.K == Array }

// Decay turns an array into a pointer to its first element.
func (t Type) Decay() Type {
	if t.K == Array && t.Elem != nil {
		return PointerTo(*t.Elem)
	}
	return t
}

func ByteT() Type { return Type{K: Byte} }
func CharT() Type { return Type{K: Byte} } // char is unsigned byte by default

// IsSigned returns true for signed integer types
func (t Type) IsSigned() bool {
	switch t.K {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsUnsigned returns true for unsigned integer types
func (t Type) IsUnsigned() bool {
	switch t.K {
	case Uint8, Uint16, Uint32, Uint64, Byte:
		return true
	default:
		return false
	}
}

// IsInteger returns true for any integer type
func (t Type) IsInteger() bool {
	return t.IsSigned() || t.IsUnsigned()
}

var kindNames = map[Kind]string{
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Byte: "char", Void: "void",
}

func (t Type) String() string {
	switch t.K {
	case Ptr:
		return "*" + t.Elem.String()
	case Array:
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem.String())
	}
	return kindNames[t.K]
}

// FromNames converts the type specifier words of a declaration, such as
// ["unsigned", "long", "int"], into a Type. int and long are 64 bits wide.
func FromNames(names []string) (Type, error) {
	var signed, unsigned, char, short, long, integer, void, boolean int
	for _, n := range names {
		switch n {
		case "signed":
			signed++
		case "unsigned":
			unsigned++
		case "char":
			char++
		case "short":
			short++
		case "long":
			long++
		case "int":
			integer++
		case "void":
			void++
		case "_Bool":
			boolean++
		case "float", "double":
			return Type{}, fmt.Errorf("floating type %s not supported", n)
		default:
			return Type{}, fmt.Errorf("unknown type name %s", n)
		}
	}
	words := strings.Join(names, " ")
	if signed > 0 && unsigned > 0 || signed > 1 || unsigned > 1 || integer > 1 || long > 2 {
		return Type{}, fmt.Errorf("invalid type %q", words)
	}
	base := char + short + void + boolean
	if base > 1 || base == 1 && long > 0 || (void+boolean) > 0 && (integer+signed+unsigned) > 0 ||
		char > 0 && integer > 0 {
		return Type{}, fmt.Errorf("invalid type %q", words)
	}
	switch {
	case void > 0:
		return VoidT(), nil
	case boolean > 0:
		return Uint8T(), nil
	case char > 0:
		switch {
		case signed > 0:
			return Int8T(), nil
		case unsigned > 0:
			return Uint8T(), nil
		}
		return CharT(), nil
	case short > 0:
		if unsigned > 0 {
			return Uint16T(), nil
		}
		return Int16T(), nil
	case len(names) == 0:
		return Type{}, fmt.Errorf("missing type specifier")
	}
	if unsigned > 0 {
		return Uint64T(), nil
	}
	return Int(), nil
}
