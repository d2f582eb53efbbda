package minic

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/tinyrange/minic/internal/cast"
)

func kindOf(n any) string {
	s := fmt.Sprintf("%T", n)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// Dump writes the structure of n to w, one node per line, children indented
// under their parent:
//
//	Assignment
//	  Target: ID(Name=i)
//	  Value: BinaryOp(Op=+)
//	    Left: ID(Name=i)
//	    Right: Constant(Type=int, Value=1)
func Dump(w io.Writer, n Node) error {
	var b strings.Builder
	dump(&b, "", n, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

var (
	nodeType     = reflect.TypeOf((*Node)(nil)).Elem()
	terminalType = reflect.TypeOf((*Terminal)(nil)).Elem()
	castNodeType = reflect.TypeOf((*cast.Node)(nil)).Elem()
)

func dump(b *strings.Builder, label string, n Node, depth int) {
	pad := strings.Repeat("  ", depth)
	if label != "" {
		label += ": "
	}
	if n == nil {
		fmt.Fprintf(b, "%s%s<nil>\n", pad, label)
		return
	}
	v := reflect.ValueOf(n).Elem()
	t := v.Type()

	var attrs []string
	type child struct {
		label string
		node  Node
	}
	var children []child
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			continue
		}
		fv := v.Field(i)
		switch {
		case f.Type == terminalType:
			if !fv.IsNil() {
				attrs = append(attrs, f.Name+"="+fv.Interface().(Terminal).String())
			}
		case f.Type.Kind() == reflect.Slice && f.Type.Elem() == terminalType:
			parts := make([]string, fv.Len())
			for j := range parts {
				t, _ := fv.Index(j).Interface().(Terminal)
				parts[j] = TextOf(t)
			}
			attrs = append(attrs, f.Name+"=["+strings.Join(parts, " ")+"]")
		case f.Type == castNodeType:
			if !fv.IsNil() {
				attrs = append(attrs, f.Name+"="+cast.ExprString(fv.Interface().(cast.Node)))
			}
		case f.Type == nodeType:
			if !fv.IsNil() {
				children = append(children, child{f.Name, fv.Interface().(Node)})
			}
		case f.Type.Kind() == reflect.Slice && f.Type.Elem() == nodeType:
			for j := 0; j < fv.Len(); j++ {
				var c Node
				if !fv.Index(j).IsNil() {
					c = fv.Index(j).Interface().(Node)
				}
				children = append(children, child{fmt.Sprintf("%s[%d]", f.Name, j), c})
			}
		}
	}
	fmt.Fprintf(b, "%s%s%s", pad, label, t.Name())
	if len(attrs) > 0 {
		fmt.Fprintf(b, "(%s)", strings.Join(attrs, ", "))
	}
	b.WriteByte('\n')
	for _, c := range children {
		dump(b, c.label, c.node, depth+1)
	}
}
