package cast

import (
	"fmt"
	"strings"
)

// ExprString renders an expression subtree as C text. It exists for
// diagnostics and for printers that carry raw expressions, such as array
// dimensions; declarations and statements render as <Kind>.
func ExprString(n Node) string {
	var b strings.Builder
	writeExpr(&b, n)
	return b.String()
}

func writeExpr(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
	case *ID:
		fmt.Fprint(b, n.Name)
	case *Constant:
		fmt.Fprint(b, n.Value)
	case *BinaryOp:
		writeOperand(b, n.Left)
		fmt.Fprintf(b, " %v ", n.Op)
		writeOperand(b, n.Right)
	case *Assignment:
		writeOperand(b, n.LValue)
		fmt.Fprintf(b, " %v ", n.Op)
		writeOperand(b, n.RValue)
	case *UnaryOp:
		op := fmt.Sprint(n.Op)
		switch op {
		case "p++", "p--":
			writeOperand(b, n.Expr)
			b.WriteString(op[1:])
		case "sizeof":
			b.WriteString("sizeof(")
			writeExpr(b, n.Expr)
			b.WriteString(")")
		default:
			b.WriteString(op)
			writeOperand(b, n.Expr)
		}
	case *TernaryOp:
		writeOperand(b, n.Cond)
		b.WriteString(" ? ")
		writeOperand(b, n.IfTrue)
		b.WriteString(" : ")
		writeOperand(b, n.IfFalse)
	case *ArrayRef:
		writeOperand(b, n.Name)
		b.WriteString("[")
		writeExpr(b, n.Subscript)
		b.WriteString("]")
	case *FuncCall:
		writeOperand(b, n.Name)
		b.WriteString("(")
		writeExpr(b, n.Args)
		b.WriteString(")")
	case *StructRef:
		writeOperand(b, n.Name)
		fmt.Fprint(b, n.Type)
		writeExpr(b, n.Field)
	case *ExprList:
		for i, e := range n.Exprs {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, e)
		}
	case *Cast:
		b.WriteString("(")
		writeExpr(b, n.ToType)
		b.WriteString(")")
		writeOperand(b, n.Expr)
	case *Typename:
		if it, ok := n.Type.(*TypeDecl); ok {
			writeExpr(b, it.Type)
		} else {
			fmt.Fprintf(b, "<%s>", KindOf(n.Type))
		}
	case *IdentifierType:
		for i, name := range n.Names {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprint(b, name)
		}
	default:
		fmt.Fprintf(b, "<%s>", KindOf(n))
	}
}

func writeOperand(b *strings.Builder, n Node) {
	switch n.(type) {
	case *ID, *Constant, *ArrayRef, *FuncCall, *StructRef:
		writeExpr(b, n)
	default:
		b.WriteString("(")
		writeExpr(b, n)
		b.WriteString(")")
	}
}
