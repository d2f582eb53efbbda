package lower

import (
	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/minic"
)

// compoundOps maps each compound assignment operator to its binary operator.
var compoundOps = map[minic.Text]minic.Text{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"/=":  "/",
	"%=":  "%",
	"^=":  "^",
	"|=":  "|",
	">>=": ">>",
	"<<=": "<<",
	"&=":  "&",
}

func (l *lowerer) assignment(n *cast.Assignment) (minic.Node, error) {
	f := &fields{l: l, owner: n}
	op := f.term(n.Op)
	target := f.value(n.LValue)
	value := f.value(n.RValue)
	if f.err != nil {
		return nil, f.err
	}
	if o, _ := op.(minic.Text); compoundOps[o] != "" && hasSideEffect(target) {
		return nil, unsupported(n, "side effect in compound assignment target")
	}
	return desugar(n, op, target, value), nil
}

// hasSideEffect reports whether evaluating n assigns or calls. Such a target
// cannot be repeated as the left operand of the rewritten assignment.
func hasSideEffect(n minic.Node) bool {
	found := false
	minic.Walk(n, func(n minic.Node) bool {
		switch n.(type) {
		case *minic.Assignment, *minic.FuncCall:
			found = true
		}
		return !found
	})
	return found
}

// desugar builds the canonical Assignment for op. target is the lowered
// left-hand side; it is shared between the assignment and the synthesized
// operand rather than lowered twice. Callers reject targets for which
// hasSideEffect holds. value is nil for ++ and --.
func desugar(src cast.Node, op minic.Terminal, target, value minic.Node) *minic.Assignment {
	a := &minic.Assignment{Loc: at(src), Target: target}
	o, _ := op.(minic.Text)
	switch o {
	case "=":
		a.Value = value
	case "++", "p++":
		a.Value = &minic.BinaryOp{Loc: at(src), Op: minic.Text("+"), Left: target, Right: one(src)}
	case "--", "p--":
		a.Value = &minic.BinaryOp{Loc: at(src), Op: minic.Text("-"), Left: target, Right: one(src)}
	default:
		if bin, ok := compoundOps[o]; ok {
			a.Value = &minic.BinaryOp{Loc: at(src), Op: bin, Left: target, Right: value}
		} else {
			a.Value = &minic.EmptyStatement{Loc: at(src)}
		}
	}
	return a
}

func one(src cast.Node) *minic.Constant {
	c := minic.IntConst("1")
	c.Loc = at(src)
	return c
}
