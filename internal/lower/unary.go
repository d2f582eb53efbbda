package lower

import (
	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/minic"
)

// unary rewrites ++ and -- into assignments and keeps every other unary
// operator as is. Prefix and postfix forms produce the same Assignment, so a
// postfix operator whose value is consumed would change meaning; those are
// rejected unless the options permit them.
func (l *lowerer) unary(n *cast.UnaryOp, pos position) (minic.Node, error) {
	op, err := l.terminal(n, n.Op)
	if err != nil {
		return nil, err
	}
	switch o, _ := op.(minic.Text); o {
	case "p++", "p--":
		if pos != stmtPos && !l.opts.PermitPostfixValues {
			return nil, unsupported(n, "postfix "+string(o[1:])+" used as a value")
		}
		fallthrough
	case "++", "--":
		x, err := l.node(n.Expr, valuePos)
		if err != nil {
			return nil, err
		}
		if hasSideEffect(x) {
			return nil, unsupported(n, "side effect in "+string(o[len(o)-2:])+" operand")
		}
		return desugar(n, op, x, nil), nil
	}
	x, err := l.node(n.Expr, valuePos)
	if err != nil {
		return nil, err
	}
	return &minic.UnaryOp{Loc: at(n), Op: op, Expr: x}, nil
}
