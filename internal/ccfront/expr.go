package ccfront

import (
	"modernc.org/cc/v3"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/parser"
)

// expr converts a comma expression. More than one operand yields an
// ExprList.
func expr(e *cc.Expression) (cast.Node, error) {
	var xs []cast.Node
	for ; e != nil; e = e.Expression {
		x, err := assignExpr(e.AssignmentExpression)
		if err != nil {
			return nil, err
		}
		xs = append(xs, x)
	}
	// the comma chain nests to the left, so the operands arrive last first
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
	if len(xs) == 1 {
		return xs[0], nil
	}
	return &cast.ExprList{Loc: cast.At(xs[0].Pos()), Exprs: xs}, nil
}

var assignOps = map[cc.AssignmentExpressionCase]string{
	cc.AssignmentExpressionAssign: "=",
	cc.AssignmentExpressionMul:    "*=",
	cc.AssignmentExpressionDiv:    "/=",
	cc.AssignmentExpressionMod:    "%=",
	cc.AssignmentExpressionAdd:    "+=",
	cc.AssignmentExpressionSub:    "-=",
	cc.AssignmentExpressionLsh:    "<<=",
	cc.AssignmentExpressionRsh:    ">>=",
	cc.AssignmentExpressionAnd:    "&=",
	cc.AssignmentExpressionXor:    "^=",
	cc.AssignmentExpressionOr:     "|=",
}

func assignExpr(a *cc.AssignmentExpression) (cast.Node, error) {
	if a.Case == cc.AssignmentExpressionCond {
		return condExpr(a.ConditionalExpression)
	}
	lv, err := unary(a.UnaryExpression)
	if err != nil {
		return nil, err
	}
	rv, err := assignExpr(a.AssignmentExpression)
	if err != nil {
		return nil, err
	}
	return &cast.Assignment{Loc: cast.At(lv.Pos()), Op: assignOps[a.Case], LValue: lv, RValue: rv}, nil
}

func condExpr(c *cc.ConditionalExpression) (cast.Node, error) {
	cond, err := logicalOr(c.LogicalOrExpression)
	if err != nil || c.Case == cc.ConditionalExpressionLOr {
		return cond, err
	}
	t, err := expr(c.Expression)
	if err != nil {
		return nil, err
	}
	f, err := condExpr(c.ConditionalExpression)
	if err != nil {
		return nil, err
	}
	return &cast.TernaryOp{Loc: cast.At(cond.Pos()), Cond: cond, IfTrue: t, IfFalse: f}, nil
}

func binary(op string, l, r cast.Node) cast.Node {
	return &cast.BinaryOp{Loc: cast.At(l.Pos()), Op: op, Left: l, Right: r}
}

// pair converts the two operands of one binary level. The grammar keeps the
// level's own operator and operands in the node; each level is converted by
// its own function below.
func pair(l, r func() (cast.Node, error)) (cast.Node, cast.Node, error) {
	x, err := l()
	if err != nil {
		return nil, nil, err
	}
	y, err := r()
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func logicalOr(n *cc.LogicalOrExpression) (cast.Node, error) {
	if n.Case == cc.LogicalOrExpressionLAnd {
		return logicalAnd(n.LogicalAndExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return logicalOr(n.LogicalOrExpression) },
		func() (cast.Node, error) { return logicalAnd(n.LogicalAndExpression) })
	if err != nil {
		return nil, err
	}
	return binary("||", l, r), nil
}

func logicalAnd(n *cc.LogicalAndExpression) (cast.Node, error) {
	if n.Case == cc.LogicalAndExpressionOr {
		return inclusiveOr(n.InclusiveOrExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return logicalAnd(n.LogicalAndExpression) },
		func() (cast.Node, error) { return inclusiveOr(n.InclusiveOrExpression) })
	if err != nil {
		return nil, err
	}
	return binary("&&", l, r), nil
}

func inclusiveOr(n *cc.InclusiveOrExpression) (cast.Node, error) {
	if n.Case == cc.InclusiveOrExpressionXor {
		return exclusiveOr(n.ExclusiveOrExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return inclusiveOr(n.InclusiveOrExpression) },
		func() (cast.Node, error) { return exclusiveOr(n.ExclusiveOrExpression) })
	if err != nil {
		return nil, err
	}
	return binary("|", l, r), nil
}

func exclusiveOr(n *cc.ExclusiveOrExpression) (cast.Node, error) {
	if n.Case == cc.ExclusiveOrExpressionAnd {
		return and(n.AndExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return exclusiveOr(n.ExclusiveOrExpression) },
		func() (cast.Node, error) { return and(n.AndExpression) })
	if err != nil {
		return nil, err
	}
	return binary("^", l, r), nil
}

func and(n *cc.AndExpression) (cast.Node, error) {
	if n.Case == cc.AndExpressionEq {
		return equality(n.EqualityExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return and(n.AndExpression) },
		func() (cast.Node, error) { return equality(n.EqualityExpression) })
	if err != nil {
		return nil, err
	}
	return binary("&", l, r), nil
}

func equality(n *cc.EqualityExpression) (cast.Node, error) {
	if n.Case == cc.EqualityExpressionRel {
		return relational(n.RelationalExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return equality(n.EqualityExpression) },
		func() (cast.Node, error) { return relational(n.RelationalExpression) })
	if err != nil {
		return nil, err
	}
	op := "=="
	if n.Case == cc.EqualityExpressionNeq {
		op = "!="
	}
	return binary(op, l, r), nil
}

var relOps = map[cc.RelationalExpressionCase]string{
	cc.RelationalExpressionLt:  "<",
	cc.RelationalExpressionGt:  ">",
	cc.RelationalExpressionLeq: "<=",
	cc.RelationalExpressionGeq: ">=",
}

func relational(n *cc.RelationalExpression) (cast.Node, error) {
	if n.Case == cc.RelationalExpressionShift {
		return shift(n.ShiftExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return relational(n.RelationalExpression) },
		func() (cast.Node, error) { return shift(n.ShiftExpression) })
	if err != nil {
		return nil, err
	}
	return binary(relOps[n.Case], l, r), nil
}

func shift(n *cc.ShiftExpression) (cast.Node, error) {
	if n.Case == cc.ShiftExpressionAdd {
		return additive(n.AdditiveExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return shift(n.ShiftExpression) },
		func() (cast.Node, error) { return additive(n.AdditiveExpression) })
	if err != nil {
		return nil, err
	}
	op := "<<"
	if n.Case == cc.ShiftExpressionRsh {
		op = ">>"
	}
	return binary(op, l, r), nil
}

func additive(n *cc.AdditiveExpression) (cast.Node, error) {
	if n.Case == cc.AdditiveExpressionMul {
		return multiplicative(n.MultiplicativeExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return additive(n.AdditiveExpression) },
		func() (cast.Node, error) { return multiplicative(n.MultiplicativeExpression) })
	if err != nil {
		return nil, err
	}
	op := "+"
	if n.Case == cc.AdditiveExpressionSub {
		op = "-"
	}
	return binary(op, l, r), nil
}

var mulOps = map[cc.MultiplicativeExpressionCase]string{
	cc.MultiplicativeExpressionMul: "*",
	cc.MultiplicativeExpressionDiv: "/",
	cc.MultiplicativeExpressionMod: "%",
}

func multiplicative(n *cc.MultiplicativeExpression) (cast.Node, error) {
	if n.Case == cc.MultiplicativeExpressionCast {
		return castExpr(n.CastExpression)
	}
	l, r, err := pair(
		func() (cast.Node, error) { return multiplicative(n.MultiplicativeExpression) },
		func() (cast.Node, error) { return castExpr(n.CastExpression) })
	if err != nil {
		return nil, err
	}
	return binary(mulOps[n.Case], l, r), nil
}

func castExpr(n *cc.CastExpression) (cast.Node, error) {
	if n.Case == cc.CastExpressionUnary {
		return unary(n.UnaryExpression)
	}
	tn, err := typeName(n.TypeName)
	if err != nil {
		return nil, err
	}
	x, err := castExpr(n.CastExpression)
	if err != nil {
		return nil, err
	}
	return &cast.Cast{Loc: at(n.Token), ToType: tn, Expr: x}, nil
}

var unaryOps = map[cc.UnaryExpressionCase]string{
	cc.UnaryExpressionAddrof: "&",
	cc.UnaryExpressionDeref:  "*",
	cc.UnaryExpressionPlus:   "+",
	cc.UnaryExpressionMinus:  "-",
	cc.UnaryExpressionCpl:    "~",
	cc.UnaryExpressionNot:    "!",
}

func unary(n *cc.UnaryExpression) (cast.Node, error) {
	loc := at(n.Token)
	switch n.Case {
	case cc.UnaryExpressionPostfix:
		return postfix(n.PostfixExpression)
	case cc.UnaryExpressionInc, cc.UnaryExpressionDec:
		x, err := unary(n.UnaryExpression)
		if err != nil {
			return nil, err
		}
		op := "++"
		if n.Case == cc.UnaryExpressionDec {
			op = "--"
		}
		return &cast.UnaryOp{Loc: loc, Op: op, Expr: x}, nil
	case cc.UnaryExpressionAddrof, cc.UnaryExpressionDeref, cc.UnaryExpressionPlus,
		cc.UnaryExpressionMinus, cc.UnaryExpressionCpl, cc.UnaryExpressionNot:
		x, err := castExpr(n.CastExpression)
		if err != nil {
			return nil, err
		}
		return &cast.UnaryOp{Loc: loc, Op: unaryOps[n.Case], Expr: x}, nil
	case cc.UnaryExpressionSizeofExpr:
		x, err := unary(n.UnaryExpression)
		if err != nil {
			return nil, err
		}
		return &cast.UnaryOp{Loc: loc, Op: "sizeof", Expr: x}, nil
	case cc.UnaryExpressionSizeofType:
		tn, err := typeName(n.TypeName)
		if err != nil {
			return nil, err
		}
		return &cast.UnaryOp{Loc: loc, Op: "sizeof", Expr: tn}, nil
	}
	return nil, unsupported(n.Position(), "unary expression "+n.Case.String())
}

func postfix(n *cc.PostfixExpression) (cast.Node, error) {
	if n.Case == cc.PostfixExpressionPrimary {
		return primary(n.PrimaryExpression)
	}
	if n.Case == cc.PostfixExpressionComplit {
		tn, err := typeName(n.TypeName)
		if err != nil {
			return nil, err
		}
		init, err := initList(at(n.Token3), n.InitializerList)
		if err != nil {
			return nil, err
		}
		return &cast.CompoundLiteral{Loc: at(n.Token), Type: tn, Init: init}, nil
	}
	switch n.Case {
	case cc.PostfixExpressionIndex, cc.PostfixExpressionCall, cc.PostfixExpressionSelect,
		cc.PostfixExpressionPSelect, cc.PostfixExpressionInc, cc.PostfixExpressionDec:
	default:
		return nil, unsupported(n.Position(), "postfix expression "+n.Case.String())
	}
	x, err := postfix(n.PostfixExpression)
	if err != nil {
		return nil, err
	}
	loc := cast.At(x.Pos())
	switch n.Case {
	case cc.PostfixExpressionIndex:
		sub, err := expr(n.Expression)
		if err != nil {
			return nil, err
		}
		return &cast.ArrayRef{Loc: loc, Name: x, Subscript: sub}, nil
	case cc.PostfixExpressionCall:
		call := &cast.FuncCall{Loc: loc, Name: x}
		if n.ArgumentExpressionList != nil {
			args := &cast.ExprList{}
			for l := n.ArgumentExpressionList; l != nil; l = l.ArgumentExpressionList {
				a, err := assignExpr(l.AssignmentExpression)
				if err != nil {
					return nil, err
				}
				args.Exprs = append(args.Exprs, a)
			}
			args.Loc = cast.At(args.Exprs[0].Pos())
			call.Args = args
		}
		return call, nil
	case cc.PostfixExpressionSelect, cc.PostfixExpressionPSelect:
		kind := "."
		if n.Case == cc.PostfixExpressionPSelect {
			kind = "->"
		}
		field := &cast.ID{Loc: at(n.Token2), Name: text(n.Token2)}
		return &cast.StructRef{Loc: loc, Name: x, Type: kind, Field: field}, nil
	case cc.PostfixExpressionInc:
		return &cast.UnaryOp{Loc: loc, Op: "p++", Expr: x}, nil
	default:
		return &cast.UnaryOp{Loc: loc, Op: "p--", Expr: x}, nil
	}
}

func primary(n *cc.PrimaryExpression) (cast.Node, error) {
	loc := at(n.Token)
	lex := text(n.Token)
	switch n.Case {
	case cc.PrimaryExpressionIdent, cc.PrimaryExpressionEnum:
		return &cast.ID{Loc: loc, Name: lex}, nil
	case cc.PrimaryExpressionInt:
		return &cast.Constant{Loc: loc, Type: parser.IntConstantType(lex), Value: lex}, nil
	case cc.PrimaryExpressionFloat:
		return &cast.Constant{Loc: loc, Type: parser.FloatConstantType(lex), Value: lex}, nil
	case cc.PrimaryExpressionChar:
		return &cast.Constant{Loc: loc, Type: "char", Value: lex}, nil
	case cc.PrimaryExpressionString:
		return &cast.Constant{Loc: loc, Type: "string", Value: lex}, nil
	case cc.PrimaryExpressionExpr:
		return expr(n.Expression)
	}
	return nil, unsupported(n.Position(), "primary expression "+n.Case.String())
}
