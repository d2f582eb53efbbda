package ccfront

import (
	"modernc.org/cc/v3"

	"github.com/tinyrange/minic/internal/cast"
)

func compound(cs *cc.CompoundStatement) (*cast.Compound, error) {
	c := &cast.Compound{Loc: at(cs.Token)}
	for l := cs.BlockItemList; l != nil; l = l.BlockItemList {
		bi := l.BlockItem
		switch bi.Case {
		case cc.BlockItemDecl:
			ds, err := declaration(bi.Declaration)
			if err != nil {
				return nil, err
			}
			c.BlockItems = append(c.BlockItems, ds...)
		case cc.BlockItemStmt:
			s, err := statement(bi.Statement)
			if err != nil {
				return nil, err
			}
			c.BlockItems = append(c.BlockItems, s)
		default:
			return nil, unsupported(bi.Position(), "block item "+bi.Case.String())
		}
	}
	return c, nil
}

func optExpr(e *cc.Expression) (cast.Node, error) {
	if e == nil {
		return nil, nil
	}
	return expr(e)
}

func statement(s *cc.Statement) (cast.Node, error) {
	switch s.Case {
	case cc.StatementCompound:
		return compound(s.CompoundStatement)
	case cc.StatementExpr:
		es := s.ExpressionStatement
		if es.Expression == nil {
			return &cast.EmptyStatement{Loc: at(es.Token)}, nil
		}
		return expr(es.Expression)
	case cc.StatementLabeled:
		return labeled(s.LabeledStatement)
	case cc.StatementSelection:
		return selection(s.SelectionStatement)
	case cc.StatementIteration:
		return iteration(s.IterationStatement)
	case cc.StatementJump:
		return jump(s.JumpStatement)
	}
	return nil, unsupported(s.Position(), "statement "+s.Case.String())
}

func labeled(ls *cc.LabeledStatement) (cast.Node, error) {
	loc := at(ls.Token)
	body, err := statement(ls.Statement)
	if err != nil {
		return nil, err
	}
	switch ls.Case {
	case cc.LabeledStatementLabel:
		return &cast.Label{Loc: loc, Name: text(ls.Token), Stmt: body}, nil
	case cc.LabeledStatementCaseLabel:
		x, err := condExpr(ls.ConstantExpression.ConditionalExpression)
		if err != nil {
			return nil, err
		}
		return &cast.Case{Loc: loc, Expr: x, Stmts: []cast.Node{body}}, nil
	case cc.LabeledStatementDefault:
		return &cast.Default{Loc: loc, Stmts: []cast.Node{body}}, nil
	}
	return nil, unsupported(ls.Position(), "case range")
}

func selection(ss *cc.SelectionStatement) (cast.Node, error) {
	loc := at(ss.Token)
	cond, err := expr(ss.Expression)
	if err != nil {
		return nil, err
	}
	body, err := statement(ss.Statement)
	if err != nil {
		return nil, err
	}
	switch ss.Case {
	case cc.SelectionStatementSwitch:
		return &cast.Switch{Loc: loc, Cond: cond, Stmt: body}, nil
	case cc.SelectionStatementIfElse:
		els, err := statement(ss.Statement2)
		if err != nil {
			return nil, err
		}
		return &cast.If{Loc: loc, Cond: cond, IfTrue: body, IfFalse: els}, nil
	}
	return &cast.If{Loc: loc, Cond: cond, IfTrue: body}, nil
}

func iteration(is *cc.IterationStatement) (cast.Node, error) {
	loc := at(is.Token)
	body, err := statement(is.Statement)
	if err != nil {
		return nil, err
	}
	switch is.Case {
	case cc.IterationStatementWhile, cc.IterationStatementDo:
		cond, err := expr(is.Expression)
		if err != nil {
			return nil, err
		}
		if is.Case == cc.IterationStatementDo {
			return &cast.DoWhile{Loc: loc, Cond: cond, Stmt: body}, nil
		}
		return &cast.While{Loc: loc, Cond: cond, Stmt: body}, nil
	}

	n := &cast.For{Loc: loc, Stmt: body}
	cond, next := is.Expression2, is.Expression3
	if is.Case == cc.IterationStatementForDecl {
		ds, err := declaration(is.Declaration)
		if err != nil {
			return nil, err
		}
		n.Init = &cast.DeclList{Loc: cast.At(coord(is.Declaration.Position())), Decls: ds}
		cond, next = is.Expression, is.Expression2
	} else if n.Init, err = optExpr(is.Expression); err != nil {
		return nil, err
	}
	if n.Cond, err = optExpr(cond); err != nil {
		return nil, err
	}
	if n.Next, err = optExpr(next); err != nil {
		return nil, err
	}
	return n, nil
}

func jump(js *cc.JumpStatement) (cast.Node, error) {
	loc := at(js.Token)
	switch js.Case {
	case cc.JumpStatementBreak:
		return &cast.Break{Loc: loc}, nil
	case cc.JumpStatementContinue:
		return &cast.Continue{Loc: loc}, nil
	case cc.JumpStatementGoto:
		return &cast.Goto{Loc: loc, Name: text(js.Token2)}, nil
	case cc.JumpStatementReturn:
		x, err := optExpr(js.Expression)
		if err != nil {
			return nil, err
		}
		return &cast.Return{Loc: loc, Expr: x}, nil
	}
	return nil, unsupported(js.Position(), "computed goto")
}
