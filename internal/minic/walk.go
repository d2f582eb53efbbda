package minic

// Children returns the direct child nodes of n in field order. Absent
// children are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch n := n.(type) {
	case *Program:
		add(n.Ext...)
	case *Decl:
		add(n.Type, n.Init)
	case *DeclList:
		add(n.Decls...)
	case *ArrayDecl:
		add(n.Type)
	case *PtrDecl:
		add(n.Type)
	case *FuncDecl:
		add(n.Args, n.Type)
	case *FuncDef:
		add(n.Decl)
		add(n.ParamDecls...)
		add(n.Body)
	case *ParamList:
		add(n.Params...)
	case *Typename:
		add(n.Type)
	case *TypeDecl:
		add(n.Type)
	case *Block:
		add(n.Items...)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *While:
		add(n.Cond, n.Body)
	case *DoWhile:
		add(n.Body, n.Cond)
	case *For:
		add(n.Init, n.Cond, n.Next, n.Body)
	case *Return:
		add(n.Expr)
	case *Assignment:
		add(n.Target, n.Value)
	case *BinaryOp:
		add(n.Left, n.Right)
	case *UnaryOp:
		add(n.Expr)
	case *TernaryOp:
		add(n.Cond, n.Then, n.Else)
	case *ArrayRef:
		add(n.Name, n.Subscript)
	case *FuncCall:
		add(n.Name, n.Args)
	case *InitList:
		add(n.Exprs...)
	case *NamedInitializer:
		add(n.Name...)
		add(n.Expr)
	case *ExprList:
		add(n.Exprs...)
	}
	return out
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
