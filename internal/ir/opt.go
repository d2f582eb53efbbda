package ir

// Basic optimizations: constant folding and DCE.

// Optimize applies simple SSA-based optimizations to all functions.
func Optimize(m *Module) {
	for _, f := range m.Funcs {
		constFoldFunc(f)
		dceFunc(f)
	}
}

func buildUses(f *Function) map[ValueID]int {
	uses := map[ValueID]int{}
	for _, b := range f.Blocks {
		for _, ins := range b.Instrs {
			switch ins.Val.Op {
			case OpJmp:
				continue
			case OpJnz:
				uses[ins.Val.Args[0]]++
				continue
			}
			for _, a := range ins.Val.Args {
				uses[a]++
			}
		}
	}
	return uses
}

func constFoldFunc(f *Function) {
	// Local rewrite when both operands are constants.
	for _, b := range f.Blocks {
		for i, ins := range b.Instrs {
			switch ins.Val.Op {
			case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpAnd, OpOr, OpXor, OpShl, OpShr,
				OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			default:
				continue
			}
			if len(ins.Val.Args) != 2 {
				continue
			}
			a := findConst(b, ins.Val.Args[0])
			c := findConst(b, ins.Val.Args[1])
			if a == nil || c == nil {
				continue
			}
			k, ok := fold(ins.Val.Op, *a, *c)
			if !ok {
				continue
			}
			// Replace with const
			b.Instrs[i].Val.Op = OpConst
			b.Instrs[i].Val.Args = nil
			b.Instrs[i].Val.Const = k
		}
	}
}

func fold(op Op, a, c int64) (int64, bool) {
	switch op {
	case OpAdd:
		return a + c, true
	case OpSub:
		return a - c, true
	case OpMul:
		return a * c, true
	case OpDiv, OpMod:
		if c == 0 {
			return 0, false
		}
		if op == OpDiv {
			return a / c, true
		}
		return a % c, true
	case OpAnd:
		return a & c, true
	case OpOr:
		return a | c, true
	case OpXor:
		return a ^ c, true
	case OpShl:
		return a << uint64(c&63), true
	case OpShr:
		return a >> uint64(c&63), true
	case OpEq:
		return b2i(a == c), true
	case OpNe:
		return b2i(a != c), true
	case OpLt:
		return b2i(a < c), true
	case OpLe:
		return b2i(a <= c), true
	case OpGt:
		return b2i(a > c), true
	case OpGe:
		return b2i(a >= c), true
	}
	return 0, false
}

func findConst(b *BasicBlock, id ValueID) *int64 {
	for _, ins := range b.Instrs {
		if ins.Res == id && ins.Val.Op == OpConst {
			v := ins.Val.Const
			return &v
		}
	}
	return nil
}

func dceFunc(f *Function) {
	// Remove instructions whose results are unused and have no side effects.
	// Iterate to fixed point since removing can cascade.
	changed := true
	for changed {
		changed = false
		uses := buildUses(f)
		for _, b := range f.Blocks {
			out := b.Instrs[:0]
			for _, ins := range b.Instrs {
				if ins.Res < 0 || ins.Val.Op == OpParam || ins.Val.Op == OpCall {
					out = append(out, ins)
					continue
				}
				if uses[ins.Res] == 0 {
					changed = true
					continue
				}
				out = append(out, ins)
			}
			b.Instrs = out
		}
	}
}
