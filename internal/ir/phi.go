package ir

// PhiEliminate lowers OpPhi nodes into copies on incoming edges.
// Each edge copies through fresh temporaries first so that phis reading
// one another observe the values from before the edge.
func PhiEliminate(f *Function) {
	for _, b := range f.Blocks {
		// collect phi instructions at block start
		var phis []Instr
		idx := 0
		for idx < len(b.Instrs) && b.Instrs[idx].Val.Op == OpPhi {
			phis = append(phis, b.Instrs[idx])
			idx++
		}
		if len(phis) == 0 {
			continue
		}
		preds := append([]*BasicBlock(nil), b.Preds...)
		for pi, pred := range preds {
			ip := pred
			if isCritical(pred, b) {
				ip = splitCriticalEdge(f, pred, b)
			}
			var copies []Instr
			tmps := make([]ValueID, len(phis))
			for i, phi := range phis {
				tmps[i] = f.NextID
				f.NextID++
				copies = append(copies, Instr{Res: tmps[i], Val: Value{ID: tmps[i], Op: OpCopy, Args: []ValueID{phi.Val.Args[pi]}}})
			}
			for i, phi := range phis {
				copies = append(copies, Instr{Res: phi.Res, Val: Value{ID: phi.Res, Op: OpCopy, Args: []ValueID{tmps[i]}}})
			}
			insertBeforeTerminator(ip, copies)
		}
		// Remove phi nodes from b
		b.Instrs = b.Instrs[idx:]
	}
}

func insertBeforeTerminator(b *BasicBlock, ins []Instr) {
	at := len(b.Instrs)
	if b.terminated() {
		at--
	}
	out := make([]Instr, 0, len(b.Instrs)+len(ins))
	out = append(out, b.Instrs[:at]...)
	out = append(out, ins...)
	out = append(out, b.Instrs[at:]...)
	b.Instrs = out
}

func isCritical(p, s *BasicBlock) bool {
	return len(p.Succs) > 1 && len(s.Preds) > 1
}

// splitCriticalEdge redirects p->s through a new block and retargets p's
// branch at it.
func splitCriticalEdge(f *Function, p, s *BasicBlock) *BasicBlock {
	si := ValueID(blockIndexOf(f, s))
	nb := f.newBlock(p.Name + "_to_" + s.Name)
	ni := ValueID(blockIndexOf(f, nb))
	for i, x := range p.Succs {
		if x == s {
			p.Succs[i] = nb
		}
	}
	nb.Preds = []*BasicBlock{p}
	for i, x := range s.Preds {
		if x == p {
			s.Preds[i] = nb
		}
	}
	nb.Succs = []*BasicBlock{s}
	if len(p.Instrs) > 0 {
		term := &p.Instrs[len(p.Instrs)-1].Val
		switch term.Op {
		case OpJnz:
			for i := 1; i < 3; i++ {
				if term.Args[i] == si {
					term.Args[i] = ni
				}
			}
		case OpJmp:
			term.Args[0] = ni
		}
	}
	nb.Instrs = []Instr{{Res: -1, Val: Value{Op: OpJmp, Args: []ValueID{si}}}}
	return nb
}

func blockIndexOf(f *Function, b *BasicBlock) int {
	for i, bb := range f.Blocks {
		if bb == b {
			return i
		}
	}
	return -1
}
