package x86_64

import (
	"sort"

	"github.com/tinyrange/minic/internal/ir"
)

// Linear-scan register allocation over block-local values.
// %rax, %rcx and %rdx are emitter scratch (division, shifts, returns), so
// they are never handed out. Values that cross a block boundary, have more
// than one definition or arrive as parameters stay in their stack slot.
// Small constants are immediates and need no home at all.
var allocableRegs = []string{"%r8", "%r9", "%r10", "%r11", "%rsi", "%rdi"}

type allocation struct {
	regOf map[ir.ValueID]string
}

type liveInterval struct {
	id    ir.ValueID
	start int
	end   int
	spill bool // true if this interval should be spilled
}

func allocateRegisters(f *ir.Function) allocation {
	alloc := allocation{regOf: make(map[ir.ValueID]string)}

	// Build a global instruction numbering across all blocks
	var allInstrs []*ir.Instr
	blockOf := map[int]int{}
	for bi, b := range f.Blocks {
		for i := range b.Instrs {
			blockOf[len(allInstrs)] = bi
			allInstrs = append(allInstrs, &b.Instrs[i])
		}
	}
	if len(allInstrs) == 0 {
		return alloc
	}

	var callInstrNums []int
	defAt := make(map[ir.ValueID]int)
	defs := make(map[ir.ValueID]int)
	lastUseAt := make(map[ir.ValueID]int)
	noReg := make(map[ir.ValueID]bool)
	for i, ins := range allInstrs {
		switch ins.Val.Op {
		case ir.OpCall:
			callInstrNums = append(callInstrNums, i)
		case ir.OpParam:
			noReg[ins.Res] = true
		case ir.OpConst:
			if isImm32(ins.Val.Const) {
				noReg[ins.Res] = true
			}
		}
		if ins.Res >= 0 {
			defs[ins.Res]++
			if _, exists := defAt[ins.Res]; !exists {
				defAt[ins.Res] = i
				lastUseAt[ins.Res] = i
			}
		}
		for _, arg := range uses(ins) {
			lastUseAt[arg] = i
			if d, ok := defAt[arg]; !ok || blockOf[d] != blockOf[i] {
				noReg[arg] = true
			}
		}
	}

	var intervals []liveInterval
	for id, def := range defAt {
		end := lastUseAt[id]
		if end <= def || defs[id] > 1 || noReg[id] {
			continue
		}
		interval := liveInterval{id: id, start: def, end: end}
		// Everything but %rax is clobbered by a call; keep values that
		// live across one on the stack.
		for _, callNum := range callInstrNums {
			if callNum > def && callNum < end {
				interval.spill = true
				break
			}
		}
		intervals = append(intervals, interval)
	}

	// Sort intervals by start position
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	type activeInterval struct {
		interval liveInterval
		reg      string
	}
	var active []activeInterval

	expireOldIntervals := func(position int) {
		newActive := active[:0]
		for _, a := range active {
			if a.interval.end >= position {
				newActive = append(newActive, a)
			}
		}
		active = newActive
	}

	findFreeRegister := func() (string, bool) {
		usedRegs := make(map[string]bool)
		for _, a := range active {
			usedRegs[a.reg] = true
		}
		for _, reg := range allocableRegs {
			if !usedRegs[reg] {
				return reg, true
			}
		}
		return "", false
	}

	spillCandidate := func() *activeInterval {
		// spill the interval that ends last
		maxEnd := -1
		var candidate *activeInterval
		for i := range active {
			if active[i].interval.end > maxEnd {
				maxEnd = active[i].interval.end
				candidate = &active[i]
			}
		}
		return candidate
	}

	for _, current := range intervals {
		expireOldIntervals(current.start)
		if current.spill {
			continue
		}
		if reg, available := findFreeRegister(); available {
			alloc.regOf[current.id] = reg
			active = append(active, activeInterval{interval: current, reg: reg})
			continue
		}
		candidate := spillCandidate()
		if candidate == nil || candidate.interval.end <= current.end {
			continue
		}
		// Spill the candidate and hand its register to current
		reg := candidate.reg
		spilled := candidate.interval.id
		delete(alloc.regOf, spilled)
		alloc.regOf[current.id] = reg
		newActive := active[:0]
		for _, a := range active {
			if a.interval.id != spilled {
				newActive = append(newActive, a)
			}
		}
		active = append(newActive, activeInterval{interval: current, reg: reg})
	}
	return alloc
}

// uses returns the value operands of ins; branch targets are block indices.
func uses(ins *ir.Instr) []ir.ValueID {
	switch ins.Val.Op {
	case ir.OpJmp:
		return nil
	case ir.OpJnz:
		return ins.Val.Args[:1]
	}
	return ins.Val.Args
}
