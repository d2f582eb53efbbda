package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/minic"
	"github.com/tinyrange/minic/internal/types"
)

func errAt(n minic.Node, format string, args ...any) error {
	return fmt.Errorf("%v: %s", n.Pos(), fmt.Sprintf(format, args...))
}

type moduleCtx struct {
	m       *Module
	globals map[string]types.Type
	funcs   map[string]bool
}

// BuildModule translates a lowered program into SSA form, appending to m.
// Scalar locals and parameters live in SSA values; arrays live in stack
// slots or globals and are reached through loads and stores.
func BuildModule(p *minic.Program, m *Module) error {
	mc := &moduleCtx{m: m, globals: map[string]types.Type{}, funcs: map[string]bool{}}
	for _, ext := range p.Ext {
		switch n := ext.(type) {
		case *minic.FuncDef:
			f, err := mc.buildFunc(n)
			if err != nil {
				return err
			}
			m.Funcs = append(m.Funcs, f)
		case *minic.Decl:
			if err := mc.global(n); err != nil {
				return err
			}
		case *minic.DeclList:
			for _, d := range n.Decls {
				decl, ok := d.(*minic.Decl)
				if !ok {
					return errAt(d, "unsupported declaration %T", d)
				}
				if err := mc.global(decl); err != nil {
					return err
				}
			}
		default:
			return errAt(ext, "unsupported top-level %T", ext)
		}
	}
	return nil
}

func (mc *moduleCtx) global(d *minic.Decl) error {
	name := minic.TextOf(d.Name)
	if name == "" {
		return nil
	}
	if _, ok := d.Type.(*minic.FuncDecl); ok {
		mc.funcs[name] = true
		return nil
	}
	t, err := declType(d.Type)
	if err != nil {
		return errAt(d, "%s: %v", name, err)
	}
	g := &Global{Name: name}
	leaf := leafType(t)
	if t.IsArray() {
		if d.Init != nil {
			g.Init, err = flattenInit(d.Init)
			if err != nil {
				return err
			}
			if t.Len == 0 {
				t.Len = (len(g.Init)*leaf.Size() + t.Elem.Size() - 1) / t.Elem.Size()
			}
		}
	} else if d.Init != nil {
		k, err := evalConst(d.Init)
		if err != nil {
			return err
		}
		g.Init = []int64{k}
	}
	if t.K == types.Void {
		return errAt(d, "variable %s declared void", name)
	}
	if t.Size() == 0 {
		return errAt(d, "array %s has unknown size", name)
	}
	g.Size = t.Size()
	g.Elem = leaf.Size()
	if len(g.Init)*g.Elem > g.Size {
		return errAt(d, "too many initializers for %s", name)
	}
	mc.globals[name] = t
	mc.m.Globals = append(mc.m.Globals, g)
	return nil
}

// leafType strips array dimensions.
func leafType(t types.Type) types.Type {
	for t.IsArray() {
		t = *t.Elem
	}
	return t
}

func flattenInit(n minic.Node) ([]int64, error) {
	switch n := n.(type) {
	case *minic.InitList:
		var out []int64
		for _, e := range n.Exprs {
			vals, err := flattenInit(e)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	case *minic.NamedInitializer:
		return nil, errAt(n, "designated initializers not supported")
	}
	k, err := evalConst(n)
	if err != nil {
		return nil, err
	}
	return []int64{k}, nil
}

func declType(n minic.Node) (types.Type, error) {
	switch n := n.(type) {
	case *minic.TypeDecl:
		return declType(n.Type)
	case *minic.IdentifierType:
		names := make([]string, len(n.Names))
		for i, t := range n.Names {
			names[i] = minic.TextOf(t)
		}
		return types.FromNames(names)
	case *minic.PtrDecl:
		elem, err := declType(n.Type)
		if err != nil {
			return types.Type{}, err
		}
		return types.PointerTo(elem), nil
	case *minic.ArrayDecl:
		elem, err := declType(n.Type)
		if err != nil {
			return types.Type{}, err
		}
		if elem.K == types.Void {
			return types.Type{}, fmt.Errorf("array of void")
		}
		if elem.IsArray() && elem.Len == 0 {
			return types.Type{}, fmt.Errorf("array has incomplete element type")
		}
		length := 0
		if n.Dim != nil {
			k, err := evalDim(n.Dim)
			if err != nil {
				return types.Type{}, err
			}
			if k <= 0 {
				return types.Type{}, fmt.Errorf("array size %d is not positive", k)
			}
			length = int(k)
		}
		return types.ArrayOf(elem, length), nil
	case *minic.Typename:
		return declType(n.Type)
	case *minic.FuncDecl:
		return types.Type{}, fmt.Errorf("function types not supported here")
	}
	return types.Type{}, fmt.Errorf("unsupported type %T", n)
}

// intConst interprets a constant's text the way C spells it.
func intConst(typ string, v minic.Terminal) (int64, error) {
	switch v := v.(type) {
	case minic.Integer:
		return int64(v), nil
	case minic.Boolean:
		if v {
			return 1, nil
		}
		return 0, nil
	case minic.Real:
		return 0, fmt.Errorf("floating constant %v not supported", v)
	case nil:
		return 0, fmt.Errorf("constant has no value")
	}
	return parseIntText(typ, v.String())
}

func parseIntText(typ, s string) (int64, error) {
	switch {
	case typ == "char":
		u, err := strconv.Unquote(s)
		if err != nil || u == "" {
			return 0, fmt.Errorf("bad character constant %s", s)
		}
		return int64(u[0]), nil
	case typ == "string":
		return 0, fmt.Errorf("string literals not supported")
	case strings.Contains(typ, "float") || strings.Contains(typ, "double"):
		return 0, fmt.Errorf("floating constant %s not supported", s)
	}
	digits := strings.TrimRight(s, "uUlL")
	if k, err := strconv.ParseInt(digits, 0, 64); err == nil {
		return k, nil
	}
	u, err := strconv.ParseUint(digits, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad integer constant %s", s)
	}
	return int64(u), nil
}

func evalConst(n minic.Node) (int64, error) {
	switch n := n.(type) {
	case *minic.Constant:
		k, err := intConst(minic.TextOf(n.Type), n.Value)
		if err != nil {
			return 0, errAt(n, "%v", err)
		}
		return k, nil
	case *minic.UnaryOp:
		x, err := evalConst(n.Expr)
		if err != nil {
			return 0, err
		}
		return foldUnary(n, minic.TextOf(n.Op), x)
	case *minic.BinaryOp:
		l, err := evalConst(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := evalConst(n.Right)
		if err != nil {
			return 0, err
		}
		return foldBinary(n, minic.TextOf(n.Op), l, r)
	case *minic.TernaryOp:
		c, err := evalConst(n.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return evalConst(n.Then)
		}
		return evalConst(n.Else)
	}
	return 0, errAt(n, "initializer is not constant")
}

// evalDim computes an array dimension, which is kept as a source expression.
func evalDim(n cast.Node) (int64, error) {
	switch n := n.(type) {
	case *cast.Constant:
		typ, _ := n.Type.(string)
		switch v := n.Value.(type) {
		case string:
			return parseIntText(typ, v)
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		}
	case *cast.UnaryOp:
		x, err := evalDim(n.Expr)
		if err != nil {
			return 0, err
		}
		op, _ := n.Op.(string)
		return foldUnary(nil, op, x)
	case *cast.BinaryOp:
		l, err := evalDim(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := evalDim(n.Right)
		if err != nil {
			return 0, err
		}
		op, _ := n.Op.(string)
		return foldBinary(nil, op, l, r)
	}
	return 0, fmt.Errorf("array size %s is not constant", cast.ExprString(n))
}

func foldErr(n minic.Node, format string, args ...any) error {
	if n == nil {
		return fmt.Errorf(format, args...)
	}
	return errAt(n, format, args...)
}

func foldUnary(n minic.Node, op string, x int64) (int64, error) {
	switch op {
	case "-":
		return -x, nil
	case "+":
		return x, nil
	case "~":
		return ^x, nil
	case "!":
		return b2i(x == 0), nil
	}
	return 0, foldErr(n, "operator %s in constant expression", op)
}

func foldBinary(n minic.Node, op string, l, r int64) (int64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			return 0, foldErr(n, "division by zero in constant expression")
		}
		if op == "/" {
			return l / r, nil
		}
		return l % r, nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "<<":
		return l << uint64(r&63), nil
	case ">>":
		return l >> uint64(r&63), nil
	case "==":
		return b2i(l == r), nil
	case "!=":
		return b2i(l != r), nil
	case "<":
		return b2i(l < r), nil
	case "<=":
		return b2i(l <= r), nil
	case ">":
		return b2i(l > r), nil
	case ">=":
		return b2i(l >= r), nil
	case "&&":
		return b2i(l != 0 && r != 0), nil
	case "||":
		return b2i(l != 0 || r != 0), nil
	}
	return 0, foldErr(n, "operator %s in constant expression", op)
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// local is a name in scope inside a function body.
type local struct {
	ssa  string // variable name used for SSA construction, unique per function
	typ  types.Type
	slot int // stack slot for arrays, -1 for scalars
}

type pendingPhi struct {
	name string
	phi  ValueID
}

type buildCtx struct {
	mc      *moduleCtx
	f       *Function
	b       *BasicBlock // nil once control cannot reach the current point
	nextID  ValueID
	curDef  map[*BasicBlock]map[string]ValueID
	pending map[*BasicBlock][]pendingPhi
	scopes  []map[string]*local
	seen    map[string]int
	temps   int
}

func (mc *moduleCtx) buildFunc(fd *minic.FuncDef) (*Function, error) {
	d, ok := fd.Decl.(*minic.Decl)
	if !ok {
		return nil, errAt(fd, "function definition without declaration")
	}
	fn, ok := d.Type.(*minic.FuncDecl)
	if !ok {
		return nil, errAt(fd, "function definition without function type")
	}
	if len(fd.ParamDecls) > 0 {
		return nil, errAt(fd, "old-style parameter declarations not supported")
	}
	name := minic.TextOf(d.Name)
	mc.funcs[name] = true
	f := &Function{Name: name}
	c := &buildCtx{
		mc:      mc,
		f:       f,
		curDef:  map[*BasicBlock]map[string]ValueID{},
		pending: map[*BasicBlock][]pendingPhi{},
		seen:    map[string]int{},
	}
	c.b = f.newBlock("entry")
	if err := c.sealBlock(c.b); err != nil {
		return nil, err
	}
	c.push()
	if err := c.initParams(fn); err != nil {
		return nil, err
	}
	if err := c.stmt(fd.Body); err != nil {
		return nil, err
	}
	if c.b != nil && !c.b.terminated() {
		c.effect(OpRet, []ValueID{c.iconst(0)}, 0)
	}
	f.NextID = c.nextID
	return f, nil
}

func (c *buildCtx) initParams(fn *minic.FuncDecl) error {
	pl, ok := fn.Args.(*minic.ParamList)
	if !ok {
		return nil
	}
	for i, p := range pl.Params {
		switch p := p.(type) {
		case *minic.Decl:
			t, err := declType(p.Type)
			if err != nil {
				return errAt(p, "parameter %s: %v", minic.TextOf(p.Name), err)
			}
			name := minic.TextOf(p.Name)
			l := c.declare(name, t.Decay(), -1)
			id := c.newValue(OpParam, nil, int64(i))
			c.writeVar(l.ssa, c.b, id)
			c.f.Params = append(c.f.Params, name)
		case *minic.Typename:
			if t, err := declType(p.Type); err == nil && t.K == types.Void && len(pl.Params) == 1 {
				return nil
			}
			return errAt(p, "unnamed parameter")
		default:
			return errAt(p, "unsupported parameter %T", p)
		}
	}
	return nil
}

func (c *buildCtx) push() { c.scopes = append(c.scopes, map[string]*local{}) }
func (c *buildCtx) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *buildCtx) declare(name string, t types.Type, slot int) *local {
	ssa := name
	if n := c.seen[name]; n > 0 {
		ssa = fmt.Sprintf("%s.%d", name, n)
	}
	c.seen[name]++
	l := &local{ssa: ssa, typ: t, slot: slot}
	c.scopes[len(c.scopes)-1][name] = l
	return l
}

func (c *buildCtx) lookup(name string) (*local, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if l, ok := c.scopes[i][name]; ok {
			return l, true
		}
	}
	return nil, false
}

func (c *buildCtx) temp() string {
	c.temps++
	return fmt.Sprintf(".t%d", c.temps)
}

func (c *buildCtx) newValue(op Op, args []ValueID, k int64) ValueID {
	id := c.nextID
	c.nextID++
	v := Value{ID: id, Op: op, Args: append([]ValueID(nil), args...), Const: k}
	c.b.Instrs = append(c.b.Instrs, Instr{Res: id, Val: v})
	return id
}

// effect appends an instruction without a result.
func (c *buildCtx) effect(op Op, args []ValueID, k int64) {
	c.b.Instrs = append(c.b.Instrs, Instr{Res: -1, Val: Value{Op: op, Args: args, Const: k}})
}

func (c *buildCtx) add(op Op, args ...ValueID) ValueID { return c.newValue(op, args, 0) }
func (c *buildCtx) iconst(v int64) ValueID          { return c.newValue(OpConst, nil, v) }

func (c *buildCtx) jump(to *BasicBlock) {
	c.effect(OpJmp, []ValueID{ValueID(blockIndexOf(c.f, to))}, 0)
	c.f.addEdge(c.b, to)
}

func (c *buildCtx) branch(cond ValueID, t, e *BasicBlock) {
	c.effect(OpJnz, []ValueID{cond, ValueID(blockIndexOf(c.f, t)), ValueID(blockIndexOf(c.f, e))}, 0)
	c.f.addEdge(c.b, t)
	c.f.addEdge(c.b, e)
}

func (c *buildCtx) writeVar(name string, blk *BasicBlock, id ValueID) {
	if c.curDef[blk] == nil {
		c.curDef[blk] = map[string]ValueID{}
	}
	c.curDef[blk][name] = id
}

func (c *buildCtx) readVar(name string, blk *BasicBlock) (ValueID, error) {
	if v, ok := c.curDef[blk][name]; ok {
		return v, nil
	}
	if !blk.sealed {
		// More predecessors may still arrive; fill the phi on seal.
		phi := c.newPhi(blk)
		c.writeVar(name, blk, phi)
		c.pending[blk] = append(c.pending[blk], pendingPhi{name, phi})
		return phi, nil
	}
	switch len(blk.Preds) {
	case 0:
		return 0, fmt.Errorf("undefined variable %s", name)
	case 1:
		v, err := c.readVar(name, blk.Preds[0])
		if err != nil {
			return 0, err
		}
		c.writeVar(name, blk, v)
		return v, nil
	}
	phi := c.newPhi(blk)
	c.writeVar(name, blk, phi)
	return phi, c.addPhiOperands(blk, phi, name)
}

func (c *buildCtx) newPhi(blk *BasicBlock) ValueID {
	id := c.nextID
	c.nextID++
	ins := Instr{Res: id, Val: Value{ID: id, Op: OpPhi}}
	// insert at block start
	blk.Instrs = append([]Instr{ins}, blk.Instrs...)
	return id
}

func (c *buildCtx) addPhiOperands(blk *BasicBlock, phi ValueID, name string) error {
	args := make([]ValueID, 0, len(blk.Preds))
	for _, p := range blk.Preds {
		v, err := c.readVar(name, p)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	for i := range blk.Instrs {
		if blk.Instrs[i].Res == phi && blk.Instrs[i].Val.Op == OpPhi {
			blk.Instrs[i].Val.Args = args
			return nil
		}
	}
	return fmt.Errorf("phi v%d missing from %s", phi, blk.Name)
}

// sealBlock records that every predecessor of blk is known.
func (c *buildCtx) sealBlock(blk *BasicBlock) error {
	if blk.sealed {
		return nil
	}
	blk.sealed = true
	for _, p := range c.pending[blk] {
		if err := c.addPhiOperands(blk, p.phi, p.name); err != nil {
			return err
		}
	}
	delete(c.pending, blk)
	return nil
}

// startAt makes blk current, or marks the point unreachable when nothing
// branches to it.
func (c *buildCtx) startAt(blk *BasicBlock) {
	if len(blk.Preds) == 0 {
		c.b = nil
		return
	}
	c.b = blk
}

func (c *buildCtx) stmt(n minic.Node) error {
	if c.b == nil {
		return nil
	}
	switch n := n.(type) {
	case nil, *minic.EmptyStatement:
		return nil
	case *minic.Block:
		c.push()
		defer c.pop()
		for _, it := range n.Items {
			if err := c.stmt(it); err != nil {
				return err
			}
		}
		return nil
	case *minic.Decl:
		return c.localDecl(n)
	case *minic.DeclList:
		for _, d := range n.Decls {
			if err := c.stmt(d); err != nil {
				return err
			}
		}
		return nil
	case *minic.If:
		return c.buildIf(n)
	case *minic.While:
		return c.buildWhile(n)
	case *minic.DoWhile:
		return c.buildDoWhile(n)
	case *minic.For:
		return c.buildFor(n)
	case *minic.Return:
		var v ValueID
		if n.Expr != nil {
			var err error
			if v, _, err = c.expr(n.Expr); err != nil {
				return err
			}
		} else {
			v = c.iconst(0)
		}
		c.effect(OpRet, []ValueID{v}, 0)
		c.b = nil
		return nil
	}
	_, _, err := c.expr(n)
	return err
}

func (c *buildCtx) localDecl(d *minic.Decl) error {
	name := minic.TextOf(d.Name)
	if _, ok := d.Type.(*minic.FuncDecl); ok {
		c.mc.funcs[name] = true
		return nil
	}
	t, err := declType(d.Type)
	if err != nil {
		return errAt(d, "%s: %v", name, err)
	}
	if t.K == types.Void {
		return errAt(d, "variable %s declared void", name)
	}
	if !t.IsArray() {
		var v ValueID
		if d.Init != nil {
			if _, ok := d.Init.(*minic.InitList); ok {
				return errAt(d, "braced initializer for scalar %s", name)
			}
			if v, _, err = c.expr(d.Init); err != nil {
				return err
			}
		} else {
			v = c.iconst(0)
		}
		l := c.declare(name, t, -1)
		c.writeVar(l.ssa, c.b, v)
		return nil
	}
	var vals []minic.Node
	if d.Init != nil {
		il, ok := d.Init.(*minic.InitList)
		if !ok {
			return errAt(d, "array %s needs a braced initializer", name)
		}
		if vals, err = flattenExprs(il); err != nil {
			return err
		}
	}
	leaf := leafType(t)
	if t.Len == 0 {
		t.Len = (len(vals)*leaf.Size() + t.Elem.Size() - 1) / t.Elem.Size()
	}
	if t.Size() == 0 {
		return errAt(d, "array %s has unknown size", name)
	}
	count := t.Size() / leaf.Size()
	if len(vals) > count {
		return errAt(d, "too many initializers for %s", name)
	}
	slot := c.f.newSlot(t.Size())
	if d.Init != nil {
		base := c.newValue(OpSlotAddr, nil, int64(slot))
		for i := 0; i < count; i++ {
			var v ValueID
			if i < len(vals) {
				if v, _, err = c.expr(vals[i]); err != nil {
					return err
				}
			} else {
				v = c.iconst(0)
			}
			addr := c.add(OpAdd, base, c.iconst(int64(i*leaf.Size())))
			c.effect(OpStore, []ValueID{addr, v}, int64(leaf.Size()))
		}
	}
	c.declare(name, t, slot)
	return nil
}

func flattenExprs(n minic.Node) ([]minic.Node, error) {
	switch n := n.(type) {
	case *minic.InitList:
		var out []minic.Node
		for _, e := range n.Exprs {
			sub, err := flattenExprs(e)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case *minic.NamedInitializer:
		return nil, errAt(n, "designated initializers not supported")
	}
	return []minic.Node{n}, nil
}

func (c *buildCtx) buildIf(s *minic.If) error {
	cond, _, err := c.expr(s.Cond)
	if err != nil {
		return err
	}
	f := c.f
	thenB := f.newBlock("then")
	var elseB *BasicBlock
	if s.Else != nil {
		elseB = f.newBlock("else")
	}
	joinB := f.newBlock("endif")
	if elseB != nil {
		c.branch(cond, thenB, elseB)
	} else {
		c.branch(cond, thenB, joinB)
	}
	if err := c.sealBlock(thenB); err != nil {
		return err
	}
	c.b = thenB
	if err := c.stmt(s.Then); err != nil {
		return err
	}
	if c.b != nil {
		c.jump(joinB)
	}
	if elseB != nil {
		if err := c.sealBlock(elseB); err != nil {
			return err
		}
		c.b = elseB
		if err := c.stmt(s.Else); err != nil {
			return err
		}
		if c.b != nil {
			c.jump(joinB)
		}
	}
	if err := c.sealBlock(joinB); err != nil {
		return err
	}
	c.startAt(joinB)
	return nil
}

func (c *buildCtx) buildWhile(s *minic.While) error {
	f := c.f
	condB := f.newBlock("while.cond")
	bodyB := f.newBlock("while.body")
	exitB := f.newBlock("while.end")
	c.jump(condB)
	c.b = condB
	cond, _, err := c.expr(s.Cond)
	if err != nil {
		return err
	}
	c.branch(cond, bodyB, exitB)
	if err := c.sealBlock(bodyB); err != nil {
		return err
	}
	c.b = bodyB
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	if c.b != nil {
		c.jump(condB)
	}
	if err := c.sealBlock(condB); err != nil {
		return err
	}
	if err := c.sealBlock(exitB); err != nil {
		return err
	}
	c.b = exitB
	return nil
}

func (c *buildCtx) buildDoWhile(s *minic.DoWhile) error {
	f := c.f
	bodyB := f.newBlock("do.body")
	condB := f.newBlock("do.cond")
	exitB := f.newBlock("do.end")
	c.jump(bodyB)
	c.b = bodyB
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	if c.b != nil {
		c.jump(condB)
	}
	if err := c.sealBlock(condB); err != nil {
		return err
	}
	c.startAt(condB)
	if c.b != nil {
		cond, _, err := c.expr(s.Cond)
		if err != nil {
			return err
		}
		c.branch(cond, bodyB, exitB)
	}
	if err := c.sealBlock(bodyB); err != nil {
		return err
	}
	if err := c.sealBlock(exitB); err != nil {
		return err
	}
	c.startAt(exitB)
	return nil
}

func (c *buildCtx) buildFor(s *minic.For) error {
	c.push()
	defer c.pop()
	if err := c.stmt(s.Init); err != nil {
		return err
	}
	f := c.f
	condB := f.newBlock("for.cond")
	bodyB := f.newBlock("for.body")
	postB := f.newBlock("for.post")
	exitB := f.newBlock("for.end")
	c.jump(condB)
	c.b = condB
	if s.Cond != nil {
		cond, _, err := c.expr(s.Cond)
		if err != nil {
			return err
		}
		c.branch(cond, bodyB, exitB)
	} else {
		c.jump(bodyB)
	}
	if err := c.sealBlock(bodyB); err != nil {
		return err
	}
	c.b = bodyB
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	if c.b != nil {
		c.jump(postB)
	}
	if err := c.sealBlock(postB); err != nil {
		return err
	}
	c.startAt(postB)
	if c.b != nil {
		if err := c.stmt(s.Next); err != nil {
			return err
		}
		c.jump(condB)
	}
	if err := c.sealBlock(condB); err != nil {
		return err
	}
	if err := c.sealBlock(exitB); err != nil {
		return err
	}
	c.startAt(exitB)
	return nil
}

var binOps = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"&": OpAnd, "|": OpOr, "^": OpXor, "<<": OpShl, ">>": OpShr,
	"==": OpEq, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
}

// expr evaluates n and returns its value with its (decayed) type.
func (c *buildCtx) expr(n minic.Node) (ValueID, types.Type, error) {
	switch n := n.(type) {
	case *minic.Constant:
		k, err := intConst(minic.TextOf(n.Type), n.Value)
		if err != nil {
			return 0, types.Type{}, errAt(n, "%v", err)
		}
		return c.iconst(k), types.Int(), nil
	case *minic.ID:
		return c.ident(n)
	case *minic.ArrayRef:
		addr, elem, err := c.elemAddr(n)
		if err != nil {
			return 0, types.Type{}, err
		}
		return c.load(addr, elem)
	case *minic.BinaryOp:
		return c.binary(n)
	case *minic.UnaryOp:
		return c.unary(n)
	case *minic.TernaryOp:
		return c.ternary(n)
	case *minic.Assignment:
		return c.assign(n)
	case *minic.FuncCall:
		return c.call(n)
	case *minic.ExprList:
		var v ValueID
		var t types.Type
		for _, e := range n.Exprs {
			var err error
			if v, t, err = c.expr(e); err != nil {
				return 0, types.Type{}, err
			}
		}
		return v, t, nil
	}
	return 0, types.Type{}, errAt(n, "unsupported expression %T", n)
}

func (c *buildCtx) ident(n *minic.ID) (ValueID, types.Type, error) {
	name := minic.TextOf(n.Name)
	if l, ok := c.lookup(name); ok {
		if l.slot >= 0 {
			return c.newValue(OpSlotAddr, nil, int64(l.slot)), l.typ.Decay(), nil
		}
		v, err := c.readVar(l.ssa, c.b)
		if err != nil {
			return 0, types.Type{}, errAt(n, "%v", err)
		}
		return v, l.typ, nil
	}
	if t, ok := c.mc.globals[name]; ok {
		return c.load(c.globalAddr(name), t)
	}
	if c.mc.funcs[name] {
		return 0, types.Type{}, errAt(n, "function %s used as a value", name)
	}
	return 0, types.Type{}, errAt(n, "undefined variable %s", name)
}

func (c *buildCtx) globalAddr(name string) ValueID {
	id := c.newValue(OpGlobalAddr, nil, 0)
	c.b.Instrs[len(c.b.Instrs)-1].Val.Sym = name
	return id
}

// load reads an object of type t at addr. Arrays are not loaded; their
// address stands for the first element.
func (c *buildCtx) load(addr ValueID, t types.Type) (ValueID, types.Type, error) {
	if t.IsArray() {
		return addr, t.Decay(), nil
	}
	op := OpLoad
	if t.IsSigned() {
		op = OpLoadS
	}
	return c.newValue(op, []ValueID{addr}, int64(t.Size())), t, nil
}

func (c *buildCtx) store(n minic.Node, addr, v ValueID, t types.Type) error {
	if t.IsArray() || t.K == types.Void {
		return errAt(n, "cannot assign to %s", t)
	}
	c.effect(OpStore, []ValueID{addr, v}, int64(t.Size()))
	return nil
}

func (c *buildCtx) scale(v ValueID, size int) ValueID {
	if size == 1 {
		return v
	}
	return c.add(OpMul, v, c.iconst(int64(size)))
}

func (c *buildCtx) elemAddr(n *minic.ArrayRef) (ValueID, types.Type, error) {
	base, bt, err := c.expr(n.Name)
	if err != nil {
		return 0, types.Type{}, err
	}
	idx, it, err := c.expr(n.Subscript)
	if err != nil {
		return 0, types.Type{}, err
	}
	if !bt.IsPointer() && it.IsPointer() {
		base, idx, bt = idx, base, it
	}
	if !bt.IsPointer() {
		return 0, types.Type{}, errAt(n, "subscripted value is not an array or pointer")
	}
	return c.add(OpAdd, base, c.scale(idx, bt.ElemSize())), *bt.Elem, nil
}

// addrOf returns the address of an lvalue and the type stored there.
func (c *buildCtx) addrOf(n minic.Node) (ValueID, types.Type, error) {
	switch n := n.(type) {
	case *minic.ID:
		name := minic.TextOf(n.Name)
		if l, ok := c.lookup(name); ok {
			if l.slot < 0 {
				return 0, types.Type{}, errAt(n, "cannot take the address of local %s", name)
			}
			return c.newValue(OpSlotAddr, nil, int64(l.slot)), l.typ, nil
		}
		if t, ok := c.mc.globals[name]; ok {
			return c.globalAddr(name), t, nil
		}
		return 0, types.Type{}, errAt(n, "undefined variable %s", name)
	case *minic.ArrayRef:
		return c.elemAddr(n)
	case *minic.UnaryOp:
		if minic.TextOf(n.Op) == "*" {
			p, pt, err := c.expr(n.Expr)
			if err != nil {
				return 0, types.Type{}, err
			}
			if !pt.IsPointer() {
				return 0, types.Type{}, errAt(n, "indirection of non-pointer")
			}
			return p, *pt.Elem, nil
		}
	}
	return 0, types.Type{}, errAt(n, "expression is not addressable")
}

func (c *buildCtx) binary(n *minic.BinaryOp) (ValueID, types.Type, error) {
	op := minic.TextOf(n.Op)
	if op == "&&" || op == "||" {
		return c.logical(n, op)
	}
	l, lt, err := c.expr(n.Left)
	if err != nil {
		return 0, types.Type{}, err
	}
	r, rt, err := c.expr(n.Right)
	if err != nil {
		return 0, types.Type{}, err
	}
	code, ok := binOps[op]
	if !ok {
		return 0, types.Type{}, errAt(n, "unsupported operator %s", op)
	}
	switch {
	case op == "+" && lt.IsPointer() && !rt.IsPointer():
		return c.add(OpAdd, l, c.scale(r, lt.ElemSize())), lt, nil
	case op == "+" && rt.IsPointer() && !lt.IsPointer():
		return c.add(OpAdd, c.scale(l, rt.ElemSize()), r), rt, nil
	case op == "-" && lt.IsPointer() && rt.IsPointer():
		diff := c.add(OpSub, l, r)
		if size := lt.ElemSize(); size > 1 {
			diff = c.add(OpDiv, diff, c.iconst(int64(size)))
		}
		return diff, types.Int(), nil
	case op == "-" && lt.IsPointer():
		return c.add(OpSub, l, c.scale(r, lt.ElemSize())), lt, nil
	}
	return c.add(code, l, r), types.Int(), nil
}

// logical builds short-circuit && and || through a temporary variable so
// the join block receives a phi.
func (c *buildCtx) logical(n *minic.BinaryOp, op string) (ValueID, types.Type, error) {
	tmp := c.temp()
	l, _, err := c.expr(n.Left)
	if err != nil {
		return 0, types.Type{}, err
	}
	lz := c.add(OpNe, l, c.iconst(0))
	c.writeVar(tmp, c.b, lz)
	f := c.f
	rhsB := f.newBlock("sc.rhs")
	endB := f.newBlock("sc.end")
	if op == "&&" {
		c.branch(lz, rhsB, endB)
	} else {
		c.branch(lz, endB, rhsB)
	}
	if err := c.sealBlock(rhsB); err != nil {
		return 0, types.Type{}, err
	}
	c.b = rhsB
	r, _, err := c.expr(n.Right)
	if err != nil {
		return 0, types.Type{}, err
	}
	c.writeVar(tmp, c.b, c.add(OpNe, r, c.iconst(0)))
	c.jump(endB)
	if err := c.sealBlock(endB); err != nil {
		return 0, types.Type{}, err
	}
	c.b = endB
	v, err := c.readVar(tmp, endB)
	return v, types.Int(), err
}

func (c *buildCtx) ternary(n *minic.TernaryOp) (ValueID, types.Type, error) {
	tmp := c.temp()
	cond, _, err := c.expr(n.Cond)
	if err != nil {
		return 0, types.Type{}, err
	}
	f := c.f
	thenB := f.newBlock("cond.then")
	elseB := f.newBlock("cond.else")
	endB := f.newBlock("cond.end")
	c.branch(cond, thenB, elseB)
	var t types.Type
	for i, arm := range []struct {
		blk *BasicBlock
		e   minic.Node
	}{{thenB, n.Then}, {elseB, n.Else}} {
		if err := c.sealBlock(arm.blk); err != nil {
			return 0, types.Type{}, err
		}
		c.b = arm.blk
		v, vt, err := c.expr(arm.e)
		if err != nil {
			return 0, types.Type{}, err
		}
		if i == 0 || vt.IsPointer() {
			t = vt
		}
		c.writeVar(tmp, c.b, v)
		c.jump(endB)
	}
	if err := c.sealBlock(endB); err != nil {
		return 0, types.Type{}, err
	}
	c.b = endB
	v, err := c.readVar(tmp, endB)
	return v, t, err
}

func (c *buildCtx) unary(n *minic.UnaryOp) (ValueID, types.Type, error) {
	op := minic.TextOf(n.Op)
	switch op {
	case "&":
		addr, t, err := c.addrOf(n.Expr)
		if err != nil {
			return 0, types.Type{}, err
		}
		return addr, types.PointerTo(t), nil
	case "sizeof":
		t, err := c.sizeofType(n.Expr)
		if err != nil {
			return 0, types.Type{}, err
		}
		return c.iconst(int64(t.Size())), types.Uint64T(), nil
	case "*":
		p, pt, err := c.expr(n.Expr)
		if err != nil {
			return 0, types.Type{}, err
		}
		if !pt.IsPointer() {
			return 0, types.Type{}, errAt(n, "indirection of non-pointer")
		}
		return c.load(p, *pt.Elem)
	}
	x, xt, err := c.expr(n.Expr)
	if err != nil {
		return 0, types.Type{}, err
	}
	switch op {
	case "+":
		return x, xt, nil
	case "-":
		return c.add(OpSub, c.iconst(0), x), types.Int(), nil
	case "~":
		return c.add(OpXor, x, c.iconst(-1)), types.Int(), nil
	case "!":
		return c.add(OpEq, x, c.iconst(0)), types.Int(), nil
	}
	return 0, types.Type{}, errAt(n, "unsupported operator %s", op)
}

// sizeofType finds the type of a sizeof operand.
func (c *buildCtx) sizeofType(n minic.Node) (types.Type, error) {
	if tn, ok := n.(*minic.Typename); ok {
		t, err := declType(tn)
		if err != nil {
			return types.Type{}, errAt(n, "%v", err)
		}
		return t, nil
	}
	if id, ok := n.(*minic.ID); ok {
		name := minic.TextOf(id.Name)
		if l, ok := c.lookup(name); ok {
			return l.typ, nil
		}
		if t, ok := c.mc.globals[name]; ok {
			return t, nil
		}
	}
	if _, ok := n.(*minic.FuncCall); ok {
		return types.Int(), nil
	}
	// Pure code built here is dropped by dead code elimination.
	_, t, err := c.expr(n)
	return t, err
}

func (c *buildCtx) assign(n *minic.Assignment) (ValueID, types.Type, error) {
	if _, ok := n.Value.(*minic.EmptyStatement); ok {
		return 0, types.Type{}, errAt(n, "assignment with unrecognized operator")
	}
	if id, ok := n.Target.(*minic.ID); ok {
		if l, ok := c.lookup(minic.TextOf(id.Name)); ok && l.slot < 0 {
			v, _, err := c.expr(n.Value)
			if err != nil {
				return 0, types.Type{}, err
			}
			c.writeVar(l.ssa, c.b, v)
			return v, l.typ, nil
		}
	}
	v, _, err := c.expr(n.Value)
	if err != nil {
		return 0, types.Type{}, err
	}
	addr, t, err := c.addrOf(n.Target)
	if err != nil {
		return 0, types.Type{}, err
	}
	if err := c.store(n, addr, v, t); err != nil {
		return 0, types.Type{}, err
	}
	return v, t, nil
}

func (c *buildCtx) call(n *minic.FuncCall) (ValueID, types.Type, error) {
	id, ok := n.Name.(*minic.ID)
	if !ok {
		return 0, types.Type{}, errAt(n, "indirect calls not supported")
	}
	var exprs []minic.Node
	switch a := n.Args.(type) {
	case nil:
	case *minic.ExprList:
		exprs = a.Exprs
	default:
		exprs = []minic.Node{a}
	}
	args := make([]ValueID, 0, len(exprs))
	for _, e := range exprs {
		v, _, err := c.expr(e)
		if err != nil {
			return 0, types.Type{}, err
		}
		args = append(args, v)
	}
	res := c.newValue(OpCall, args, 0)
	c.b.Instrs[len(c.b.Instrs)-1].Val.Sym = minic.TextOf(id.Name)
	return res, types.Int(), nil
}
