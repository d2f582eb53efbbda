package parser

import (
	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/lexer"
)

// specs are the declaration specifiers in front of a declarator list.
type specs struct {
	loc      cast.Loc
	storage  []cast.Value
	quals    []cast.Value
	funcspec []cast.Value
	names    []cast.Value // builtin type words or one typedef name
	typ      cast.Node    // struct, union or enum
}

func (s *specs) hasType() bool { return len(s.names) > 0 || s.typ != nil }

func (s *specs) base() cast.Node {
	if s.typ != nil {
		return s.typ
	}
	return &cast.IdentifierType{Loc: s.loc, Names: s.names}
}

func (s *specs) isTypedef() bool {
	for _, v := range s.storage {
		if v == "typedef" {
			return true
		}
	}
	return false
}

func isTypeWord(tt lexer.TokenType) bool {
	switch tt {
	case lexer.KW_INT, lexer.KW_CHAR, lexer.KW_SHORT, lexer.KW_LONG,
		lexer.KW_SIGNED, lexer.KW_UNSIGNED, lexer.KW_FLOAT, lexer.KW_DOUBLE,
		lexer.KW_VOID, lexer.KW_BOOL:
		return true
	}
	return false
}

func isQual(tt lexer.TokenType) bool {
	return tt == lexer.KW_CONST || tt == lexer.KW_VOLATILE || tt == lexer.KW_RESTRICT
}

func isStorage(tt lexer.TokenType) bool {
	switch tt {
	case lexer.KW_TYPEDEF, lexer.KW_EXTERN, lexer.KW_STATIC, lexer.KW_AUTO, lexer.KW_REGISTER:
		return true
	}
	return false
}

// startsTypeName reports whether t can begin a type name.
func (p *Parser) startsTypeName(t lexer.Token) bool {
	switch {
	case isTypeWord(t.Type), isQual(t.Type):
		return true
	case t.Type == lexer.KW_STRUCT, t.Type == lexer.KW_UNION, t.Type == lexer.KW_ENUM:
		return true
	case t.Type == lexer.IDENT:
		return p.isTypedef(t.Lex)
	}
	return false
}

// startsDecl reports whether the current token begins a declaration.
func (p *Parser) startsDecl() bool {
	return p.startsTypeName(p.tok) || isStorage(p.tok.Type) || p.tok.Type == lexer.KW_INLINE
}

func (p *Parser) declSpecs() (*specs, error) {
	s := &specs{loc: p.at()}
	for {
		t := p.tok
		switch {
		case isStorage(t.Type):
			s.storage = append(s.storage, t.Lex)
		case isQual(t.Type):
			s.quals = append(s.quals, t.Lex)
		case t.Type == lexer.KW_INLINE:
			s.funcspec = append(s.funcspec, t.Lex)
		case isTypeWord(t.Type):
			if s.typ != nil {
				return nil, p.errorf("two or more data types in declaration specifiers")
			}
			s.names = append(s.names, t.Lex)
		case t.Type == lexer.KW_STRUCT, t.Type == lexer.KW_UNION, t.Type == lexer.KW_ENUM:
			if s.hasType() {
				return nil, p.errorf("two or more data types in declaration specifiers")
			}
			var err error
			if t.Type == lexer.KW_ENUM {
				s.typ, err = p.enum()
			} else {
				s.typ, err = p.structOrUnion()
			}
			if err != nil {
				return nil, err
			}
			continue
		case t.Type == lexer.IDENT && !s.hasType() && p.isTypedef(t.Lex):
			s.names = append(s.names, t.Lex)
		default:
			return s, nil
		}
		p.next()
	}
}

// typeSpecs parses specifiers that must name a type.
func (p *Parser) typeSpecs() (*specs, error) {
	s, err := p.declSpecs()
	if err != nil {
		return nil, err
	}
	if !s.hasType() {
		return nil, p.unexpected("type specifier")
	}
	return s, nil
}

// declaration parses one declaration and returns a node per declarator:
// *cast.Decl, *cast.Typedef, or at file scope a single *cast.FuncDef.
// The terminating semicolon is consumed.
func (p *Parser) declaration(external bool) ([]cast.Node, error) {
	s, err := p.typeSpecs()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.SEMI {
		p.next()
		return []cast.Node{&cast.Decl{
			Loc:      s.loc,
			Quals:    s.quals,
			Storage:  s.storage,
			FuncSpec: s.funcspec,
			Type:     s.base(),
		}}, nil
	}
	var out []cast.Node
	for {
		root, leaf, err := p.declarator(named)
		if err != nil {
			return nil, err
		}
		leaf.Type = s.base()
		leaf.Quals = s.quals
		name, _ := leaf.DeclName.(string)

		if s.isTypedef() {
			p.declare(name, true)
			out = append(out, &cast.Typedef{Loc: leaf.Loc, Name: name, Quals: s.quals, Storage: s.storage, Type: root})
		} else {
			p.declare(name, false)
			d := &cast.Decl{
				Loc:      leaf.Loc,
				Name:     name,
				Quals:    s.quals,
				Storage:  s.storage,
				FuncSpec: s.funcspec,
				Type:     root,
			}
			if fn, ok := root.(*cast.FuncDecl); ok && external && len(out) == 0 &&
				(p.tok.Type == lexer.LBRACE || p.startsDecl()) {
				return p.funcDef(d, fn)
			}
			if p.tok.Type == lexer.ASSIGN {
				p.next()
				if d.Init, err = p.initializer(); err != nil {
					return nil, err
				}
			}
			out = append(out, d)
		}
		if p.tok.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) funcDef(d *cast.Decl, fn *cast.FuncDecl) ([]cast.Node, error) {
	def := &cast.FuncDef{Loc: d.Loc, Decl: d}
	p.push()
	defer p.pop()
	if params, ok := fn.Args.(*cast.ParamList); ok {
		for _, prm := range params.Params {
			switch prm := prm.(type) {
			case *cast.Decl:
				if name, ok := prm.Name.(string); ok {
					p.declare(name, false)
				}
			case *cast.ID:
				if name, ok := prm.Name.(string); ok {
					p.declare(name, false)
				}
			}
		}
	}
	for p.tok.Type != lexer.LBRACE {
		ds, err := p.declaration(false)
		if err != nil {
			return nil, err
		}
		def.ParamDecls = append(def.ParamDecls, ds...)
	}
	body, err := p.compound()
	if err != nil {
		return nil, err
	}
	def.Body = body
	return []cast.Node{def}, nil
}

type declMode int

const (
	named    declMode = iota // a name is required
	abstract                 // no name allowed, as in casts and sizeof
	either                   // parameters
)

// declarator parses a declarator and returns the top of its modifier chain
// together with the TypeDecl at the bottom, which receives the base type.
// Modifiers are inserted directly above that TypeDecl in the order C binds
// them, so int *a[3] yields ArrayDecl(PtrDecl(TypeDecl)).
func (p *Parser) declarator(mode declMode) (cast.Node, *cast.TypeDecl, error) {
	var ptrs []*cast.PtrDecl
	for p.tok.Type == lexer.STAR {
		ptr := &cast.PtrDecl{Loc: p.at()}
		p.next()
		for isQual(p.tok.Type) {
			ptr.Quals = append(ptr.Quals, p.tok.Lex)
			p.next()
		}
		ptrs = append(ptrs, ptr)
	}

	var root cast.Node
	var leaf *cast.TypeDecl
	switch {
	case p.tok.Type == lexer.IDENT && mode != abstract:
		leaf = &cast.TypeDecl{Loc: p.at(), DeclName: p.tok.Lex}
		root = leaf
		p.next()
	case p.tok.Type == lexer.LPAREN && p.nested(mode):
		p.next()
		var err error
		if root, leaf, err = p.declarator(mode); err != nil {
			return nil, nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, nil, err
		}
	case mode == named:
		return nil, nil, p.unexpected("identifier or '('")
	default:
		leaf = &cast.TypeDecl{Loc: p.at()}
		root = leaf
	}

	for {
		switch p.tok.Type {
		case lexer.LBRACK:
			arr := &cast.ArrayDecl{Loc: p.at()}
			p.next()
			for isQual(p.tok.Type) || p.tok.Type == lexer.KW_STATIC {
				arr.DimQuals = append(arr.DimQuals, p.tok.Lex)
				p.next()
			}
			if p.tok.Type != lexer.RBRACK {
				dim, err := p.assignExpr()
				if err != nil {
					return nil, nil, err
				}
				arr.Dim = dim
			}
			if _, err := p.expect(lexer.RBRACK); err != nil {
				return nil, nil, err
			}
			root = insert(root, leaf, arr)
			continue
		case lexer.LPAREN:
			fn := &cast.FuncDecl{Loc: p.at()}
			p.next()
			args, err := p.params()
			if err != nil {
				return nil, nil, err
			}
			fn.Args = args
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, nil, err
			}
			root = insert(root, leaf, fn)
			continue
		}
		break
	}
	for i := len(ptrs) - 1; i >= 0; i-- {
		root = insert(root, leaf, ptrs[i])
	}
	return root, leaf, nil
}

// nested decides whether the '(' at the current token opens a parenthesized
// declarator rather than a parameter list.
func (p *Parser) nested(mode declMode) bool {
	t := p.peek(1)
	switch t.Type {
	case lexer.STAR, lexer.LPAREN, lexer.LBRACK:
		return mode == named || t.Type == lexer.STAR
	case lexer.IDENT:
		return mode != abstract && !p.isTypedef(t.Lex)
	}
	return false
}

func typeOf(n cast.Node) cast.Node {
	switch n := n.(type) {
	case *cast.ArrayDecl:
		return n.Type
	case *cast.PtrDecl:
		return n.Type
	case *cast.FuncDecl:
		return n.Type
	}
	return nil
}

func setType(n, t cast.Node) {
	switch n := n.(type) {
	case *cast.ArrayDecl:
		n.Type = t
	case *cast.PtrDecl:
		n.Type = t
	case *cast.FuncDecl:
		n.Type = t
	}
}

// insert places mod directly above leaf in the chain rooted at root and
// returns the new root.
func insert(root cast.Node, leaf *cast.TypeDecl, mod cast.Node) cast.Node {
	setType(mod, leaf)
	if root == cast.Node(leaf) {
		return mod
	}
	for n := root; n != nil; n = typeOf(n) {
		if typeOf(n) == cast.Node(leaf) {
			setType(n, mod)
			break
		}
	}
	return root
}

// params parses a parameter list up to, not including, the closing ')'.
// An empty list yields nil.
func (p *Parser) params() (cast.Node, error) {
	if p.tok.Type == lexer.RPAREN {
		return nil, nil
	}
	list := &cast.ParamList{Loc: p.at()}
	for {
		switch {
		case p.tok.Type == lexer.ELLIPSIS:
			list.Params = append(list.Params, &cast.EllipsisParam{Loc: p.at()})
			p.next()
			return list, nil
		case p.tok.Type == lexer.IDENT && !p.isTypedef(p.tok.Lex):
			// old-style identifier list
			list.Params = append(list.Params, &cast.ID{Loc: p.at(), Name: p.tok.Lex})
			p.next()
		default:
			s, err := p.typeSpecs()
			if err != nil {
				return nil, err
			}
			root, leaf, err := p.declarator(either)
			if err != nil {
				return nil, err
			}
			leaf.Type = s.base()
			leaf.Quals = s.quals
			if leaf.DeclName != nil {
				list.Params = append(list.Params, &cast.Decl{
					Loc:     leaf.Loc,
					Name:    leaf.DeclName,
					Quals:   s.quals,
					Storage: s.storage,
					Type:    root,
				})
			} else {
				list.Params = append(list.Params, &cast.Typename{Loc: s.loc, Quals: s.quals, Type: root})
			}
		}
		if p.tok.Type != lexer.COMMA {
			return list, nil
		}
		p.next()
	}
}

// typeName parses an abstract type as found in casts and sizeof.
func (p *Parser) typeName() (*cast.Typename, error) {
	s, err := p.typeSpecs()
	if err != nil {
		return nil, err
	}
	if len(s.storage) > 0 {
		return nil, p.errorf("storage class in type name")
	}
	root, leaf, err := p.declarator(abstract)
	if err != nil {
		return nil, err
	}
	leaf.Type = s.base()
	leaf.Quals = s.quals
	return &cast.Typename{Loc: s.loc, Quals: s.quals, Type: root}, nil
}

func (p *Parser) structOrUnion() (cast.Node, error) {
	loc, kind := p.at(), p.tok.Type
	p.next()
	var name cast.Value
	if p.tok.Type == lexer.IDENT {
		name = p.tok.Lex
		p.next()
	}
	var decls []cast.Node
	switch {
	case p.tok.Type == lexer.LBRACE:
		p.next()
		decls = []cast.Node{}
		for p.tok.Type != lexer.RBRACE {
			ds, err := p.fieldDecl()
			if err != nil {
				return nil, err
			}
			decls = append(decls, ds...)
		}
		p.next()
	case name == nil:
		return nil, p.unexpected("identifier or '{'")
	}
	if kind == lexer.KW_UNION {
		return &cast.Union{Loc: loc, Name: name, Decls: decls}, nil
	}
	return &cast.Struct{Loc: loc, Name: name, Decls: decls}, nil
}

func (p *Parser) fieldDecl() ([]cast.Node, error) {
	s, err := p.typeSpecs()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.SEMI {
		p.next()
		return []cast.Node{&cast.Decl{Loc: s.loc, Quals: s.quals, Type: s.base()}}, nil
	}
	var out []cast.Node
	for {
		d := &cast.Decl{Loc: p.at(), Quals: s.quals}
		if p.tok.Type != lexer.COLON {
			root, leaf, err := p.declarator(named)
			if err != nil {
				return nil, err
			}
			leaf.Type = s.base()
			leaf.Quals = s.quals
			d.Loc, d.Name, d.Type = leaf.Loc, leaf.DeclName, root
		} else {
			d.Type = &cast.TypeDecl{Loc: d.Loc, Quals: s.quals, Type: s.base()}
		}
		if p.tok.Type == lexer.COLON {
			p.next()
			if d.Bitsize, err = p.condExpr(); err != nil {
				return nil, err
			}
		}
		out = append(out, d)
		if p.tok.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) enum() (cast.Node, error) {
	e := &cast.Enum{Loc: p.at()}
	p.next()
	if p.tok.Type == lexer.IDENT {
		e.Name = p.tok.Lex
		p.next()
	}
	if p.tok.Type != lexer.LBRACE {
		if e.Name == nil {
			return nil, p.unexpected("identifier or '{'")
		}
		return e, nil
	}
	list := &cast.EnumeratorList{Loc: p.at()}
	p.next()
	for p.tok.Type != lexer.RBRACE {
		t, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		en := &cast.Enumerator{Loc: cast.At(p.coord(t)), Name: t.Lex}
		p.declare(t.Lex, false)
		if p.tok.Type == lexer.ASSIGN {
			p.next()
			if en.Value, err = p.condExpr(); err != nil {
				return nil, err
			}
		}
		list.Enumerators = append(list.Enumerators, en)
		if p.tok.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	e.Values = list
	return e, nil
}

// initializer parses an expression or a brace-enclosed initializer list.
func (p *Parser) initializer() (cast.Node, error) {
	if p.tok.Type == lexer.LBRACE {
		return p.initList()
	}
	return p.assignExpr()
}

func (p *Parser) initList() (*cast.InitList, error) {
	list := &cast.InitList{Loc: p.at()}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	for p.tok.Type != lexer.RBRACE {
		var item cast.Node
		var err error
		if p.tok.Type == lexer.DOT || p.tok.Type == lexer.LBRACK {
			item, err = p.designated()
		} else {
			item, err = p.initializer()
		}
		if err != nil {
			return nil, err
		}
		list.Exprs = append(list.Exprs, item)
		if p.tok.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return list, nil
}

// designated parses .field = x and [index] = x initializers, including
// chains such as .a[2].b = x.
func (p *Parser) designated() (cast.Node, error) {
	n := &cast.NamedInitializer{Loc: p.at()}
	for p.tok.Type == lexer.DOT || p.tok.Type == lexer.LBRACK {
		if p.tok.Type == lexer.DOT {
			p.next()
			t, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			n.Name = append(n.Name, &cast.ID{Loc: cast.At(p.coord(t)), Name: t.Lex})
			continue
		}
		p.next()
		idx, err := p.condExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACK); err != nil {
			return nil, err
		}
		n.Name = append(n.Name, idx)
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	x, err := p.initializer()
	if err != nil {
		return nil, err
	}
	n.Expr = x
	return n, nil
}
