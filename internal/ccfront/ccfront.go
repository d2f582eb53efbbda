// Package ccfront parses C with modernc.org/cc/v3, preprocessor included,
// and converts the result into the cast tree the built-in parser produces.
// Constructs the rest of the pipeline has no node for (asm, statement
// expressions, GNU label values and the like) are reported as errors.
package ccfront

import (
	"fmt"

	"modernc.org/cc/v3"
	"modernc.org/token"

	"github.com/tinyrange/minic/internal/cast"
)

// Parse preprocesses and parses src, searching includePaths for quoted and
// angled includes alike.
func Parse(name, src string, includePaths []string) (*cast.File, error) {
	ast, err := cc.Parse(&cc.Config{}, includePaths, includePaths, []cc.Source{{Name: name, Value: src, DoNotCache: true}})
	if err != nil {
		return nil, err
	}
	return convertUnit(ast.TranslationUnit)
}

// Error is a construct cc accepts that has no cast form.
type Error struct {
	Pos *cast.Coord
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

func unsupported(pos token.Position, what string) error {
	return &Error{Pos: coord(pos), Msg: what + " not supported"}
}

func coord(pos token.Position) *cast.Coord {
	if pos.Line == 0 {
		return nil
	}
	return &cast.Coord{File: pos.Filename, Line: pos.Line, Column: pos.Column}
}

func at(t cc.Token) cast.Loc { return cast.At(coord(t.Position())) }

func text(t cc.Token) string { return t.Value.String() }

func convertUnit(tu *cc.TranslationUnit) (*cast.File, error) {
	f := &cast.File{}
	for ; tu != nil; tu = tu.TranslationUnit {
		ed := tu.ExternalDeclaration
		switch ed.Case {
		case cc.ExternalDeclarationFuncDef:
			def, err := funcDef(ed.FunctionDefinition)
			if err != nil {
				return nil, err
			}
			f.Ext = append(f.Ext, def)
		case cc.ExternalDeclarationDecl:
			ds, err := declaration(ed.Declaration)
			if err != nil {
				return nil, err
			}
			f.Ext = append(f.Ext, ds...)
		case cc.ExternalDeclarationEmpty:
		default:
			return nil, unsupported(ed.Position(), "top-level "+ed.Case.String())
		}
		if f.Coord == nil && len(f.Ext) > 0 {
			f.Coord = f.Ext[0].Pos()
		}
	}
	return f, nil
}

// specs mirrors the built-in parser's view of declaration specifiers.
type specs struct {
	loc      cast.Loc
	storage  []cast.Value
	quals    []cast.Value
	funcspec []cast.Value
	names    []cast.Value
	typ      cast.Node
}

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

// typeSpec adds one type specifier.
func (s *specs) typeSpec(ts *cc.TypeSpecifier) error {
	if s.loc.Coord == nil {
		s.loc = at(ts.Token)
	}
	var err error
	switch ts.Case {
	case cc.TypeSpecifierStructOrUnion:
		s.typ, err = structOrUnion(ts.StructOrUnionSpecifier)
		if err == nil && s.loc.Coord == nil {
			s.loc = cast.At(s.typ.Pos())
		}
	case cc.TypeSpecifierEnum:
		s.typ, err = enum(ts.EnumSpecifier)
		if s.loc.Coord == nil {
			s.loc = at(ts.EnumSpecifier.Token)
		}
	case cc.TypeSpecifierVoid, cc.TypeSpecifierChar, cc.TypeSpecifierShort,
		cc.TypeSpecifierInt, cc.TypeSpecifierLong, cc.TypeSpecifierFloat,
		cc.TypeSpecifierDouble, cc.TypeSpecifierSigned, cc.TypeSpecifierUnsigned,
		cc.TypeSpecifierBool, cc.TypeSpecifierTypedefName:
		s.names = append(s.names, text(ts.Token))
	default:
		err = unsupported(ts.Token.Position(), "type specifier "+text(ts.Token))
	}
	return err
}

func declSpecs(ds *cc.DeclarationSpecifiers) (*specs, error) {
	s := &specs{}
	for ; ds != nil; ds = ds.DeclarationSpecifiers {
		var tok cc.Token
		switch ds.Case {
		case cc.DeclarationSpecifiersStorage:
			tok = ds.StorageClassSpecifier.Token
			s.storage = append(s.storage, text(tok))
		case cc.DeclarationSpecifiersTypeQual:
			tok = ds.TypeQualifier.Token
			s.quals = append(s.quals, text(tok))
		case cc.DeclarationSpecifiersFunc:
			tok = ds.FunctionSpecifier.Token
			s.funcspec = append(s.funcspec, text(tok))
		case cc.DeclarationSpecifiersTypeSpec:
			if err := s.typeSpec(ds.TypeSpecifier); err != nil {
				return nil, err
			}
			continue
		case cc.DeclarationSpecifiersAttribute:
			continue
		default:
			return nil, unsupported(ds.Position(), "declaration specifier")
		}
		if s.loc.Coord == nil {
			s.loc = at(tok)
		}
	}
	return s, nil
}

func specQuals(sq *cc.SpecifierQualifierList) (*specs, error) {
	s := &specs{}
	for ; sq != nil; sq = sq.SpecifierQualifierList {
		switch sq.Case {
		case cc.SpecifierQualifierListTypeSpec:
			if err := s.typeSpec(sq.TypeSpecifier); err != nil {
				return nil, err
			}
		case cc.SpecifierQualifierListTypeQual:
			if s.loc.Coord == nil {
				s.loc = at(sq.TypeQualifier.Token)
			}
			s.quals = append(s.quals, text(sq.TypeQualifier.Token))
		case cc.SpecifierQualifierListAttribute:
		default:
			return nil, unsupported(sq.Position(), "alignment specifier")
		}
	}
	return s, nil
}

// declaration yields one node per declarator, as the built-in parser does.
func declaration(d *cc.Declaration) ([]cast.Node, error) {
	s, err := declSpecs(d.DeclarationSpecifiers)
	if err != nil {
		return nil, err
	}
	if d.InitDeclaratorList == nil {
		return []cast.Node{&cast.Decl{
			Loc:      s.loc,
			Quals:    s.quals,
			Storage:  s.storage,
			FuncSpec: s.funcspec,
			Type:     s.base(),
		}}, nil
	}
	var out []cast.Node
	for l := d.InitDeclaratorList; l != nil; l = l.InitDeclaratorList {
		id := l.InitDeclarator
		root, leaf, err := declarator(id.Declarator, s)
		if err != nil {
			return nil, err
		}
		if s.isTypedef() {
			out = append(out, &cast.Typedef{Loc: leaf.Loc, Name: leaf.DeclName, Quals: s.quals, Storage: s.storage, Type: root})
			continue
		}
		decl := &cast.Decl{
			Loc:      leaf.Loc,
			Name:     leaf.DeclName,
			Quals:    s.quals,
			Storage:  s.storage,
			FuncSpec: s.funcspec,
			Type:     root,
		}
		if id.Case == cc.InitDeclaratorInit {
			if decl.Init, err = initializer(id.Initializer); err != nil {
				return nil, err
			}
		}
		out = append(out, decl)
	}
	return out, nil
}

func funcDef(fd *cc.FunctionDefinition) (cast.Node, error) {
	s, err := declSpecs(fd.DeclarationSpecifiers)
	if err != nil {
		return nil, err
	}
	root, leaf, err := declarator(fd.Declarator, s)
	if err != nil {
		return nil, err
	}
	decl := &cast.Decl{
		Loc:      leaf.Loc,
		Name:     leaf.DeclName,
		Quals:    s.quals,
		Storage:  s.storage,
		FuncSpec: s.funcspec,
		Type:     root,
	}
	def := &cast.FuncDef{Loc: decl.Loc, Decl: decl}
	for l := fd.DeclarationList; l != nil; l = l.DeclarationList {
		ds, err := declaration(l.Declaration)
		if err != nil {
			return nil, err
		}
		def.ParamDecls = append(def.ParamDecls, ds...)
	}
	if def.Body, err = compound(fd.CompoundStatement); err != nil {
		return nil, err
	}
	return def, nil
}

// declarator returns the top of the modifier chain and the TypeDecl at its
// bottom, which carries the name and the base type.
func declarator(d *cc.Declarator, s *specs) (cast.Node, *cast.TypeDecl, error) {
	leaf := &cast.TypeDecl{Quals: s.quals, Type: s.base()}
	root, err := wrapDeclarator(d, leaf, leaf)
	return root, leaf, err
}

func pointers(p *cc.Pointer, t cast.Node) cast.Node {
	for ; p != nil; p = p.Pointer {
		ptr := &cast.PtrDecl{Loc: at(p.Token), Type: t}
		for q := p.TypeQualifiers; q != nil; q = q.TypeQualifiers {
			if q.Case == cc.TypeQualifiersTypeQual {
				ptr.Quals = append(ptr.Quals, text(q.TypeQualifier.Token))
			}
		}
		t = ptr
	}
	return t
}

// wrapDeclarator applies d to the type chain t, so that the modifier nearest
// the name ends up on top.
func wrapDeclarator(d *cc.Declarator, t cast.Node, leaf *cast.TypeDecl) (cast.Node, error) {
	t = pointers(d.Pointer, t)
	for dd := d.DirectDeclarator; ; dd = dd.DirectDeclarator {
		switch dd.Case {
		case cc.DirectDeclaratorIdent:
			leaf.Loc = at(dd.Token)
			leaf.DeclName = text(dd.Token)
			return t, nil
		case cc.DirectDeclaratorDecl:
			return wrapDeclarator(dd.Declarator, t, leaf)
		case cc.DirectDeclaratorArr, cc.DirectDeclaratorStaticArr, cc.DirectDeclaratorArrStatic:
			arr, err := arrayDecl(dd.Token, dd.Case != cc.DirectDeclaratorArr, dd.TypeQualifiers, dd.AssignmentExpression, t)
			if err != nil {
				return nil, err
			}
			t = arr
		case cc.DirectDeclaratorFuncParam:
			args, err := paramTypes(dd.ParameterTypeList)
			if err != nil {
				return nil, err
			}
			t = &cast.FuncDecl{Loc: at(dd.Token), Args: args, Type: t}
		case cc.DirectDeclaratorFuncIdent:
			fn := &cast.FuncDecl{Loc: at(dd.Token), Type: t}
			if dd.IdentifierList != nil {
				list := &cast.ParamList{Loc: at(dd.IdentifierList.Token)}
				for il := dd.IdentifierList; il != nil; il = il.IdentifierList {
					// the first name is in Token, later ones follow a comma
					tok := il.Token
					if text(tok) == "," {
						tok = il.Token2
					}
					list.Params = append(list.Params, &cast.ID{Loc: at(tok), Name: text(tok)})
				}
				list.Loc = cast.At(list.Params[0].Pos())
				fn.Args = list
			}
			t = fn
		default:
			return nil, unsupported(dd.Position(), "declarator "+dd.Case.String())
		}
	}
}

func arrayDecl(tok cc.Token, static bool, quals *cc.TypeQualifiers, dim *cc.AssignmentExpression, t cast.Node) (cast.Node, error) {
	arr := &cast.ArrayDecl{Loc: at(tok), Type: t}
	if static {
		arr.DimQuals = append(arr.DimQuals, "static")
	}
	for q := quals; q != nil; q = q.TypeQualifiers {
		if q.Case == cc.TypeQualifiersTypeQual {
			arr.DimQuals = append(arr.DimQuals, text(q.TypeQualifier.Token))
		}
	}
	if dim != nil {
		x, err := assignExpr(dim)
		if err != nil {
			return nil, err
		}
		arr.Dim = x
	}
	return arr, nil
}

func abstractDeclarator(ad *cc.AbstractDeclarator, t cast.Node) (cast.Node, error) {
	if ad == nil {
		return t, nil
	}
	t = pointers(ad.Pointer, t)
	for dd := ad.DirectAbstractDeclarator; dd != nil; dd = dd.DirectAbstractDeclarator {
		switch dd.Case {
		case cc.DirectAbstractDeclaratorDecl:
			return abstractDeclarator(dd.AbstractDeclarator, t)
		case cc.DirectAbstractDeclaratorArr, cc.DirectAbstractDeclaratorStaticArr, cc.DirectAbstractDeclaratorArrStatic:
			arr, err := arrayDecl(dd.Token, dd.Case != cc.DirectAbstractDeclaratorArr, dd.TypeQualifiers, dd.AssignmentExpression, t)
			if err != nil {
				return nil, err
			}
			t = arr
		case cc.DirectAbstractDeclaratorFunc:
			args, err := paramTypes(dd.ParameterTypeList)
			if err != nil {
				return nil, err
			}
			t = &cast.FuncDecl{Loc: at(dd.Token), Args: args, Type: t}
		default:
			return nil, unsupported(dd.Position(), "abstract declarator "+dd.Case.String())
		}
	}
	return t, nil
}

func paramTypes(pt *cc.ParameterTypeList) (cast.Node, error) {
	if pt == nil {
		return nil, nil
	}
	list := &cast.ParamList{}
	for l := pt.ParameterList; l != nil; l = l.ParameterList {
		pd := l.ParameterDeclaration
		s, err := declSpecs(pd.DeclarationSpecifiers)
		if err != nil {
			return nil, err
		}
		if pd.Case == cc.ParameterDeclarationDecl {
			root, leaf, err := declarator(pd.Declarator, s)
			if err != nil {
				return nil, err
			}
			list.Params = append(list.Params, &cast.Decl{
				Loc:     leaf.Loc,
				Name:    leaf.DeclName,
				Quals:   s.quals,
				Storage: s.storage,
				Type:    root,
			})
			continue
		}
		leaf := &cast.TypeDecl{Loc: s.loc, Quals: s.quals, Type: s.base()}
		root, err := abstractDeclarator(pd.AbstractDeclarator, leaf)
		if err != nil {
			return nil, err
		}
		list.Params = append(list.Params, &cast.Typename{Loc: s.loc, Quals: s.quals, Type: root})
	}
	if pt.Case == cc.ParameterTypeListVar {
		list.Params = append(list.Params, &cast.EllipsisParam{Loc: at(pt.Token2)})
	}
	if len(list.Params) > 0 {
		list.Loc = cast.At(list.Params[0].Pos())
	}
	return list, nil
}

func typeName(tn *cc.TypeName) (*cast.Typename, error) {
	s, err := specQuals(tn.SpecifierQualifierList)
	if err != nil {
		return nil, err
	}
	leaf := &cast.TypeDecl{Loc: s.loc, Quals: s.quals, Type: s.base()}
	root, err := abstractDeclarator(tn.AbstractDeclarator, leaf)
	if err != nil {
		return nil, err
	}
	return &cast.Typename{Loc: s.loc, Quals: s.quals, Type: root}, nil
}

func structOrUnion(su *cc.StructOrUnionSpecifier) (cast.Node, error) {
	loc := at(su.StructOrUnion.Token)
	var name cast.Value
	if su.Token.Value != 0 {
		name = text(su.Token)
	}
	var decls []cast.Node
	if su.Case == cc.StructOrUnionSpecifierDef {
		decls = []cast.Node{}
		for l := su.StructDeclarationList; l != nil; l = l.StructDeclarationList {
			ds, err := fieldDecl(l.StructDeclaration)
			if err != nil {
				return nil, err
			}
			decls = append(decls, ds...)
		}
	}
	if su.StructOrUnion.Case == cc.StructOrUnionUnion {
		return &cast.Union{Loc: loc, Name: name, Decls: decls}, nil
	}
	return &cast.Struct{Loc: loc, Name: name, Decls: decls}, nil
}

func fieldDecl(sd *cc.StructDeclaration) ([]cast.Node, error) {
	s, err := specQuals(sd.SpecifierQualifierList)
	if err != nil {
		return nil, err
	}
	if sd.StructDeclaratorList == nil {
		return []cast.Node{&cast.Decl{Loc: s.loc, Quals: s.quals, Type: s.base()}}, nil
	}
	var out []cast.Node
	for l := sd.StructDeclaratorList; l != nil; l = l.StructDeclaratorList {
		sdr := l.StructDeclarator
		d := &cast.Decl{Loc: s.loc, Quals: s.quals}
		if sdr.Declarator != nil {
			root, leaf, err := declarator(sdr.Declarator, s)
			if err != nil {
				return nil, err
			}
			d.Loc, d.Name, d.Type = leaf.Loc, leaf.DeclName, root
		} else {
			d.Type = &cast.TypeDecl{Loc: d.Loc, Quals: s.quals, Type: s.base()}
		}
		if sdr.Case == cc.StructDeclaratorBitField {
			if d.Bitsize, err = condExpr(sdr.ConstantExpression.ConditionalExpression); err != nil {
				return nil, err
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func enum(es *cc.EnumSpecifier) (cast.Node, error) {
	e := &cast.Enum{Loc: at(es.Token)}
	if es.Token2.Value != 0 {
		e.Name = text(es.Token2)
	}
	if es.Case == cc.EnumSpecifierTag {
		return e, nil
	}
	list := &cast.EnumeratorList{Loc: at(es.Token3)}
	for l := es.EnumeratorList; l != nil; l = l.EnumeratorList {
		en := l.Enumerator
		n := &cast.Enumerator{Loc: at(en.Token), Name: text(en.Token)}
		if en.Case == cc.EnumeratorExpr {
			v, err := condExpr(en.ConstantExpression.ConditionalExpression)
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		list.Enumerators = append(list.Enumerators, n)
	}
	e.Values = list
	return e, nil
}

func initializer(in *cc.Initializer) (cast.Node, error) {
	if in.Case == cc.InitializerExpr {
		return assignExpr(in.AssignmentExpression)
	}
	return initList(at(in.Token), in.InitializerList)
}

func initList(loc cast.Loc, l *cc.InitializerList) (*cast.InitList, error) {
	list := &cast.InitList{Loc: loc}
	for ; l != nil; l = l.InitializerList {
		x, err := initializer(l.Initializer)
		if err != nil {
			return nil, err
		}
		if l.Designation == nil {
			list.Exprs = append(list.Exprs, x)
			continue
		}
		n := &cast.NamedInitializer{Expr: x}
		for dl := l.Designation.DesignatorList; dl != nil; dl = dl.DesignatorList {
			d := dl.Designator
			switch d.Case {
			case cc.DesignatorIndex:
				idx, err := condExpr(d.ConstantExpression.ConditionalExpression)
				if err != nil {
					return nil, err
				}
				n.Name = append(n.Name, idx)
			case cc.DesignatorField:
				n.Name = append(n.Name, &cast.ID{Loc: at(d.Token2), Name: text(d.Token2)})
			case cc.DesignatorField2:
				n.Name = append(n.Name, &cast.ID{Loc: at(d.Token), Name: text(d.Token)})
			}
			if n.Coord == nil {
				n.Loc = at(d.Token)
			}
		}
		list.Exprs = append(list.Exprs, n)
	}
	return list, nil
}
