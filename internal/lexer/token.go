package lexer

type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL
	PRAGMA

	// Identifiers + literals
	IDENT
	INT
	FLOAT
	CHAR
	STRING

	// Keywords
	KW_INT
	KW_CHAR
	KW_SHORT
	KW_LONG
	KW_SIGNED
	KW_UNSIGNED
	KW_FLOAT
	KW_DOUBLE
	KW_VOID
	KW_BOOL
	KW_STRUCT
	KW_UNION
	KW_ENUM
	KW_TYPEDEF
	KW_EXTERN
	KW_STATIC
	KW_AUTO
	KW_REGISTER
	KW_CONST
	KW_VOLATILE
	KW_RESTRICT
	KW_INLINE
	KW_SIZEOF
	KW_RETURN
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_DO
	KW_BREAK
	KW_CONTINUE
	KW_SWITCH
	KW_CASE
	KW_DEFAULT
	KW_GOTO

	// Symbols
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACK   // [
	RBRACK   // ]
	SEMI     // ;
	COMMA    // ,
	COLON    // :
	QUESTION // ?
	DOT      // .
	ARROW    // ->
	ELLIPSIS // ...
	ASSIGN   // =
	AMP      // &

	// Arithmetic
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	INC     // ++
	DEC     // --

	// Shifts
	SHL // <<
	SHR // >>

	// Bitwise/logical
	ANDAND // &&
	OROR   // ||
	PIPE   // |
	CARET  // ^
	TILDE  // ~
	BANG   // !

	// Comparison
	EQEQ // ==
	NEQ  // !=
	LT   // <
	LE   // <=
	GT   // >
	GE   // >=

	// Compound assignment
	ADD_ASSIGN // +=
	SUB_ASSIGN // -=
	MUL_ASSIGN // *=
	DIV_ASSIGN // /=
	MOD_ASSIGN // %=
	AND_ASSIGN // &=
	OR_ASSIGN  // |=
	XOR_ASSIGN // ^=
	SHL_ASSIGN // <<=
	SHR_ASSIGN // >>=
)

var keywords = map[string]TokenType{
	"int":      KW_INT,
	"char":     KW_CHAR,
	"short":    KW_SHORT,
	"long":     KW_LONG,
	"signed":   KW_SIGNED,
	"unsigned": KW_UNSIGNED,
	"float":    KW_FLOAT,
	"double":   KW_DOUBLE,
	"void":     KW_VOID,
	"_Bool":    KW_BOOL,
	"struct":   KW_STRUCT,
	"union":    KW_UNION,
	"enum":     KW_ENUM,
	"typedef":  KW_TYPEDEF,
	"extern":   KW_EXTERN,
	"static":   KW_STATIC,
	"auto":     KW_AUTO,
	"register": KW_REGISTER,
	"const":    KW_CONST,
	"volatile": KW_VOLATILE,
	"restrict": KW_RESTRICT,
	"inline":   KW_INLINE,
	"sizeof":   KW_SIZEOF,
	"return":   KW_RETURN,
	"if":       KW_IF,
	"else":     KW_ELSE,
	"while":    KW_WHILE,
	"for":      KW_FOR,
	"do":       KW_DO,
	"break":    KW_BREAK,
	"continue": KW_CONTINUE,
	"switch":   KW_SWITCH,
	"case":     KW_CASE,
	"default":  KW_DEFAULT,
	"goto":     KW_GOTO,
}

var names = map[TokenType]string{
	EOF: "end of file", ILLEGAL: "illegal character", PRAGMA: "#pragma",
	IDENT: "identifier", INT: "integer constant", FLOAT: "floating constant",
	CHAR: "character constant", STRING: "string literal",
	LPAREN: "'('", RPAREN: "')'", LBRACE: "'{'", RBRACE: "'}'",
	LBRACK: "'['", RBRACK: "']'", SEMI: "';'", COMMA: "','", COLON: "':'",
	QUESTION: "'?'", DOT: "'.'", ARROW: "'->'", ELLIPSIS: "'...'",
}

// String returns a readable name for diagnostics.
func (t TokenType) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	for kw, tt := range keywords {
		if tt == t {
			return "'" + kw + "'"
		}
	}
	for op, tt := range operators {
		if tt == t {
			return "'" + op + "'"
		}
	}
	return "token"
}

// Lookup returns the keyword type for ident, or IDENT.
func Lookup(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}

type Token struct {
	Type TokenType
	Lex  string
	Line int
	Col  int
}

func (t Token) Is(op TokenType) bool { return t.Type == op }
