package lexer

import (
	"strings"
	"unicode"
)

// operators holds every punctuator. Next takes the longest match.
var operators = map[string]TokenType{
	"(": LPAREN, ")": RPAREN, "{": LBRACE, "}": RBRACE, "[": LBRACK, "]": RBRACK,
	";": SEMI, ",": COMMA, ":": COLON, "?": QUESTION, ".": DOT, "->": ARROW, "...": ELLIPSIS,
	"=": ASSIGN, "&": AMP,
	"+": PLUS, "-": MINUS, "*": STAR, "/": SLASH, "%": PERCENT, "++": INC, "--": DEC,
	"<<": SHL, ">>": SHR,
	"&&": ANDAND, "||": OROR, "|": PIPE, "^": CARET, "~": TILDE, "!": BANG,
	"==": EQEQ, "!=": NEQ, "<": LT, "<=": LE, ">": GT, ">=": GE,
	"+=": ADD_ASSIGN, "-=": SUB_ASSIGN, "*=": MUL_ASSIGN, "/=": DIV_ASSIGN, "%=": MOD_ASSIGN,
	"&=": AND_ASSIGN, "|=": OR_ASSIGN, "^=": XOR_ASSIGN, "<<=": SHL_ASSIGN, ">>=": SHR_ASSIGN,
}

type Lexer struct {
	src  []rune
	i    int
	ch   rune
	line int
	col  int
	// bol is set while only whitespace has been seen on the current line.
	bol bool
}

func New(src string) *Lexer {
	l := &Lexer{src: []rune(src), line: 1, bol: true}
	l.read()
	return l
}

func (l *Lexer) read() {
	if l.i >= len(l.src) {
		l.ch = 0
		l.col++
		return
	}
	if l.ch == '\n' {
		l.bol = true
	} else if l.ch != 0 && !unicode.IsSpace(l.ch) {
		l.bol = false
	}
	l.ch = l.src[l.i]
	l.i++
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekAt(k int) rune {
	if l.i+k >= len(l.src) {
		return 0
	}
	return l.src[l.i+k]
}

func (l *Lexer) peek() rune { return l.peekAt(0) }

// Next returns the next token. #pragma lines come back as a single PRAGMA
// token, every other preprocessor line is skipped; run the source through
// cpp first if it depends on macros or includes.
func (l *Lexer) Next() Token {
	// skip spaces, comments and directives
	for {
		for unicode.IsSpace(l.ch) {
			l.read()
		}
		if l.ch == '#' && l.bol {
			tok := Token{Line: l.line, Col: l.col}
			var line []rune
			for l.ch != 0 && l.ch != '\n' {
				if l.ch == '\\' && l.peek() == '\n' {
					l.read()
					l.read()
					line = append(line, ' ')
					continue
				}
				line = append(line, l.ch)
				l.read()
			}
			if rest, ok := pragma(string(line)); ok {
				tok.Type, tok.Lex = PRAGMA, rest
				return tok
			}
			continue
		}
		if l.ch == '/' && l.peek() == '/' {
			for l.ch != 0 && l.ch != '\n' {
				l.read()
			}
			continue
		}
		if l.ch == '/' && l.peek() == '*' {
			l.read()
			l.read()
			for l.ch != 0 {
				if l.ch == '*' && l.peek() == '/' {
					l.read()
					l.read()
					break
				}
				l.read()
			}
			continue
		}
		break
	}
	tok := Token{Line: l.line, Col: l.col}
	ch := l.ch
	switch {
	case ch == 0:
		tok.Type = EOF
	case unicode.IsLetter(ch) || ch == '_':
		ident := []rune{ch}
		l.read()
		for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
			ident = append(ident, l.ch)
			l.read()
		}
		tok.Lex = string(ident)
		if (tok.Lex == "L" || tok.Lex == "u" || tok.Lex == "U" || tok.Lex == "u8") && (l.ch == '\'' || l.ch == '"') {
			return l.quoted(tok, tok.Lex)
		}
		tok.Type = Lookup(tok.Lex)
	case unicode.IsDigit(ch) || ch == '.' && unicode.IsDigit(l.peek()):
		return l.number(tok)
	case ch == '\'' || ch == '"':
		return l.quoted(tok, "")
	default:
		for n := 3; n > 0; n-- {
			s := string(ch)
			for k := 0; k < n-1; k++ {
				s += string(l.peekAt(k))
			}
			if t, ok := operators[s]; ok {
				tok.Type, tok.Lex = t, s
				for k := 0; k < n; k++ {
					l.read()
				}
				return tok
			}
		}
		tok.Type, tok.Lex = ILLEGAL, string(ch)
		l.read()
	}
	return tok
}

// pragma reports whether a directive line is #pragma and returns its text.
func pragma(line string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	if !strings.HasPrefix(rest, "pragma") {
		return "", false
	}
	after := rest[len("pragma"):]
	if after != "" && !unicode.IsSpace(rune(after[0])) {
		return "", false
	}
	return strings.TrimSpace(after), true
}

// number scans an integer or floating constant including its suffix.
// The lexeme is kept verbatim.
func (l *Lexer) number(tok Token) Token {
	var num []rune
	take := func() {
		num = append(num, l.ch)
		l.read()
	}
	tok.Type = INT
	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		take()
		take()
		for isHex(l.ch) {
			take()
		}
	} else {
		for unicode.IsDigit(l.ch) {
			take()
		}
		if l.ch == '.' {
			tok.Type = FLOAT
			take()
			for unicode.IsDigit(l.ch) {
				take()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			tok.Type = FLOAT
			take()
			if l.ch == '+' || l.ch == '-' {
				take()
			}
			for unicode.IsDigit(l.ch) {
				take()
			}
		}
	}
	for isSuffix(l.ch, tok.Type) {
		take()
	}
	tok.Lex = string(num)
	return tok
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

func isSuffix(r rune, t TokenType) bool {
	switch r {
	case 'l', 'L':
		return true
	case 'u', 'U':
		return t == INT
	case 'f', 'F':
		return t == FLOAT
	}
	return false
}

// quoted scans a character constant or string literal. The lexeme keeps its
// quotes, escapes and encoding prefix.
func (l *Lexer) quoted(tok Token, prefix string) Token {
	q := l.ch
	s := []rune(prefix)
	s = append(s, q)
	l.read()
	for l.ch != q {
		if l.ch == 0 || l.ch == '\n' {
			tok.Type, tok.Lex = ILLEGAL, string(s)
			return tok
		}
		if l.ch == '\\' {
			s = append(s, l.ch)
			l.read()
			if l.ch == 0 {
				tok.Type, tok.Lex = ILLEGAL, string(s)
				return tok
			}
		}
		s = append(s, l.ch)
		l.read()
	}
	s = append(s, q)
	l.read()
	tok.Lex = string(s)
	if q == '\'' {
		tok.Type = CHAR
	} else {
		tok.Type = STRING
	}
	return tok
}

// All scans src to the end. The final token is EOF or the first ILLEGAL.
func All(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Type == EOF || t.Type == ILLEGAL {
			return toks
		}
	}
}
