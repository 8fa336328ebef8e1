package jaf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

// Lexer tokenizes source text.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, col: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Col: l.col}
}

// NextToken returns the next token in the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()
	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: pos}
	case isIdentStart(l.ch):
		text := l.readIdent()
		if kw, ok := keywords[text]; ok {
			return Token{Type: kw, Text: text, Pos: pos}
		}
		return Token{Type: TokenIdent, Text: text, Pos: pos}
	case unicode.IsDigit(l.ch):
		return l.readNumber(pos)
	case l.ch == '"':
		return l.readString(pos)
	}

	tok := func(t TokenType, text string) Token {
		for range text {
			l.readChar()
		}
		return Token{Type: t, Text: text, Pos: pos}
	}

	two := string(l.ch) + string(l.peekChar())
	switch two {
	case "==":
		return tok(TokenEq, two)
	case "!=":
		return tok(TokenNe, two)
	case "<=":
		return tok(TokenLe, two)
	case ">=":
		return tok(TokenGe, two)
	case "&&":
		return tok(TokenAndAnd, two)
	case "||":
		return tok(TokenOrOr, two)
	}

	switch l.ch {
	case '=':
		return tok(TokenAssign, "=")
	case '+':
		return tok(TokenPlus, "+")
	case '-':
		return tok(TokenMinus, "-")
	case '*':
		return tok(TokenStar, "*")
	case '/':
		return tok(TokenSlash, "/")
	case '%':
		return tok(TokenPercent, "%")
	case '<':
		return tok(TokenLt, "<")
	case '>':
		return tok(TokenGt, ">")
	case '!':
		return tok(TokenBang, "!")
	case '(':
		return tok(TokenLParen, "(")
	case ')':
		return tok(TokenRParen, ")")
	case '{':
		return tok(TokenLBrace, "{")
	case '}':
		return tok(TokenRBrace, "}")
	case ',':
		return tok(TokenComma, ",")
	case ';':
		return tok(TokenSemicolon, ";")
	}

	bad := string(l.ch)
	l.readChar()
	return Token{Type: TokenError, Text: "unexpected character " + bad, Pos: pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			l.readChar()
			l.readChar()
			continue
		}
		return
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '@' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	isFloat := false
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for unicode.Is(unicode.Hex_Digit, l.ch) {
			l.readChar()
		}
		return Token{Type: TokenInteger, Text: l.input[start:l.pos], Pos: pos}
	}
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	t := TokenInteger
	if isFloat {
		t = TokenFloat
	}
	return Token{Type: t, Text: l.input[start:l.pos], Pos: pos}
}

// readString lexes a double-quoted literal with escapes
// \n \t \r \" \\ and \xNN. The token text is the unescaped value.
func (l *Lexer) readString(pos Position) Token {
	var out strings.Builder
	l.readChar() // opening quote
	for {
		switch l.ch {
		case 0, '\n':
			return Token{Type: TokenError, Text: "unterminated string literal", Pos: pos}
		case '"':
			l.readChar()
			return Token{Type: TokenString, Text: out.String(), Pos: pos}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case 'r':
				out.WriteByte('\r')
			case '"':
				out.WriteByte('"')
			case '\\':
				out.WriteByte('\\')
			case 'x':
				hi := hexValue(l.peekChar())
				l.readChar()
				lo := hexValue(l.peekChar())
				l.readChar()
				if hi < 0 || lo < 0 {
					return Token{Type: TokenError, Text: "bad \\x escape", Pos: pos}
				}
				out.WriteByte(byte(hi<<4 | lo))
			default:
				return Token{Type: TokenError, Text: "unknown escape \\" + string(l.ch), Pos: pos}
			}
			l.readChar()
		default:
			out.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func hexValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	default:
		return -1
	}
}
