// Package jaf compiles high-level source files into a container image:
// structural declarations become metadata, function bodies become code.
package jaf

import "fmt"

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals and names
	TokenInteger // 42, 0x2A
	TokenFloat   // 3.14
	TokenString  // "hello"
	TokenIdent   // foo, Bar

	// Keywords
	TokenStruct
	TokenEnum
	TokenIf
	TokenElse
	TokenWhile
	TokenReturn

	// Operators
	TokenAssign  // =
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenEq      // ==
	TokenNe      // !=
	TokenLt      // <
	TokenLe      // <=
	TokenGt      // >
	TokenGe      // >=
	TokenAndAnd  // &&
	TokenOrOr    // ||
	TokenBang    // !

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenComma     // ,
	TokenSemicolon // ;
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenInteger:   "INTEGER",
	TokenFloat:     "FLOAT",
	TokenString:    "STRING",
	TokenIdent:     "IDENTIFIER",
	TokenStruct:    "struct",
	TokenEnum:      "enum",
	TokenIf:        "if",
	TokenElse:      "else",
	TokenWhile:     "while",
	TokenReturn:    "return",
	TokenAssign:    "=",
	TokenPlus:      "+",
	TokenMinus:     "-",
	TokenStar:      "*",
	TokenSlash:     "/",
	TokenPercent:   "%",
	TokenEq:        "==",
	TokenNe:        "!=",
	TokenLt:        "<",
	TokenLe:        "<=",
	TokenGt:        ">",
	TokenGe:        ">=",
	TokenAndAnd:    "&&",
	TokenOrOr:      "||",
	TokenBang:      "!",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
	TokenComma:     ",",
	TokenSemicolon: ";",
}

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"struct": TokenStruct,
	"enum":   TokenEnum,
	"if":     TokenIf,
	"else":   TokenElse,
	"while":  TokenWhile,
	"return": TokenReturn,
}

// Position is a location in a source file.
type Position struct {
	Line int // 1-based
	Col  int // 1-based
}

// Token is one lexical unit.
type Token struct {
	Type TokenType
	Text string
	Pos  Position
}
