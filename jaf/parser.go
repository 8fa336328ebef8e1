package jaf

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrParse tags all source parse errors.
var ErrParse = errors.New("parse error")

// ---------------------------------------------------------------------------
// Parser: recursive descent with C expression precedence
// ---------------------------------------------------------------------------

// Parser parses one source file into an AST.
type Parser struct {
	lexer     *Lexer
	file      string
	curToken  Token
	peekToken Token
}

// NewParser creates a parser for the given input. name is used in
// diagnostics.
func NewParser(input, name string) *Parser {
	p := &Parser{lexer: NewLexer(input), file: name}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse consumes the whole input and returns the file's declarations.
func Parse(input, name string) (*File, error) {
	p := NewParser(input, name)
	f := &File{Name: name}
	for !p.curTokenIs(TokenEOF) {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, decl)
	}
	return f, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) errorf(format string, args ...any) error {
	pos := p.curToken.Pos
	return fmt.Errorf("%w: %s:%d:%d: %s", ErrParse, p.file, pos.Line, pos.Col,
		fmt.Sprintf(format, args...))
}

// expect consumes the current token if it matches, or fails.
func (p *Parser) expect(t TokenType) (Token, error) {
	if p.curToken.Type == TokenError {
		return Token{}, p.errorf("%s", p.curToken.Text)
	}
	if !p.curTokenIs(t) {
		return Token{}, p.errorf("expected %s, got %s", t, describe(p.curToken))
	}
	tok := p.curToken
	p.nextToken()
	return tok, nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenIdent, TokenInteger, TokenFloat:
		return fmt.Sprintf("%s %q", tok.Type, tok.Text)
	case TokenError:
		return tok.Text
	default:
		return tok.Type.String()
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (p *Parser) parseDecl() (Decl, error) {
	switch p.curToken.Type {
	case TokenStruct:
		return p.parseStruct()
	case TokenEnum:
		return p.parseEnum()
	case TokenIdent:
		return p.parseGlobalOrFunc()
	case TokenError:
		return nil, p.errorf("%s", p.curToken.Text)
	default:
		return nil, p.errorf("expected declaration, got %s", describe(p.curToken))
	}
}

func (p *Parser) parseStruct() (Decl, error) {
	pos := p.curToken.Pos
	p.nextToken() // struct
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var members []Field
	for !p.curTokenIs(TokenRBrace) {
		typ, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		member, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenSemicolon); err != nil {
			return nil, err
		}
		members = append(members, Field{Type: typ.Text, Name: member.Text})
	}
	p.nextToken() // }
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
	}
	return &StructDecl{Name: name.Text, Members: members, Pos: pos}, nil
}

func (p *Parser) parseEnum() (Decl, error) {
	pos := p.curToken.Pos
	p.nextToken() // enum
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var values []string
	for !p.curTokenIs(TokenRBrace) {
		v, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		values = append(values, v.Text)
		if p.curTokenIs(TokenComma) {
			p.nextToken()
		}
	}
	p.nextToken() // }
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
	}
	return &EnumDecl{Name: name.Text, Values: values, Pos: pos}, nil
}

// parseGlobalOrFunc disambiguates "type name;" from
// "type name(params) { body }".
func (p *Parser) parseGlobalOrFunc() (Decl, error) {
	pos := p.curToken.Pos
	typ, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
		return &GlobalDecl{Type: typ.Text, Name: name.Text, Pos: pos}, nil
	}
	if !p.curTokenIs(TokenLParen) {
		return nil, p.errorf("expected ; or ( after %q", name.Text)
	}
	p.nextToken() // (

	var params []Field
	for !p.curTokenIs(TokenRParen) {
		ptype, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		// "(void)" declares an empty parameter list.
		if ptype.Text == "void" && p.curTokenIs(TokenRParen) {
			break
		}
		pname, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		params = append(params, Field{Type: ptype.Text, Name: pname.Text})
		if p.curTokenIs(TokenComma) {
			p.nextToken()
		}
	}
	p.nextToken() // )

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Return: typ.Text, Name: name.Text, Params: params, Body: body, Pos: pos}, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseBlock() (*Block, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	b := &Block{}
	for !p.curTokenIs(TokenRBrace) {
		if p.curTokenIs(TokenEOF) {
			return nil, p.errorf("unterminated block")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmt)
	}
	p.nextToken() // }
	return b, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	switch p.curToken.Type {
	case TokenLBrace:
		return p.parseBlock()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenReturn:
		return p.parseReturn()
	case TokenIdent:
		return p.parseSimpleStmt()
	case TokenError:
		return nil, p.errorf("%s", p.curToken.Text)
	default:
		return nil, p.errorf("expected statement, got %s", describe(p.curToken))
	}
}

func (p *Parser) parseIf() (Stmt, error) {
	p.nextToken() // if
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &If{Cond: cond, Then: then}
	if p.curTokenIs(TokenElse) {
		p.nextToken()
		if p.curTokenIs(TokenIf) {
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = &Block{Stmts: []Stmt{nested}}
		} else {
			stmt.Else, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	p.nextToken() // while
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	pos := p.curToken.Pos
	p.nextToken() // return
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
		return &Return{Pos: pos}, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return &Return{Value: value, Pos: pos}, nil
}

// parseSimpleStmt disambiguates local declarations, assignments, and
// expression statements, all of which begin with an identifier.
func (p *Parser) parseSimpleStmt() (Stmt, error) {
	pos := p.curToken.Pos

	// "type name ..." is a local declaration.
	if p.peekToken.Type == TokenIdent {
		typ := p.curToken.Text
		p.nextToken()
		name := p.curToken.Text
		p.nextToken()
		decl := &VarDecl{Type: typ, Name: name, Pos: pos}
		if p.curTokenIs(TokenAssign) {
			p.nextToken()
			init, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			decl.Init = init
		}
		if _, err := p.expect(TokenSemicolon); err != nil {
			return nil, err
		}
		return decl, nil
	}

	// "name = ..." is an assignment.
	if p.peekToken.Type == TokenAssign {
		name := p.curToken.Text
		p.nextToken()
		p.nextToken() // =
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenSemicolon); err != nil {
			return nil, err
		}
		return &Assign{Name: name, Value: value, Pos: pos}, nil
	}

	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return &ExprStmt{X: x}, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Binding powers, loosest first.
var precedence = map[TokenType]int{
	TokenOrOr:    1,
	TokenAndAnd:  2,
	TokenEq:      3,
	TokenNe:      3,
	TokenLt:      4,
	TokenLe:      4,
	TokenGt:      4,
	TokenGe:      4,
	TokenPlus:    5,
	TokenMinus:   5,
	TokenStar:    6,
	TokenSlash:   6,
	TokenPercent: 6,
}

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := precedence[p.curToken.Type]
		if !ok || prec <= minPrec {
			return left, nil
		}
		op := p.curToken.Type
		p.nextToken()
		right, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	switch p.curToken.Type {
	case TokenMinus, TokenBang:
		op := p.curToken.Type
		p.nextToken()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	pos := p.curToken.Pos
	switch p.curToken.Type {
	case TokenInteger:
		v, err := strconv.ParseInt(p.curToken.Text, 0, 32)
		if err != nil {
			return nil, p.errorf("integer literal %q out of range", p.curToken.Text)
		}
		p.nextToken()
		return &IntLit{Value: int32(v), Pos: pos}, nil

	case TokenFloat:
		v, err := strconv.ParseFloat(p.curToken.Text, 32)
		if err != nil {
			return nil, p.errorf("bad float literal %q", p.curToken.Text)
		}
		p.nextToken()
		return &FloatLit{Value: float32(v), Pos: pos}, nil

	case TokenString:
		text := p.curToken.Text
		p.nextToken()
		return &StringLit{Value: text, Pos: pos}, nil

	case TokenIdent:
		name := p.curToken.Text
		p.nextToken()
		if !p.curTokenIs(TokenLParen) {
			return &Ident{Name: name, Pos: pos}, nil
		}
		p.nextToken() // (
		var args []Expr
		for !p.curTokenIs(TokenRParen) {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.curTokenIs(TokenComma) {
				p.nextToken()
			}
		}
		p.nextToken() // )
		return &Call{Name: name, Args: args, Pos: pos}, nil

	case TokenLParen:
		p.nextToken()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return x, nil

	case TokenError:
		return nil, p.errorf("%s", p.curToken.Text)

	default:
		return nil, p.errorf("expected expression, got %s", describe(p.curToken))
	}
}
