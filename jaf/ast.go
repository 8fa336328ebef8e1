package jaf

// ---------------------------------------------------------------------------
// AST node types
// ---------------------------------------------------------------------------

// File is a parsed source file.
type File struct {
	Name  string
	Decls []Decl
}

// Decl is a top-level declaration.
type Decl interface{ declNode() }

// GlobalDecl declares a global variable: "int g_count;".
type GlobalDecl struct {
	Type string
	Name string
	Pos  Position
}

// StructDecl declares a structure: "struct Point { int x; int y; }".
type StructDecl struct {
	Name    string
	Members []Field
	Pos     Position
}

// EnumDecl declares an enumeration: "enum Color { RED, BLUE }".
type EnumDecl struct {
	Name   string
	Values []string
	Pos    Position
}

// FuncDecl defines a function with a body.
type FuncDecl struct {
	Return string
	Name   string
	Params []Field
	Body   *Block
	Pos    Position
}

// Field is a typed name: a parameter or a struct member.
type Field struct {
	Type string
	Name string
}

func (*GlobalDecl) declNode() {}
func (*StructDecl) declNode() {}
func (*EnumDecl) declNode()   {}
func (*FuncDecl) declNode()   {}

// Stmt is a statement.
type Stmt interface{ stmtNode() }

// Block is a brace-delimited statement list.
type Block struct {
	Stmts []Stmt
}

// VarDecl declares a local: "int x;" or "int x = expr;".
type VarDecl struct {
	Type string
	Name string
	Init Expr // nil when absent
	Pos  Position
}

// Assign assigns to a local or global: "x = expr;".
type Assign struct {
	Name  string
	Value Expr
	Pos   Position
}

// If is a conditional with an optional else branch.
type If struct {
	Cond Expr
	Then *Block
	Else *Block // nil when absent
}

// While is a pre-test loop.
type While struct {
	Cond Expr
	Body *Block
}

// Return exits the current function, optionally with a value.
type Return struct {
	Value Expr // nil for bare return
	Pos   Position
}

// ExprStmt evaluates an expression for its effect and discards the
// result.
type ExprStmt struct {
	X Expr
}

func (*Block) stmtNode()    {}
func (*VarDecl) stmtNode()  {}
func (*Assign) stmtNode()   {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*Return) stmtNode()   {}
func (*ExprStmt) stmtNode() {}

// Expr is an expression.
type Expr interface{ exprNode() }

// IntLit is an integer literal.
type IntLit struct {
	Value int32
	Pos   Position
}

// FloatLit is a float literal.
type FloatLit struct {
	Value float32
	Pos   Position
}

// StringLit is a string literal (unescaped, UTF-8).
type StringLit struct {
	Value string
	Pos   Position
}

// Ident references a local or global variable.
type Ident struct {
	Name string
	Pos  Position
}

// Call invokes a function by name.
type Call struct {
	Name string
	Args []Expr
	Pos  Position
}

// Unary is a prefix operation: -x or !x.
type Unary struct {
	Op TokenType
	X  Expr
}

// Binary is an infix operation.
type Binary struct {
	Op TokenType
	L  Expr
	R  Expr
}

func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*StringLit) exprNode() {}
func (*Ident) exprNode()     {}
func (*Call) exprNode()      {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
