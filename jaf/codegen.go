package jaf

import (
	"errors"
	"fmt"
	"os"

	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/asm"
)

// ErrCompile tags all code-generation errors.
var ErrCompile = errors.New("compile error")

// Compiler compiles source files against a shared image. Encode
// converts UTF-8 source identifiers and literals into the container
// encoding; nil means identity.
type Compiler struct {
	Encode func(string) (string, error)
}

// Build compiles each file, in order, against img. Declarations
// add or replace metadata; function definitions append code. A
// redefinition replaces the earlier one, so later files win.
func (c *Compiler) Build(img *ain.Image, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCompile, err)
		}
		if err := c.BuildSource(img, string(data), path); err != nil {
			return err
		}
	}
	return nil
}

// BuildFile compiles a single source file against img.
func (c *Compiler) BuildFile(img *ain.Image, path string) error {
	return c.Build(img, []string{path})
}

// BuildSource compiles one source text against img. name is used in
// diagnostics only.
func (c *Compiler) BuildSource(img *ain.Image, source, name string) error {
	file, err := Parse(source, name)
	if err != nil {
		return err
	}
	g := &generator{
		compiler: c,
		img:      img,
		builder:  asm.NewCodeBuilder(img),
		file:     name,
		consts:   make(map[string]int32),
	}
	if err := g.declare(file); err != nil {
		return err
	}
	for _, decl := range file.Decls {
		fn, ok := decl.(*FuncDecl)
		if !ok {
			continue
		}
		if err := g.function(fn); err != nil {
			return err
		}
	}
	return nil
}

// generator holds per-file code generation state.
type generator struct {
	compiler *Compiler
	img      *ain.Image
	builder  *asm.CodeBuilder
	file     string

	consts map[string]int32 // enum values

	// current function
	fnIndex int
	locals  map[string]int
}

func (g *generator) errorf(pos Position, format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d:%d: %s", ErrCompile, g.file, pos.Line, pos.Col,
		fmt.Sprintf(format, args...))
}

func (g *generator) encode(s string) (string, error) {
	if g.compiler.Encode == nil {
		return s, nil
	}
	return g.compiler.Encode(s)
}

// resolveType maps a source type name onto a data type. Any declared
// struct name is a struct type.
func (g *generator) resolveType(pos Position, name string) (ain.DataType, error) {
	if t, ok := ain.TypeByName(name); ok {
		return t, nil
	}
	encoded, err := g.encode(name)
	if err != nil {
		return ain.Void, g.errorf(pos, "encode type name: %v", err)
	}
	if g.img.FindStruct(encoded) >= 0 {
		return ain.Struct, nil
	}
	return ain.Void, g.errorf(pos, "unknown type %q", name)
}

// declare registers all metadata from the file before any body is
// compiled, so bodies can reference declarations in any order.
func (g *generator) declare(file *File) error {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *StructDecl:
			members, err := g.fields(d.Pos, d.Members)
			if err != nil {
				return err
			}
			encoded, err := g.encode(d.Name)
			if err != nil {
				return g.errorf(d.Pos, "encode struct name: %v", err)
			}
			g.img.AddStruct(ain.StructDecl{Name: encoded, Members: members})

		case *EnumDecl:
			encoded, err := g.encode(d.Name)
			if err != nil {
				return g.errorf(d.Pos, "encode enum name: %v", err)
			}
			values := make([]string, len(d.Values))
			for i, v := range d.Values {
				ev, err := g.encode(v)
				if err != nil {
					return g.errorf(d.Pos, "encode enum value: %v", err)
				}
				values[i] = ev
				g.consts[v] = int32(i)
			}
			g.img.AddEnum(ain.EnumDecl{Name: encoded, Values: values})

		case *GlobalDecl:
			t, err := g.resolveType(d.Pos, d.Type)
			if err != nil {
				return err
			}
			encoded, err := g.encode(d.Name)
			if err != nil {
				return g.errorf(d.Pos, "encode global name: %v", err)
			}
			g.img.AddGlobal(ain.Variable{Name: encoded, Type: t})

		case *FuncDecl:
			ret, err := g.resolveType(d.Pos, d.Return)
			if err != nil {
				return err
			}
			params, err := g.fields(d.Pos, d.Params)
			if err != nil {
				return err
			}
			encoded, err := g.encode(d.Name)
			if err != nil {
				return g.errorf(d.Pos, "encode function name: %v", err)
			}
			g.img.AddFunction(ain.Function{Name: encoded, Return: ret, Params: params})
		}
	}
	return nil
}

func (g *generator) fields(pos Position, fields []Field) ([]ain.Variable, error) {
	vars := make([]ain.Variable, 0, len(fields))
	for _, f := range fields {
		t, err := g.resolveType(pos, f.Type)
		if err != nil {
			return nil, err
		}
		encoded, err := g.encode(f.Name)
		if err != nil {
			return nil, g.errorf(pos, "encode name %q: %v", f.Name, err)
		}
		vars = append(vars, ain.Variable{Name: encoded, Type: t})
	}
	return vars, nil
}

// ---------------------------------------------------------------------------
// Function bodies
// ---------------------------------------------------------------------------

func (g *generator) function(d *FuncDecl) error {
	encoded, err := g.encode(d.Name)
	if err != nil {
		return g.errorf(d.Pos, "encode function name: %v", err)
	}
	idx := g.img.FindFunction(encoded)
	if idx < 0 {
		return g.errorf(d.Pos, "function %q not declared", d.Name)
	}

	fn := &g.img.Functions[idx]
	fn.Address = g.builder.Pos()
	fn.Vars = nil
	g.fnIndex = idx
	g.locals = make(map[string]int, len(d.Params))
	for i, p := range d.Params {
		if _, dup := g.locals[p.Name]; dup {
			return g.errorf(d.Pos, "duplicate parameter %q", p.Name)
		}
		g.locals[p.Name] = i
	}

	g.builder.Emit(asm.OpFunc, uint32(idx))
	if err := g.block(d.Body); err != nil {
		return err
	}

	// Implicit epilogue: every function returns a value slot, zero
	// when the body falls off the end.
	if n := len(d.Body.Stmts); n == 0 || !isReturn(d.Body.Stmts[n-1]) {
		g.builder.EmitInt(asm.OpPush, 0)
		g.builder.Emit(asm.OpReturn)
	}
	g.builder.Emit(asm.OpEndFunc)
	return nil
}

func isReturn(s Stmt) bool {
	_, ok := s.(*Return)
	return ok
}

func (g *generator) block(b *Block) error {
	for _, stmt := range b.Stmts {
		if err := g.stmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) stmt(s Stmt) error {
	switch s := s.(type) {
	case *Block:
		return g.block(s)

	case *VarDecl:
		return g.varDecl(s)

	case *Assign:
		return g.assign(s)

	case *If:
		if err := g.expr(s.Cond); err != nil {
			return err
		}
		elseJump := g.builder.EmitPlaceholder(asm.OpIfz)
		if err := g.block(s.Then); err != nil {
			return err
		}
		if s.Else == nil {
			g.builder.Patch(elseJump, g.builder.Pos())
			return nil
		}
		endJump := g.builder.EmitPlaceholder(asm.OpJump)
		g.builder.Patch(elseJump, g.builder.Pos())
		if err := g.block(s.Else); err != nil {
			return err
		}
		g.builder.Patch(endJump, g.builder.Pos())
		return nil

	case *While:
		top := g.builder.Pos()
		if err := g.expr(s.Cond); err != nil {
			return err
		}
		exitJump := g.builder.EmitPlaceholder(asm.OpIfz)
		if err := g.block(s.Body); err != nil {
			return err
		}
		g.builder.Emit(asm.OpJump, top)
		g.builder.Patch(exitJump, g.builder.Pos())
		return nil

	case *Return:
		if s.Value != nil {
			if err := g.expr(s.Value); err != nil {
				return err
			}
		} else {
			g.builder.EmitInt(asm.OpPush, 0)
		}
		g.builder.Emit(asm.OpReturn)
		return nil

	case *ExprStmt:
		if err := g.expr(s.X); err != nil {
			return err
		}
		g.builder.Emit(asm.OpPop)
		return nil

	default:
		return fmt.Errorf("%w: %s: unhandled statement %T", ErrCompile, g.file, s)
	}
}

func (g *generator) varDecl(d *VarDecl) error {
	if _, dup := g.locals[d.Name]; dup {
		return g.errorf(d.Pos, "redeclared local %q", d.Name)
	}
	t, err := g.resolveType(d.Pos, d.Type)
	if err != nil {
		return err
	}
	encoded, err := g.encode(d.Name)
	if err != nil {
		return g.errorf(d.Pos, "encode local name: %v", err)
	}
	fn := &g.img.Functions[g.fnIndex]
	slot := len(fn.Params) + len(fn.Vars)
	fn.Vars = append(fn.Vars, ain.Variable{Name: encoded, Type: t})
	g.locals[d.Name] = slot

	if d.Init != nil {
		if err := g.expr(d.Init); err != nil {
			return err
		}
		g.builder.Emit(asm.OpPopLocal, uint32(slot))
	}
	return nil
}

func (g *generator) assign(s *Assign) error {
	if err := g.expr(s.Value); err != nil {
		return err
	}
	if slot, ok := g.locals[s.Name]; ok {
		g.builder.Emit(asm.OpPopLocal, uint32(slot))
		return nil
	}
	encoded, err := g.encode(s.Name)
	if err != nil {
		return g.errorf(s.Pos, "encode name: %v", err)
	}
	if idx := g.img.FindGlobal(encoded); idx >= 0 {
		g.builder.Emit(asm.OpPopGlobal, uint32(idx))
		return nil
	}
	return g.errorf(s.Pos, "assignment to undeclared variable %q", s.Name)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOps = map[TokenType]asm.Opcode{
	TokenPlus:    asm.OpAdd,
	TokenMinus:   asm.OpSub,
	TokenStar:    asm.OpMul,
	TokenSlash:   asm.OpDiv,
	TokenPercent: asm.OpMod,
	TokenEq:      asm.OpEq,
	TokenNe:      asm.OpNe,
	TokenLt:      asm.OpLt,
	TokenLe:      asm.OpLe,
	TokenGt:      asm.OpGt,
	TokenGe:      asm.OpGe,
	TokenAndAnd:  asm.OpAnd,
	TokenOrOr:    asm.OpOr,
}

func (g *generator) expr(e Expr) error {
	switch e := e.(type) {
	case *IntLit:
		g.builder.EmitInt(asm.OpPush, e.Value)
		return nil

	case *FloatLit:
		g.builder.EmitFloat(asm.OpFPush, e.Value)
		return nil

	case *StringLit:
		encoded, err := g.encode(e.Value)
		if err != nil {
			return g.errorf(e.Pos, "encode string literal: %v", err)
		}
		g.builder.Emit(asm.OpSPush, uint32(g.img.InternString(encoded)))
		return nil

	case *Ident:
		return g.ident(e)

	case *Call:
		return g.call(e)

	case *Unary:
		if err := g.expr(e.X); err != nil {
			return err
		}
		if e.Op == TokenMinus {
			g.builder.Emit(asm.OpNeg)
		} else {
			g.builder.Emit(asm.OpNot)
		}
		return nil

	case *Binary:
		if err := g.expr(e.L); err != nil {
			return err
		}
		if err := g.expr(e.R); err != nil {
			return err
		}
		g.builder.Emit(binaryOps[e.Op])
		return nil

	default:
		return fmt.Errorf("%w: %s: unhandled expression %T", ErrCompile, g.file, e)
	}
}

func (g *generator) ident(e *Ident) error {
	if slot, ok := g.locals[e.Name]; ok {
		g.builder.Emit(asm.OpPushLocal, uint32(slot))
		return nil
	}
	if v, ok := g.consts[e.Name]; ok {
		g.builder.EmitInt(asm.OpPush, v)
		return nil
	}
	encoded, err := g.encode(e.Name)
	if err != nil {
		return g.errorf(e.Pos, "encode name: %v", err)
	}
	if idx := g.img.FindGlobal(encoded); idx >= 0 {
		g.builder.Emit(asm.OpPushGlobal, uint32(idx))
		return nil
	}
	return g.errorf(e.Pos, "undeclared variable %q", e.Name)
}

func (g *generator) call(e *Call) error {
	encoded, err := g.encode(e.Name)
	if err != nil {
		return g.errorf(e.Pos, "encode function name: %v", err)
	}
	idx := g.img.FindFunction(encoded)
	if idx < 0 {
		return g.errorf(e.Pos, "call to undefined function %q", e.Name)
	}
	if want := len(g.img.Functions[idx].Params); want != len(e.Args) {
		return g.errorf(e.Pos, "%s takes %d arguments, given %d", e.Name, want, len(e.Args))
	}
	for _, arg := range e.Args {
		if err := g.expr(arg); err != nil {
			return err
		}
	}
	g.builder.Emit(asm.OpCallFunc, uint32(idx))
	return nil
}
