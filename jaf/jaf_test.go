package jaf

import (
	"errors"
	"strings"
	"testing"

	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/asm"
)

func TestLexerTokens(t *testing.T) {
	lex := NewLexer(`int n = 0x10; // comment
if (n <= 2) { s = "a\n"; }`)

	want := []struct {
		typ  TokenType
		text string
	}{
		{TokenIdent, "int"},
		{TokenIdent, "n"},
		{TokenAssign, "="},
		{TokenInteger, "0x10"},
		{TokenSemicolon, ";"},
		{TokenIf, "if"},
		{TokenLParen, "("},
		{TokenIdent, "n"},
		{TokenLe, "<="},
		{TokenInteger, "2"},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenIdent, "s"},
		{TokenAssign, "="},
		{TokenString, "a\n"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}
	for i, w := range want {
		tok := lex.NextToken()
		if tok.Type != w.typ || tok.Text != w.text {
			t.Fatalf("token %d: got %v %q, want %v %q", i, tok.Type, tok.Text, w.typ, w.text)
		}
	}
}

func TestParseDeclarations(t *testing.T) {
	file, err := Parse(`
struct point { int x; int y; };
enum color { red, green, blue };
int counter;
int add(int a, int b) { return a + b; }
`, "decls.jaf")
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Decls) != 4 {
		t.Fatalf("got %d decls, want 4", len(file.Decls))
	}
	st, ok := file.Decls[0].(*StructDecl)
	if !ok || st.Name != "point" || len(st.Members) != 2 {
		t.Fatalf("bad struct decl: %#v", file.Decls[0])
	}
	en, ok := file.Decls[1].(*EnumDecl)
	if !ok || en.Name != "color" || len(en.Values) != 3 {
		t.Fatalf("bad enum decl: %#v", file.Decls[1])
	}
	if _, ok := file.Decls[2].(*GlobalDecl); !ok {
		t.Fatalf("bad global decl: %#v", file.Decls[2])
	}
	fn, ok := file.Decls[3].(*FuncDecl)
	if !ok || fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("bad func decl: %#v", file.Decls[3])
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("int f( { }", "bad.jaf")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error not tagged ErrParse: %v", err)
	}
	if !strings.Contains(err.Error(), "bad.jaf:1:") {
		t.Fatalf("error missing position: %v", err)
	}
}

func compile(t *testing.T, source string) *ain.Image {
	t.Helper()
	img, _ := ain.New(ain.Version{Major: 4})
	c := &Compiler{}
	if err := c.BuildSource(img, source, "test.jaf"); err != nil {
		t.Fatal(err)
	}
	return img
}

func TestCompileFunctionBytes(t *testing.T) {
	img := compile(t, `int add(int a, int b) { return a + b; }`)

	idx := img.FindFunction("add")
	if idx < 0 {
		t.Fatal("add not registered")
	}
	if img.Functions[idx].Address != 0 {
		t.Fatalf("address = %d, want 0", img.Functions[idx].Address)
	}
	want := []byte{
		byte(asm.OpFunc), 0, 0, 0, 0,
		byte(asm.OpPushLocal), 0, 0,
		byte(asm.OpPushLocal), 1, 0,
		byte(asm.OpAdd),
		byte(asm.OpReturn),
		byte(asm.OpEndFunc),
	}
	if string(img.Code) != string(want) {
		t.Fatalf("code = % X, want % X", img.Code, want)
	}
}

func TestCompileCallAndGlobal(t *testing.T) {
	img := compile(t, `
int total;
int add(int a, int b) { return a + b; }
void main(void) { total = add(1, 2); }
`)
	if img.FindGlobal("total") != 0 {
		t.Fatal("global not registered")
	}
	// main must call add by its registered index and pop into the global.
	dump, err := asm.Disassemble(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CALLFUNC 0", "POPGLOBAL 0"} {
		if !strings.Contains(dump, want) {
			t.Fatalf("disassembly missing %q:\n%s", want, dump)
		}
	}
}

func TestCompileIfElse(t *testing.T) {
	img := compile(t, `
int sign(int n) {
	if (n < 0) {
		return -1;
	} else {
		return 1;
	}
}
`)
	dump, err := asm.Disassemble(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The IFZ target must land after the JUMP that skips the else arm.
	if !strings.Contains(dump, "IFZ") || !strings.Contains(dump, "JUMP") {
		t.Fatalf("missing branch opcodes:\n%s", dump)
	}
}

func TestCompileWhileLoopsBack(t *testing.T) {
	img := compile(t, `
int sum(int n) {
	int total = 0;
	while (n > 0) {
		total = total + n;
		n = n - 1;
	}
	return total;
}
`)
	dump, err := asm.Disassemble(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The back jump targets the condition, which starts after
	// FUNC + PUSH + POPLOCAL.
	if !strings.Contains(dump, "JUMP 0x0000000D") {
		t.Fatalf("missing back jump to condition:\n%s", dump)
	}
}

func TestCompileLocalSlots(t *testing.T) {
	img := compile(t, `
int f(int a) {
	int b = 7;
	return b;
}
`)
	idx := img.FindFunction("f")
	fn := img.Functions[idx]
	if len(fn.Params) != 1 || len(fn.Vars) != 1 {
		t.Fatalf("params=%d vars=%d", len(fn.Params), len(fn.Vars))
	}
	// b lives in slot 1, after the single parameter.
	want := []byte{
		byte(asm.OpFunc), byte(idx), 0, 0, 0,
		byte(asm.OpPush), 7, 0, 0, 0,
		byte(asm.OpPopLocal), 1, 0,
		byte(asm.OpPushLocal), 1, 0,
		byte(asm.OpReturn),
		byte(asm.OpEndFunc),
	}
	if string(img.Code) != string(want) {
		t.Fatalf("code = % X, want % X", img.Code, want)
	}
}

func TestCompileEnumConstant(t *testing.T) {
	img := compile(t, `
enum color { red, green, blue };
int pick(void) { return green; }
`)
	want := []byte{
		byte(asm.OpFunc), 0, 0, 0, 0,
		byte(asm.OpPush), 1, 0, 0, 0,
		byte(asm.OpReturn),
		byte(asm.OpEndFunc),
	}
	if string(img.Code) != string(want) {
		t.Fatalf("code = % X, want % X", img.Code, want)
	}
	if len(img.Enums) != 1 || img.Enums[0].Name != "color" {
		t.Fatalf("enums = %#v", img.Enums)
	}
}

func TestCompileStringLiteralInterned(t *testing.T) {
	img := compile(t, `
string greet(void) { return "hello"; }
string again(void) { return "hello"; }
`)
	if len(img.Strings) != 1 || img.Strings[0] != "hello" {
		t.Fatalf("strings = %q, want one %q", img.Strings, "hello")
	}
}

func TestCompileEncodeApplied(t *testing.T) {
	img, _ := ain.New(ain.Version{Major: 4})
	c := &Compiler{Encode: func(s string) (string, error) {
		return strings.ToUpper(s), nil
	}}
	err := c.BuildSource(img, `string f(void) { return "hi"; }`, "enc.jaf")
	if err != nil {
		t.Fatal(err)
	}
	if img.FindFunction("F") < 0 {
		t.Fatal("function name not encoded")
	}
	if len(img.Strings) != 1 || img.Strings[0] != "HI" {
		t.Fatalf("strings = %q", img.Strings)
	}
}

func TestCompileRedefinitionWins(t *testing.T) {
	img, _ := ain.New(ain.Version{Major: 4})
	c := &Compiler{}
	if err := c.BuildSource(img, `int f(void) { return 1; }`, "a.jaf"); err != nil {
		t.Fatal(err)
	}
	first := img.Functions[img.FindFunction("f")].Address
	if err := c.BuildSource(img, `int f(void) { return 2; }`, "b.jaf"); err != nil {
		t.Fatal(err)
	}
	if img.FindFunction("f") != 0 {
		t.Fatal("redefinition must replace, not append")
	}
	second := img.Functions[0].Address
	if second <= first {
		t.Fatalf("second definition address %d not after first %d", second, first)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"undeclared variable", `int f(void) { return x; }`, "undeclared variable"},
		{"undefined call", `int f(void) { return g(); }`, "undefined function"},
		{"arity mismatch", `int g(int a) { return a; }
int f(void) { return g(); }`, "takes 1 arguments"},
		{"unknown type", `blob f(void) { return 0; }`, "unknown type"},
		{"redeclared local", `int f(int a) { int a = 0; return a; }`, "redeclared local"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, _ := ain.New(ain.Version{Major: 4})
			c := &Compiler{}
			err := c.BuildSource(img, tc.source, "err.jaf")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrCompile) {
				t.Fatalf("error not tagged ErrCompile: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
