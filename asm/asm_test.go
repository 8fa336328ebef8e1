package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/ainkit/ainkit/ain"
)

func newImage(t *testing.T) *ain.Image {
	t.Helper()
	img, err := ain.New(ain.Version{Major: 4})
	if err != nil {
		t.Fatalf("ain.New: %v", err)
	}
	return img
}

func assemble(t *testing.T, img *ain.Image, source string, flags Flags) {
	t.Helper()
	a := &Assembler{Flags: flags}
	if err := a.Assemble(source, "test.jam", img); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
}

func TestAssembleSimpleFunction(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func main : int
  PUSH 1
  PUSH 2
  ADD
  RETURN
.endfunc
`, 0)

	if len(img.Functions) != 1 {
		t.Fatalf("function count = %d, want 1", len(img.Functions))
	}
	fn := img.Functions[0]
	if fn.Name != "main" || fn.Return != ain.Int {
		t.Errorf("function = %+v", fn)
	}
	if fn.Address != 0 {
		t.Errorf("address = %d, want 0", fn.Address)
	}

	want := []byte{
		byte(OpFunc), 0, 0, 0, 0,
		byte(OpPush), 1, 0, 0, 0,
		byte(OpPush), 2, 0, 0, 0,
		byte(OpAdd),
		byte(OpReturn),
		byte(OpEndFunc),
	}
	if string(img.Code) != string(want) {
		t.Errorf("code = % X, want % X", img.Code, want)
	}
}

func TestAssembleLabelBackpatch(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func loop
  PUSH 10
top:
  PUSH 1
  SUB
  DUP
  IFNZ top
  RETURN
.endfunc
`, 0)

	dis, err := Disassemble(img, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	// "top:" is at offset 10: FUNC(5) + PUSH(5).
	if !strings.Contains(dis, "IFNZ 0x0000000A") {
		t.Errorf("back-patched jump missing:\n%s", dis)
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	img := newImage(t)
	a := &Assembler{}
	err := a.Assemble(".func f\n  JUMP nowhere\n.endfunc\n", "test.jam", img)
	if !errors.Is(err, ErrAsm) {
		t.Fatalf("error = %v, want ErrAsm", err)
	}
	if !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("diagnostic should name the label: %v", err)
	}
}

func TestAssembleCallByName(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func main
  CALLFUNC helper
  RETURN
.endfunc

.func helper
  RETURN
.endfunc
`, 0)

	// CALLFUNC operand must point at helper (index 1), resolved even
	// though helper is defined later in the file.
	dis, err := Disassemble(img, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(dis, "CALLFUNC 1") {
		t.Errorf("call not resolved:\n%s", dis)
	}
}

func TestAssembleCallAgainstEarlierEdit(t *testing.T) {
	// A declaration edit applied earlier in the run may have defined
	// the callee; assembly must resolve against the shared image.
	img := newImage(t)
	img.AddFunction(ain.Function{Name: "external", Return: ain.Void})

	assemble(t, img, ".func main\n  CALLFUNC external\n.endfunc\n", 0)
}

func TestAssembleCallUndefined(t *testing.T) {
	img := newImage(t)
	a := &Assembler{}
	err := a.Assemble(".func main\n  CALLFUNC missing\n.endfunc\n", "test.jam", img)
	if !errors.Is(err, ErrAsm) {
		t.Fatalf("error = %v, want ErrAsm", err)
	}
}

func TestAssembleStringInterning(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func f
  S_PUSH "hello\n"
  S_PUSH "hello\n"
  S_PUSH "other"
.endfunc
`, 0)

	if len(img.Strings) != 2 {
		t.Fatalf("string table = %q, want 2 entries", img.Strings)
	}
	if img.Strings[0] != "hello\n" {
		t.Errorf("Strings[0] = %q, escapes not processed", img.Strings[0])
	}
}

func TestAssembleMessagesAppend(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func f
  MSG "one"
  MSG "one"
.endfunc
`, 0)

	// Messages are positional: identical text still appends.
	if len(img.Messages) != 2 {
		t.Fatalf("message table = %q, want 2 entries", img.Messages)
	}
}

func TestAssembleRawMode(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `.func f
S_PUSH "kept\nverbatim"
.endfunc
`, FlagRaw)

	if len(img.Strings) != 1 {
		t.Fatalf("string table = %q", img.Strings)
	}
	// Raw mode: quotes and escapes land in the table untouched.
	if img.Strings[0] != `"kept\nverbatim"` {
		t.Errorf("Strings[0] = %q, want raw operand text", img.Strings[0])
	}
}

func TestAssembleLocalsByName(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func f : int
.arg a : int
.arg b : int
.var tmp : int
  PUSHLOCAL a
  PUSHLOCAL b
  ADD
  POPLOCAL tmp
  PUSHLOCAL tmp
  RETURN
.endfunc
`, 0)

	fn := img.Functions[0]
	if len(fn.Params) != 2 || len(fn.Vars) != 1 {
		t.Fatalf("slots = %d params, %d vars", len(fn.Params), len(fn.Vars))
	}
	dis, err := Disassemble(img, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(dis, "POPLOCAL 2") {
		t.Errorf("tmp should be slot 2 (after params):\n%s", dis)
	}
}

func TestAssembleGlobalRequiresDeclaration(t *testing.T) {
	img := newImage(t)
	a := &Assembler{}
	err := a.Assemble(".func f\n  PUSHGLOBAL g\n.endfunc\n", "test.jam", img)
	if !errors.Is(err, ErrAsm) {
		t.Fatalf("error = %v, want ErrAsm", err)
	}

	img.AddGlobal(ain.Variable{Name: "g", Type: ain.Int})
	assemble(t, img, ".func f\n  PUSHGLOBAL g\n.endfunc\n", 0)
}

func TestAssembleErrorsCarryLine(t *testing.T) {
	img := newImage(t)
	a := &Assembler{}
	err := a.Assemble("\n\n  BOGUS 1\n", "input.jam", img)
	if err == nil || !strings.Contains(err.Error(), "input.jam:3") {
		t.Errorf("error should carry file:line, got %v", err)
	}
}

func TestAssembleRedefinitionWins(t *testing.T) {
	img := newImage(t)
	assemble(t, img, `
.func f : int
  PUSH 1
  RETURN
.endfunc
.func f : int
  PUSH 2
  RETURN
.endfunc
`, 0)

	if len(img.Functions) != 1 {
		t.Fatalf("function count = %d, want 1", len(img.Functions))
	}
	// The later definition's address must win.
	if img.Functions[0].Address == 0 {
		t.Error("redefined function still points at the first body")
	}
}

func TestUnquoteEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"plain"`, "plain", true},
		{`"a\tb"`, "a\tb", true},
		{`"q\"q"`, `q"q`, true},
		{`"\x41"`, "A", true},
		{`"back\\slash"`, `back\slash`, true},
		{`unquoted`, "", false},
		{`"bad\q"`, "", false},
		{`"trunc\x4"`, "", false},
	}
	for _, tt := range tests {
		got, err := unquote(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("unquote(%s) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("unquote(%s) should fail", tt.in)
		}
	}
}
