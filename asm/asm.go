package asm

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ainkit/ainkit/ain"
)

// Flags alter how assembly input is interpreted.
type Flags uint32

const (
	// FlagRaw disables quoted-literal handling: string and message
	// operands are taken verbatim from the source line, with no quote
	// stripping and no escape processing.
	FlagRaw Flags = 1 << 0
)

// ErrAsm tags all assembly errors.
var ErrAsm = errors.New("assembly error")

// Assembler assembles .jam text into an image's code section.
// Encode converts UTF-8 source text (names, string literals) into the
// container encoding; nil means identity.
type Assembler struct {
	Flags  Flags
	Encode func(string) (string, error)
}

// AssembleFile assembles the file at path against img.
func (a *Assembler) AssembleFile(path string, img *ain.Image) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAsm, err)
	}
	return a.Assemble(string(data), path, img)
}

// Assemble assembles source text against img. name is used in
// diagnostics only.
func (a *Assembler) Assemble(source, name string, img *ain.Image) error {
	s := &session{
		asm:     a,
		img:     img,
		builder: NewCodeBuilder(img),
		name:    name,
		current: -1,
	}
	for i, line := range strings.Split(source, "\n") {
		s.line = i + 1
		if err := s.processLine(line); err != nil {
			return err
		}
	}
	if s.current != -1 {
		return s.errorf("missing .endfunc for %q", img.Functions[s.current].Name)
	}
	return s.resolveFunctions()
}

// session is the per-run assembler state.
type session struct {
	asm     *Assembler
	img     *ain.Image
	builder *CodeBuilder
	name    string
	line    int

	current int               // current function index, -1 outside functions
	labels  map[string]uint32 // label -> code offset, per function

	labelRefs []reference // within the current function
	funcRefs  []reference // resolved once the whole file is assembled
}

type reference struct {
	at   int    // code offset of the operand to patch
	name string // label or encoded function name
	line int
}

func (s *session) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrAsm, s.name, s.line, fmt.Sprintf(format, args...))
}

func (s *session) encode(text string) (string, error) {
	if s.asm.Encode == nil {
		return text, nil
	}
	return s.asm.Encode(text)
}

func (s *session) processLine(raw string) error {
	line := strings.TrimSpace(stripComment(raw))
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, ".") {
		return s.directive(line)
	}

	if name, ok := strings.CutSuffix(line, ":"); ok && !strings.ContainsAny(name, " \t") {
		return s.defineLabel(name)
	}

	mnemonic, rest := splitWord(line)
	op, ok := Lookup(mnemonic)
	if !ok {
		return s.errorf("unknown instruction %q", mnemonic)
	}
	return s.instruction(op, rest)
}

// splitWord splits a line into its first whitespace-delimited word and
// the trimmed remainder.
func splitWord(line string) (word, rest string) {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

// stripComment removes a trailing ';' comment, respecting quotes.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

func (s *session) directive(line string) error {
	word, rest := splitWord(line)
	switch word {
	case ".func":
		return s.beginFunc(rest)
	case ".endfunc":
		return s.endFunc()
	case ".arg":
		return s.declareSlot(rest, true)
	case ".var":
		return s.declareSlot(rest, false)
	default:
		return s.errorf("unknown directive %q", word)
	}
}

// beginFunc handles ".func name" / ".func name : type". An existing
// function with the same name is re-pointed at the new code
// (replacement keeps the later definition).
func (s *session) beginFunc(rest string) error {
	if s.current != -1 {
		return s.errorf("nested .func")
	}
	name, typeName, hasType := cutColon(rest)
	if name == "" {
		return s.errorf(".func requires a name")
	}
	ret := ain.Void
	if hasType {
		t, ok := ain.TypeByName(typeName)
		if !ok {
			return s.errorf("unknown return type %q", typeName)
		}
		ret = t
	}
	encoded, err := s.encode(name)
	if err != nil {
		return s.errorf("encode function name: %v", err)
	}

	pos := s.builder.Pos()
	idx := s.img.AddFunction(ain.Function{Name: encoded, Return: ret})
	fn := &s.img.Functions[idx]
	fn.Address = pos
	fn.Params = nil
	fn.Vars = nil

	s.current = idx
	s.labels = make(map[string]uint32)
	s.labelRefs = s.labelRefs[:0]
	s.builder.Emit(OpFunc, uint32(idx))
	return nil
}

func (s *session) endFunc() error {
	if s.current == -1 {
		return s.errorf(".endfunc outside a function")
	}
	s.builder.Emit(OpEndFunc)
	for _, ref := range s.labelRefs {
		target, ok := s.labels[ref.name]
		if !ok {
			return fmt.Errorf("%w: %s:%d: undefined label %q", ErrAsm, s.name, ref.line, ref.name)
		}
		s.builder.Patch(ref.at, target)
	}
	s.current = -1
	s.labels = nil
	s.labelRefs = s.labelRefs[:0]
	return nil
}

func (s *session) declareSlot(rest string, isParam bool) error {
	if s.current == -1 {
		return s.errorf("slot declaration outside a function")
	}
	name, typeName, hasType := cutColon(rest)
	if name == "" || !hasType {
		return s.errorf("slot declaration needs \"name : type\"")
	}
	t, ok := ain.TypeByName(typeName)
	if !ok {
		return s.errorf("unknown type %q", typeName)
	}
	encoded, err := s.encode(name)
	if err != nil {
		return s.errorf("encode slot name: %v", err)
	}
	fn := &s.img.Functions[s.current]
	if isParam {
		fn.Params = append(fn.Params, ain.Variable{Name: encoded, Type: t})
	} else {
		fn.Vars = append(fn.Vars, ain.Variable{Name: encoded, Type: t})
	}
	return nil
}

func (s *session) defineLabel(name string) error {
	if s.current == -1 {
		return s.errorf("label outside a function")
	}
	if _, exists := s.labels[name]; exists {
		return s.errorf("duplicate label %q", name)
	}
	s.labels[name] = s.builder.Pos()
	return nil
}

// cutColon splits "name : type", tolerating missing spaces.
func cutColon(s string) (name, typ string, ok bool) {
	name, typ, ok = strings.Cut(s, ":")
	return strings.TrimSpace(name), strings.TrimSpace(typ), ok
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

func (s *session) instruction(op Opcode, operand string) error {
	info, _ := Info(op)
	if len(info.Operands) == 0 {
		if operand != "" {
			return s.errorf("%s takes no operand", info.Name)
		}
		s.builder.Emit(op)
		return nil
	}
	if operand == "" {
		return s.errorf("%s requires an operand", info.Name)
	}

	switch kind := info.Operands[0]; kind {
	case OperandInt32:
		v, err := strconv.ParseInt(operand, 0, 32)
		if err != nil {
			return s.errorf("bad integer operand %q", operand)
		}
		s.builder.EmitInt(op, int32(v))

	case OperandFloat32:
		v, err := strconv.ParseFloat(operand, 32)
		if err != nil {
			return s.errorf("bad float operand %q", operand)
		}
		s.builder.Emit(op, math.Float32bits(float32(v)))

	case OperandString, OperandMessage:
		return s.textOperand(op, kind, operand)

	case OperandAddress:
		if v, err := strconv.ParseUint(operand, 0, 32); err == nil {
			s.builder.Emit(op, uint32(v))
			return nil
		}
		at := s.builder.EmitPlaceholder(op)
		s.labelRefs = append(s.labelRefs, reference{at: at, name: operand, line: s.line})

	case OperandFunction:
		if v, err := strconv.ParseUint(operand, 0, 32); err == nil {
			if int(v) >= len(s.img.Functions) {
				return s.errorf("function index %d out of range", v)
			}
			s.builder.Emit(op, uint32(v))
			return nil
		}
		encoded, err := s.encode(operand)
		if err != nil {
			return s.errorf("encode function name: %v", err)
		}
		at := s.builder.EmitPlaceholder(op)
		s.funcRefs = append(s.funcRefs, reference{at: at, name: encoded, line: s.line})

	case OperandLocal:
		slot, err := s.resolveLocal(operand)
		if err != nil {
			return err
		}
		s.builder.Emit(op, uint32(slot))

	case OperandGlobal:
		idx, err := s.resolveGlobal(operand)
		if err != nil {
			return err
		}
		s.builder.Emit(op, uint32(idx))
	}
	return nil
}

// textOperand handles string and message literals. In raw mode the
// operand text is stored verbatim; otherwise it must be a quoted
// literal with escapes, or a bare table index.
func (s *session) textOperand(op Opcode, kind OperandKind, operand string) error {
	if s.asm.Flags&FlagRaw == 0 {
		if v, err := strconv.ParseUint(operand, 0, 32); err == nil {
			table := s.img.Strings
			if kind == OperandMessage {
				table = s.img.Messages
			}
			if int(v) >= len(table) {
				return s.errorf("%s index %d out of range", op, v)
			}
			s.builder.Emit(op, uint32(v))
			return nil
		}
	}

	var text string
	if s.asm.Flags&FlagRaw != 0 {
		text = operand
	} else {
		lit, err := unquote(operand)
		if err != nil {
			return s.errorf("%v", err)
		}
		text = lit
	}
	encoded, err := s.encode(text)
	if err != nil {
		return s.errorf("encode literal: %v", err)
	}
	if kind == OperandMessage {
		s.builder.Emit(op, uint32(s.img.AddMessage(encoded)))
	} else {
		s.builder.Emit(op, uint32(s.img.InternString(encoded)))
	}
	return nil
}

func (s *session) resolveLocal(operand string) (int, error) {
	if v, err := strconv.ParseUint(operand, 0, 16); err == nil {
		return int(v), nil
	}
	if s.current == -1 {
		return 0, s.errorf("named local %q outside a function", operand)
	}
	encoded, err := s.encode(operand)
	if err != nil {
		return 0, s.errorf("encode local name: %v", err)
	}
	fn := &s.img.Functions[s.current]
	for i, p := range fn.Params {
		if p.Name == encoded {
			return i, nil
		}
	}
	for i, v := range fn.Vars {
		if v.Name == encoded {
			return len(fn.Params) + i, nil
		}
	}
	return 0, s.errorf("undefined local %q", operand)
}

func (s *session) resolveGlobal(operand string) (int, error) {
	if v, err := strconv.ParseUint(operand, 0, 32); err == nil {
		if int(v) >= len(s.img.Globals) {
			return 0, s.errorf("global index %d out of range", v)
		}
		return int(v), nil
	}
	encoded, err := s.encode(operand)
	if err != nil {
		return 0, s.errorf("encode global name: %v", err)
	}
	if i := s.img.FindGlobal(encoded); i >= 0 {
		return i, nil
	}
	return 0, s.errorf("undefined global %q (declare it first)", operand)
}

// resolveFunctions patches CALLFUNC references by name, after the
// whole file has been assembled. Callees may come from this file or
// from any earlier edit applied to the same image.
func (s *session) resolveFunctions() error {
	for _, ref := range s.funcRefs {
		idx := s.img.FindFunction(ref.name)
		if idx < 0 {
			return fmt.Errorf("%w: %s:%d: call to undefined function %q",
				ErrAsm, s.name, ref.line, ref.name)
		}
		s.builder.Patch(ref.at, uint32(idx))
	}
	s.funcRefs = nil
	return nil
}

// unquote parses a double-quoted literal with escape sequences
// \n \t \r \" \\ and \xNN.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted literal, got %q", s)
	}
	body := s[1 : len(s)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			return "", fmt.Errorf("unescaped quote inside literal %q", s)
		}
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash in literal %q", s)
		}
		switch body[i] {
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
			if i+2 >= len(body) {
				return "", fmt.Errorf("truncated \\x escape in literal %q", s)
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad \\x escape in literal %q", s)
			}
			out.WriteByte(byte(v))
			i += 2
		default:
			return "", fmt.Errorf("unknown escape \\%c in literal %q", body[i], s)
		}
	}
	return out.String(), nil
}
