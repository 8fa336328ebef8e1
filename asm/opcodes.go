// Package asm implements the container instruction set, the .jam text
// assembler, and the disassembler.
package asm

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop  Opcode = 0x00 // No operation
	OpPop  Opcode = 0x01 // Pop top of stack
	OpDup  Opcode = 0x02 // Duplicate top of stack
	OpSwap Opcode = 0x03 // Swap top two stack elements

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpPush  Opcode = 0x10 // Push integer immediate: PUSH <value:i32>
	OpFPush Opcode = 0x11 // Push float immediate: F_PUSH <value:f32>
	OpSPush Opcode = 0x12 // Push string-table entry: S_PUSH <index:u32>
	OpMsg   Opcode = 0x13 // Emit message-table entry: MSG <index:u32>

	// ========================================================================
	// Variables (0x20-0x2F)
	// ========================================================================

	OpPushLocal  Opcode = 0x20 // Push local/parameter: PUSHLOCAL <slot:u16>
	OpPopLocal   Opcode = 0x21 // Pop into local/parameter: POPLOCAL <slot:u16>
	OpPushGlobal Opcode = 0x22 // Push global: PUSHGLOBAL <index:u32>
	OpPopGlobal  Opcode = 0x23 // Pop into global: POPGLOBAL <index:u32>

	// ========================================================================
	// Arithmetic (0x30-0x3F)
	// ========================================================================

	OpAdd Opcode = 0x30 // Pop two, push sum
	OpSub Opcode = 0x31 // Pop two, push difference
	OpMul Opcode = 0x32 // Pop two, push product
	OpDiv Opcode = 0x33 // Pop two, push quotient
	OpMod Opcode = 0x34 // Pop two, push remainder
	OpNeg Opcode = 0x35 // Negate top of stack

	// ========================================================================
	// Comparison and logic (0x40-0x4F)
	// ========================================================================

	OpEq  Opcode = 0x40 // Pop two, push 1 if equal else 0
	OpNe  Opcode = 0x41 // Pop two, push 1 if not equal
	OpLt  Opcode = 0x42 // Pop two, push 1 if a < b
	OpLe  Opcode = 0x43 // Pop two, push 1 if a <= b
	OpGt  Opcode = 0x44 // Pop two, push 1 if a > b
	OpGe  Opcode = 0x45 // Pop two, push 1 if a >= b
	OpNot Opcode = 0x48 // Logical NOT
	OpAnd Opcode = 0x49 // Logical AND
	OpOr  Opcode = 0x4A // Logical OR

	// ========================================================================
	// Control flow (0x50-0x5F)
	// ========================================================================

	OpJump     Opcode = 0x50 // Unconditional jump: JUMP <address:u32>
	OpIfz      Opcode = 0x51 // Jump if top is zero: IFZ <address:u32>
	OpIfnz     Opcode = 0x52 // Jump if top is nonzero: IFNZ <address:u32>
	OpCallFunc Opcode = 0x53 // Call function: CALLFUNC <function:u32>
	OpReturn   Opcode = 0x54 // Return from the current function

	// ========================================================================
	// Function markers (0x60-0x6F)
	// ========================================================================

	OpFunc    Opcode = 0x60 // Marks a function entry: FUNC <function:u32>
	OpEndFunc Opcode = 0x61 // Marks a function end
)

// OperandKind describes one instruction operand, for the assembler
// (what source form is accepted) and the disassembler (how to render).
type OperandKind int

const (
	OperandInt32    OperandKind = iota // signed immediate, 4 bytes
	OperandFloat32                     // float immediate, 4 bytes
	OperandString                      // string-table index, 4 bytes; quoted literal in source
	OperandMessage                     // message-table index, 4 bytes; quoted literal in source
	OperandAddress                     // code offset, 4 bytes; label in source
	OperandFunction                    // function-table index, 4 bytes; function name in source
	OperandLocal                       // local slot, 2 bytes; local/param name in source
	OperandGlobal                      // global-table index, 4 bytes; global name in source
)

// Size returns the encoded width of the operand in bytes.
func (k OperandKind) Size() int {
	if k == OperandLocal {
		return 2
	}
	return 4
}

// OpcodeInfo provides per-opcode metadata.
type OpcodeInfo struct {
	Name     string
	Operands []OperandKind
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop:  {"NOP", nil},
	OpPop:  {"POP", nil},
	OpDup:  {"DUP", nil},
	OpSwap: {"SWAP", nil},

	OpPush:  {"PUSH", []OperandKind{OperandInt32}},
	OpFPush: {"F_PUSH", []OperandKind{OperandFloat32}},
	OpSPush: {"S_PUSH", []OperandKind{OperandString}},
	OpMsg:   {"MSG", []OperandKind{OperandMessage}},

	OpPushLocal:  {"PUSHLOCAL", []OperandKind{OperandLocal}},
	OpPopLocal:   {"POPLOCAL", []OperandKind{OperandLocal}},
	OpPushGlobal: {"PUSHGLOBAL", []OperandKind{OperandGlobal}},
	OpPopGlobal:  {"POPGLOBAL", []OperandKind{OperandGlobal}},

	OpAdd: {"ADD", nil},
	OpSub: {"SUB", nil},
	OpMul: {"MUL", nil},
	OpDiv: {"DIV", nil},
	OpMod: {"MOD", nil},
	OpNeg: {"NEG", nil},

	OpEq:  {"EQ", nil},
	OpNe:  {"NE", nil},
	OpLt:  {"LT", nil},
	OpLe:  {"LE", nil},
	OpGt:  {"GT", nil},
	OpGe:  {"GE", nil},
	OpNot: {"NOT", nil},
	OpAnd: {"AND", nil},
	OpOr:  {"OR", nil},

	OpJump:     {"JUMP", []OperandKind{OperandAddress}},
	OpIfz:      {"IFZ", []OperandKind{OperandAddress}},
	OpIfnz:     {"IFNZ", []OperandKind{OperandAddress}},
	OpCallFunc: {"CALLFUNC", []OperandKind{OperandFunction}},
	OpReturn:   {"RETURN", nil},

	OpFunc:    {"FUNC", []OperandKind{OperandFunction}},
	OpEndFunc: {"ENDFUNC", nil},
}

// mnemonicTable maps source mnemonics to opcodes, derived from the
// info table.
var mnemonicTable = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// Info returns metadata for op, and false for undefined opcodes.
func Info(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	return info, ok
}

// String returns the mnemonic for op.
func (op Opcode) String() string {
	if info, ok := opcodeInfoTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}

// Lookup resolves a source mnemonic to its opcode.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonicTable[mnemonic]
	return op, ok
}

// InstructionSize returns the encoded size of the instruction,
// opcode byte included.
func InstructionSize(op Opcode) int {
	info, ok := opcodeInfoTable[op]
	if !ok {
		return 1
	}
	size := 1
	for _, k := range info.Operands {
		size += k.Size()
	}
	return size
}
