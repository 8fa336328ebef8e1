package asm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ainkit/ainkit/ain"
)

// CodeBuilder appends encoded instructions to an image's code section.
// It is shared by the assembler and the source compiler.
type CodeBuilder struct {
	img *ain.Image
}

// NewCodeBuilder wraps an image for code emission. Instructions are
// appended after any code already present.
func NewCodeBuilder(img *ain.Image) *CodeBuilder {
	return &CodeBuilder{img: img}
}

// Pos returns the code offset the next instruction will be emitted at.
func (b *CodeBuilder) Pos() uint32 {
	return uint32(len(b.img.Code))
}

// Emit appends one instruction. Operand values are given as raw bits
// (int32 and float32 operands already converted); the operand count
// must match the opcode's definition.
func (b *CodeBuilder) Emit(op Opcode, operands ...uint32) uint32 {
	info, ok := Info(op)
	if !ok {
		panic(fmt.Sprintf("asm: emit of undefined opcode 0x%02X", byte(op)))
	}
	if len(operands) != len(info.Operands) {
		panic(fmt.Sprintf("asm: %s given %d operands, takes %d",
			info.Name, len(operands), len(info.Operands)))
	}
	pos := b.Pos()
	b.img.Code = append(b.img.Code, byte(op))
	for i, kind := range info.Operands {
		switch kind.Size() {
		case 2:
			b.img.Code = binary.LittleEndian.AppendUint16(b.img.Code, uint16(operands[i]))
		default:
			b.img.Code = binary.LittleEndian.AppendUint32(b.img.Code, operands[i])
		}
	}
	return pos
}

// EmitInt appends an instruction with a signed 32-bit operand.
func (b *CodeBuilder) EmitInt(op Opcode, v int32) uint32 {
	return b.Emit(op, uint32(v))
}

// EmitFloat appends an instruction with a float operand.
func (b *CodeBuilder) EmitFloat(op Opcode, v float32) uint32 {
	return b.Emit(op, math.Float32bits(v))
}

// EmitPlaceholder appends a one-operand instruction with a zero
// operand and returns the code offset of the operand, for later
// back-patching with Patch.
func (b *CodeBuilder) EmitPlaceholder(op Opcode) int {
	b.Emit(op, 0)
	return len(b.img.Code) - 4
}

// Patch overwrites a previously emitted u32 operand at offset at.
func (b *CodeBuilder) Patch(at int, v uint32) {
	binary.LittleEndian.PutUint32(b.img.Code[at:], v)
}
