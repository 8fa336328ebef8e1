package asm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/ainkit/ainkit/ain"
)

// Disassemble renders the image's code section as text, one
// instruction per line with its code offset. decode converts
// container-encoded text to UTF-8 for annotations; nil disables
// annotations.
func Disassemble(img *ain.Image, decode func(string) (string, error)) (string, error) {
	var out strings.Builder
	code := img.Code
	offset := 0

	for offset < len(code) {
		op := Opcode(code[offset])
		info, ok := Info(op)
		if !ok {
			return "", fmt.Errorf("undefined opcode 0x%02X at offset 0x%08X", byte(op), offset)
		}
		if offset+InstructionSize(op) > len(code) {
			return "", fmt.Errorf("truncated %s at offset 0x%08X", info.Name, offset)
		}

		fmt.Fprintf(&out, "%08X: %s", offset, info.Name)
		cursor := offset + 1
		for _, kind := range info.Operands {
			var raw uint32
			if kind.Size() == 2 {
				raw = uint32(binary.LittleEndian.Uint16(code[cursor:]))
			} else {
				raw = binary.LittleEndian.Uint32(code[cursor:])
			}
			cursor += kind.Size()
			out.WriteByte(' ')
			out.WriteString(renderOperand(img, kind, raw, decode))
		}
		out.WriteByte('\n')
		offset = cursor
	}
	return out.String(), nil
}

func renderOperand(img *ain.Image, kind OperandKind, raw uint32, decode func(string) (string, error)) string {
	switch kind {
	case OperandInt32:
		return fmt.Sprintf("%d", int32(raw))
	case OperandFloat32:
		return fmt.Sprintf("%g", math.Float32frombits(raw))
	case OperandAddress:
		return fmt.Sprintf("0x%08X", raw)
	case OperandString:
		return fmt.Sprintf("%d%s", raw, annotate(img.Strings, raw, decode))
	case OperandMessage:
		return fmt.Sprintf("%d%s", raw, annotate(img.Messages, raw, decode))
	case OperandFunction:
		if int(raw) < len(img.Functions) {
			name := img.Functions[raw].Name
			if decode != nil {
				if decoded, err := decode(name); err == nil {
					name = decoded
				}
			}
			return fmt.Sprintf("%d ; %s", raw, name)
		}
		return fmt.Sprintf("%d", raw)
	case OperandGlobal:
		if int(raw) < len(img.Globals) {
			return fmt.Sprintf("%d ; %s", raw, img.Globals[raw].Name)
		}
		return fmt.Sprintf("%d", raw)
	default:
		return fmt.Sprintf("%d", raw)
	}
}

func annotate(table []string, idx uint32, decode func(string) (string, error)) string {
	if decode == nil || int(idx) >= len(table) {
		return ""
	}
	text, err := decode(table[idx])
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" ; %q", text)
}
