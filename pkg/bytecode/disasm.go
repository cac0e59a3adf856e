package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a program.
func Disassemble(instrs []Instruction) string {
	return DisassembleWithName(instrs, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(instrs []Instruction, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("# === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("# %d instructions, %d bytes\n", len(instrs), len(instrs)*InstructionSize))

	for idx, ins := range instrs {
		sb.WriteString(DisassembleInstruction(idx, ins))
		sb.WriteString("\n")
	}

	return sb.String()
}

// DisassembleInstruction formats one word with its index and raw encoding.
// The instruction text sits after a comment marker so the listing column can
// be cut out and fed back to the assembler.
func DisassembleInstruction(idx int, ins Instruction) string {
	line := fmt.Sprintf("%-24s # %04d  0x%08X", FormatInstruction(ins), idx, uint32(ins))
	if op := ins.Opcode(); op.Valid() && GetOpcodeInfo(op).Operand == OperandNone && ins.Operand() != 0 {
		line += fmt.Sprintf("  (ignored operand %d)", ins.Operand())
	}
	return line
}
