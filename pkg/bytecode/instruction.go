package bytecode

import "fmt"

// Instruction is a single fixed-width instruction word.
//
//	bits [3:0]   opcode
//	bits [31:4]  operand (unsigned)
type Instruction uint32

const (
	// InstructionSize is the encoded width of every instruction in bytes.
	InstructionSize = 4

	opcodeBits = 4
	opcodeMask = 1<<opcodeBits - 1
)

// Encode packs an opcode and operand into an instruction word. The operand is
// truncated to the 28-bit field; assembler-level masks are applied by callers.
func Encode(op Opcode, operand uint32) Instruction {
	return Instruction(uint32(op)&opcodeMask | (operand&Mask28)<<opcodeBits)
}

// Opcode returns the low four bits of the word.
func (i Instruction) Opcode() Opcode {
	return Opcode(uint32(i) & opcodeMask)
}

// Operand returns the upper 28 bits of the word.
func (i Instruction) Operand() uint32 {
	return uint32(i) >> opcodeBits
}

// String renders the word as source text when the opcode is known.
func (i Instruction) String() string {
	return FormatInstruction(i)
}

// FormatInstruction renders a word in assembler syntax. Words produced by the
// assembler render to text that assembles back to the same word.
func FormatInstruction(i Instruction) string {
	op := i.Opcode()
	info := GetOpcodeInfo(op)
	if !op.Valid() {
		return fmt.Sprintf("%s %d", info.Name, i.Operand())
	}
	if info.Args == 0 {
		return info.Name
	}
	return fmt.Sprintf("%s %d", info.Name, i.Operand())
}
