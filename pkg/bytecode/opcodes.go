package bytecode

import "fmt"

// Opcode is the 4-bit operation selector stored in the low bits of an
// instruction word.
type Opcode uint8

const (
	OpLoadConst Opcode = 0  // Push operand as a literal
	OpReadMem   Opcode = 7  // Pop base, push mem[base+operand]
	OpWriteMem  Opcode = 12 // Pop value, pop address, mem[address] = value
	OpNotEqual  Opcode = 13 // Pop address, mem[address] = mem[address] != mem[operand]
)

// OperandKind describes how an opcode interprets its operand field.
type OperandKind uint8

const (
	OperandNone    OperandKind = iota // Operand field unused, must be zero in source
	OperandLiteral                    // Value pushed as-is
	OperandOffset                     // Added to a popped base address
	OperandAddress                    // Absolute memory address
)

// String returns the field name used for the operand in assembly logs.
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandLiteral:
		return "value"
	case OperandOffset:
		return "offset"
	case OperandAddress:
		return "address"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// OpcodeInfo provides metadata about each opcode for the assembler,
// the interpreter and tooling.
type OpcodeInfo struct {
	Name        string      // Mnemonic as written in source
	Args        int         // Number of source arguments
	Operand     OperandKind // Meaning of the operand field
	OperandMask uint32      // Mask applied by the assembler before shifting
	StackPop    int         // Values popped from the operand stack
	StackPush   int         // Values pushed onto the operand stack
}

const (
	// Mask17 is the assembler mask for literal and offset operands.
	Mask17 uint32 = 1<<17 - 1

	// Mask28 covers the full operand field.
	Mask28 uint32 = 1<<28 - 1
)

// opcodeInfoTable is the single definition of the instruction set. The
// assembler and the interpreter both resolve opcodes through it.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLoadConst: {"LOAD_CONST", 1, OperandLiteral, Mask17, 0, 1},
	OpReadMem:   {"READ_MEM", 1, OperandOffset, Mask17, 1, 1},
	OpWriteMem:  {"WRITE_MEM", 0, OperandNone, 0, 2, 0},
	OpNotEqual:  {"NOT_EQUAL", 1, OperandAddress, Mask28, 1, 0},
}

var mnemonicTable = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode. Unknown opcodes get a
// placeholder name and zero metadata.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", uint8(op))}
}

// LookupMnemonic resolves a source mnemonic. Matching is case-sensitive.
func LookupMnemonic(name string) (Opcode, bool) {
	op, ok := mnemonicTable[name]
	return op, ok
}

// String returns the mnemonic for the opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// AllOpcodes returns every defined opcode in ascending order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := Opcode(0); op <= opcodeMask; op++ {
		if op.Valid() {
			opcodes = append(opcodes, op)
		}
	}
	return opcodes
}

// Mnemonics returns the source names of all opcodes in opcode order.
func Mnemonics() []string {
	ops := AllOpcodes()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
