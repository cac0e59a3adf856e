// Package bytecode defines the instruction encoding shared by the assembler
// and the interpreter.
//
// Every instruction is a 32-bit word stored as four little-endian bytes:
//
//	bits [3:0]   opcode
//	bits [31:4]  operand
//
// A program is a flat concatenation of words. There is no header, magic number,
// length prefix or padding, so any byte stream whose length is a multiple of
// four decodes to some instruction sequence, and any other length is rejected
// with ErrMalformedBinary.
//
// # Instruction set
//
//	LOAD_CONST  0   push the operand
//	READ_MEM    7   pop base, push mem[base+operand]
//	WRITE_MEM   12  pop value, pop address, store
//	NOT_EQUAL   13  pop address, store mem[address] != mem[operand] as 0/1
//
// The table in opcodes.go is the only definition of the instruction set. The
// assembler resolves mnemonics through LookupMnemonic and the interpreter
// validates decoded opcodes through Opcode.Valid, so the two sides cannot drift.
//
// # Operand masking
//
// The assembler truncates LOAD_CONST and READ_MEM arguments to 17 bits and
// NOT_EQUAL addresses to 28 bits using two's-complement masking. A literal of
// 131072 (1<<17) therefore encodes as 0 and -1 encodes as 131071. This is
// characterized behavior that existing programs may rely on.
package bytecode
