package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedBinary is the error kind returned when a byte stream cannot be
// split into whole instruction words.
var ErrMalformedBinary = errors.New("malformed binary")

// MalformedBinaryError reports a binary whose length is not a multiple of
// InstructionSize.
type MalformedBinaryError struct {
	Length int // Total byte length of the input
}

func (e *MalformedBinaryError) Error() string {
	return fmt.Sprintf("malformed binary: length %d is not a multiple of %d (%d trailing bytes)",
		e.Length, InstructionSize, e.Length%InstructionSize)
}

// Is lets errors.Is match ErrMalformedBinary.
func (e *MalformedBinaryError) Is(target error) bool {
	return target == ErrMalformedBinary
}

// Serialize encodes instructions in program order, four little-endian bytes
// each, with no header or padding.
func Serialize(instrs []Instruction) []byte {
	buf := make([]byte, 0, len(instrs)*InstructionSize)
	for _, ins := range instrs {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(ins))
	}
	return buf
}

// Deserialize decodes a flat little-endian instruction stream. A trailing
// partial word is an error; nothing is silently dropped.
func Deserialize(data []byte) ([]Instruction, error) {
	if len(data)%InstructionSize != 0 {
		return nil, &MalformedBinaryError{Length: len(data)}
	}

	instrs := make([]Instruction, len(data)/InstructionSize)
	for i := range instrs {
		instrs[i] = Instruction(binary.LittleEndian.Uint32(data[i*InstructionSize:]))
	}
	return instrs, nil
}
