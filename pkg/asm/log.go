package asm

import "github.com/chazu/stackvm/pkg/bytecode"

// Field is one resolved argument of an assembled instruction. Value is the
// integer as written in source, before operand masking.
type Field struct {
	Name  string // "value", "offset" or "address"
	Value int64
}

// LogEntry records one assembled instruction for external tracing.
type LogEntry struct {
	Line     int
	Mnemonic string
	Fields   []Field
	Word     bytecode.Instruction
}

// Field returns the named field and whether it is present.
func (e LogEntry) Field(name string) (int64, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}
