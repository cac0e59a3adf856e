package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/stackvm/pkg/bytecode"
)

// Execution error kinds. Match them with errors.Is against an *ExecError.
var (
	ErrUnknownOpcode  = errors.New("unknown opcode")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStepLimit      = errors.New("step limit exceeded")
)

// ExecError is a fatal execution error.
type ExecError struct {
	Kind   error           // ErrUnknownOpcode, ErrStackUnderflow or ErrStepLimit
	Index  int             // Index of the failing instruction
	Opcode bytecode.Opcode // Opcode of the failing instruction
	Limit  int             // ErrStepLimit: the configured ceiling
}

func (e *ExecError) Error() string {
	switch e.Kind {
	case ErrUnknownOpcode:
		return fmt.Sprintf("instruction %d: unknown opcode %d", e.Index, uint8(e.Opcode))
	case ErrStepLimit:
		return fmt.Sprintf("instruction %d: step limit of %d exceeded", e.Index, e.Limit)
	default:
		return fmt.Sprintf("instruction %d (%s): %v", e.Index, e.Opcode, e.Kind)
	}
}

// Unwrap returns the error kind.
func (e *ExecError) Unwrap() error {
	return e.Kind
}
