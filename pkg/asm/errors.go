package asm

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against an *Error.
var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrArgumentCount = errors.New("wrong argument count")
	ErrArgumentType  = errors.New("argument is not an integer")
)

// Error describes why a source line could not be assembled.
type Error struct {
	Kind     error  // One of ErrUnknownOpcode, ErrArgumentCount, ErrArgumentType
	Source   string // Source name, empty for anonymous input
	Line     int    // 1-based line number
	Mnemonic string // Mnemonic as written

	Expected int    // ErrArgumentCount: arguments required
	Actual   int    // ErrArgumentCount: arguments given
	Token    string // ErrArgumentType: offending token

	// OutOfRange is set when Token is a decimal integer that does not fit
	// in 64 bits.
	OutOfRange bool
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrUnknownOpcode:
		msg = fmt.Sprintf("unknown opcode %q", e.Mnemonic)
	case ErrArgumentCount:
		msg = fmt.Sprintf("%s requires %d %s, got %d", e.Mnemonic, e.Expected, plural(e.Expected, "argument"), e.Actual)
	case ErrArgumentType:
		if e.OutOfRange {
			msg = fmt.Sprintf("%s argument %s is out of range for a 64-bit integer", e.Mnemonic, e.Token)
		} else {
			msg = fmt.Sprintf("%s argument %q is not an integer", e.Mnemonic, e.Token)
		}
	default:
		msg = fmt.Sprintf("%s: %v", e.Mnemonic, e.Kind)
	}
	return e.position() + msg
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func (e *Error) position() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: ", e.Source, e.Line)
	}
	return fmt.Sprintf("line %d: ", e.Line)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
