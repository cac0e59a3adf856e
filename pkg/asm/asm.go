package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/stackvm/pkg/bytecode"
)

var log = commonlog.GetLogger("stackvm.asm")

// Program is the output of a successful assembly.
type Program struct {
	Name         string
	Instructions []bytecode.Instruction
	Log          []LogEntry
}

// Bytes returns the binary encoding of the program.
func (p *Program) Bytes() []byte {
	return bytecode.Serialize(p.Instructions)
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Assembler accumulates instructions and log entries for one source.
// An Assembler must not be shared between goroutines; create one per run.
type Assembler struct {
	name         string
	instructions []bytecode.Instruction
	entries      []LogEntry
}

// New creates an Assembler. The name is used only in error messages.
func New(name string) *Assembler {
	return &Assembler{name: name}
}

// Assemble translates source text into a program.
func Assemble(source string) (*Program, error) {
	return AssembleReader("", strings.NewReader(source))
}

// AssembleReader reads assembly from r and returns the resulting program.
// No partial program is returned when an error occurs.
func AssembleReader(name string, r io.Reader) (*Program, error) {
	a := New(name)
	scanner := newLineScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := a.AssembleLine(lineNum, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", sourceName(name), err)
	}

	p := a.Program()
	log.Debugf("assembled %d instructions from %s", p.Len(), sourceName(name))
	return p, nil
}

// AssembleLine assembles a single source line. Blank and comment-only lines
// are accepted and produce nothing.
func (a *Assembler) AssembleLine(lineNum int, line string) error {
	mnemonic, args, ok := splitLine(line)
	if !ok {
		return nil
	}

	ins, entry, err := a.encode(lineNum, mnemonic, args)
	if err != nil {
		return err
	}

	a.instructions = append(a.instructions, ins)
	a.entries = append(a.entries, entry)
	return nil
}

// Program returns a copy of everything assembled so far.
func (a *Assembler) Program() *Program {
	p := &Program{
		Name:         a.name,
		Instructions: make([]bytecode.Instruction, len(a.instructions)),
		Log:          make([]LogEntry, len(a.entries)),
	}
	copy(p.Instructions, a.instructions)
	copy(p.Log, a.entries)
	return p
}

// Reset discards accumulated output so the Assembler can be reused.
func (a *Assembler) Reset() {
	a.instructions = a.instructions[:0]
	a.entries = a.entries[:0]
}

// Check assembles every line of source and returns all errors found instead
// of stopping at the first one.
func Check(name, source string) []*Error {
	a := New(name)
	var errs []*Error
	for i, line := range strings.Split(source, "\n") {
		mnemonic, args, ok := splitLine(line)
		if !ok {
			continue
		}
		if _, _, err := a.encode(i+1, mnemonic, args); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (a *Assembler) encode(lineNum int, mnemonic string, args []string) (bytecode.Instruction, LogEntry, *Error) {
	op, ok := bytecode.LookupMnemonic(mnemonic)
	if !ok {
		return 0, LogEntry{}, a.errorf(ErrUnknownOpcode, lineNum, mnemonic)
	}

	info := bytecode.GetOpcodeInfo(op)
	if len(args) != info.Args {
		err := a.errorf(ErrArgumentCount, lineNum, mnemonic)
		err.Expected = info.Args
		err.Actual = len(args)
		return 0, LogEntry{}, err
	}

	entry := LogEntry{Line: lineNum, Mnemonic: mnemonic}

	var operand uint32
	switch op {
	case bytecode.OpLoadConst, bytecode.OpReadMem, bytecode.OpNotEqual:
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			e := a.errorf(ErrArgumentType, lineNum, mnemonic)
			e.Token = args[0]
			e.OutOfRange = errors.Is(err, strconv.ErrRange)
			return 0, LogEntry{}, e
		}
		// Two's-complement truncation to the operand width.
		operand = uint32(v) & info.OperandMask
		entry.Fields = []Field{{Name: info.Operand.String(), Value: v}}
	case bytecode.OpWriteMem:
		operand = 0
	default:
		return 0, LogEntry{}, a.errorf(ErrUnknownOpcode, lineNum, mnemonic)
	}

	entry.Word = bytecode.Encode(op, operand)
	return entry.Word, entry, nil
}

func (a *Assembler) errorf(kind error, lineNum int, mnemonic string) *Error {
	return &Error{Kind: kind, Source: a.name, Line: lineNum, Mnemonic: mnemonic}
}

// splitLine strips the comment and splits the rest into mnemonic and
// arguments. ok is false for lines with nothing to assemble.
func splitLine(line string) (mnemonic string, args []string, ok bool) {
	code, _, _ := strings.Cut(line, "#")
	fields := strings.Fields(code)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

func sourceName(name string) string {
	if name == "" {
		return "<source>"
	}
	return name
}
