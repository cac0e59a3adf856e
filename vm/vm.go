package vm

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/stackvm/pkg/bytecode"
)

var log = commonlog.GetLogger("stackvm.vm")

// Result is the state left behind by a successful run.
type Result struct {
	Memory Memory  // Final memory, including the initial contents
	Stack  []int64 // Operand stack, bottom first
	Steps  int     // Instructions executed
}

// Snapshot returns the explicitly written cells of the final memory in
// [lo, hi].
func (r *Result) Snapshot(lo, hi int64) []Cell {
	return Snapshot(r.Memory, lo, hi)
}

// Interpreter executes decoded programs. Its stack, memory and program
// counter are reset at the start of every Execute call; an Interpreter must
// not be used from more than one goroutine at a time.
type Interpreter struct {
	stack  []int64
	memory Memory
	pc     int
	steps  int

	stepLimit int
	trace     bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStepLimit aborts execution with ErrStepLimit once more than n
// instructions have run. Zero or negative means no limit.
func WithStepLimit(n int) Option {
	return func(in *Interpreter) { in.stepLimit = n }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(in *Interpreter) { in.trace = enabled }
}

// New creates an Interpreter.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{}
	in.Apply(opts...)
	return in
}

// Apply changes the configuration of an existing Interpreter.
func (in *Interpreter) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(in)
	}
}

// Execute runs a program on a fresh Interpreter.
func Execute(instrs []bytecode.Instruction, initial Memory, opts ...Option) (*Result, error) {
	return New(opts...).Execute(instrs, initial)
}

// ExecuteBinary decodes a binary program and runs it.
func ExecuteBinary(data []byte, initial Memory, opts ...Option) (*Result, error) {
	instrs, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, err
	}
	return Execute(instrs, initial, opts...)
}

// Execute runs instrs to completion starting from a copy of initial. The
// caller's memory is never modified. On error the partial state is discarded
// and the result is nil.
func (in *Interpreter) Execute(instrs []bytecode.Instruction, initial Memory) (*Result, error) {
	in.reset(initial)

	if err := in.run(instrs); err != nil {
		log.Debugf("execution failed after %d steps: %v", in.steps, err)
		in.reset(nil)
		return nil, err
	}

	res := &Result{
		Memory: in.memory,
		Stack:  in.stack,
		Steps:  in.steps,
	}
	in.stack = nil
	in.memory = nil
	log.Debugf("executed %d instructions, %d cells in memory", res.Steps, len(res.Memory))
	return res, nil
}

func (in *Interpreter) reset(initial Memory) {
	in.stack = nil
	in.memory = initial.Clone()
	in.pc = 0
	in.steps = 0
}

// run is the fetch/decode/dispatch loop.
func (in *Interpreter) run(instrs []bytecode.Instruction) error {
	for in.pc < len(instrs) {
		if in.stepLimit > 0 && in.steps >= in.stepLimit {
			return &ExecError{Kind: ErrStepLimit, Index: in.pc, Opcode: instrs[in.pc].Opcode(), Limit: in.stepLimit}
		}

		ins := instrs[in.pc]
		op := ins.Opcode()
		operand := int64(ins.Operand())

		if in.trace {
			log.Debugf("[%04d] %-10s %-9d sp=%d", in.pc, op, operand, len(in.stack))
		}

		switch op {
		case bytecode.OpLoadConst:
			in.push(operand)

		case bytecode.OpReadMem:
			base, err := in.pop(op)
			if err != nil {
				return err
			}
			in.push(in.memory.Read(base + operand))

		case bytecode.OpWriteMem:
			// Value is on top, address beneath it.
			value, err := in.pop(op)
			if err != nil {
				return err
			}
			addr, err := in.pop(op)
			if err != nil {
				return err
			}
			in.memory.Write(addr, value)

		case bytecode.OpNotEqual:
			addr, err := in.pop(op)
			if err != nil {
				return err
			}
			var result int64
			if in.memory.Read(addr) != in.memory.Read(operand) {
				result = 1
			}
			in.memory.Write(addr, result)

		default:
			return &ExecError{Kind: ErrUnknownOpcode, Index: in.pc, Opcode: op}
		}

		in.steps++
		in.pc++
	}
	return nil
}

func (in *Interpreter) push(v int64) {
	in.stack = append(in.stack, v)
}

func (in *Interpreter) pop(op bytecode.Opcode) (int64, error) {
	n := len(in.stack)
	if n == 0 {
		return 0, &ExecError{Kind: ErrStackUnderflow, Index: in.pc, Opcode: op}
	}
	v := in.stack[n-1]
	in.stack = in.stack[:n-1]
	return v, nil
}
