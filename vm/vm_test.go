package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
)

func ins(op bytecode.Opcode, operand uint32) bytecode.Instruction {
	return bytecode.Encode(op, operand)
}

func mustAssemble(t *testing.T, src string) []bytecode.Instruction {
	t.Helper()
	p, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return p.Instructions
}

func TestLoadConstPushes(t *testing.T) {
	res, err := Execute([]bytecode.Instruction{ins(bytecode.OpLoadConst, 4), ins(bytecode.OpLoadConst, 1<<17-1)}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Stack) != 2 || res.Stack[0] != 4 || res.Stack[1] != 131071 {
		t.Errorf("stack = %v, want [4 131071]", res.Stack)
	}
	if res.Steps != 2 {
		t.Errorf("steps = %d, want 2", res.Steps)
	}
}

func TestWriteMemPopOrder(t *testing.T) {
	prog := mustAssemble(t, "LOAD_CONST 5\nLOAD_CONST 9\nWRITE_MEM")
	res, err := Execute(prog, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := res.Memory[5]; got != 9 {
		t.Errorf("memory[5] = %d, want 9", got)
	}
	if _, ok := res.Memory[9]; ok {
		t.Errorf("memory[9] was written; value and address popped in the wrong order")
	}
	if len(res.Stack) != 0 {
		t.Errorf("stack = %v, want empty", res.Stack)
	}
}

func TestReadMemEffectiveAddress(t *testing.T) {
	mem := Memory{110: 42}
	prog := mustAssemble(t, "LOAD_CONST 100\nREAD_MEM 10")
	res, err := Execute(prog, mem)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Stack) != 1 || res.Stack[0] != 42 {
		t.Errorf("stack = %v, want [42]", res.Stack)
	}
}

func TestReadMemUnwrittenIsZero(t *testing.T) {
	prog := mustAssemble(t, "LOAD_CONST 7\nREAD_MEM 0\nLOAD_CONST 8\nREAD_MEM 3")
	res, err := Execute(prog, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Stack) != 2 || res.Stack[0] != 0 || res.Stack[1] != 0 {
		t.Errorf("stack = %v, want [0 0]", res.Stack)
	}
	if len(res.Memory) != 0 {
		t.Errorf("reading created memory entries: %v", res.Memory)
	}
	if cells := res.Snapshot(0, 100); len(cells) != 0 {
		t.Errorf("snapshot = %v, want empty", cells)
	}
}

func TestNotEqual(t *testing.T) {
	tests := []struct {
		x, y int64
		want int64
	}{
		{90, 95, 1},
		{95, 95, 0},
		{0, 0, 0},
		{-1, 1, 1},
	}

	for _, tt := range tests {
		mem := Memory{10: tt.x, 20: tt.y}
		res, err := Execute(mustAssemble(t, "LOAD_CONST 10\nNOT_EQUAL 20"), mem)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if got := res.Memory[10]; got != tt.want {
			t.Errorf("x=%d y=%d: memory[10] = %d, want %d", tt.x, tt.y, got, tt.want)
		}
		if res.Memory[20] != tt.y {
			t.Errorf("right operand modified: %d", res.Memory[20])
		}
	}
}

func TestNotEqualAgainstUnwritten(t *testing.T) {
	res, err := Execute(mustAssemble(t, "LOAD_CONST 1\nNOT_EQUAL 2"), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	v, ok := res.Memory[1]
	if !ok || v != 0 {
		t.Errorf("memory[1] = %d (%v), want explicit 0", v, ok)
	}
	cells := res.Snapshot(0, 5)
	if len(cells) != 1 || cells[0] != (Cell{Address: 1, Value: 0}) {
		t.Errorf("snapshot = %v, want [{1 0}]", cells)
	}
}

func vectorCompareSource() string {
	var b strings.Builder
	b.WriteString("# result[i] = vector[i] != value\n")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "LOAD_CONST %d\n", 3000+i)
		fmt.Fprintf(&b, "LOAD_CONST %d\n", 2000+i)
		b.WriteString("READ_MEM 0\n")
		b.WriteString("WRITE_MEM\n")
		fmt.Fprintf(&b, "LOAD_CONST %d\n", 3000+i)
		b.WriteString("NOT_EQUAL 1000\n\n")
	}
	return b.String()
}

func vectorCompareMemory() Memory {
	mem := Memory{1000: 95}
	mem.WriteRange(2000, 90, 95, 100, 95, 80, 95)
	return mem
}

func TestVectorCompareEndToEnd(t *testing.T) {
	p, err := asm.Assemble(vectorCompareSource())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// Go through the binary encoding, as the pipeline does.
	res, err := ExecuteBinary(p.Bytes(), vectorCompareMemory())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []int64{1, 0, 1, 0, 1, 0}
	cells := res.Snapshot(3000, 3005)
	if len(cells) != len(want) {
		t.Fatalf("snapshot has %d cells, want %d: %v", len(cells), len(want), cells)
	}
	for i, c := range cells {
		if c.Address != int64(3000+i) || c.Value != want[i] {
			t.Errorf("cell %d = %+v, want {%d %d}", i, c, 3000+i, want[i])
		}
	}
	if res.Steps != 36 {
		t.Errorf("steps = %d, want 36", res.Steps)
	}
	if len(res.Stack) != 0 {
		t.Errorf("stack = %v, want empty", res.Stack)
	}
}

func TestExecuteDoesNotModifyInitialMemory(t *testing.T) {
	initial := vectorCompareMemory()
	if _, err := Execute(mustAssemble(t, vectorCompareSource()), initial); err != nil {
		t.Fatal(err)
	}
	if len(initial) != 7 {
		t.Errorf("initial memory has %d entries, want 7", len(initial))
	}
	if _, ok := initial[3000]; ok {
		t.Error("initial memory was written through")
	}
}

func TestStackUnderflow(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		index int
		op    bytecode.Opcode
	}{
		{"write_mem empty", "WRITE_MEM", 0, bytecode.OpWriteMem},
		{"write_mem one value", "LOAD_CONST 1\nWRITE_MEM", 1, bytecode.OpWriteMem},
		{"read_mem empty", "READ_MEM 0", 0, bytecode.OpReadMem},
		{"not_equal empty", "LOAD_CONST 1\nLOAD_CONST 2\nWRITE_MEM\nNOT_EQUAL 1", 3, bytecode.OpNotEqual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(mustAssemble(t, tt.src), Memory{1: 1})
			if res != nil {
				t.Errorf("got result %+v alongside error", res)
			}
			if !errors.Is(err, ErrStackUnderflow) {
				t.Fatalf("error = %v, want ErrStackUnderflow", err)
			}
			var ee *ExecError
			if !errors.As(err, &ee) {
				t.Fatalf("error %T is not *ExecError", err)
			}
			if ee.Index != tt.index || ee.Opcode != tt.op {
				t.Errorf("index/opcode = %d/%s, want %d/%s", ee.Index, ee.Opcode, tt.index, tt.op)
			}
		})
	}
}

func TestUnknownOpcode(t *testing.T) {
	prog := []bytecode.Instruction{ins(bytecode.OpLoadConst, 1), bytecode.Encode(bytecode.Opcode(3), 0)}
	res, err := Execute(prog, nil)
	if res != nil {
		t.Errorf("got result alongside error")
	}
	var ee *ExecError
	if !errors.As(err, &ee) || !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("error = %v, want unknown opcode", err)
	}
	if ee.Index != 1 || ee.Opcode != 3 {
		t.Errorf("index/opcode = %d/%d, want 1/3", ee.Index, ee.Opcode)
	}
	if ee.Error() != "instruction 1: unknown opcode 3" {
		t.Errorf("Error() = %q", ee.Error())
	}
}

func TestUnknownOpcodeEveryUndefinedValue(t *testing.T) {
	for op := bytecode.Opcode(0); op < 16; op++ {
		if op.Valid() {
			continue
		}
		_, err := Execute([]bytecode.Instruction{bytecode.Encode(op, 0)}, nil)
		if !errors.Is(err, ErrUnknownOpcode) {
			t.Errorf("opcode %d: error = %v, want ErrUnknownOpcode", op, err)
		}
	}
}

func TestStepLimit(t *testing.T) {
	prog := mustAssemble(t, "LOAD_CONST 1\nLOAD_CONST 2\nLOAD_CONST 3")

	if _, err := Execute(prog, nil, WithStepLimit(3)); err != nil {
		t.Errorf("limit 3: %v", err)
	}

	_, err := Execute(prog, nil, WithStepLimit(2))
	var ee *ExecError
	if !errors.As(err, &ee) || !errors.Is(err, ErrStepLimit) {
		t.Fatalf("error = %v, want ErrStepLimit", err)
	}
	if ee.Index != 2 || ee.Limit != 2 {
		t.Errorf("index/limit = %d/%d, want 2/2", ee.Index, ee.Limit)
	}
}

func TestEmptyProgram(t *testing.T) {
	res, err := Execute(nil, Memory{4: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Steps != 0 || len(res.Stack) != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Memory[4] != 4 {
		t.Errorf("initial memory not carried over")
	}
}

func TestExecuteBinaryMalformed(t *testing.T) {
	_, err := ExecuteBinary([]byte{1, 2, 3, 4, 5}, nil)
	if !errors.Is(err, bytecode.ErrMalformedBinary) {
		t.Errorf("error = %v, want ErrMalformedBinary", err)
	}
}

func TestInterpreterReuse(t *testing.T) {
	in := New(WithTrace(true))
	if _, err := in.Execute(mustAssemble(t, "WRITE_MEM"), nil); err == nil {
		t.Fatal("expected underflow")
	}

	res, err := in.Execute(mustAssemble(t, "LOAD_CONST 5\nLOAD_CONST 9\nWRITE_MEM"), nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(res.Memory) != 1 || res.Memory[5] != 9 {
		t.Errorf("memory = %v, want map[5:9]", res.Memory)
	}

	res2, err := in.Execute(mustAssemble(t, "LOAD_CONST 1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res2.Memory) != 0 {
		t.Errorf("state leaked between runs: %v", res2.Memory)
	}
	if res.Memory[5] != 9 {
		t.Errorf("earlier result was mutated by a later run")
	}
}

func TestExecErrorMessages(t *testing.T) {
	tests := []struct {
		err  *ExecError
		want string
	}{
		{&ExecError{Kind: ErrStackUnderflow, Index: 0, Opcode: bytecode.OpWriteMem}, "instruction 0 (WRITE_MEM): stack underflow"},
		{&ExecError{Kind: ErrStepLimit, Index: 9, Limit: 9}, "instruction 9: step limit of 9 exceeded"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
