// Package vm implements the interpreter for the stackvm instruction set.
//
// An Interpreter executes a decoded program against three pieces of state
// that it owns exclusively:
//   - an operand stack of signed integers, unbounded
//   - a sparse memory mapping addresses to values, where never-written
//     addresses read as zero
//   - a program counter that starts at 0 and advances by one per instruction
//
// Execution halts normally when the program counter moves past the last
// instruction. Any error (an unknown opcode, a pop from an empty stack, or an
// exceeded step limit) aborts the run and no result is returned.
//
// Snapshot extracts the cells of a memory that were explicitly written within
// an address range, which distinguishes a stored zero from an untouched
// address.
package vm
