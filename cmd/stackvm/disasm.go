package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/chazu/stackvm/pkg/bytecode"
)

// runDisasm processes the `stackvm disasm` subcommand.
func runDisasm(args []string, stdout io.Writer) error {
	fs := newFlagSet("disasm", "prog.bin|prog.asm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("disasm takes exactly one program file")
	}

	path := fs.Arg(0)
	instrs, err := loadProgram(path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, bytecode.DisassembleWithName(instrs, filepath.Base(path)))
	return err
}
