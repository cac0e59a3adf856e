package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/stackvm/manifest"
)

const sampleSource = `# For each i in 0..5, memory[3000+i] becomes 1 when vector[i] at 2000+i
# differs from the scalar at 1000, and 0 when they are equal.
LOAD_CONST 3000
LOAD_CONST 2000
READ_MEM 0
WRITE_MEM
LOAD_CONST 3000
NOT_EQUAL 1000

LOAD_CONST 3001
LOAD_CONST 2001
READ_MEM 0
WRITE_MEM
LOAD_CONST 3001
NOT_EQUAL 1000

LOAD_CONST 3002
LOAD_CONST 2002
READ_MEM 0
WRITE_MEM
LOAD_CONST 3002
NOT_EQUAL 1000

LOAD_CONST 3003
LOAD_CONST 2003
READ_MEM 0
WRITE_MEM
LOAD_CONST 3003
NOT_EQUAL 1000

LOAD_CONST 3004
LOAD_CONST 2004
READ_MEM 0
WRITE_MEM
LOAD_CONST 3004
NOT_EQUAL 1000

LOAD_CONST 3005
LOAD_CONST 2005
READ_MEM 0
WRITE_MEM
LOAD_CONST 3005
NOT_EQUAL 1000
`

// runInit processes the `stackvm init` subcommand.
func runInit(args []string, stdout io.Writer) error {
	fs := newFlagSet("init", "[dir]")
	force := fs.Bool("f", false, "Overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	m := &manifest.Manifest{
		Program: manifest.Program{Source: "vector.asm"},
		Memory: []manifest.Segment{
			{Address: 1000, Values: []int64{95}},
			{Address: 2000, Values: []int64{90, 95, 100, 95, 80, 95}},
		},
		Result: manifest.Range{Lo: 3000, Hi: 3005},
	}

	manifestPath := filepath.Join(dir, manifest.FileName)
	sourcePath := filepath.Join(dir, m.Program.Source)
	if !*force {
		for _, p := range []string{manifestPath, sourcePath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use -f to overwrite)", p)
			}
		}
	}

	f, err := os.Create(manifestPath)
	if err != nil {
		return err
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(sourcePath, []byte(sampleSource), 0o644); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Created %s and %s\n", manifestPath, sourcePath)
	return nil
}
