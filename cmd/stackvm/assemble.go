package main

import (
	"fmt"
	"io"

	"github.com/chazu/stackvm/pkg/image"
	"github.com/chazu/stackvm/pkg/trace"
)

// runAssemble processes the `stackvm assemble` subcommand.
// Usage:
//
//	stackvm assemble prog.asm                   # prog.bin, no log
//	stackvm assemble -o out.bin -log prog.log prog.asm
func runAssemble(args []string, stdout io.Writer) error {
	fs := newFlagSet("assemble", "source.asm")
	output := fs.String("o", "", "Output binary (default: source name with .bin)")
	logPath := fs.String("log", "", "Write the assembly log to this file")
	format := fs.String("format", trace.FormatXML, "Log format: xml or cbor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("assemble takes exactly one source file")
	}
	if _, err := trace.ParseFormat(*format); err != nil {
		return err
	}

	src := fs.Arg(0)
	p, err := assembleFile(src)
	if err != nil {
		return err
	}

	out := *output
	if out == "" {
		out = replaceExt(src, ".bin")
	}
	if err := image.Save(out, p.Instructions); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Assembled %d instructions into %s (%s)\n", p.Len(), out, fileSize(out))

	if *logPath != "" {
		if err := writeDocument(*logPath, *format, func(s trace.Sink) error {
			return s.WriteLog(p.Log)
		}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote log to %s\n", *logPath)
	}
	return nil
}
