package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/pkg/image"
	"github.com/chazu/stackvm/pkg/trace"
)

// assembleFile assembles the source file at path.
func assembleFile(path string) (*asm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return asm.AssembleReader(path, f)
}

// loadProgram reads a program from a source file (.asm) or a binary file.
func loadProgram(path string) ([]bytecode.Instruction, error) {
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		p, err := assembleFile(path)
		if err != nil {
			return nil, err
		}
		return p.Instructions, nil
	}
	return image.Load(path)
}

// writeDocument creates path and hands a sink of the given format to write.
func writeDocument(path, format string, write func(trace.Sink) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	sink, err := trace.NewSink(format, f)
	if err != nil {
		f.Close()
		return err
	}
	if err := write(sink); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Debugf("wrote %s", path)
	return nil
}

// fileSize renders the size of path for progress messages.
func fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(st.Size()))
}

// replaceExt swaps the extension of path.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
