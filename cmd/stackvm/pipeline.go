package main

import (
	"fmt"
	"io"

	"github.com/chazu/stackvm/manifest"
	"github.com/chazu/stackvm/pkg/image"
	"github.com/chazu/stackvm/pkg/trace"
	"github.com/chazu/stackvm/vm"
)

// runPipeline processes the `stackvm pipeline` subcommand: assemble the
// manifest's source, write the binary and log, load the binary back, run it
// and write the result document.
func runPipeline(args []string, stdout io.Writer) error {
	fs := newFlagSet("pipeline", "[dir]")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if m == nil {
		return fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
	}
	return pipeline(m, stdout)
}

func pipeline(m *manifest.Manifest, stdout io.Writer) error {
	p, err := assembleFile(m.SourcePath())
	if err != nil {
		return err
	}
	if err := image.Save(m.BinaryPath(), p.Instructions); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Assembled %d instructions into %s (%s)\n", p.Len(), m.Program.Binary, fileSize(m.BinaryPath()))

	if err := writeDocument(m.LogPath(), m.Program.Format, func(s trace.Sink) error {
		return s.WriteLog(p.Log)
	}); err != nil {
		return err
	}

	instrs, err := image.Load(m.BinaryPath())
	if err != nil {
		return err
	}
	res, err := vm.Execute(instrs, m.InitialMemory(), vm.WithStepLimit(m.Limits.MaxSteps))
	if err != nil {
		return err
	}

	cells := res.Snapshot(m.Result.Lo, m.Result.Hi)
	if err := writeDocument(m.ResultPath(), m.Program.Format, func(s trace.Sink) error {
		return s.WriteCells(cells)
	}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Executed %d instructions, %d cells in [%d, %d] written to %s\n",
		res.Steps, len(cells), m.Result.Lo, m.Result.Hi, m.Program.ResultFile)
	return nil
}
