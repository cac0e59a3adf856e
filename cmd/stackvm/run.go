package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/stackvm/manifest"
	"github.com/chazu/stackvm/pkg/trace"
	"github.com/chazu/stackvm/vm"
)

// segmentsFlag collects repeated -mem addr=v1,v2,... arguments.
type segmentsFlag []manifest.Segment

func (f *segmentsFlag) String() string {
	parts := make([]string, len(*f))
	for i, seg := range *f {
		vals := make([]string, len(seg.Values))
		for j, v := range seg.Values {
			vals[j] = strconv.FormatInt(v, 10)
		}
		parts[i] = fmt.Sprintf("%d=%s", seg.Address, strings.Join(vals, ","))
	}
	return strings.Join(parts, " ")
}

func (f *segmentsFlag) Set(s string) error {
	seg, err := parseSegment(s)
	if err != nil {
		return err
	}
	*f = append(*f, seg)
	return nil
}

// parseSegment parses "addr=v1,v2,...".
func parseSegment(s string) (manifest.Segment, error) {
	addrText, valuesText, ok := strings.Cut(s, "=")
	if !ok {
		return manifest.Segment{}, fmt.Errorf("memory segment %q: want addr=v1,v2,...", s)
	}
	addr, err := strconv.ParseInt(strings.TrimSpace(addrText), 10, 64)
	if err != nil {
		return manifest.Segment{}, fmt.Errorf("memory segment %q: bad address: %w", s, err)
	}
	seg := manifest.Segment{Address: addr}
	for _, field := range strings.Split(valuesText, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return manifest.Segment{}, fmt.Errorf("memory segment %q: bad value: %w", s, err)
		}
		seg.Values = append(seg.Values, v)
	}
	return seg, nil
}

// parseRange parses "lo:hi". An empty string selects every address.
func parseRange(s string) (lo, hi int64, err error) {
	if s == "" {
		return math.MinInt64, math.MaxInt64, nil
	}
	loText, hiText, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: want lo:hi", s)
	}
	if lo, err = strconv.ParseInt(strings.TrimSpace(loText), 10, 64); err != nil {
		return 0, 0, fmt.Errorf("range %q: bad lower bound: %w", s, err)
	}
	if hi, err = strconv.ParseInt(strings.TrimSpace(hiText), 10, 64); err != nil {
		return 0, 0, fmt.Errorf("range %q: bad upper bound: %w", s, err)
	}
	return lo, hi, nil
}

// runRun processes the `stackvm run` subcommand. Cells are printed as
// address=value lines in ascending address order.
func runRun(args []string, stdout io.Writer) error {
	var segments segmentsFlag
	fs := newFlagSet("run", "prog.bin|prog.asm")
	fs.Var(&segments, "mem", "Initialize memory: addr=v1,v2,... (repeatable)")
	rangeText := fs.String("range", "", "Report cells in lo:hi (default: all written cells)")
	maxSteps := fs.Int("max-steps", 0, "Abort after this many instructions (0: no limit)")
	resultPath := fs.String("result", "", "Also write the reported cells to this file")
	format := fs.String("format", trace.FormatXML, "Result file format: xml or cbor")
	traceExec := fs.Bool("trace", false, "Log every executed instruction at debug level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("run takes exactly one program file")
	}
	lo, hi, err := parseRange(*rangeText)
	if err != nil {
		return err
	}
	if _, err := trace.ParseFormat(*format); err != nil {
		return err
	}

	instrs, err := loadProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	initial := (&manifest.Manifest{Memory: segments}).InitialMemory()
	res, err := vm.Execute(instrs, initial, vm.WithStepLimit(*maxSteps), vm.WithTrace(*traceExec))
	if err != nil {
		return err
	}
	log.Infof("executed %d instructions", res.Steps)

	cells := res.Snapshot(lo, hi)
	for _, c := range cells {
		fmt.Fprintf(stdout, "%d=%d\n", c.Address, c.Value)
	}

	if *resultPath != "" {
		return writeDocument(*resultPath, *format, func(s trace.Sink) error {
			return s.WriteCells(cells)
		})
	}
	return nil
}
