package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/stackvm/manifest"
	"github.com/chazu/stackvm/pkg/image"
	"github.com/chazu/stackvm/pkg/runstore"
	"github.com/chazu/stackvm/pkg/trace"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssembleCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "prog.asm", "LOAD_CONST 80\nREAD_MEM 9\nWRITE_MEM\n")
	logPath := filepath.Join(dir, "prog.log.xml")

	var out bytes.Buffer
	if err := runAssemble([]string{"-log", logPath, src}, &out); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(out.String(), "Assembled 3 instructions") {
		t.Errorf("output = %q", out.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "prog.bin"))
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x05, 0x00, 0x00, 0x97, 0x00, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Errorf("binary = % x, want % x", data, want)
	}

	f, err := os.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := trace.DecodeXMLLog(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || recs[1].Opcode != "READ_MEM" || recs[1].Fields["offset"] != 9 {
		t.Errorf("log = %+v", recs)
	}
}

func TestAssembleCommandErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.asm", "LOAD_CONST 1\nPOP\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", []string{}, "exactly one"},
		{"missing file", []string{filepath.Join(dir, "nope.asm")}, "no such file"},
		{"bad source", []string{bad}, `unknown opcode "POP"`},
		{"bad format", []string{"-format", "json", bad}, "unknown trace format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runAssemble(tt.args, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.bin")); !os.IsNotExist(err) {
		t.Error("failed assembly must not write a binary")
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "vector.asm", sampleSource)
	resultPath := filepath.Join(dir, "out.cbor")

	var out bytes.Buffer
	args := []string{
		"-mem", "1000=95",
		"-mem", "2000=90,95,100,95,80,95",
		"-range", "3000:3005",
		"-result", resultPath,
		"-format", "cbor",
		src,
	}
	if err := runRun(args, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	wantOut := "3000=1\n3001=0\n3002=1\n3003=0\n3004=1\n3005=0\n"
	if out.String() != wantOut {
		t.Errorf("output = %q, want %q", out.String(), wantOut)
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		t.Fatal(err)
	}
	cells, err := trace.DecodeCBORCells(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(cells) != 6 || cells[0].Address != 3000 || cells[0].Value != 1 || cells[1].Value != 0 {
		t.Errorf("cells = %+v", cells)
	}
}

func TestRunCommandBinaryAllCells(t *testing.T) {
	dir := t.TempDir()
	p, err := assembleFile(writeFile(t, dir, "p.asm", "LOAD_CONST 7\nLOAD_CONST 3\nWRITE_MEM\n"))
	if err != nil {
		t.Fatal(err)
	}
	bin := filepath.Join(dir, "p.bin")
	if err := image.Save(bin, p.Instructions); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runRun([]string{"-mem", "1=5", bin}, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1=5\n7=3\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunCommandErrors(t *testing.T) {
	dir := t.TempDir()
	underflow := writeFile(t, dir, "u.asm", "WRITE_MEM\n")
	loop := writeFile(t, dir, "l.asm", "LOAD_CONST 1\nLOAD_CONST 2\nLOAD_CONST 3\n")
	odd := filepath.Join(dir, "odd.bin")
	if err := os.WriteFile(odd, []byte{1, 2, 3, 4, 5}, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"underflow", []string{underflow}, "stack underflow"},
		{"step limit", []string{"-max-steps", "2", loop}, "step limit of 2 exceeded"},
		{"malformed binary", []string{odd}, "malformed binary"},
		{"bad range", []string{"-range", "5", loop}, "want lo:hi"},
		{"bad segment", []string{"-mem", "5", loop}, "want addr=v1,v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runRun(tt.args, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestParseSegment(t *testing.T) {
	seg, err := parseSegment("2000=90, 95,-1")
	if err != nil {
		t.Fatal(err)
	}
	if seg.Address != 2000 || len(seg.Values) != 3 || seg.Values[2] != -1 {
		t.Errorf("segment = %+v", seg)
	}
	for _, bad := range []string{"", "x=1", "1=", "1=a"} {
		if _, err := parseSegment(bad); err == nil {
			t.Errorf("parseSegment(%q) succeeded", bad)
		}
	}
}

func TestParseRange(t *testing.T) {
	lo, hi, err := parseRange("-5:10")
	if err != nil || lo != -5 || hi != 10 {
		t.Errorf("parseRange = %d, %d, %v", lo, hi, err)
	}
	lo, hi, err = parseRange("")
	if err != nil || lo != math.MinInt64 || hi != math.MaxInt64 {
		t.Errorf("parseRange(empty) = %d, %d, %v", lo, hi, err)
	}
	if _, _, err := parseRange("1:x"); err == nil {
		t.Error("expected error for bad upper bound")
	}
}

func TestInitAndPipeline(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	if err := runInit([]string{dir}, &out); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := runInit([]string{dir}, &out); err == nil {
		t.Error("second init without -f should fail")
	}

	out.Reset()
	if err := runPipeline([]string{dir}, &out); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if !strings.Contains(out.String(), "Executed 36 instructions, 6 cells in [3000, 3005]") {
		t.Errorf("output = %q", out.String())
	}

	for _, name := range []string{"vector.bin", "vector.log.xml", "vector.result.xml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "vector.result.xml"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cells, err := trace.DecodeXMLCells(f)
	if err != nil {
		t.Fatal(err)
	}
	// vector 90, 95, 100, 95, 80, 95 against the scalar 95
	want := []int64{1, 0, 1, 0, 1, 0}
	if len(cells) != len(want) {
		t.Fatalf("cells = %+v, want %d", cells, len(want))
	}
	for i, c := range cells {
		if c.Address != int64(3000+i) || c.Value != want[i] {
			t.Errorf("cell %d = %+v, want {%d %d}", i, c, 3000+i, want[i])
		}
	}
}

func TestPipelineWithoutManifest(t *testing.T) {
	err := runPipeline([]string{t.TempDir()}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), manifest.FileName) {
		t.Errorf("err = %v", err)
	}
}

func TestDisasmCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "d.asm", "LOAD_CONST 1\nWRITE_MEM\n")

	var out bytes.Buffer
	if err := runDisasm([]string{src}, &out); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"# === d.asm ===", "# 2 instructions, 8 bytes", "LOAD_CONST 1", "WRITE_MEM"} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	store, err := runstore.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runHistory([]string{"-db", dbPath}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No runs recorded") {
		t.Errorf("output = %q", out.String())
	}

	if _, err := store.Record(context.Background(), runstore.RunRecord{
		ID: "run-1", ProgramSHA256: "abcdef0123456789", Instructions: 1200, Steps: 1200,
	}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out.Reset()
	if err := runHistory([]string{"-db", dbPath}, &out); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"run-1", "abcdef012345", "1,200", "ok"} {
		if !strings.Contains(got, want) {
			t.Errorf("history missing %q:\n%s", want, got)
		}
	}
}

func TestHistoryCommandNeedsDatabase(t *testing.T) {
	err := runHistory(nil, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "requires -db") {
		t.Errorf("err = %v, want a missing -db error", err)
	}

	missing := filepath.Join(t.TempDir(), "none.db")
	err = runHistory([]string{"-db", missing}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "no run database") {
		t.Errorf("err = %v, want a missing database error", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("history created a database file")
	}
}
