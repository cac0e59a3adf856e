// Package trace serializes assembly logs and memory snapshots.
//
// A TraceSink receives the per-instruction log produced by the assembler and a
// ResultSink receives the cells extracted from an interpreter's final memory.
// Two formats are provided: XML, matching the documents produced by earlier
// versions of the toolchain, and canonical CBOR for machine consumers.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/vm"
)

// Supported formats.
const (
	FormatXML  = "xml"
	FormatCBOR = "cbor"
)

// TraceSink receives assembly log entries.
type TraceSink interface {
	WriteLog(entries []asm.LogEntry) error
}

// ResultSink receives memory cells.
type ResultSink interface {
	WriteCells(cells []vm.Cell) error
}

// Sink writes both documents.
type Sink interface {
	TraceSink
	ResultSink
}

// LogRecord is the format-independent form of an assembly log entry.
type LogRecord struct {
	Line   int              `cbor:"line" json:"line"`
	Opcode string           `cbor:"opcode" json:"opcode"`
	Fields map[string]int64 `cbor:"fields,omitempty" json:"fields,omitempty"`
	Word   uint32           `cbor:"word" json:"word"`
}

// CellRecord is the format-independent form of a memory cell.
type CellRecord struct {
	Address int64 `cbor:"address" json:"address"`
	Value   int64 `cbor:"value" json:"value"`
}

// ParseFormat normalizes a format name.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case FormatXML, FormatCBOR:
		return f, nil
	case "":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("unknown trace format %q (want %s or %s)", name, FormatXML, FormatCBOR)
	}
}

// NewSink returns a sink writing the named format to w.
func NewSink(format string, w io.Writer) (Sink, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if f == FormatCBOR {
		return NewCBORSink(w), nil
	}
	return NewXMLSink(w), nil
}

// Records converts log entries to their serializable form.
func Records(entries []asm.LogEntry) []LogRecord {
	recs := make([]LogRecord, len(entries))
	for i, e := range entries {
		recs[i] = LogRecord{
			Line:   e.Line,
			Opcode: e.Mnemonic,
			Word:   uint32(e.Word),
		}
		if len(e.Fields) > 0 {
			recs[i].Fields = make(map[string]int64, len(e.Fields))
			for _, f := range e.Fields {
				recs[i].Fields[f.Name] = f.Value
			}
		}
	}
	return recs
}

// CellRecords converts memory cells to their serializable form.
func CellRecords(cells []vm.Cell) []CellRecord {
	recs := make([]CellRecord, len(cells))
	for i, c := range cells {
		recs[i] = CellRecord{Address: c.Address, Value: c.Value}
	}
	return recs
}

// ToCells converts serialized cells back to memory cells.
func ToCells(recs []CellRecord) []vm.Cell {
	cells := make([]vm.Cell, len(recs))
	for i, r := range recs {
		cells[i] = vm.Cell{Address: r.Address, Value: r.Value}
	}
	return cells
}
