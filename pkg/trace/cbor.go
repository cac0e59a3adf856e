package trace

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CBORSink writes canonical CBOR arrays of LogRecord and CellRecord.
type CBORSink struct {
	w io.Writer
}

// NewCBORSink creates a CBORSink writing to w.
func NewCBORSink(w io.Writer) *CBORSink {
	return &CBORSink{w: w}
}

// WriteLog writes the assembly log as an array of LogRecord.
func (s *CBORSink) WriteLog(entries []asm.LogEntry) error {
	return s.write(Records(entries))
}

// WriteCells writes the cells as an array of CellRecord.
func (s *CBORSink) WriteCells(cells []vm.Cell) error {
	return s.write(CellRecords(cells))
}

func (s *CBORSink) write(v any) error {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("trace: marshal cbor: %w", err)
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("trace: write cbor: %w", err)
	}
	return nil
}

// DecodeCBORLog deserializes a log written by CBORSink.
func DecodeCBORLog(data []byte) ([]LogRecord, error) {
	var recs []LogRecord
	if err := cbor.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("trace: unmarshal log: %w", err)
	}
	return recs, nil
}

// DecodeCBORCells deserializes cells written by CBORSink.
func DecodeCBORCells(data []byte) ([]vm.Cell, error) {
	var recs []CellRecord
	if err := cbor.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("trace: unmarshal cells: %w", err)
	}
	return ToCells(recs), nil
}
