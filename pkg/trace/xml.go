package trace

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/vm"
)

// XMLSink writes documents of the form
//
//	<log><instruction><opcode>LOAD_CONST</opcode><value>3000</value></instruction></log>
//	<memory><cell address="3000">1</cell></memory>
type XMLSink struct {
	w io.Writer
}

// NewXMLSink creates an XMLSink writing to w.
func NewXMLSink(w io.Writer) *XMLSink {
	return &XMLSink{w: w}
}

type xmlLog struct {
	XMLName      xml.Name         `xml:"log"`
	Instructions []xmlInstruction `xml:"instruction"`
}

type xmlInstruction struct {
	Opcode string     `xml:"opcode"`
	Fields []xmlField `xml:",any"`
}

type xmlField struct {
	XMLName xml.Name
	Value   int64 `xml:",chardata"`
}

type xmlMemory struct {
	XMLName xml.Name  `xml:"memory"`
	Cells   []xmlCell `xml:"cell"`
}

type xmlCell struct {
	Address int64 `xml:"address,attr"`
	Value   int64 `xml:",chardata"`
}

// WriteLog writes the assembly log document.
func (s *XMLSink) WriteLog(entries []asm.LogEntry) error {
	doc := xmlLog{Instructions: make([]xmlInstruction, len(entries))}
	for i, e := range entries {
		ins := xmlInstruction{Opcode: e.Mnemonic}
		for _, f := range e.Fields {
			ins.Fields = append(ins.Fields, xmlField{XMLName: xml.Name{Local: f.Name}, Value: f.Value})
		}
		doc.Instructions[i] = ins
	}
	return s.encode(doc)
}

// WriteCells writes the memory document.
func (s *XMLSink) WriteCells(cells []vm.Cell) error {
	doc := xmlMemory{Cells: make([]xmlCell, len(cells))}
	for i, c := range cells {
		doc.Cells[i] = xmlCell{Address: c.Address, Value: c.Value}
	}
	return s.encode(doc)
}

func (s *XMLSink) encode(doc any) error {
	enc := xml.NewEncoder(s.w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("trace: encode xml: %w", err)
	}
	if _, err := io.WriteString(s.w, "\n"); err != nil {
		return fmt.Errorf("trace: write xml: %w", err)
	}
	return nil
}

// DecodeXMLLog reads a log document. Line numbers and words are not part of
// the XML format and are left zero.
func DecodeXMLLog(r io.Reader) ([]LogRecord, error) {
	var doc xmlLog
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("trace: decode xml log: %w", err)
	}
	recs := make([]LogRecord, len(doc.Instructions))
	for i, ins := range doc.Instructions {
		recs[i].Opcode = ins.Opcode
		if len(ins.Fields) > 0 {
			recs[i].Fields = make(map[string]int64, len(ins.Fields))
			for _, f := range ins.Fields {
				recs[i].Fields[f.XMLName.Local] = f.Value
			}
		}
	}
	return recs, nil
}

// DecodeXMLCells reads a memory document.
func DecodeXMLCells(r io.Reader) ([]vm.Cell, error) {
	var doc xmlMemory
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("trace: decode xml memory: %w", err)
	}
	cells := make([]vm.Cell, len(doc.Cells))
	for i, c := range doc.Cells {
		cells[i] = vm.Cell{Address: c.Address, Value: c.Value}
	}
	return cells, nil
}
