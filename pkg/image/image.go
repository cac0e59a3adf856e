// Package image loads and saves binary program files.
//
// A program file is the raw little-endian instruction stream produced by
// bytecode.Serialize, with no header.
package image

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/chazu/stackvm/pkg/bytecode"
)

// MaxImageSize is the largest program file Load will read.
const MaxImageSize = 64 << 20

// Load reads a program file. A file whose length is not a multiple of the
// instruction size fails with an error whose cause is a
// *bytecode.MalformedBinaryError.
func Load(fileName string) ([]bytecode.Instruction, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	if st.Size() > MaxImageSize {
		return nil, errors.Errorf("Load %v: file too large (%d bytes)", fileName, st.Size())
	}

	return Read(f)
}

// Read decodes a program from r.
func Read(r io.Reader) ([]bytecode.Instruction, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read failed")
	}
	if len(data) > MaxImageSize {
		return nil, errors.Errorf("image larger than %d bytes", MaxImageSize)
	}
	instrs, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode failed")
	}
	return instrs, nil
}

// Save writes instrs to fileName, replacing any existing file.
func Save(fileName string, instrs []bytecode.Instruction) error {
	if err := os.WriteFile(fileName, bytecode.Serialize(instrs), 0o644); err != nil {
		return errors.Wrap(err, "Save")
	}
	return nil
}

// Write encodes instrs to w.
func Write(w io.Writer, instrs []bytecode.Instruction) error {
	_, err := w.Write(bytecode.Serialize(instrs))
	return errors.Wrap(err, "write failed")
}
