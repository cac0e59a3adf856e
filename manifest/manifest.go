// Package manifest handles stackvm.toml run configuration.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/stackvm/vm"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "stackvm.toml"

// Manifest describes one assemble-and-run pipeline.
type Manifest struct {
	Program Program   `toml:"program" json:"program"`
	Memory  []Segment `toml:"memory" json:"memory"`
	Result  Range     `toml:"result" json:"result"`
	Limits  Limits    `toml:"limits" json:"limits"`

	// Dir is the directory containing the manifest file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// Program names the files of the pipeline. Relative paths are resolved
// against the manifest directory.
type Program struct {
	Source     string `toml:"source" json:"source"`
	Binary     string `toml:"binary" json:"binary"`
	Log        string `toml:"log" json:"log"`
	ResultFile string `toml:"result" json:"result"`
	Format     string `toml:"format" json:"format"`
}

// Segment initializes consecutive memory cells starting at Address.
type Segment struct {
	Address int64   `toml:"address" json:"address"`
	Values  []int64 `toml:"values" json:"values"`
}

// Range is the inclusive address window reported after execution.
type Range struct {
	Lo int64 `toml:"lo" json:"lo"`
	Hi int64 `toml:"hi" json:"hi"`
}

// Limits bounds execution.
type Limits struct {
	MaxSteps int `toml:"max-steps" json:"max-steps"`
}

// Load parses stackvm.toml from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses and validates a manifest file.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes manifest text, fills in defaults and validates the result.
// Keys that do not belong to the manifest are rejected.
func Parse(text string) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(text, &m)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// applyDefaults derives missing output paths from the source name.
func (m *Manifest) applyDefaults() {
	if m.Program.Format == "" {
		m.Program.Format = "xml"
	}
	m.Program.Format = strings.ToLower(m.Program.Format)

	if m.Program.Source == "" {
		return
	}
	stem := strings.TrimSuffix(m.Program.Source, filepath.Ext(m.Program.Source))
	if m.Program.Binary == "" {
		m.Program.Binary = stem + ".bin"
	}
	if m.Program.Log == "" {
		m.Program.Log = stem + ".log." + m.Program.Format
	}
	if m.Program.ResultFile == "" {
		m.Program.ResultFile = stem + ".result." + m.Program.Format
	}
}

// FindAndLoad walks up from startDir to find a stackvm.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Path resolves p against the manifest directory.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// SourcePath returns the absolute path of the assembly source.
func (m *Manifest) SourcePath() string { return m.Path(m.Program.Source) }

// BinaryPath returns the absolute path of the binary output.
func (m *Manifest) BinaryPath() string { return m.Path(m.Program.Binary) }

// LogPath returns the absolute path of the assembly log.
func (m *Manifest) LogPath() string { return m.Path(m.Program.Log) }

// ResultPath returns the absolute path of the memory result document.
func (m *Manifest) ResultPath() string { return m.Path(m.Program.ResultFile) }

// InitialMemory builds the memory described by the [[memory]] segments.
// Later segments overwrite earlier ones where they overlap.
func (m *Manifest) InitialMemory() vm.Memory {
	mem := vm.Memory{}
	for _, seg := range m.Memory {
		mem.WriteRange(seg.Address, seg.Values...)
	}
	return mem
}

// Write encodes the manifest as TOML.
func (m *Manifest) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(m)
}
