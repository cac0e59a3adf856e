package manifest

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// Validate checks the manifest against the embedded CUE schema.
func (m *Manifest) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))

	val := ctx.Encode(m.normalized())
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	return nil
}

// normalized returns a copy with nil slices replaced by empty ones so they
// encode as lists rather than null.
func (m *Manifest) normalized() *Manifest {
	c := *m
	c.Memory = make([]Segment, len(m.Memory))
	for i, seg := range m.Memory {
		if seg.Values == nil {
			seg.Values = []int64{}
		}
		c.Memory[i] = seg
	}
	return &c
}
