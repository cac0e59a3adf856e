package vm

import "sort"

// Memory is a sparse address space. Addresses that were never written read
// as zero but are not present in the map.
type Memory map[int64]int64

// Read returns the value at addr, or 0 if addr was never written.
func (m Memory) Read(addr int64) int64 {
	return m[addr]
}

// Write stores v at addr.
func (m Memory) Write(addr, v int64) {
	m[addr] = v
}

// WriteRange stores values at consecutive addresses starting at base.
func (m Memory) WriteRange(base int64, values ...int64) {
	for i, v := range values {
		m[base+int64(i)] = v
	}
}

// Clone returns an independent copy of the memory.
func (m Memory) Clone() Memory {
	c := make(Memory, len(m))
	for addr, v := range m {
		c[addr] = v
	}
	return c
}

// Cell is an explicitly written memory location.
type Cell struct {
	Address int64
	Value   int64
}

// Snapshot returns every cell in the inclusive range [lo, hi] that has an
// explicit entry in mem, in ascending address order. Addresses that were never
// written are omitted even though they read as zero.
func Snapshot(mem Memory, lo, hi int64) []Cell {
	cells := []Cell{}
	if lo > hi {
		return cells
	}

	// Walk the range directly when it is smaller than the map.
	if uint64(hi-lo) < uint64(len(mem)) {
		for addr := lo; ; addr++ {
			if v, ok := mem[addr]; ok {
				cells = append(cells, Cell{Address: addr, Value: v})
			}
			if addr == hi {
				break
			}
		}
		return cells
	}

	for addr, v := range mem {
		if addr >= lo && addr <= hi {
			cells = append(cells, Cell{Address: addr, Value: v})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].Address < cells[j].Address
	})
	return cells
}
