// Package memory implements LODA's register file: a sparse mapping from
// non-negative register address to bigint.Int, defaulting to zero. This is
// the generalization of gameboy-emulator's internal/memory MMU (a fixed
// 64KB byte array addressed by uint16) to LODA's unbounded, sparsely
// populated integer address space.
package memory

import "github.com/loda-lang/loda-go/internal/bigint"

// Memory is a sparse register file. The zero value is not usable; call
// New.
type Memory struct {
	cells map[uint64]bigint.Int
}

// New returns an empty register file, all cells reading as zero.
func New() *Memory {
	return &Memory{cells: make(map[uint64]bigint.Int)}
}

// Get returns the value at addr, or bigint.Zero-equivalent 0 if unset.
func (m *Memory) Get(addr uint64) bigint.Int {
	if v, ok := m.cells[addr]; ok {
		return v
	}
	return bigint.FromInt64(0)
}

// Set stores v at addr. Writing the default value 0 removes the entry, so
// a zero-valued cell is indistinguishable from one never written.
func (m *Memory) Set(addr uint64, v bigint.Int) {
	if !v.IsUndefined() && v.Sign() == 0 {
		delete(m.cells, addr)
		return
	}
	m.cells[addr] = v
}

// GetRange reads the length-long region starting at addr, in ascending
// address order.
func (m *Memory) GetRange(addr uint64, length int64) []bigint.Int {
	if length <= 0 {
		return nil
	}
	out := make([]bigint.Int, length)
	for i := int64(0); i < length; i++ {
		out[i] = m.Get(addr + uint64(i))
	}
	return out
}

// SetRange writes values starting at addr in ascending order. It copies
// through a temporary first so that overlapping source/destination regions
// behave as a pointwise copy rather than corrupting in place.
func (m *Memory) SetRange(addr uint64, values []bigint.Int) {
	tmp := make([]bigint.Int, len(values))
	copy(tmp, values)
	for i, v := range tmp {
		m.Set(addr+uint64(i), v)
	}
}

// Clear zeroes a length-long region starting at addr.
func (m *Memory) Clear(addr uint64, length int64) {
	for i := int64(0); i < length; i++ {
		delete(m.cells, addr+uint64(i))
	}
}

// Clone returns an independent copy. seq/cal call frames do not use it:
// the interpreter builds each frame fresh with New, so a callee never sees
// the caller's registers.
func (m *Memory) Clone() *Memory {
	out := make(map[uint64]bigint.Int, len(m.cells))
	for k, v := range m.cells {
		out[k] = v
	}
	return &Memory{cells: out}
}

// Len reports the number of non-default cells, for debug/diagnostic use.
func (m *Memory) Len() int { return len(m.cells) }
