// Package depmanager resolves the graph of programs a root program
// transitively depends on via seq/cal, detects cycles, and caches parsed
// programs for an evaluator's lifetime. Grounded on gameboy-emulator's
// cartridge loader pipeline (internal/cartridge/loader.go,
// LoadROMFromFile -> CreateMBC), generalized from "load one ROM" to "load
// a graph of program files reachable from a root ID".
package depmanager

import (
	"sync"

	"github.com/loda-lang/loda-go/internal/limits"
	"github.com/loda-lang/loda-go/internal/lodalog"
	"github.com/loda-lang/loda-go/internal/loderrors"
	"github.com/loda-lang/loda-go/internal/parser"
	"github.com/loda-lang/loda-go/internal/program"
)

// ProgramProvider loads raw source text for a numeric program ID. It is
// the core's only filesystem/network collaborator; internal/oeis
// implements it over the on-disk OEIS layout, but nothing here assumes
// that layout.
type ProgramProvider interface {
	// Source returns id's program text, or a *loderrors.LoadError with
	// Kind NotFound if id does not exist.
	Source(id int64) (string, error)
}

// Manager loads, parses and caches programs by ID, detecting cycles in
// the seq/cal call graph.
type Manager struct {
	mu       sync.Mutex
	provider ProgramProvider
	limits   limits.Limits
	log      lodalog.Logger
	table    map[int64]*program.Program
	loading  map[int64]bool
	loaded   int64
	failed   int64
}

// New returns a Manager reading programs from provider.
func New(provider ProgramProvider, lim limits.Limits) *Manager {
	return &Manager{
		provider: provider,
		limits:   lim,
		log:      lodalog.Discard,
		table:    make(map[int64]*program.Program),
		loading:  make(map[int64]bool),
	}
}

// SetLogger overrides the discard logger with lg.
func (m *Manager) SetLogger(lg lodalog.Logger) { m.log = lg }

// Stats returns the running count of successful loads and failures,
// across this Manager's lifetime.
func (m *Manager) Stats() (loadedCount, failedCount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded, m.failed
}

// Load fetches, parses and recursively resolves id's seq/cal
// dependencies, returning the cached Program on repeat calls. The
// subgraph rooted at id is guaranteed acyclic on success; a cycle
// (including self-reference) fails with loderrors.CyclicDependency.
func (m *Manager) Load(id int64) (*program.Program, error) {
	return m.load(id, map[int64]bool{})
}

// load does Load's work. visiting holds the IDs on the current dependency
// chain only, so a concurrent Load of the same ID is not taken for a cycle.
func (m *Manager) load(id int64, visiting map[int64]bool) (*program.Program, error) {
	m.mu.Lock()
	if p, ok := m.table[id]; ok {
		m.mu.Unlock()
		return p, nil
	}
	m.mu.Unlock()
	if visiting[id] {
		m.recordFailure()
		return nil, &loderrors.LoadError{Kind: loderrors.CyclicDependency, ID: id, Detail: "cycle detected while loading"}
	}
	visiting[id] = true
	defer delete(visiting, id)

	src, err := m.provider.Source(id)
	if err != nil {
		m.recordFailure()
		if le, ok := err.(*loderrors.LoadError); ok {
			return nil, le
		}
		return nil, &loderrors.LoadError{Kind: loderrors.NotFound, ID: id, Detail: "program source unavailable", Cause: err}
	}

	p, err := parser.Parse(src, m.limits)
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	for _, target := range literalCallTargets(p) {
		if _, err := m.load(target, visiting); err != nil {
			m.recordFailure()
			return nil, err
		}
	}

	m.mu.Lock()
	if existing, ok := m.table[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.table[id] = p
	m.loaded++
	m.mu.Unlock()
	m.log.Debug("loaded program", "id", id, "instructions", p.Len())
	return p, nil
}

func (m *Manager) recordFailure() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

// TopoOrder returns the IDs reachable from root, root first, in
// depth-first discovery order (each ID's literal seq/cal targets are
// visited in source order, immediately after it). It first ensures root
// (and therefore its whole subgraph) is loaded.
func (m *Manager) TopoOrder(root int64) ([]int64, error) {
	if _, err := m.Load(root); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	visited := map[int64]bool{}
	var order []int64
	var visit func(id int64)
	visit = func(id int64) {
		if visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		p, ok := m.table[id]
		if !ok {
			return
		}
		for _, target := range literalCallTargets(p) {
			visit(target)
		}
	}
	visit(root)
	return order, nil
}

// literalCallTargets returns the IDs named by seq/cal instructions whose
// source operand is a literal (not a register), in instruction order.
// Register-sourced targets can only be resolved once the register's value
// is known, so they are checked at runtime instead (spec section 7).
func literalCallTargets(p *program.Program) []int64 {
	var out []int64
	for _, in := range p.Instructions {
		if in.Opcode != program.Seq && in.Opcode != program.Cal {
			continue
		}
		if in.Source.Mode == program.Immediate {
			out = append(out, in.Source.Value)
		}
	}
	return out
}
