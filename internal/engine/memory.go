package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/depthflow/gpucore"
)

// MemoryStats contains device memory usage statistics.
type MemoryStats struct {
	// BudgetBytes is the configured budget, 0 when unlimited.
	BudgetBytes uint64

	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64

	// PeakBytes is the highest UsedBytes seen.
	PeakBytes uint64

	// Allocations is the number of live allocations.
	Allocations int

	// ByLabel is UsedBytes broken down by allocation label.
	ByLabel map[string]uint64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	labels := make([]string, 0, len(s.ByLabel))
	for l := range s.ByLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := fmt.Sprintf("Memory[%d KB used, %d KB peak, %d allocations", s.UsedBytes/1024, s.PeakBytes/1024, s.Allocations)
	if s.BudgetBytes > 0 {
		out += fmt.Sprintf(", %.1f%% of budget", float64(s.UsedBytes)/float64(s.BudgetBytes)*100)
	}
	for _, l := range labels {
		out += fmt.Sprintf(", %s=%d", l, s.ByLabel[l])
	}
	return out + "]"
}

type ledgerEntry struct {
	label string
	size  uint64
}

// memoryLedger tracks device allocations and enforces an optional budget.
//
// memoryLedger is safe for concurrent use.
type memoryLedger struct {
	mu sync.RWMutex

	budget  uint64
	used    uint64
	peak    uint64
	entries map[gpucore.MemoryID]ledgerEntry
}

func newMemoryLedger(budget uint64) *memoryLedger {
	return &memoryLedger{
		budget:  budget,
		entries: make(map[gpucore.MemoryID]ledgerEntry),
	}
}

// reserve checks that size more bytes fit in the budget.
func (m *memoryLedger) reserve(label string, size uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.budget > 0 && m.used+size > m.budget {
		return fmt.Errorf("%w: %s needs %d bytes, %d of %d available",
			ErrMemoryBudgetExceeded, label, size, m.budget-m.used, m.budget)
	}
	return nil
}

// record registers an allocation.
func (m *memoryLedger) record(id gpucore.MemoryID, label string, size uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = ledgerEntry{label: label, size: size}
	m.used += size
	if m.used > m.peak {
		m.peak = m.used
	}
}

// forget removes an allocation. Unknown IDs are ignored.
func (m *memoryLedger) forget(id gpucore.MemoryID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return
	}
	delete(m.entries, id)
	m.used -= e.size
}

// stats returns current memory usage statistics.
func (m *memoryLedger) stats() MemoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	by := make(map[string]uint64, len(m.entries))
	for _, e := range m.entries {
		by[e.label] += e.size
	}
	return MemoryStats{
		BudgetBytes: m.budget,
		UsedBytes:   m.used,
		PeakBytes:   m.peak,
		Allocations: len(m.entries),
		ByLabel:     by,
	}
}

// allocate finds a memory type for req with the required properties,
// checks the budget and allocates. The allocation is recorded in the
// ledger; free undoes both.
func (c *Context) allocate(label string, req gpucore.MemoryRequirements, props gpucore.MemoryProperty) (gpucore.MemoryID, error) {
	index, ok := gpucore.FindMemoryType(c.dev.MemoryTypes(), req.TypeBits, props)
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: %s (type bits %#x, properties %#x)", ErrNoMemoryType, label, req.TypeBits, uint32(props))
	}
	if err := c.mem.reserve(label, req.Size); err != nil {
		return gpucore.InvalidID, err
	}
	mem, err := c.dev.AllocateMemory(req.Size, index)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("engine: allocate %s: %w", label, err)
	}
	c.mem.record(mem, label, req.Size)
	slogger().Debug("engine: allocated memory", "label", label, "bytes", req.Size, "type", index)
	return mem, nil
}

// free releases an allocation made by allocate.
func (c *Context) free(mem gpucore.MemoryID) {
	c.dev.FreeMemory(mem)
	c.mem.forget(mem)
}
