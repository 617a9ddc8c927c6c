package device

import (
	"fmt"
	"sync"
)

// Mem is a host-memory Device used by tests and the headless demo binary.
//
// It keeps every buffer as a float32 slab and counts operations, so tests
// can assert that growth preserves uploaded data and that nothing ever
// round-trips through BufferData after the initial allocation.
type Mem struct {
	mu      sync.Mutex
	nextID  Buffer
	buffers map[Buffer][]float32

	// AllocLimit caps the total allocated slots across live buffers;
	// 0 means unlimited. Lets tests exercise the out-of-memory path.
	AllocLimit int
	allocated  int

	// Operation counters.
	Creates   int
	Uploads   int
	Copies    int
	Deletes   int
	SlotsSent int
}

// NewMem creates an empty in-memory device.
func NewMem() *Mem {
	return &Mem{
		nextID:  1,
		buffers: make(map[Buffer][]float32),
	}
}

// CreateBuffer allocates a slab of capacity slots.
func (m *Mem) CreateBuffer(capacity int) (Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AllocLimit > 0 && m.allocated+capacity > m.AllocLimit {
		return 0, ErrOutOfMemory
	}

	id := m.nextID
	m.nextID++
	m.buffers[id] = make([]float32, capacity)
	m.allocated += capacity
	m.Creates++
	return id, nil
}

// BufferData replaces the buffer contents from slot 0.
func (m *Mem) BufferData(buf Buffer, data []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slab, err := m.slab(buf, len(data), 0)
	if err != nil {
		return err
	}
	copy(slab, data)
	m.Uploads++
	m.SlotsSent += len(data)
	return nil
}

// BufferSubData writes data at the given slot offset.
func (m *Mem) BufferSubData(buf Buffer, offset int, data []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slab, err := m.slab(buf, len(data), offset)
	if err != nil {
		return err
	}
	copy(slab[offset:], data)
	m.Uploads++
	m.SlotsSent += len(data)
	return nil
}

// CopyBufferSubData copies the first count slots from src to dst.
func (m *Mem) CopyBufferSubData(src, dst Buffer, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from, ok := m.buffers[src]
	if !ok {
		return fmt.Errorf("device: copy from unknown buffer %d", src)
	}
	to, ok := m.buffers[dst]
	if !ok {
		return fmt.Errorf("device: copy to unknown buffer %d", dst)
	}
	if count > len(from) || count > len(to) {
		return fmt.Errorf("device: copy of %d slots exceeds capacity (src %d, dst %d)", count, len(from), len(to))
	}
	copy(to[:count], from[:count])
	m.Copies++
	return nil
}

// DeleteBuffer releases the slab.
func (m *Mem) DeleteBuffer(buf Buffer) {
	if buf == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if slab, ok := m.buffers[buf]; ok {
		m.allocated -= len(slab)
		delete(m.buffers, buf)
		m.Deletes++
	}
}

// Slots returns a copy of the first n slots of a buffer.
// Test helper only; the pipeline itself never reads device memory.
func (m *Mem) Slots(buf Buffer, n int) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	slab, ok := m.buffers[buf]
	if !ok {
		return nil
	}
	out := make([]float32, n)
	copy(out, slab[:n])
	return out
}

// Capacity returns the allocated slot count of a buffer.
func (m *Mem) Capacity(buf Buffer) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffers[buf])
}

// Live returns the number of live buffers.
func (m *Mem) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffers)
}

func (m *Mem) slab(buf Buffer, n, offset int) ([]float32, error) {
	slab, ok := m.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("device: write to unknown buffer %d", buf)
	}
	if offset+n > len(slab) {
		return nil, fmt.Errorf("device: write of %d slots at %d exceeds capacity %d", n, offset, len(slab))
	}
	return slab, nil
}
