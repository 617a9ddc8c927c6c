// Package device abstracts the GPU buffer API the streaming pipeline uploads
// into.
//
// The pipeline only ever allocates, writes, and device-side-copies buffers;
// it never reads device memory back to the host. Keeping the surface this
// small makes the grow-and-copy path testable without a GPU context: tests
// and the demo binary use Mem, a real render layer hands the pipeline a GL
// device created on its context thread.
package device

import "errors"

// ErrOutOfMemory reports a failed buffer allocation. The pipeline surfaces
// it as a hard failure of that signal's stream; retrying without freeing
// other device memory is unlikely to succeed.
var ErrOutOfMemory = errors.New("device: out of memory")

// Buffer is an opaque device buffer handle. Slot sizes are float32 counts;
// backends convert to bytes.
type Buffer uint32

// Device is the buffer API consumed by the stream controller.
type Device interface {
	// CreateBuffer allocates a buffer holding capacity float32 slots.
	// Contents are undefined until written.
	CreateBuffer(capacity int) (Buffer, error)

	// BufferData replaces the entire buffer contents starting at slot 0.
	BufferData(buf Buffer, data []float32) error

	// BufferSubData writes data at the given slot offset.
	BufferSubData(buf Buffer, offset int, data []float32) error

	// CopyBufferSubData copies the first count slots from src to dst
	// entirely on the device, never round-tripping through host memory.
	CopyBufferSubData(src, dst Buffer, count int) error

	// DeleteBuffer releases the buffer. Deleting a zero handle is a no-op.
	DeleteBuffer(buf Buffer)
}
