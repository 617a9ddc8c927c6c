//go:build !cgo

package device

import "errors"

// GL backs the Device interface with OpenGL 3.3 core buffer objects; the
// real implementation lives in gl.go and requires cgo. This stub keeps the
// API shape in cgo-free builds, where NewGL always fails.
type GL struct{}

var errNoCgo = errors.New("device: gl backend requires cgo (built with CGO_ENABLED=0)")

// NewGL initializes OpenGL function pointers. A context must be current.
func NewGL() (*GL, error) {
	return nil, errNoCgo
}

// CreateBuffer allocates a DYNAMIC_DRAW buffer of capacity slots.
func (d *GL) CreateBuffer(capacity int) (Buffer, error) {
	return 0, errNoCgo
}

// BufferData replaces the entire buffer contents.
func (d *GL) BufferData(buf Buffer, data []float32) error {
	return errNoCgo
}

// BufferSubData writes data at the given slot offset.
func (d *GL) BufferSubData(buf Buffer, offset int, data []float32) error {
	return errNoCgo
}

// CopyBufferSubData copies the first count slots from src to dst on the
// device.
func (d *GL) CopyBufferSubData(src, dst Buffer, count int) error {
	return errNoCgo
}

// DeleteBuffer releases the buffer object.
func (d *GL) DeleteBuffer(buf Buffer) {}
