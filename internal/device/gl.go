//go:build cgo

package device

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
)

const bytesPerSlot = 4 // float32

// GL backs the Device interface with OpenGL 3.3 core buffer objects.
//
// The embedding render layer owns the window and context; every method must
// run on the thread holding the current context. Device-side preservation on
// growth uses glCopyBufferSubData via the COPY_READ/COPY_WRITE targets.
type GL struct{}

// NewGL initializes OpenGL function pointers. A context must be current.
func NewGL() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("device: gl init: %w", err)
	}
	return &GL{}, nil
}

// CreateBuffer allocates a DYNAMIC_DRAW buffer of capacity slots.
func (d *GL) CreateBuffer(capacity int) (Buffer, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*bytesPerSlot, nil, gl.DYNAMIC_DRAW)

	if code := gl.GetError(); code == gl.OUT_OF_MEMORY {
		gl.DeleteBuffers(1, &id)
		return 0, ErrOutOfMemory
	} else if code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &id)
		return 0, fmt.Errorf("device: glBufferData failed: 0x%04x", code)
	}
	return Buffer(id), nil
}

// BufferData replaces the entire buffer contents.
func (d *GL) BufferData(buf Buffer, data []float32) error {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*bytesPerSlot, gl.Ptr(data), gl.DYNAMIC_DRAW)
	return glError("glBufferData")
}

// BufferSubData writes data at the given slot offset.
func (d *GL) BufferSubData(buf Buffer, offset int, data []float32) error {
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.BufferSubData(gl.ARRAY_BUFFER, offset*bytesPerSlot, len(data)*bytesPerSlot, gl.Ptr(data))
	return glError("glBufferSubData")
}

// CopyBufferSubData copies the first count slots from src to dst on the
// device.
func (d *GL) CopyBufferSubData(src, dst Buffer, count int) error {
	if count == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_READ_BUFFER, uint32(src))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, uint32(dst))
	gl.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.COPY_WRITE_BUFFER, 0, 0, count*bytesPerSlot)
	return glError("glCopyBufferSubData")
}

// DeleteBuffer releases the buffer object.
func (d *GL) DeleteBuffer(buf Buffer) {
	if buf == 0 {
		return
	}
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("device: %s failed: 0x%04x", op, code)
	}
	return nil
}
