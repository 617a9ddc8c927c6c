// Package stream owns the per-signal device buffers and drives the
// downsampler → device upload path.
//
// Each signal gets one growable buffer triple (time-high, time-low, value).
// Growth allocates new buffers at the next power of two, copies the already
// uploaded prefix entirely on the device, and frees the old buffers; host
// memory never sees uploaded data again.
package stream

import (
	"fmt"

	"github.com/tracescope/tracescope/internal/device"
	"github.com/tracescope/tracescope/internal/downsample"
)

// minCapacity is the smallest buffer allocation, in slots.
const minCapacity = 256

// Triple is one growable device buffer triple plus bookkeeping.
// capacity is always a power of two; length counts slots holding valid,
// already-uploaded points.
type Triple struct {
	timeHigh device.Buffer
	timeLow  device.Buffer
	value    device.Buffer
	capacity int
	length   int
}

// Capacity returns the allocated slot count.
func (t *Triple) Capacity() int { return t.capacity }

// Length returns the committed (uploaded) slot count.
func (t *Triple) Length() int { return t.length }

// Buffers returns the device handles and committed length for draw calls.
func (t *Triple) Buffers() (timeHigh, timeLow, value device.Buffer, length int) {
	return t.timeHigh, t.timeLow, t.value, t.length
}

// EnsureCapacity grows the triple so it can hold at least required slots.
// Returns whether a grow happened. On allocation failure the existing
// buffers stay valid.
func (t *Triple) EnsureCapacity(dev device.Device, required int) (bool, error) {
	if required <= t.capacity {
		return false, nil
	}

	newCap := nextPowerOfTwo(required)

	newHigh, newLow, newValue, err := allocTriple(dev, newCap)
	if err != nil {
		return false, err
	}

	// Preserve the uploaded prefix with a device-side copy.
	if t.length > 0 {
		if err := t.copyInto(dev, newHigh, newLow, newValue); err != nil {
			dev.DeleteBuffer(newHigh)
			dev.DeleteBuffer(newLow)
			dev.DeleteBuffer(newValue)
			return false, err
		}
	}

	t.release(dev)
	t.timeHigh, t.timeLow, t.value = newHigh, newLow, newValue
	t.capacity = newCap
	return true, nil
}

// Upload appends the chunk at the committed length. The caller has already
// ensured capacity.
func (t *Triple) Upload(dev device.Device, chunk *downsample.ChunkBuffer) error {
	n := chunk.Len()
	if n == 0 {
		return nil
	}
	if t.length+n > t.capacity {
		return fmt.Errorf("stream: upload of %d slots at %d exceeds capacity %d", n, t.length, t.capacity)
	}
	if err := dev.BufferSubData(t.timeHigh, t.length, chunk.TimeHigh()); err != nil {
		return err
	}
	if err := dev.BufferSubData(t.timeLow, t.length, chunk.TimeLow()); err != nil {
		return err
	}
	if err := dev.BufferSubData(t.value, t.length, chunk.Values()); err != nil {
		return err
	}
	t.length += n
	return nil
}

// release frees all three buffers. Safe on a zero triple.
func (t *Triple) release(dev device.Device) {
	dev.DeleteBuffer(t.timeHigh)
	dev.DeleteBuffer(t.timeLow)
	dev.DeleteBuffer(t.value)
	t.timeHigh, t.timeLow, t.value = 0, 0, 0
	t.capacity = 0
}

func (t *Triple) copyInto(dev device.Device, high, low, value device.Buffer) error {
	if err := dev.CopyBufferSubData(t.timeHigh, high, t.length); err != nil {
		return err
	}
	if err := dev.CopyBufferSubData(t.timeLow, low, t.length); err != nil {
		return err
	}
	return dev.CopyBufferSubData(t.value, value, t.length)
}

func allocTriple(dev device.Device, capacity int) (high, low, value device.Buffer, err error) {
	if high, err = dev.CreateBuffer(capacity); err != nil {
		return 0, 0, 0, err
	}
	if low, err = dev.CreateBuffer(capacity); err != nil {
		dev.DeleteBuffer(high)
		return 0, 0, 0, err
	}
	if value, err = dev.CreateBuffer(capacity); err != nil {
		dev.DeleteBuffer(high)
		dev.DeleteBuffer(low)
		return 0, 0, 0, err
	}
	return high, low, value, nil
}

// nextPowerOfTwo returns the smallest power of two >= n, at least
// minCapacity.
func nextPowerOfTwo(n int) int {
	p := minCapacity
	for p < n {
		p <<= 1
	}
	return p
}
