package sequence

import "strconv"

// Enum is a Sequence of discrete codes with a display label table.
// Codes without a label fall back to their numeric representation.
type Enum struct {
	*Slice
	labels map[int64]string
}

// NewEnum creates an enum sequence with the given code→label table.
// The table is read-only after construction.
func NewEnum(labels map[int64]string) *Enum {
	return &Enum{
		Slice:  NewSlice(),
		labels: labels,
	}
}

// ConvertedValueAt returns the display label for the sample at index i.
// Distinct raw codes may map to the same label; run-length deduplication
// must therefore go through this method, not the raw value.
func (e *Enum) ConvertedValueAt(i int) string {
	code := int64(e.ValueAt(i))
	if label, ok := e.labels[code]; ok {
		return label
	}
	return strconv.FormatInt(code, 10)
}
