package timeline

// DefaultMinHeight keeps very short events visible and clickable.
const DefaultMinHeight = 20.0

// Axis maps minute offsets onto the vertical render axis.
type Axis struct {
	Scale     float64 // units per minute
	MaxHeight float64 // total axis length, used when Reverse is set
	MinHeight float64
	Reverse   bool
}

// Place returns the top offset and height for an item starting offset minutes
// after the axis origin and lasting size minutes.
func (a Axis) Place(offset, size int) (top, height float64) {
	scale := a.Scale
	if scale <= 0 {
		scale = 1
	}
	height = max(float64(size)*scale, a.MinHeight)
	top = float64(offset) * scale
	if a.Reverse {
		top = a.MaxHeight - (top + height)
	}
	return top, height
}
