package valueobjects

// Position is a 2D canvas coordinate. It is presentation state: the engine
// only assigns it to newly created nodes.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// GridPosition places the index-th node on a grid of the given column count.
func GridPosition(index, columns int, spacingX, spacingY, offset float64) Position {
	if columns <= 0 {
		columns = 1
	}
	return Position{
		X: float64(index%columns)*spacingX + offset,
		Y: float64(index/columns)*spacingY + offset,
	}
}
