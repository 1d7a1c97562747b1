package app

// ClickSlop is how far in pixels the pointer may travel between press and
// release for the gesture to still count as a click.
const ClickSlop = 4

// gesture tells orbit drags apart from marker clicks.
type gesture struct {
	down     bool
	x, y     int
	traveled int
}

// press starts a gesture at (x, y).
func (g *gesture) press(x, y int) {
	g.down = true
	g.x, g.y = x, y
	g.traveled = 0
}

// move records relative motion and reports whether it should orbit the camera.
func (g *gesture) move(dx, dy int) bool {
	if !g.down {
		return false
	}
	g.traveled += abs(dx) + abs(dy)
	return true
}

// release ends the gesture. It reports whether it was a click and where.
func (g *gesture) release() (x, y int, click bool) {
	if !g.down {
		return 0, 0, false
	}
	g.down = false
	return g.x, g.y, g.traveled <= ClickSlop
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
