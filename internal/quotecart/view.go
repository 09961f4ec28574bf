package quotecart

// View is an immutable projection of the cart at one point in time.
type View struct {
	lines []Line
}

func newView(lines []Line) View {
	cp := make([]Line, len(lines))
	copy(cp, lines)
	return View{lines: cp}
}

// Items returns a copy of the lines in insertion order.
func (v View) Items() []Line {
	out := make([]Line, len(v.lines))
	copy(out, v.lines)
	return out
}

// Count is the number of distinct lines.
func (v View) Count() int {
	return len(v.lines)
}

// TotalQuantity sums quantities over available lines only.
func (v View) TotalQuantity() int {
	total := 0
	for _, line := range v.lines {
		if line.Available {
			total += line.Quantity
		}
	}
	return total
}

// Find returns the line with the given id.
func (v View) Find(id string) (Line, bool) {
	for _, line := range v.lines {
		if line.ID == id {
			return line, true
		}
	}
	return Line{}, false
}

// Empty reports whether the cart has no lines.
func (v View) Empty() bool {
	return len(v.lines) == 0
}
