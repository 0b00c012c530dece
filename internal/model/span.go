package model

// GuardSpan represents one conditional-compilation region controlled by a
// flag. OpenLine is the line of the opening directive and CloseLine the line
// of its matching close; line membership is half-open, [OpenLine, CloseLine).
type GuardSpan struct {
	Flag      string
	OpenLine  int
	CloseLine int
	Depth     int // directive nesting depth at the opening, 0 = outermost
}

// Contains reports whether line lies inside the span.
func (s GuardSpan) Contains(line int) bool {
	return line >= s.OpenLine && line < s.CloseLine
}

// Covers reports whether the span encloses the whole [first, last] line
// range, counting the guard directives themselves as enclosed.
func (s GuardSpan) Covers(first, last int) bool {
	return s.OpenLine <= first && s.CloseLine >= last
}
