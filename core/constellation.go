package core

// Edge joins two bodies that form one stroke of a constellation figure.
type Edge struct {
	A, B BodyID
}

// Line is a drawable constellation segment in local spherical coordinates.
type Line struct {
	A, B Spherical
}

// Constellation is a named (possibly anonymous) set of edges between bodies,
// used only to decorate observation output.
type Constellation struct {
	Name  string
	Edges []Edge
}

// Lines returns a segment for every edge whose two endpoint bodies are both
// present in the observation set, i.e. both above the horizon.
func (c *Constellation) Lines(obs []LocalObservation) []Line {
	visible := make(map[BodyID]Spherical, len(obs))
	for _, o := range obs {
		visible[o.Body] = o.Coord
	}

	var lines []Line
	for _, e := range c.Edges {
		a, okA := visible[e.A]
		b, okB := visible[e.B]
		if okA && okB {
			lines = append(lines, Line{A: a, B: b})
		}
	}
	return lines
}
