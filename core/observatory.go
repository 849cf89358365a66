package core

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/stellar-simulator/internal/logging"
)

// LocalObservation is one sky entry as seen from an observatory: a body, its
// cached name, and its position in the observatory's local spherical frame.
type LocalObservation struct {
	Body  BodyID
	Name  string
	Coord Spherical
}

// Observatory is a fixed point on a body's surface. The latitude/longitude is
// baked into a single rotation carrying the surface direction to local +Z at
// construction, so Observe applies one composed rotation per observed body
// instead of repeated trigonometry.
type Observatory struct {
	universe *Universe
	body     BodyID

	orientation    r3.Rotation
	latDeg, lonDeg float64

	name           string // user name; empty means derive one lazily
	constellations []*Constellation

	log logging.Logger
}

// NewObservatory places an observatory on a body at the given latitude and
// longitude in degrees. name may be empty; constellations may be nil.
func NewObservatory(u *Universe, body BodyID, latDeg, lonDeg float64, name string, constellations []*Constellation, log logging.Logger) *Observatory {
	if log == nil {
		log = logging.Noop()
	}
	return &Observatory{
		universe:       u,
		body:           body,
		orientation:    RotationFromTo(DirectionFromLatLong(latDeg, lonDeg), r3.Vec{Z: 1}),
		latDeg:         latDeg,
		lonDeg:         lonDeg,
		name:           name,
		constellations: constellations,
		log:            log,
	}
}

// Body returns the body the observatory sits on.
func (o *Observatory) Body() BodyID { return o.body }

// LatLong returns the observatory's surface coordinates in degrees.
func (o *Observatory) LatLong() (latDeg, lonDeg float64) { return o.latDeg, o.lonDeg }

// Constellations returns the observatory's constellation list.
func (o *Observatory) Constellations() []*Constellation { return o.constellations }

// Observe returns every body above the observatory's horizon at the given
// simulation time, in local spherical coordinates. The observatory's fixed
// orientation is composed with the body's axial rotation at that time, and
// anything with negative local Z (below the horizon) is dropped. Result order
// follows the underlying tree traversal: deterministic for a fixed tree and
// time.
//
// Observation is best effort: a panic out of the shared tree (for example an
// invariant violation introduced by a concurrent writer) degrades to an empty
// result with a warning rather than taking down the whole simulation step.
// The degraded result is nil; a sky that is merely empty after horizon
// filtering is a non-nil empty slice.
func (o *Observatory) Observe(hours float64) (obs []LocalObservation) {
	defer func() {
		if r := recover(); r != nil {
			// Use the raw fields here: deriving a name via Name() walks the
			// same tree that just panicked.
			o.log.Warn(context.Background(), "observation failed, returning empty set",
				logging.String("observatory", o.name),
				logging.Int("body", int(o.body)),
				logging.Any("panic", r),
			)
			obs = nil
		}
	}()

	raw := o.universe.ObservationsFrom(o.body, hours)

	rotation := o.orientation
	if spin := o.universe.RotationOf(o.body); spin != nil {
		rotation = ComposeRotations(o.orientation, spin.RotationAt(hours))
	}

	obs = make([]LocalObservation, 0, len(raw))
	for _, observation := range raw {
		local := rotation.Rotate(observation.Offset)
		if local.Z < 0 {
			// Below the horizon.
			continue
		}
		obs = append(obs, LocalObservation{
			Body:  observation.Body,
			Name:  o.universe.Name(observation.Body),
			Coord: SphericalFromVec(local),
		})
	}
	return obs
}

// ConstellationLines returns the visible line segments of the observatory's
// constellations, given the observation set for the same instant.
func (o *Observatory) ConstellationLines(obs []LocalObservation) []Line {
	var lines []Line
	for _, c := range o.constellations {
		lines = append(lines, c.Lines(obs)...)
	}
	return lines
}

// Name returns the user name, or derives one from the body's path and the
// surface coordinates. Deriving walks the tree (O(depth)); acceptable here
// since naming is not on the per-observation path.
func (o *Observatory) Name() string {
	if o.name != "" {
		return o.name
	}
	return fmt.Sprintf("%s@%.2fN%.2fE", pathName(o.universe.PathID(o.body)), o.latDeg, o.lonDeg)
}
