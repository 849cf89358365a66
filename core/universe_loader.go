package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/stellar-simulator/internal/logging"
)

// JSON shapes are unexported so the wire format can evolve independently of
// the in-memory model. Parent back-references are never serialized; they are
// rebuilt by HydrateAll on load. Only user-given names are written: derived
// identities are recomputed from tree shape.

type bodyJSON struct {
	Name     string        `json:"name,omitempty"`
	Radius   *float64      `json:"radius,omitempty"`
	Dynamic  dynamicJSON   `json:"dynamic"`
	Rotation *rotatingJSON `json:"rotation,omitempty"`
	Children []bodyJSON    `json:"children,omitempty"`
}

type dynamicJSON struct {
	Type string `json:"type"` // "fixed" | "keplerian"

	// fixed
	Offset *vecJSON `json:"offset,omitempty"`

	// keplerian; angles in radians, distances in light-seconds, period in
	// hours
	Eccentricity  float64 `json:"eccentricity,omitempty"`
	SemiMajorAxis float64 `json:"semi_major_axis,omitempty"`
	Inclination   float64 `json:"inclination,omitempty"`
	AscendingNode float64 `json:"ascending_node,omitempty"`
	ArgPeriapsis  float64 `json:"arg_periapsis,omitempty"`
	MeanAnomaly   float64 `json:"mean_anomaly,omitempty"`
	PeriodHours   float64 `json:"period_hours,omitempty"`
}

type rotatingJSON struct {
	SiderealPeriodHours float64 `json:"sidereal_period_hours"`
	Axis                vecJSON `json:"axis"`
}

type vecJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type observatoryJSON struct {
	LatitudeDeg    float64             `json:"latitude_deg"`
	LongitudeDeg   float64             `json:"longitude_deg"`
	BodyID         []int               `json:"body_id"`
	Name           string              `json:"name,omitempty"`
	Constellations []constellationJSON `json:"constellations,omitempty"`
}

type constellationJSON struct {
	Name  string     `json:"name,omitempty"`
	Edges [][2][]int `json:"edges"`
}

// SaveUniverse writes the body tree rooted at u's root as JSON.
func SaveUniverse(w io.Writer, u *Universe) error {
	root := u.Root()
	if root == NoBody {
		return fmt.Errorf("SaveUniverse: %w", ErrNoRoot)
	}
	payload := buildBodyJSON(u, root)
	enc := json.NewEncoder(w)
	return enc.Encode(payload)
}

func buildBodyJSON(u *Universe, id BodyID) bodyJSON {
	out := bodyJSON{Dynamic: dynamicToJSON(u.DynamicOf(id))}

	u.mu.RLock()
	n := u.mustNodeLocked(id)
	if n.source == nameUser {
		out.Name = n.name
	}
	if n.radius > 0 {
		r := n.radius
		out.Radius = &r
	}
	if n.rotation != nil {
		out.Rotation = &rotatingJSON{
			SiderealPeriodHours: n.rotation.siderealPeriod,
			Axis:                vecJSON{X: n.rotation.axis.X, Y: n.rotation.axis.Y, Z: n.rotation.axis.Z},
		}
	}
	children := make([]BodyID, len(n.children))
	copy(children, n.children)
	u.mu.RUnlock()

	for _, child := range children {
		out.Children = append(out.Children, buildBodyJSON(u, child))
	}
	return out
}

func dynamicToJSON(d Dynamic) dynamicJSON {
	switch dyn := d.(type) {
	case *Fixed:
		return dynamicJSON{
			Type:   "fixed",
			Offset: &vecJSON{X: dyn.Offset.X, Y: dyn.Offset.Y, Z: dyn.Offset.Z},
		}
	case *Keplerian:
		return dynamicJSON{
			Type:          "keplerian",
			Eccentricity:  dyn.eccentricity,
			SemiMajorAxis: dyn.semiMajorAxis,
			Inclination:   dyn.inclination,
			AscendingNode: dyn.ascendingNode,
			ArgPeriapsis:  dyn.argPeriapsis,
			MeanAnomaly:   dyn.meanAnomalyAt0,
			PeriodHours:   dyn.period,
		}
	default:
		// The dynamic variant set is closed; anything else is a bug.
		panic(fmt.Sprintf("core: unknown dynamic type %T", d))
	}
}

// LoadUniverse reads a body tree from JSON, rebuilds the arena, and hydrates
// parent back-references and names.
func LoadUniverse(r io.Reader) (*Universe, error) {
	var payload bodyJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadUniverse: decode failed: %w", err)
	}

	u := NewUniverse()
	if err := addBodyFromJSON(u, NoBody, payload); err != nil {
		return nil, fmt.Errorf("LoadUniverse: %w", err)
	}
	if err := u.HydrateAll(); err != nil {
		return nil, fmt.Errorf("LoadUniverse: %w", err)
	}
	return u, nil
}

func addBodyFromJSON(u *Universe, parent BodyID, payload bodyJSON) error {
	dyn, err := dynamicFromJSON(payload.Dynamic)
	if err != nil {
		return err
	}

	id := u.NewBody(parent, dyn)
	if payload.Name != "" {
		u.SetName(id, payload.Name)
	}
	if payload.Radius != nil {
		u.SetRadius(id, *payload.Radius)
	}
	if payload.Rotation != nil {
		axis := r3.Vec{X: payload.Rotation.Axis.X, Y: payload.Rotation.Axis.Y, Z: payload.Rotation.Axis.Z}
		if r3.Norm(axis) == 0 {
			return fmt.Errorf("body rotation has zero axis")
		}
		u.SetRotation(id, NewRotating(payload.Rotation.SiderealPeriodHours, axis))
	}

	for _, child := range payload.Children {
		if err := addBodyFromJSON(u, id, child); err != nil {
			return err
		}
	}
	return nil
}

func dynamicFromJSON(payload dynamicJSON) (Dynamic, error) {
	switch payload.Type {
	case "fixed":
		if payload.Offset == nil {
			return nil, fmt.Errorf("fixed dynamic missing offset")
		}
		return NewFixed(r3.Vec{X: payload.Offset.X, Y: payload.Offset.Y, Z: payload.Offset.Z}), nil
	case "keplerian":
		// Validate here so malformed files surface errors instead of the
		// constructor's programming-error panics.
		if payload.Eccentricity < 0 || payload.Eccentricity >= 1 {
			return nil, fmt.Errorf("keplerian eccentricity %v outside [0,1)", payload.Eccentricity)
		}
		if payload.SemiMajorAxis <= 0 {
			return nil, fmt.Errorf("keplerian semi-major axis %v must be positive", payload.SemiMajorAxis)
		}
		if payload.PeriodHours <= 0 {
			return nil, fmt.Errorf("keplerian period %v must be positive", payload.PeriodHours)
		}
		return NewKeplerianWithPeriod(
			payload.Eccentricity,
			payload.SemiMajorAxis,
			payload.Inclination,
			payload.AscendingNode,
			payload.ArgPeriapsis,
			payload.MeanAnomaly,
			payload.PeriodHours,
		), nil
	default:
		return nil, fmt.Errorf("unknown dynamic type %q", payload.Type)
	}
}

// SaveObservatories writes the observatories in their weak form: surface
// coordinates plus the body's child-index path, never a direct reference.
func SaveObservatories(w io.Writer, u *Universe, observatories []*Observatory) error {
	payload := make([]observatoryJSON, 0, len(observatories))
	for _, o := range observatories {
		lat, lon := o.LatLong()
		entry := observatoryJSON{
			LatitudeDeg:  lat,
			LongitudeDeg: lon,
			BodyID:       u.PathID(o.Body()),
			Name:         o.name,
		}
		for _, c := range o.Constellations() {
			cj := constellationJSON{Name: c.Name}
			for _, e := range c.Edges {
				cj.Edges = append(cj.Edges, [2][]int{u.PathID(e.A), u.PathID(e.B)})
			}
			entry.Constellations = append(entry.Constellations, cj)
		}
		payload = append(payload, entry)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(payload)
}

// LoadObservatories reads weak observatories and resolves them against the
// universe. Entries whose body path no longer resolves are dropped with a
// warning rather than failing the load; the same applies per constellation
// edge.
func LoadObservatories(r io.Reader, u *Universe, log logging.Logger) ([]*Observatory, error) {
	if log == nil {
		log = logging.Noop()
	}

	var payload []observatoryJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadObservatories: decode failed: %w", err)
	}

	ctx := context.Background()
	out := make([]*Observatory, 0, len(payload))
	for _, entry := range payload {
		body, err := u.ResolvePath(entry.BodyID)
		if err != nil {
			log.Warn(ctx, "dropping observatory with unresolvable body path",
				logging.Any("body_id", entry.BodyID),
				logging.String("name", entry.Name),
			)
			continue
		}

		var constellations []*Constellation
		for _, cj := range entry.Constellations {
			c := &Constellation{Name: cj.Name}
			for _, edge := range cj.Edges {
				a, errA := u.ResolvePath(edge[0])
				b, errB := u.ResolvePath(edge[1])
				if errA != nil || errB != nil {
					log.Warn(ctx, "dropping constellation edge with unresolvable body path",
						logging.String("constellation", cj.Name),
						logging.Any("edge", edge),
					)
					continue
				}
				c.Edges = append(c.Edges, Edge{A: a, B: b})
			}
			constellations = append(constellations, c)
		}

		out = append(out, NewObservatory(u, body, entry.LatitudeDeg, entry.LongitudeDeg, entry.Name, constellations, log))
	}
	return out, nil
}
