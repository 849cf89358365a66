package model

// PlanetClass categorises a generated planet.
type PlanetClass int

const (
	PlanetTerrestrial PlanetClass = iota
	PlanetGasGiant
	PlanetHabitable
)

func (c PlanetClass) String() string {
	switch c {
	case PlanetTerrestrial:
		return "TERRESTRIAL"
	case PlanetGasGiant:
		return "GAS_GIANT"
	case PlanetHabitable:
		return "HABITABLE"
	default:
		return "UNKNOWN"
	}
}

// MoonClass categorises a generated moon.
type MoonClass int

const (
	MoonMinorRocky MoonClass = iota
	MoonMajorRocky
	MoonMinorIcy
	MoonMajorIcy
)

func (c MoonClass) String() string {
	switch c {
	case MoonMinorRocky:
		return "MINOR_ROCKY"
	case MoonMajorRocky:
		return "MAJOR_ROCKY"
	case MoonMinorIcy:
		return "MINOR_ICY"
	case MoonMajorIcy:
		return "MAJOR_ICY"
	default:
		return "UNKNOWN"
	}
}

// Major reports whether the moon class counts against a planet's major-moon
// budget rather than the minor one.
func (c MoonClass) Major() bool {
	return c == MoonMajorRocky || c == MoonMajorIcy
}

// Icy reports whether the moon is predominantly ice rather than rock.
func (c MoonClass) Icy() bool {
	return c == MoonMinorIcy || c == MoonMajorIcy
}

// Zone is a half-open radial interval [Inner, Outer) around a star, in
// light-seconds.
type Zone struct {
	Inner float64
	Outer float64
}

// Contains reports whether the distance lies inside the zone.
func (z Zone) Contains(distance float64) bool {
	return distance >= z.Inner && distance < z.Outer
}

// StellarZones bundles the derived radial structure of a star system.
type StellarZones struct {
	// Habitable is where liquid surface water is possible.
	Habitable Zone
	// Planetary is where stable planetary orbits are possible.
	Planetary Zone
	// FrostLine is the distance beyond which volatiles condense, in
	// light-seconds. Planets past it are gas giants.
	FrostLine float64
}
