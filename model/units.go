package model

// Internal simulation units are light-seconds (distance), hours (time), and
// Jupiter masses (mass). Everything below is a pure unit-scaling helper so
// callers can work in the units the source material is quoted in.

// AUToLightSeconds converts astronomical units to light-seconds.
func AUToLightSeconds(au float64) float64 { return au * 499.0 }

// SolarMassesToJupiterMasses converts solar masses to Jupiter masses.
func SolarMassesToJupiterMasses(sm float64) float64 { return sm * 1048.0 }

// EarthMassesToJupiterMasses converts Earth masses to Jupiter masses.
func EarthMassesToJupiterMasses(em float64) float64 { return em * 0.003146 }

// EarthRadiiToLightSeconds converts Earth radii to light-seconds.
func EarthRadiiToLightSeconds(er float64) float64 { return er * 0.021251398 }

// KilometersToLightSeconds converts kilometres to light-seconds.
func KilometersToLightSeconds(km float64) float64 { return km * 3.336e-6 }

// DaysToHours converts days to hours.
func DaysToHours(d float64) float64 { return d * 24.0 }

// ParsecsToLightSeconds converts parsecs to light-seconds.
func ParsecsToLightSeconds(pc float64) float64 { return pc * 1.029e8 }
