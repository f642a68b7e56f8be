package suitability

// Seismic zones run from MinSeismicZone to MaxSeismicZone. DefaultSeismicZone
// is assumed when a site falls outside every known zone.
const (
	MinSeismicZone     = 2
	MaxSeismicZone     = 5
	DefaultSeismicZone = 2
)

// seismicZonePGA is the design peak ground acceleration, in g, per zone.
var seismicZonePGA = map[int]float64{
	2: 0.10,
	3: 0.16,
	4: 0.24,
	5: 0.36,
}

// SeismicZonePGA converts a seismic zone into the seismicRisk raw value.
// Zones below 2 read as zone 2 and zones above 5 as zone 5.
func SeismicZonePGA(zone int) float64 {
	switch {
	case zone < MinSeismicZone:
		zone = MinSeismicZone
	case zone > MaxSeismicZone:
		zone = MaxSeismicZone
	}
	return seismicZonePGA[zone]
}

//Personal.AI order the ending
