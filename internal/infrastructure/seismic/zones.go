// Package seismic resolves the seismic zone of a point from a GeoJSON zone
// map.
package seismic

import (
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

type zone struct {
	bound orb.Bound
	geom  orb.Geometry
	zone  int
}

// Zones is an immutable zone map. The zero value answers the default zone
// everywhere.
type Zones struct {
	zones       []zone
	defaultZone int
}

var _ analysis.SeismicLocator = (*Zones)(nil)

// Parse reads a FeatureCollection whose Polygon or MultiPolygon features
// carry a numeric "zone" property. Features without a usable zone are
// skipped.
func Parse(data []byte, defaultZone int) (*Zones, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid seismic zones file")
	}
	z := &Zones{defaultZone: normalizeDefault(defaultZone)}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		n, ok := zoneNumber(f.Properties["zone"])
		if !ok {
			continue
		}
		z.zones = append(z.zones, zone{bound: f.Geometry.Bound(), geom: f.Geometry, zone: n})
	}
	return z, nil
}

// Load reads path. A missing or unreadable file yields an empty map that
// answers defaultZone everywhere; the problem is logged.
func Load(path string, defaultZone int, log logging.Logger) *Zones {
	if log == nil {
		log = logging.NewNopLogger()
	}
	empty := &Zones{defaultZone: normalizeDefault(defaultZone)}
	if path == "" {
		return empty
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("seismic zones file unavailable, using default zone",
			logging.String("path", path), logging.Int("default_zone", empty.defaultZone), logging.Err(err))
		return empty
	}
	z, err := Parse(data, defaultZone)
	if err != nil {
		log.Warn("seismic zones file invalid, using default zone", logging.String("path", path), logging.Err(err))
		return empty
	}
	log.Info("seismic zones loaded", logging.String("path", path), logging.Int("zones", z.Len()))
	return z
}

// Len returns the number of zone polygons.
func (z *Zones) Len() int { return len(z.zones) }

// ZoneAt returns the zone of the first polygon containing p, boundary
// included, or the default zone.
func (z *Zones) ZoneAt(p orb.Point) int {
	if z == nil {
		return suitability.DefaultSeismicZone
	}
	for _, zn := range z.zones {
		if !zn.bound.Contains(p) {
			continue
		}
		switch g := zn.geom.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return zn.zone
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return zn.zone
			}
		}
	}
	return z.fallback()
}

func (z *Zones) fallback() int {
	if z.defaultZone == 0 {
		return suitability.DefaultSeismicZone
	}
	return z.defaultZone
}

func normalizeDefault(zone int) int {
	if zone <= 0 {
		return suitability.DefaultSeismicZone
	}
	return zone
}

// zoneNumber accepts 3, 3.0, "3" or roman "III".
func zoneNumber(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), t > 0
	case int:
		return t, t > 0
	case string:
		s := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(t), "zone")))
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, true
		}
		if n, ok := romanZones[s]; ok {
			return n, true
		}
	}
	return 0, false
}

var romanZones = map[string]int{"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5}

//Personal.AI order the ending
