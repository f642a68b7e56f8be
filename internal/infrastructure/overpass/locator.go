package overpass

import (
	"context"
	"math"
	"regexp"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
)

// Transmission voltages, in kV or V, accepted by the power-line query.
const voltagePattern = "^(60|30|110|220|400|500|750|1000|60000|30000|110000|220000|400000|500000|750000|1000000)$"

// roadDetourFactor stretches the aerial distance when the road estimate
// comes out shorter than it.
const roadDetourFactor = 1.12

var digitGroups = regexp.MustCompile(`\d+`)

var _ analysis.InfrastructureLocator = (*Client)(nil)

// RoadQuery selects major roads within radius metres of p.
func RoadQuery(p orb.Point, radiusM int) string {
	return `[out:json][timeout:15];way["highway"~"^(primary|secondary|tertiary|trunk)$"](around:` +
		strconv.Itoa(radiusM) + "," + coord(p[1]) + "," + coord(p[0]) + ");out geom;"
}

// PowerLineQuery selects transmission lines within radius metres of p.
func PowerLineQuery(p orb.Point, radiusM int) string {
	return `[out:json][timeout:15];(way["power"="line"]["voltage"~"` + voltagePattern + `"](around:` +
		strconv.Itoa(radiusM) + "," + coord(p[1]) + "," + coord(p[0]) + "););out geom;"
}

func coord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Nearest finds the way closest to p. The closest point of each way is found
// in planar degree space and measured with the haversine formula. Ways with
// fewer than two vertices are skipped.
func Nearest(p orb.Point, elements []Element) (distKm float64, at orb.Point, el *Element, ok bool) {
	distKm = math.Inf(1)
	for i := range elements {
		e := &elements[i]
		if e.Type != "way" {
			continue
		}
		np, found := geometry.NearestPointOnLine(p, e.Line())
		if !found {
			continue
		}
		if d := geometry.HaversineKm(p, np); d < distKm {
			distKm, at, el, ok = d, np, e, true
		}
	}
	if !ok {
		return 0, orb.Point{}, nil, false
	}
	return distKm, at, el, true
}

// MaxVoltage returns the numerically largest digit group of a voltage tag,
// as written, or "Unknown".
func MaxVoltage(tag string) string {
	best, bestV := analysis.UnknownVoltage, -1.0
	for _, g := range digitGroups.FindAllString(tag, -1) {
		v, err := strconv.ParseFloat(g, 64)
		if err != nil {
			continue
		}
		if v > bestV {
			best, bestV = g, v
		}
	}
	return best
}

// RoadDistance implements analysis.InfrastructureLocator. Without roads in
// range it answers the default distance.
func (c *Client) RoadDistance(ctx context.Context, p orb.Point) (float64, error) {
	d, ok, err := c.nearestRoad(ctx, p)
	if err != nil {
		return 0, err
	}
	if !ok {
		c.logger.Debug("no roads in range, using default", logging.Float64("default_km", analysis.DefaultRoadDistanceKm))
		return analysis.DefaultRoadDistanceKm, nil
	}
	return d, nil
}

// PowerLine implements analysis.InfrastructureLocator. The road distance to
// the line is the distance to the nearest road plus the aerial distance; it
// stays nil when no road is in range.
func (c *Client) PowerLine(ctx context.Context, p orb.Point) (suitability.PowerLineDetails, error) {
	els, err := c.Query(ctx, PowerLineQuery(p, c.cfg.PowerRadiusM))
	if err != nil {
		return suitability.PowerLineDetails{}, err
	}
	aerial, at, el, ok := Nearest(p, els)
	if !ok {
		c.logger.Debug("no power lines in range, using default", logging.Float64("default_km", analysis.DefaultPowerLineDistanceKm))
		return suitability.PowerLineDetails{AerialDistance: analysis.DefaultPowerLineDistanceKm}, nil
	}

	details := suitability.PowerLineDetails{
		AerialDistance:   aerial,
		NearestPowerLine: &suitability.NearestPowerLine{Coordinates: at, Voltage: MaxVoltage(el.Tags["voltage"])},
	}

	roadKm, found, err := c.nearestRoad(ctx, p)
	if err != nil {
		return suitability.PowerLineDetails{}, err
	}
	if found {
		r := roadKm + aerial
		if r < aerial {
			r = aerial * roadDetourFactor
		}
		details.RoadDistance = &r
	}
	return details, nil
}

func (c *Client) nearestRoad(ctx context.Context, p orb.Point) (float64, bool, error) {
	els, err := c.Query(ctx, RoadQuery(p, c.cfg.RoadRadiusM))
	if err != nil {
		return 0, false, err
	}
	d, _, _, ok := Nearest(p, els)
	return d, ok, nil
}

//Personal.AI order the ending
