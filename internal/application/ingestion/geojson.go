package ingestion

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// nameProperties are the feature properties consulted for a display name.
var nameProperties = []string{"name", "Name", "NAME", "title"}

// ParseGeoJSON accepts a FeatureCollection, a Feature or a bare Polygon or
// MultiPolygon geometry. Every polygon becomes a site; holes and altitude are
// dropped.
func (p *Parser) ParseGeoJSON(data []byte) ([]analysis.Site, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "invalid GeoJSON")
	}

	var found []candidate
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "invalid GeoJSON feature collection")
		}
		for _, f := range fc.Features {
			found = append(found, featureCandidates(f)...)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "invalid GeoJSON feature")
		}
		found = featureCandidates(f)
	case "Polygon", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "invalid GeoJSON geometry")
		}
		found = geometryCandidates("", g.Geometry())
	default:
		return nil, errors.New(errors.ErrCodeBoundaryUnsupported, "unsupported GeoJSON type").WithDetail(head.Type)
	}
	return p.finish(FormatGeoJSON, found, msgNoGeoJSONGeometry)
}

func featureCandidates(f *geojson.Feature) []candidate {
	if f == nil {
		return nil
	}
	name := ""
	for _, key := range nameProperties {
		if s := f.Properties.MustString(key, ""); s != "" {
			name = s
			break
		}
	}
	return geometryCandidates(name, f.Geometry)
}

func geometryCandidates(name string, g orb.Geometry) []candidate {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return nil
		}
		return []candidate{{name: name, ring: geom[0]}}
	case orb.MultiPolygon:
		out := make([]candidate, 0, len(geom))
		for _, poly := range geom {
			if len(poly) > 0 {
				out = append(out, candidate{name: name, ring: poly[0]})
			}
		}
		return out
	case orb.Collection:
		var out []candidate
		for _, sub := range geom {
			out = append(out, geometryCandidates(name, sub)...)
		}
		return out
	}
	return nil
}

//Personal.AI order the ending
