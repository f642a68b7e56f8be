package ingestion

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// ParseKML extracts the outer ring of every Polygon in every Placemark,
// descending through Documents, Folders and MultiGeometry. The Placemark
// name becomes the site name.
func (p *Parser) ParseKML(data []byte) ([]analysis.Site, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var (
		found     []candidate
		stack     []string
		placemark *kmlPlacemark
		inOuter   bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "Invalid KML file")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			switch {
			case local == "Placemark":
				placemark = &kmlPlacemark{}
			case local == "name" && parent == "Placemark" && placemark != nil:
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "Invalid KML file")
				}
				placemark.name = s
				continue
			case local == "outerBoundaryIs":
				inOuter = true
			case local == "coordinates" && inOuter && placemark != nil:
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "Invalid KML file")
				}
				ring, err := parseKMLCoordinates(s)
				if err != nil {
					return nil, err
				}
				placemark.rings = append(placemark.rings, ring)
				continue
			}
			stack = append(stack, local)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch t.Name.Local {
			case "outerBoundaryIs":
				inOuter = false
			case "Placemark":
				if placemark != nil {
					found = append(found, placemark.candidates()...)
				}
				placemark = nil
			}
		}
	}
	return p.finish(FormatKML, found, msgNoKMLGeometry)
}

type kmlPlacemark struct {
	name  string
	rings []orb.Ring
}

func (pm *kmlPlacemark) candidates() []candidate {
	out := make([]candidate, 0, len(pm.rings))
	for _, r := range pm.rings {
		out = append(out, candidate{name: pm.name, ring: r})
	}
	return out
}

// parseKMLCoordinates reads whitespace-separated "lon,lat[,alt]" tuples.
func parseKMLCoordinates(s string) (orb.Ring, error) {
	fields := strings.Fields(s)
	ring := make(orb.Ring, 0, len(fields))
	for _, tuple := range fields {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, errors.New(errors.ErrCodeBoundaryParseFailed, "malformed KML coordinate").WithDetail(tuple)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "malformed KML longitude").WithDetail(tuple)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBoundaryParseFailed, "malformed KML latitude").WithDetail(tuple)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring, nil
}

//Personal.AI order the ending
