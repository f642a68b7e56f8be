// Package ingestion turns uploaded boundary files (GeoJSON or KML) into the
// sites the analysis orchestrator works on.
package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Format is a supported boundary file format.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatKML     Format = "kml"
)

// DefaultMaxSites caps the polygons accepted from one upload.
const DefaultMaxSites = 100

// Messages reported when a file holds no usable polygon.
const (
	msgNoKMLGeometry     = "No valid geometry found in KML file."
	msgNoGeoJSONGeometry = "no polygon found in GeoJSON input"
)

// DetectFormat picks the format from the file extension, falling back to the
// first non-blank byte of the content.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".kml":
		return FormatKML, nil
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '<':
			return FormatKML, nil
		case '{':
			return FormatGeoJSON, nil
		}
	}
	return "", errors.New(errors.ErrCodeBoundaryUnsupported, "unsupported boundary format").
		WithDetail(filename)
}

// Parser extracts sites from boundary files.
type Parser struct {
	maxSites int
	logger   logging.Logger
}

// NewParser returns a Parser accepting at most maxSites polygons per file;
// non-positive values select DefaultMaxSites.
func NewParser(maxSites int, logger logging.Logger) *Parser {
	if maxSites <= 0 {
		maxSites = DefaultMaxSites
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Parser{maxSites: maxSites, logger: logger.Named("ingestion")}
}

// Parse detects the format of data and extracts every polygon in it.
func (p *Parser) Parse(filename string, data []byte) ([]analysis.Site, error) {
	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatKML:
		return p.ParseKML(data)
	default:
		return p.ParseGeoJSON(data)
	}
}

// candidate is a ring found in a file before validation.
type candidate struct {
	name string
	ring orb.Ring
}

// finish validates candidates, names the anonymous ones "Area N" and
// enforces the site cap.
func (p *Parser) finish(format Format, found []candidate, emptyMsg string) ([]analysis.Site, error) {
	sites := make([]analysis.Site, 0, len(found))
	for _, c := range found {
		poly := geometry.NewPolygon(c.ring...)
		if err := poly.Validate(); err != nil {
			p.logger.Warn("skipping unusable polygon",
				logging.String("format", string(format)), logging.Site(c.name), logging.Err(err))
			continue
		}
		site := analysis.Site{Name: strings.TrimSpace(c.name), Polygon: poly}
		if site.Name == "" {
			site.Name = fmt.Sprintf("Area %d", len(sites)+1)
			site.AutoNamed = true
		}
		sites = append(sites, site)
	}
	if len(sites) == 0 {
		return nil, errors.New(errors.ErrCodeBoundaryNoGeometry, emptyMsg)
	}
	if len(sites) > p.maxSites {
		return nil, errors.Newf(errors.ErrCodeBoundaryTooManyAreas, "upload holds %d polygons, limit is %d", len(sites), p.maxSites)
	}
	p.logger.Debug("boundary parsed", logging.String("format", string(format)), logging.Int("sites", len(sites)))
	return sites, nil
}

//Personal.AI order the ending
