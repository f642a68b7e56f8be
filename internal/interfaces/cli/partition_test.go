package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const plantKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Placemark><name>Plant</name>
<Polygon><outerBoundaryIs><LinearRing><coordinates>
78.0,17.0,0 78.025,17.0,0 78.025,17.025,0 78.0,17.025,0 78.0,17.0,0
</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark></Document></kml>`

func TestPartitionCmd_JSON(t *testing.T) {
	boundary := writeFile(t, "plant.kml", plantKML)

	out, err := executeCommand(t, "", "partition", "--file", boundary, "-o", "json")
	require.NoError(t, err)

	var report partitionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0.0001, report.MaxArea)
	require.Len(t, report.Sites, 1)

	s := report.Sites[0]
	assert.Equal(t, "Plant", s.Name)
	assert.Equal(t, 3, s.GridSize)
	require.Len(t, s.SubAreas, 9)
	assert.Equal(t, 1, s.SubAreas[0].Index)
	assert.InDelta(t, 78.0, s.SubAreas[0].Bounds[0], 1e-9)
	assert.InDelta(t, 17.0, s.SubAreas[0].Bounds[1], 1e-9)
	assert.InDelta(t, 78.0+0.025/3, s.SubAreas[0].Bounds[2], 1e-9)
	assert.InDelta(t, 17.0+0.025/3, s.SubAreas[0].Bounds[3], 1e-9)
	assert.InDelta(t, 78.025, s.SubAreas[8].Bounds[2], 1e-9)
	assert.InDelta(t, 17.025, s.SubAreas[8].Bounds[3], 1e-9)
}

func TestPartitionCmd_MaxAreaFlag(t *testing.T) {
	boundary := writeFile(t, "plant.kml", plantKML)

	out, err := executeCommand(t, "", "partition", "--file", boundary, "--max-area", "0.001")
	require.NoError(t, err)
	assert.Contains(t, out, "Max sub-area 0.001 sq deg")
	assert.Contains(t, out, "Plant:")
	assert.Contains(t, out, "1 sub-areas (grid 1x1)")

	out, err = executeCommand(t, "", "partition", "--file", boundary, "--max-area", "0.0003", "-o", "table")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// grid 2x2 plus header and separator
	assert.Len(t, lines, 6)
}

func TestPartitionCmd_Errors(t *testing.T) {
	boundary := writeFile(t, "plant.kml", plantKML)
	empty := writeFile(t, "empty.geojson", `{"type":"FeatureCollection","features":[]}`)

	_, err := executeCommand(t, "", "partition", "--file", boundary, "--max-area", "-0.5")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = executeCommand(t, "", "partition", "--file", boundary, "--max-area", "1e-13")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = executeCommand(t, "", "partition", "--file", empty)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBoundaryNoGeometry))
}

//Personal.AI order the ending
