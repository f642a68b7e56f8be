package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/ingestion"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
)

type partitionOptions struct {
	file    string
	maxArea float64
}

// NewPartitionCmd creates the partition command.
func NewPartitionCmd() *cobra.Command {
	opts := &partitionOptions{}

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Split the polygons of a boundary file into grid sub-areas",
		Example: `  solarsite partition --file plant.kml
  solarsite partition --file plant.kml --max-area 0.00002 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartition(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "boundary file (.kml or .geojson)")
	cmd.Flags().Float64Var(&opts.maxArea, "max-area", 0, "maximum sub-area size in squared degrees (0 uses the configured value)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPartition(cmd *cobra.Command, opts *partitionOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if err := partition.ValidateMaxArea(opts.maxArea); err != nil {
		return err
	}
	maxArea := opts.maxArea
	if maxArea == 0 {
		maxArea = cliCtx.Config.Analysis.MaxArea
	}

	data, err := readInput(cmd, opts.file)
	if err != nil {
		return err
	}
	sites, err := ingestion.NewParser(cliCtx.Config.Analysis.MaxSitesPerUpload, cliCtx.Logger).Parse(opts.file, data)
	if err != nil {
		return err
	}

	maxCells := cliCtx.Config.Analysis.MaxSubAreas
	report := partitionReport{MaxArea: maxArea, Sites: make([]partitionedSite, 0, len(sites))}
	for _, s := range sites {
		area := s.Polygon.Area()
		ps := partitionedSite{
			Name:         s.Name,
			Area:         area,
			AreaHectares: s.Polygon.AreaHectares(),
			GridSize:     partition.CappedGridSize(area, maxArea, maxCells),
		}
		for i, cell := range partition.PartitionCapped(s.Polygon, maxArea, maxCells) {
			b := cell.Bound()
			ps.SubAreas = append(ps.SubAreas, subArea{
				Index:  i + 1,
				Bounds: [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]},
			})
		}
		report.Sites = append(report.Sites, ps)
	}
	return PrintResult(cmd, report)
}

type subArea struct {
	Index int `json:"index"`
	// Bounds is [minLon, minLat, maxLon, maxLat].
	Bounds [4]float64 `json:"bounds"`
}

type partitionedSite struct {
	Name         string    `json:"name"`
	Area         float64   `json:"area"`
	AreaHectares float64   `json:"areaHectares"`
	GridSize     int       `json:"gridSize"`
	SubAreas     []subArea `json:"subAreas"`
}

type partitionReport struct {
	MaxArea float64           `json:"maxArea"`
	Sites   []partitionedSite `json:"sites"`
}

func (r partitionReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Max sub-area %g sq deg\n", r.MaxArea)
	for _, s := range r.Sites {
		fmt.Fprintf(&sb, "\n%s: %.2f ha, %d sub-areas (grid %dx%d)\n",
			displayName(s.Name), s.AreaHectares, len(s.SubAreas), s.GridSize, s.GridSize)
		for _, a := range s.SubAreas {
			fmt.Fprintf(&sb, "  %3d  %s\n", a.Index, formatBounds(a.Bounds))
		}
	}
	return sb.String()
}

func (r partitionReport) TableHeaders() []string {
	return []string{"SITE", "SUB_AREA", "MIN_LON", "MIN_LAT", "MAX_LON", "MAX_LAT"}
}

func (r partitionReport) TableRows() [][]string {
	var rows [][]string
	for _, s := range r.Sites {
		for _, a := range s.SubAreas {
			rows = append(rows, []string{
				displayName(s.Name),
				fmt.Sprintf("%d", a.Index),
				fmt.Sprintf("%.6f", a.Bounds[0]),
				fmt.Sprintf("%.6f", a.Bounds[1]),
				fmt.Sprintf("%.6f", a.Bounds[2]),
				fmt.Sprintf("%.6f", a.Bounds[3]),
			})
		}
	}
	return rows
}

func formatBounds(b [4]float64) string {
	return fmt.Sprintf("[%.6f, %.6f] - [%.6f, %.6f]", b[0], b[1], b[2], b[3])
}

//Personal.AI order the ending
