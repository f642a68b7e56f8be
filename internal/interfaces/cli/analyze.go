package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/bootstrap"
	"github.com/turtacn/SolarSite-Intelligence/internal/config"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/client"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
	"github.com/turtacn/SolarSite-Intelligence/pkg/types/site"
)

type analyzeOptions struct {
	file      string
	ownership string
	split     bool
	maxArea   float64
	splitSet  bool
}

// boundaryAnalyzer runs a boundary file through either the local pipeline
// or a remote API server.
type boundaryAnalyzer interface {
	AnalyzeBoundary(ctx context.Context, filename string, data []byte, opts analyzeOptions) (*site.BatchResponse, error)
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score every polygon of a KML or GeoJSON boundary file",
		Long: "Parse a boundary file, gather the raw parameters of each polygon and print\n" +
			"its suitability score, decision and improvement suggestions.",
		Example: `  solarsite analyze --file plant.kml
  solarsite analyze --file parcels.geojson --ownership private --split --max-area 0.00005 -o table
  solarsite analyze --file plant.kml --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.splitSet = cmd.Flags().Changed("split")
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "boundary file (.kml or .geojson)")
	cmd.Flags().StringVar(&opts.ownership, "ownership", "", "land ownership (government, barren, private)")
	cmd.Flags().BoolVar(&opts.split, "split", false, "split large polygons into sub-areas")
	cmd.Flags().Float64Var(&opts.maxArea, "max-area", 0, "maximum sub-area size in squared degrees (0 uses the configured value)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if err := partition.ValidateMaxArea(opts.maxArea); err != nil {
		return err
	}
	if opts.ownership != "" {
		if _, err := suitability.ParseLandOwnership(opts.ownership); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return errors.InvalidParam(fmt.Sprintf("cannot read %s", opts.file)).WithCause(err)
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	runner, err := newBoundaryAnalyzer(ctx, cliCtx)
	if err != nil {
		return err
	}

	cliCtx.Logger.Debug("analyzing boundary file",
		logging.String("file", opts.file),
		logging.Bool("remote", cliCtx.Remote()))

	resp, err := runner.AnalyzeBoundary(ctx, opts.file, data, *opts)
	if err != nil {
		return err
	}
	if err := PrintResult(cmd, analyzeReport{resp}); err != nil {
		return err
	}
	if resp.Summary.Count == 0 && resp.Summary.Failed > 0 {
		return errors.New(errors.ErrCodeAnalysisServiceFailed,
			fmt.Sprintf("all %d sites failed", resp.Summary.Failed))
	}
	return nil
}

// newBoundaryAnalyzer is replaced in tests.
var newBoundaryAnalyzer = func(ctx context.Context, cliCtx *CLIContext) (boundaryAnalyzer, error) {
	if cliCtx.Remote() {
		return &remoteAnalyzer{client: cliCtx.Client}, nil
	}
	p, err := bootstrap.NewPipeline(ctx, cliCtx.Config, nil, nil, cliCtx.Logger)
	if err != nil {
		return nil, err
	}
	return &localAnalyzer{pipeline: p, cfg: cliCtx.Config}, nil
}

type remoteAnalyzer struct {
	client *client.Client
}

func (r *remoteAnalyzer) AnalyzeBoundary(ctx context.Context, filename string, data []byte, opts analyzeOptions) (*site.BatchResponse, error) {
	up := client.UploadOptions{
		LandOwnership: site.LandOwnership(strings.ToLower(opts.ownership)),
		MaxArea:       opts.maxArea,
	}
	if opts.splitSet {
		split := opts.split
		up.SplitLargeAreas = &split
	}
	return r.client.Analyses().UploadBoundary(ctx, filename, data, up)
}

// localAnalyzer runs the orchestrator in-process without any result
// backends.
type localAnalyzer struct {
	pipeline *bootstrap.Pipeline
	cfg      *config.Config
}

func (l *localAnalyzer) options(opts analyzeOptions) (analysis.Options, error) {
	out := analysis.Options{
		LandOwnership:   l.cfg.LandOwnership(),
		SplitLargeAreas: l.cfg.Analysis.SplitLargeAreas,
		MaxArea:         opts.maxArea,
	}
	if opts.ownership != "" {
		o, err := suitability.ParseLandOwnership(opts.ownership)
		if err != nil {
			return out, err
		}
		out.LandOwnership = o
	}
	if opts.splitSet {
		out.SplitLargeAreas = opts.split
	}
	return out, nil
}

func (l *localAnalyzer) AnalyzeBoundary(ctx context.Context, filename string, data []byte, opts analyzeOptions) (*site.BatchResponse, error) {
	aopts, err := l.options(opts)
	if err != nil {
		return nil, err
	}
	sites, err := l.pipeline.Parser.Parse(filename, data)
	if err != nil {
		return nil, err
	}

	sess, items := l.pipeline.Orchestrator.AnalyzeBatch(ctx, analysis.NewSession(aopts), sites)

	resp := &site.BatchResponse{
		SessionID: sess.ID,
		Results:   make([]site.BatchResult, len(items)),
	}
	for i, it := range items {
		if it.Err != nil {
			resp.Results[i].Failure = &site.BatchError{
				Error: it.Err.Error(),
				Code:  string(errors.GetCode(it.Err)),
				Name:  it.Site.Name,
			}
			continue
		}
		var res site.AnalysisResult
		if err := recode(it.Result, &res); err != nil {
			return nil, err
		}
		resp.Results[i].Result = &res
	}
	if err := recode(sess.Summary(), &resp.Summary); err != nil {
		return nil, err
	}
	return resp, nil
}

// recode converts between the domain types and their public JSON mirror.
func recode(src, dst interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode result")
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode result")
	}
	return nil
}

type analyzeReport struct {
	*site.BatchResponse
}

func (r analyzeReport) MarshalJSON() ([]byte, error) { return json.Marshal(r.BatchResponse) }

func (r analyzeReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s\n", r.SessionID)
	for _, br := range r.Results {
		if br.Failure != nil {
			fmt.Fprintf(&sb, "\n%s: FAILED [%s] %s\n", displayName(br.Failure.Name), br.Failure.Code, br.Failure.Error)
			continue
		}
		res := br.Result
		fmt.Fprintf(&sb, "\n%s: score %.2f  decision %s  area %.2f ha\n",
			displayName(res.Name), res.FinalScore, res.Decision, res.AreaHectares)
		if len(res.SubAreas) > 0 {
			fmt.Fprintf(&sb, "  sub-areas: %d\n", len(res.SubAreas))
		}
		for _, s := range res.Suggestions {
			fmt.Fprintf(&sb, "  - %s\n", s)
		}
	}
	s := r.Summary
	fmt.Fprintf(&sb, "\nAnalyzed %d, failed %d", s.Count, s.Failed)
	if s.Count > 0 {
		fmt.Fprintf(&sb, "; score min %.2f max %.2f mean %.2f", s.MinScore, s.MaxScore, s.MeanScore)
	}
	sb.WriteString("\n")
	if r.ArchiveKey != "" {
		fmt.Fprintf(&sb, "Upload archived as %s\n", r.ArchiveKey)
	}
	return sb.String()
}

func (r analyzeReport) TableHeaders() []string {
	return []string{"NAME", "SCORE", "DECISION", "AREA_HA", "SUB_AREAS", "ERROR"}
}

func (r analyzeReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, br := range r.Results {
		if br.Failure != nil {
			rows = append(rows, []string{displayName(br.Failure.Name), "-", "-", "-", "-", br.Failure.Error})
			continue
		}
		res := br.Result
		rows = append(rows, []string{
			displayName(res.Name),
			fmt.Sprintf("%.2f", res.FinalScore),
			string(res.Decision),
			fmt.Sprintf("%.2f", res.AreaHectares),
			fmt.Sprintf("%d", len(res.SubAreas)),
			"",
		})
	}
	return rows
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

//Personal.AI order the ending
