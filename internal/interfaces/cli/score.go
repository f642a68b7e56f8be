package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

type scoreOptions struct {
	raw       string
	ownership string
	profile   string
}

// NewScoreCmd creates the score command, which aggregates a raw parameter
// record offline without contacting any service.
func NewScoreCmd() *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a raw parameter record offline",
		Long: "Read a JSON object of raw parameter values (as returned by the analysis\n" +
			"service, null for missing values) and print the weighted score breakdown.\n" +
			"Use --raw - to read from stdin.",
		Example: `  solarsite score --raw site.json
  echo '{"ghi":5.8,"slope":2}' | solarsite score --raw - --ownership private -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.raw, "raw", "r", "", "raw parameter JSON file, or - for stdin")
	cmd.Flags().StringVar(&opts.ownership, "ownership", "", "land ownership (government, barren, private)")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "scoring profile YAML (default: analysis.profile_path)")
	_ = cmd.MarkFlagRequired("raw")

	return cmd
}

func runScore(cmd *cobra.Command, opts *scoreOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, opts.raw)
	if err != nil {
		return err
	}
	var raw suitability.RawParameterData
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New(errors.ErrCodeAnalysisInvalidRaw, "raw parameter record is not a JSON object").WithCause(err)
	}

	ownership := cliCtx.Config.LandOwnership()
	if opts.ownership != "" {
		if ownership, err = suitability.ParseLandOwnership(opts.ownership); err != nil {
			return err
		}
	}

	profilePath := cliCtx.Config.Analysis.ProfilePath
	if opts.profile != "" {
		profilePath = opts.profile
	}
	scorer, profile, err := suitability.LoadProfile(profilePath)
	if err != nil {
		return err
	}

	assessment := suitability.NewAggregator(scorer).Aggregate(raw, ownership)
	return PrintResult(cmd, scoreReport{Assessment: assessment, Profile: profile, Ownership: ownership})
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.InvalidParam("cannot read stdin").WithCause(err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidParam(fmt.Sprintf("cannot read %s", path)).WithCause(err)
	}
	return data, nil
}

type scoreReport struct {
	suitability.Assessment
	Profile   string                    `json:"profile"`
	Ownership suitability.LandOwnership `json:"landOwnership,omitempty"`
}

func (r scoreReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score %.2f  decision %s  (profile %s)\n",
		suitability.RoundScore(r.FinalScore), r.Decision, r.Profile)
	for _, p := range r.Parameters {
		fmt.Fprintf(&sb, "  %-28s %-10s score %5.2f  weighted %.3f\n",
			p.Name, rawValue(p.RawValue), p.Score, p.WeightedScore)
	}
	if len(r.Suggestions) > 0 {
		sb.WriteString("Suggestions:\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&sb, "  - %s\n", s)
		}
	}
	return sb.String()
}

func (r scoreReport) TableHeaders() []string {
	return []string{"KEY", "RAW", "SCORE", "WEIGHT", "WEIGHTED"}
}

func (r scoreReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Parameters)+1)
	for _, p := range r.Parameters {
		rows = append(rows, []string{
			string(p.Key),
			rawValue(p.RawValue),
			fmt.Sprintf("%.2f", p.Score),
			fmt.Sprintf("%.2f", p.Weight),
			fmt.Sprintf("%.3f", p.WeightedScore),
		})
	}
	rows = append(rows, []string{"TOTAL", "", fmt.Sprintf("%.2f", r.FinalScore), "", string(r.Decision)})
	return rows
}

func rawValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%g", *v)
}

//Personal.AI order the ending
