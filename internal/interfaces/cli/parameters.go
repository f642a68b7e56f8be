package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/pkg/types/site"
)

// NewParametersCmd lists the active parameter table, from the configured
// profile or from the server with --server.
func NewParametersCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parameters",
		Aliases: []string{"params"},
		Short:   "List scoring parameters with weights and thresholds",
		Args:    cobra.NoArgs,
		RunE:    runParameters,
	}
}

func runParameters(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	if cliCtx.Remote() {
		ctx, cancel := commandContext(cmd, cliCtx)
		defer cancel()
		resp, err := cliCtx.Client.Analyses().Parameters(ctx)
		if err != nil {
			return err
		}
		return PrintResult(cmd, parametersReport{resp})
	}

	scorer, _, err := suitability.LoadProfile(cliCtx.Config.Analysis.ProfilePath)
	if err != nil {
		return err
	}
	params := scorer.Parameters()
	resp := &site.ParametersResponse{TotalWeight: params.TotalWeight()}
	if err := recode(params.Specs(), &resp.Parameters); err != nil {
		return err
	}
	return PrintResult(cmd, parametersReport{resp})
}

type parametersReport struct {
	*site.ParametersResponse
}

func (r parametersReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ParametersResponse)
}

func (r parametersReport) String() string {
	var sb strings.Builder
	for _, p := range r.Parameters {
		fmt.Fprintf(&sb, "%-18s %-28s weight %.2f  %s\n", p.Key, p.Name, p.Weight, thresholdText(p))
	}
	fmt.Fprintf(&sb, "Total weight %.2f\n", r.TotalWeight)
	return sb.String()
}

func (r parametersReport) TableHeaders() []string {
	return []string{"KEY", "NAME", "WEIGHT", "UNIT", "BEST", "WORST"}
}

func (r parametersReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		best, worst := "-", "-"
		if p.Thresholds != nil {
			best = fmt.Sprintf("%g", p.Thresholds.Best)
			worst = fmt.Sprintf("%g", p.Thresholds.Worst)
		}
		rows = append(rows, []string{p.Key, p.Name, fmt.Sprintf("%.2f", p.Weight), p.Unit, best, worst})
	}
	return rows
}

func thresholdText(p site.ParameterSpec) string {
	if p.Thresholds == nil {
		return "categorical"
	}
	dir := "lower is better"
	if p.HigherIsBetter {
		dir = "higher is better"
	}
	return fmt.Sprintf("best %g worst %g %s (%s)", p.Thresholds.Best, p.Thresholds.Worst, p.Unit, dir)
}

//Personal.AI order the ending
