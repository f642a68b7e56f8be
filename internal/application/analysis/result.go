package analysis

import (
	"fmt"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// AreaAnalysisResult is the immutable outcome of analyzing one site. The
// score is computed once for the whole polygon; SubAreas only split it for
// display and share that score.
type AreaAnalysisResult struct {
	ID            string                        `json:"id"`
	SessionID     string                        `json:"sessionId"`
	Name          string                        `json:"name"`
	Polygon       geometry.Polygon              `json:"polygon"`
	AreaHectares  float64                       `json:"areaHectares"`
	RawData       suitability.RawParameterData  `json:"rawData"`
	FinalScore    float64                       `json:"finalScore"`
	Decision      suitability.Decision          `json:"decision"`
	Suggestions   []string                      `json:"suggestions"`
	Parameters    []suitability.ScoredParameter `json:"parameters"`
	SubAreas      []geometry.Polygon            `json:"subAreas"`
	LandOwnership suitability.LandOwnership     `json:"landOwnership,omitempty"`
	AnalyzedAt    time.Time                     `json:"analyzedAt"`
}

// ScoreVector returns the per-parameter scores in declaration order.
func (r *AreaAnalysisResult) ScoreVector() []float64 {
	v := make([]float64, len(r.Parameters))
	for i, p := range r.Parameters {
		v[i] = p.Score
	}
	return v
}

// Parameter returns the scored entry for key.
func (r *AreaAnalysisResult) Parameter(key suitability.ParameterKey) (suitability.ScoredParameter, bool) {
	for _, p := range r.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return suitability.ScoredParameter{}, false
}

// Stage names the step of an analysis in which a failure happened.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageFetch     Stage = "fetch"
	StageEnrich    Stage = "enrich"
	StagePartition Stage = "partition"
	StageRecord    Stage = "record"
)

// StageError reports which site failed and where. It unwraps to the
// underlying *errors.AppError so codes survive for HTTP mapping.
type StageError struct {
	Site  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("analysis of %q failed at %s: %v", e.Site, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage carried by err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

func stageError(site string, stage Stage, err error, code errors.ErrorCode, msg string) error {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		err = errors.Wrap(err, code, msg)
	}
	return &StageError{Site: site, Stage: stage, Err: err}
}

// SiteFailure is the record of a site that could not be analyzed.
type SiteFailure struct {
	Name    string           `json:"name"`
	Stage   Stage            `json:"stage"`
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func failureFor(site Site, err error) SiteFailure {
	stage, _ := StageOf(err)
	return SiteFailure{
		Name:    site.Name,
		Stage:   stage,
		Code:    errors.GetCode(err),
		Message: err.Error(),
	}
}

//Personal.AI order the ending
