package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Neighbour counts for the similar-sites endpoint.
const (
	DefaultSimilarK = 5
	MaxSimilarK     = 50
)

// HistoryHandler serves recorded analyses. Each backend is optional; a
// missing one answers 501.
type HistoryHandler struct {
	history analysis.HistoryStore
	similar analysis.SimilarityIndex
	reports analysis.ReportStore
	logger  logging.Logger
}

func NewHistoryHandler(history analysis.HistoryStore, similar analysis.SimilarityIndex, reports analysis.ReportStore, logger logging.Logger) *HistoryHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HistoryHandler{history: history, similar: similar, reports: reports, logger: logger.Named("http.history")}
}

// SearchResponse lists matching analyses.
type SearchResponse struct {
	Items  []*analysis.AreaAnalysisResult `json:"items"`
	Count  int                            `json:"count"`
	Limit  int                            `json:"limit"`
	Offset int                            `json:"offset"`
}

// SimilarResponse lists the nearest neighbours of one analysis.
type SimilarResponse struct {
	AnalysisID string                 `json:"analysisId"`
	Similar    []analysis.SimilarSite `json:"similar"`
}

// ReportResponse carries a presigned download link.
type ReportResponse struct {
	AnalysisID string `json:"analysisId"`
	URL        string `json:"url"`
}

func disabled(feature string) error {
	return errors.New(errors.ErrCodeFeatureDisabled, feature+" is not configured")
}

// Get handles GET /api/v1/analyses/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeAppError(w, h.logger, disabled("analysis history"))
		return
	}
	res, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/v1/analyses.
func (h *HistoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeAppError(w, h.logger, disabled("analysis history"))
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	filter, err = filter.Normalize()
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	items, err := h.history.Search(r.Context(), filter)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []*analysis.AreaAnalysisResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Items: items, Count: len(items), Limit: filter.Limit, Offset: filter.Offset})
}

func parseFilter(r *http.Request) (analysis.HistoryFilter, error) {
	q := r.URL.Query()
	f := analysis.HistoryFilter{
		Decision:  suitability.Decision(q.Get("decision")),
		SessionID: q.Get("sessionId"),
	}
	var err error
	if f.MinScore, err = queryFloat(r, "minScore"); err != nil {
		return f, err
	}
	if f.MaxScore, err = queryFloat(r, "maxScore"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

// Similar handles GET /api/v1/analyses/{id}/similar. The analysis itself is
// dropped from its own neighbour list.
func (h *HistoryHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.history == nil || h.similar == nil {
		writeAppError(w, h.logger, disabled("similar-site search"))
		return
	}
	k, err := queryInt(r, "k", DefaultSimilarK)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if k <= 0 || k > MaxSimilarK {
		writeAppError(w, h.logger, errors.Newf(errors.ErrCodeBadRequest, "k must be between 1 and %d", MaxSimilarK))
		return
	}

	id := chi.URLParam(r, "id")
	res, err := h.history.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	hits, err := h.similar.Similar(r.Context(), res.ScoreVector(), k+1)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	out := make([]analysis.SimilarSite, 0, k)
	for _, hit := range hits {
		if hit.AnalysisID == id {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, hit)
	}
	writeJSON(w, http.StatusOK, SimilarResponse{AnalysisID: id, Similar: out})
}

// Report handles GET /api/v1/analyses/{id}/report.
func (h *HistoryHandler) Report(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeAppError(w, h.logger, disabled("report storage"))
		return
	}
	id := chi.URLParam(r, "id")
	url, err := h.reports.ReportURL(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{AnalysisID: id, URL: url})
}

//Personal.AI order the ending
