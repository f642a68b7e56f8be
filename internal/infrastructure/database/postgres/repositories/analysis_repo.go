package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// AnalysisRepo stores every analysis result as a JSONB document next to the
// columns used for filtering.
type AnalysisRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

var (
	_ analysis.ResultRecorder = (*AnalysisRepo)(nil)
	_ analysis.HistoryStore   = (*AnalysisRepo)(nil)
)

func NewAnalysisRepo(conn *postgres.Connection, log logging.Logger) *AnalysisRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnalysisRepo{conn: conn, log: log.Named("analysis_repo")}
}

// WithTx returns a repo bound to tx.
func (r *AnalysisRepo) WithTx(tx *sql.Tx) *AnalysisRepo {
	return &AnalysisRepo{conn: r.conn, tx: tx, log: r.log}
}

func (r *AnalysisRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}

// Name implements analysis.ResultRecorder.
func (r *AnalysisRepo) Name() string { return "postgres" }

// Record implements analysis.ResultRecorder. Re-recording an id replaces the
// stored document.
func (r *AnalysisRepo) Record(ctx context.Context, res *analysis.AreaAnalysisResult) error {
	doc, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analysis")
	}
	query := `
		INSERT INTO site_analyses (
			id, session_id, name, area_hectares, final_score, decision, land_ownership, sub_area_count, document, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			final_score = EXCLUDED.final_score,
			decision = EXCLUDED.decision,
			sub_area_count = EXCLUDED.sub_area_count,
			document = EXCLUDED.document
	`
	_, err = r.executor().ExecContext(ctx, query,
		res.ID, res.SessionID, res.Name, res.AreaHectares, res.FinalScore, string(res.Decision),
		string(res.LandOwnership), len(res.SubAreas), doc, res.AnalyzedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "22P02" {
			return errors.Wrap(err, errors.ErrCodeValidation, "analysis id is not a uuid")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record analysis")
	}
	r.log.Debug("analysis recorded", logging.AnalysisID(res.ID))
	return nil
}

// Get implements analysis.HistoryStore.
func (r *AnalysisRepo) Get(ctx context.Context, id string) (*analysis.AreaAnalysisResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail("id=" + id)
	}
	row := r.executor().QueryRowContext(ctx, `SELECT document FROM site_analyses WHERE id = $1`, id)
	res, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Search implements analysis.HistoryStore. Results are newest first.
func (r *AnalysisRepo) Search(ctx context.Context, filter analysis.HistoryFilter) ([]*analysis.AreaAnalysisResult, error) {
	f, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	where, args := buildWhere(f)
	query := fmt.Sprintf("SELECT document FROM site_analyses%s ORDER BY analyzed_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to search analyses")
	}
	defer rows.Close()

	var out []*analysis.AreaAnalysisResult
	for rows.Next() {
		res, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read analyses")
	}
	return out, nil
}

// Count returns how many analyses match filter, ignoring limit and offset.
func (r *AnalysisRepo) Count(ctx context.Context, filter analysis.HistoryFilter) (int64, error) {
	f, err := filter.Normalize()
	if err != nil {
		return 0, err
	}
	where, args := buildWhere(f)
	var total int64
	if err := r.executor().QueryRowContext(ctx, "SELECT COUNT(*) FROM site_analyses"+where, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count analyses")
	}
	return total, nil
}

func buildWhere(f analysis.HistoryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Decision != "" {
		add("decision = $%d", string(f.Decision))
	}
	if f.SessionID != "" {
		add("session_id = $%d", f.SessionID)
	}
	if f.MinScore != nil {
		add("final_score >= $%d", *f.MinScore)
	}
	if f.MaxScore != nil {
		add("final_score <= $%d", *f.MaxScore)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanDocument(s scanner) (*analysis.AreaAnalysisResult, error) {
	var doc []byte
	if err := s.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan analysis")
	}
	var res analysis.AreaAnalysisResult
	if err := json.Unmarshal(doc, &res); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored analysis is corrupt")
	}
	return &res, nil
}

//Personal.AI order the ending
