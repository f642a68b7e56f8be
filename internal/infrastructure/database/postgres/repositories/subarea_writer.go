package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

var subAreaColumns = []string{"analysis_id", "idx", "min_lon", "min_lat", "max_lon", "max_lat", "area_sq_deg", "ring"}

// SubAreaWriter bulk-loads the display sub-areas of a result with COPY. It
// must run after AnalysisRepo, whose row the sub-areas reference.
type SubAreaWriter struct {
	db  postgres.TxBeginner
	log logging.Logger
}

var _ analysis.ResultRecorder = (*SubAreaWriter)(nil)

func NewSubAreaWriter(db postgres.TxBeginner, log logging.Logger) *SubAreaWriter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SubAreaWriter{db: db, log: log.Named("sub_area_writer")}
}

func (w *SubAreaWriter) Name() string { return "postgres_sub_areas" }

// Record replaces the stored sub-areas of res in one transaction.
func (w *SubAreaWriter) Record(ctx context.Context, res *analysis.AreaAnalysisResult) error {
	rows, err := SubAreaRows(res)
	if err != nil {
		return err
	}
	return postgres.WithTransaction(ctx, w.db, func(tx pgx.Tx, ctx context.Context) error {
		if _, err := tx.Exec(ctx, `DELETE FROM site_sub_areas WHERE analysis_id = $1`, res.ID); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear sub-areas")
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"site_sub_areas"}, subAreaColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to copy sub-areas")
		}
		w.log.Debug("sub-areas written", logging.AnalysisID(res.ID), logging.Int64("rows", n))
		return nil
	})
}

// SubAreaRows flattens the sub-areas of res into COPY rows.
func SubAreaRows(res *analysis.AreaAnalysisResult) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, len(res.SubAreas))
	for i, p := range res.SubAreas {
		ring, err := json.Marshal(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode sub-area")
		}
		b := p.Bound()
		rows = append(rows, []interface{}{res.ID, i, b.Min[0], b.Min[1], b.Max[0], b.Max[1], p.Area(), ring})
	}
	return rows, nil
}

//Personal.AI order the ending
