package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/pds-gateway/db"
	"github.com/omni/pds-gateway/entity"
)

var reportColumns = []string{
	"id", "user_ip", "reporter_address", "validator_address", "request_id", "data_source_id", "external_id",
	"cached_data", "verify_response_code", "verify_is_delay", "verify_error_type", "verify_error_msg",
	"provider_response_code", "provider_error_msg", "created_at",
}

type reportsRepo basePostgresRepo

func NewReportsRepo(table string, db *db.DB) entity.ReportsRepo {
	return (*reportsRepo)(newBasePostgresRepo(table, db))
}

func (r *reportsRepo) Insert(ctx context.Context, report *entity.Report) error {
	q, args, err := insertReportQuery(r.table, report)
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert report: %w", err)
	}
	return nil
}

func (r *reportsRepo) FindLatest(ctx context.Context) (*entity.Report, error) {
	return r.findLatest(ctx, false)
}

func (r *reportsRepo) FindLatestFailed(ctx context.Context) (*entity.Report, error) {
	return r.findLatest(ctx, true)
}

func (r *reportsRepo) findLatest(ctx context.Context, failedOnly bool) (*entity.Report, error) {
	q, args, err := latestReportQuery(r.table, failedOnly)
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	report := new(entity.Report)
	err = r.db.GetContext(ctx, report, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get latest report: %w", err)
	}
	return report, nil
}

func (r *reportsRepo) DeleteOlderThan(ctx context.Context, ts time.Time) (int64, error) {
	q, args, err := sq.Delete(r.table).
		Where(sq.Lt{"created_at": ts}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("can't delete old reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("can't get deleted reports count: %w", err)
	}
	return n, nil
}

func insertReportQuery(table string, report *entity.Report) (string, []interface{}, error) {
	return sq.Insert(table).
		Columns(reportColumns...).
		Values(
			report.ID, report.UserIP, report.ReporterAddress, report.ValidatorAddress,
			report.RequestID, report.DataSourceID, report.ExternalID, report.CachedData,
			report.VerifyResponseCode, report.VerifyIsDelay, report.VerifyErrorType, report.VerifyErrorMsg,
			report.ProviderResponseCode, report.ProviderErrorMsg, report.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func latestReportQuery(table string, failedOnly bool) (string, []interface{}, error) {
	b := sq.Select(reportColumns...).From(table)
	if failedOnly {
		b = b.Where(sq.Or{
			sq.NotEq{"verify_response_code": 200},
			sq.Expr("provider_response_code IS DISTINCT FROM ?", 200),
		})
	}
	return b.OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
